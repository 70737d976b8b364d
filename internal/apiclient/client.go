// Package apiclient はcinelist REST APIのクライアントを提供する。
// すべての失敗は*Errorに正規化して返す。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/cinelist/internal/model"
)

// maxResponseSize はレスポンスボディの読み取り上限。
const maxResponseSize = 4 << 20

// Client はcinelist APIのHTTPクライアント。
type Client struct {
	httpClient *http.Client
	baseURL    string
	session    *Session
	logger     *slog.Logger
}

// NewClient はClientを生成する。sessionがnilの場合は未ログイン状態で開始する。
func NewClient(httpClient *http.Client, baseURL string, session *Session, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if session == nil {
		session = NewSession("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    session,
		logger:     logger,
	}
}

// Session はトークンを保持するSessionを返す。
func (c *Client) Session() *Session {
	return c.session
}

// ListParams は映画一覧取得の条件。
type ListParams struct {
	From      int
	To        int
	Category  *int64 // nilは絞り込みなし
	Status    int    // 0は絞り込みなし
	SortBy    model.SortKey
	Ascending bool
}

// Values はクエリパラメータに変換する。未設定のカテゴリと状態は送らない。
func (p ListParams) Values() url.Values {
	v := url.Values{}
	v.Set("from", strconv.Itoa(p.From))
	v.Set("to", strconv.Itoa(p.To))
	if p.Category != nil {
		v.Set("category", strconv.FormatInt(*p.Category, 10))
	}
	if p.Status != 0 {
		v.Set("status", strconv.Itoa(p.Status))
	}
	sortBy := p.SortBy
	if !sortBy.Valid() {
		sortBy = model.SortByTitle
	}
	v.Set("sortBy", string(sortBy))
	v.Set("asc", strconv.FormatBool(p.Ascending))
	return v
}

// AuthUser はログインユーザーの公開情報。
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthResult はサインアップ・ログインの結果。
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      AuthUser  `json:"user"`
}

// ListMovies は条件に一致する映画を取得する。
func (c *Client) ListMovies(ctx context.Context, p ListParams) ([]model.Movie, error) {
	var movies []model.Movie
	if err := c.do(ctx, http.MethodGet, "/api/movies", p.Values(), nil, &movies); err != nil {
		return nil, err
	}
	if movies == nil {
		movies = []model.Movie{}
	}
	return movies, nil
}

// CreateMovie は映画を追加する。
func (c *Client) CreateMovie(ctx context.Context, m model.Movie) (*model.Movie, error) {
	m.ID = 0
	var created model.Movie
	if err := c.do(ctx, http.MethodPost, "/api/movies", nil, m, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateMovie は映画を部分更新する。ボディには識別子と変更フィールドのみを含める。
func (c *Client) UpdateMovie(ctx context.Context, id int64, patch model.MoviePatch) (*model.Movie, error) {
	body := struct {
		ID int64 `json:"id"`
		model.MoviePatch
	}{ID: id, MoviePatch: patch}

	var updated model.Movie
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/movies/%d", id), nil, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMovie は映画を削除し、削除された映画を返す。
func (c *Client) DeleteMovie(ctx context.Context, id int64) (*model.Movie, error) {
	var deleted model.Movie
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/movies/%d", id), nil, nil, &deleted); err != nil {
		return nil, err
	}
	return &deleted, nil
}

// ListCategories は本人のカテゴリと共有カテゴリを取得する。
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory はカテゴリを作成する。
func (c *Client) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	var created model.Category
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/api/categories", nil, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateCategory はカテゴリ名を変更する。
func (c *Client) UpdateCategory(ctx context.Context, id int64, name string) (*model.Category, error) {
	var updated model.Category
	body := map[string]any{"id": id, "name": name}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/categories/%d", id), nil, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SearchCatalog は外部カタログをタイトルで検索する。
func (c *Client) SearchCatalog(ctx context.Context, query string, page int) (*model.CatalogPage, error) {
	v := url.Values{}
	v.Set("query", query)
	v.Set("page", strconv.Itoa(page))

	var out model.CatalogPage
	if err := c.do(ctx, http.MethodGet, "/api/catalog/search", v, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCatalog は外部カタログの定番一覧を取得する。
func (c *Client) ListCatalog(ctx context.Context, list model.CatalogList, page int) (*model.CatalogPage, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))

	var out model.CatalogPage
	if err := c.do(ctx, http.MethodGet, "/api/catalog/lists/"+url.PathEscape(string(list)), v, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignUp はアカウントを作成し、発行されたトークンをSessionに保存する。
func (c *Client) SignUp(ctx context.Context, email, name, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "name": name, "password": password}
	return c.authenticate(ctx, "/auth/signup", body)
}

// Login はログインし、発行されたトークンをSessionに保存する。
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/auth/login", body)
}

// Logout はサーバー側のセッションを破棄し、ローカルのトークンも消去する。
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	c.session.SetToken("")
	return err
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*AuthResult, error) {
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, path, nil, body, &res); err != nil {
		return nil, err
	}
	c.session.SetToken(res.Token)
	return &res, nil
}

// envelope はAPIレスポンスの共通形式。
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Error   string          `json:"error"`
}

// do はリクエストを送信し、成功時はdataをoutにデコードする。
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return ValidationError(model.ErrCodeInvalidRequest, "Request could not be encoded.")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return networkError(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if !IsCanceled(err) {
			c.logger.Warn("api request failed",
				slog.String("method", method),
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
		return networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return networkError(fmt.Errorf("failed to read response: %w", err))
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Expire()
		return fromResponse(resp.StatusCode, "", "")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fromResponse(resp.StatusCode, env.Code, env.Error)
	}
	if decodeErr != nil {
		return networkError(fmt.Errorf("failed to decode response: %w", decodeErr))
	}
	if !env.Success {
		return fromResponse(http.StatusInternalServerError, env.Code, env.Error)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return networkError(fmt.Errorf("failed to decode response data: %w", err))
		}
	}
	return nil
}
