// Package catalog は外部映画カタログ（TMDB互換API）のクライアントを提供する。
// 検索と定番一覧（top_rated等）をページ番号単位で取得する。
package catalog

import (
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

	"golang.org/x/time/rate"

	"github.com/hitoshi/cinelist/internal/model"
	"github.com/hitoshi/cinelist/internal/security"
)

const (
	// maxPage はカタログAPIが受け付ける最大ページ番号。
	maxPage = 500
	// maxBodyBytes はレスポンスボディの読み取り上限。
	maxBodyBytes = 2 << 20
)

// LatencyObserver はカタログAPI呼び出しの所要時間を記録するインターフェース。
// metrics.Collectorが実装する。
type LatencyObserver interface {
	ObserveCatalogRequest(endpoint string, ok bool, d time.Duration)
}

// Config はカタログクライアントの設定。
type Config struct {
	BaseURL     string
	AccessToken string
	RatePerSec  float64
}

// Client は外部映画カタログのクライアント。
// 呼び出しはトークンバケットで流量制限される。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にベースURLを差し替え可能
	token      string
	limiter    *rate.Limiter
	sanitizer  security.TextSanitizer
	observer   LatencyObserver
}

// NewClient はClientの新しいインスタンスを生成する。observerはnilでもよい。
func NewClient(httpClient *http.Client, logger *slog.Logger, cfg Config, sanitizer security.TextSanitizer, observer LatencyObserver) *Client {
	burst := int(cfg.RatePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.AccessToken,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst),
		sanitizer:  sanitizer,
		observer:   observer,
	}
}

// Search はタイトル検索の結果を1ページ分返す。
func (c *Client) Search(ctx context.Context, query string, page int) (*model.CatalogPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.NewInvalidRequestError("Search query is required")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	return c.get(ctx, "search", "/search/movie", params, page)
}

// List は定番一覧を1ページ分返す。
func (c *Client) List(ctx context.Context, list model.CatalogList, page int) (*model.CatalogPage, error) {
	if !list.Valid() {
		return nil, model.NewInvalidCatalogListError(string(list))
	}
	return c.get(ctx, string(list), "/movie/"+string(list), url.Values{}, page)
}

// clampPage はページ番号を1..maxPageに収める。
func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	if page > maxPage {
		return maxPage
	}
	return page
}

func (c *Client) get(ctx context.Context, name, path string, params url.Values, page int) (*model.CatalogPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, model.NewCatalogUnavailableError("rate limit wait cancelled")
	}

	params.Set("page", strconv.Itoa(clampPage(page)))
	reqURL := c.endpoint + path + "?" + params.Encode()

	start := time.Now()
	result, err := c.do(ctx, reqURL)
	if c.observer != nil {
		c.observer.ObserveCatalogRequest(name, err == nil, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("カタログAPIの呼び出しに失敗しました",
			slog.String("endpoint", name),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCatalogUnavailableError(err.Error())
	}

	for i := range result.Results {
		r := &result.Results[i]
		r.Title = c.sanitizer.SanitizeText(r.Title)
		r.Overview = c.sanitizer.SanitizeText(r.Overview)
		if r.GenreIDs == nil {
			r.GenreIDs = []int64{}
		}
	}
	if result.Results == nil {
		result.Results = []model.CatalogMovie{}
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, reqURL string) (*model.CatalogPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result model.CatalogPage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}
