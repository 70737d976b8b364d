package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cinelist/internal/middleware"
	"github.com/hitoshi/cinelist/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	signUpFn         func(ctx context.Context, email, name, password string) (*model.Session, *model.User, error)
	loginFn          func(ctx context.Context, email, password string) (*model.Session, *model.User, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	getCurrentUserFn func(ctx context.Context, sessionID string) (*model.User, error)
}

func (m *mockAuthService) SignUp(ctx context.Context, email, name, password string) (*model.Session, *model.User, error) {
	return m.signUpFn(ctx, email, name, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	return m.getCurrentUserFn(ctx, sessionID)
}

type mockUserService struct {
	withdrawFn func(ctx context.Context, userID string) error
}

func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

type mockMovieService struct {
	listFn   func(ctx context.Context, q model.MovieQuery) ([]model.Movie, error)
	createFn func(ctx context.Context, userID string, m model.Movie) (*model.Movie, error)
	updateFn func(ctx context.Context, userID string, id int64, patch model.MoviePatch) (*model.Movie, error)
	deleteFn func(ctx context.Context, userID string, id int64) (*model.Movie, error)
}

func (m *mockMovieService) List(ctx context.Context, q model.MovieQuery) ([]model.Movie, error) {
	return m.listFn(ctx, q)
}

func (m *mockMovieService) Create(ctx context.Context, userID string, mv model.Movie) (*model.Movie, error) {
	return m.createFn(ctx, userID, mv)
}

func (m *mockMovieService) Update(ctx context.Context, userID string, id int64, patch model.MoviePatch) (*model.Movie, error) {
	return m.updateFn(ctx, userID, id, patch)
}

func (m *mockMovieService) Delete(ctx context.Context, userID string, id int64) (*model.Movie, error) {
	return m.deleteFn(ctx, userID, id)
}

type mockCategoryService struct {
	listFn   func(ctx context.Context, userID string) ([]model.Category, error)
	createFn func(ctx context.Context, userID, name string) (*model.Category, error)
	renameFn func(ctx context.Context, userID string, id int64, name string) (*model.Category, error)
}

func (m *mockCategoryService) List(ctx context.Context, userID string) ([]model.Category, error) {
	return m.listFn(ctx, userID)
}

func (m *mockCategoryService) Create(ctx context.Context, userID, name string) (*model.Category, error) {
	return m.createFn(ctx, userID, name)
}

func (m *mockCategoryService) Rename(ctx context.Context, userID string, id int64, name string) (*model.Category, error) {
	return m.renameFn(ctx, userID, id, name)
}

type mockCatalogService struct {
	searchFn func(ctx context.Context, query string, page int) (*model.CatalogPage, error)
	listFn   func(ctx context.Context, list model.CatalogList, page int) (*model.CatalogPage, error)
}

func (m *mockCatalogService) Search(ctx context.Context, query string, page int) (*model.CatalogPage, error) {
	return m.searchFn(ctx, query, page)
}

func (m *mockCatalogService) List(ctx context.Context, list model.CatalogList, page int) (*model.CatalogPage, error) {
	return m.listFn(ctx, list, page)
}

type mockPageSizeRecorder struct {
	sizes []int
}

func (m *mockPageSizeRecorder) RecordPageSize(n int) {
	m.sizes = append(m.sizes, n)
}

// --- ヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// envelope はレスポンスエンベロープのテスト用表現。
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Error   string          `json:"error"`
}

// decodeEnvelope はレスポンスボディをパースするヘルパー。
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

// assertErrorResponse はステータスコードとエラーコードを検証するヘルパー。
func assertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Errorf("status = %d, want %d", w.Code, status)
	}
	env := decodeEnvelope(t, w)
	if env.Success {
		t.Error("success should be false")
	}
	if env.Code != code {
		t.Errorf("code = %q, want %q", env.Code, code)
	}
}
