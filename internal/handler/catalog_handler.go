package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cinelist/internal/middleware"
	"github.com/hitoshi/cinelist/internal/model"
)

// CatalogServiceInterface は外部映画カタログへの問い合わせを抽象化する。
// catalog.Clientが実装する。
type CatalogServiceInterface interface {
	Search(ctx context.Context, query string, page int) (*model.CatalogPage, error)
	List(ctx context.Context, list model.CatalogList, page int) (*model.CatalogPage, error)
}

// CatalogHandler はカタログ検索のHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Search はタイトルでカタログを検索する。
// GET /api/catalog/search?query&page
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Search(r.Context(), r.URL.Query().Get("query"), pageParam(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, page)
}

// List は定番一覧（top_rated等）を返す。
// GET /api/catalog/lists/{slug}?page
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	list := model.CatalogList(chi.URLParam(r, "slug"))
	page, err := h.service.List(r.Context(), list, pageParam(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, page)
}

// pageParam はpageクエリを返す。不正な値は1として扱う。
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
