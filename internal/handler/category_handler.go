package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/cinelist/internal/middleware"
	"github.com/hitoshi/cinelist/internal/model"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	List(ctx context.Context, userID string) ([]model.Category, error)
	Create(ctx context.Context, userID, name string) (*model.Category, error)
	Rename(ctx context.Context, userID string, id int64, name string) (*model.Category, error)
}

// CategoryHandler はカテゴリのHTTPハンドラー。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{service: service}
}

type categoryRequest struct {
	Name string `json:"name"`
}

// ListCategories は本人のカテゴリと共有カテゴリを返す。
// GET /api/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	categories, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, categories)
}

// CreateCategory はカテゴリを作成する。
// POST /api/categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), userID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusCreated, created)
}

// UpdateCategory はカテゴリ名を変更する。
// PATCH /api/categories/{id}
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.service.Rename(r.Context(), userID, id, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusCreated, updated)
}
