package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hitoshi/cinelist/internal/middleware"
	"github.com/hitoshi/cinelist/internal/model"
	"github.com/hitoshi/cinelist/internal/movie"
)

// MovieServiceInterface は映画ハンドラーが必要とするサービスインターフェース。
type MovieServiceInterface interface {
	List(ctx context.Context, q model.MovieQuery) ([]model.Movie, error)
	Create(ctx context.Context, userID string, m model.Movie) (*model.Movie, error)
	Update(ctx context.Context, userID string, id int64, patch model.MoviePatch) (*model.Movie, error)
	Delete(ctx context.Context, userID string, id int64) (*model.Movie, error)
}

// PageSizeRecorder は一覧で返した件数を記録する。
type PageSizeRecorder interface {
	RecordPageSize(n int)
}

// MovieHandler は映画リストのHTTPハンドラー。
type MovieHandler struct {
	service  MovieServiceInterface
	recorder PageSizeRecorder
}

// NewMovieHandler はMovieHandlerを生成する。recorderはnilでもよい。
func NewMovieHandler(service MovieServiceInterface, recorder PageSizeRecorder) *MovieHandler {
	return &MovieHandler{service: service, recorder: recorder}
}

// ListMovies はユーザーの映画を範囲・絞り込み・並び順を指定して返す。
// GET /api/movies?from&to&category&sortBy&asc&status
func (h *MovieHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q, apiErr := parseMovieQuery(r.URL.Query())
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	q.UserID = userID

	movies, err := h.service.List(r.Context(), q)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if movies == nil {
		movies = []model.Movie{}
	}
	if h.recorder != nil {
		h.recorder.RecordPageSize(len(movies))
	}

	middleware.WriteSuccess(w, http.StatusOK, movies)
}

// parseMovieQuery はクエリ文字列をMovieQueryに変換する。
// from/toが省略された場合は最初の12件を対象とする。
func parseMovieQuery(v url.Values) (model.MovieQuery, *model.APIError) {
	q := model.MovieQuery{
		From:      movie.DefaultFrom,
		To:        movie.DefaultTo,
		SortBy:    movie.ParseSortKey(v.Get("sortBy")),
		Ascending: v.Get("asc") == "true",
	}

	if s := v.Get("from"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, model.NewInvalidRangeError("from must be an integer")
		}
		q.From = n
	}
	if s := v.Get("to"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, model.NewInvalidRangeError("to must be an integer")
		}
		q.To = n
	}

	// 空のカテゴリは絞り込みとして扱わない
	if s := v.Get("category"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return q, model.NewInvalidRequestError("category must be an integer")
		}
		q.Category = &n
	}

	if s := v.Get("status"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			q.Status = n
		}
	}

	return q, nil
}

// CreateMovie は映画をリストに追加する。
// POST /api/movies
func (h *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req model.Movie
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusCreated, created)
}

// UpdateMovie は映画を部分更新する。
// PATCH /api/movies/{id}
func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var patch model.MoviePatch
	if !decodeBody(w, r, &patch) {
		return
	}

	updated, err := h.service.Update(r.Context(), userID, id, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusCreated, updated)
}

// DeleteMovie は映画をリストから削除する。
// DELETE /api/movies/{id}
func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusCreated, deleted)
}
