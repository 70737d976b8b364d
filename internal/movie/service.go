// Package movie はウォッチリストに保存された映画のドメインロジックを提供する。
package movie

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/cinelist/internal/model"
	"github.com/hitoshi/cinelist/internal/repository"
	"github.com/hitoshi/cinelist/internal/security"
)

const (
	// DefaultFrom は範囲未指定時の開始位置。
	DefaultFrom = 0
	// DefaultTo は範囲未指定時の終了位置（初期表示12件）。
	DefaultTo = 11
	// MaxLimit は1回の一覧取得で返す最大件数。
	MaxLimit = 100
)

// WriteRecorder は映画の書き込み操作を記録するインターフェース。
// metrics.Collectorが実装する。
type WriteRecorder interface {
	RecordMovieWrite(op string, ok bool)
}

// Service は映画一覧の取得と追加・更新・削除を提供する。
type Service struct {
	movieRepo    repository.MovieRepository
	categoryRepo repository.CategoryRepository
	sanitizer    security.TextSanitizer
	recorder     WriteRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderはnilでもよい。
func NewService(
	movieRepo repository.MovieRepository,
	categoryRepo repository.CategoryRepository,
	sanitizer security.TextSanitizer,
	recorder WriteRecorder,
) *Service {
	return &Service{
		movieRepo:    movieRepo,
		categoryRepo: categoryRepo,
		sanitizer:    sanitizer,
		recorder:     recorder,
	}
}

// List は条件に一致する映画を返す。
// 範囲が不正な場合はINVALID_RANGE、未知のソートキーはtitleとして扱う。
func (s *Service) List(ctx context.Context, q model.MovieQuery) ([]model.Movie, error) {
	if q.From < 0 {
		return nil, model.NewInvalidRangeError("from must be zero or greater")
	}
	if q.To < q.From {
		return nil, model.NewInvalidRangeError("to must not be less than from")
	}
	if q.To-q.From >= MaxLimit {
		return nil, model.NewInvalidRangeError(fmt.Sprintf("at most %d items per request", MaxLimit))
	}
	if !q.SortBy.Valid() {
		q.SortBy = model.SortByTitle
	}
	if q.Status != 0 && !validStatus(q.Status) {
		q.Status = 0
	}

	movies, err := s.movieRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("映画一覧の取得に失敗しました: %w", err)
	}
	return movies, nil
}

// Create は映画をユーザーのリストに追加する。
func (s *Service) Create(ctx context.Context, userID string, m model.Movie) (*model.Movie, error) {
	m.Title = s.sanitizer.SanitizeText(m.Title)
	if m.Title == "" {
		return nil, model.NewMissingTitleError()
	}
	m.Overview = s.sanitizer.SanitizeText(m.Overview)
	m.UserID = userID
	m.ID = 0

	if err := s.validateStatus(m.Status); err != nil {
		return nil, err
	}
	if err := s.validateCategory(ctx, userID, m.Category); err != nil {
		return nil, err
	}

	err := s.movieRepo.Create(ctx, &m)
	s.record("create", err == nil)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, model.NewDuplicateMovieError()
	}
	if err != nil {
		return nil, fmt.Errorf("映画の保存に失敗しました: %w", err)
	}

	slog.Info("movie added",
		slog.String("user_id", userID),
		slog.Int64("id", m.ID),
		slog.Int64("movie_id", m.MovieID),
	)
	return &m, nil
}

// Update は映画の指定フィールドを部分更新する。
func (s *Service) Update(ctx context.Context, userID string, id int64, patch model.MoviePatch) (*model.Movie, error) {
	if id <= 0 {
		return nil, model.NewMissingIDError()
	}
	if patch.IsEmpty() {
		return nil, model.NewInvalidRequestError("No fields to update")
	}
	if patch.Title != nil {
		title := s.sanitizer.SanitizeText(*patch.Title)
		if title == "" {
			return nil, model.NewMissingTitleError()
		}
		patch.Title = &title
	}
	if patch.Overview != nil {
		overview := s.sanitizer.SanitizeText(*patch.Overview)
		patch.Overview = &overview
	}
	if patch.Status != nil {
		if err := s.validateStatus(*patch.Status); err != nil {
			return nil, err
		}
	}
	if patch.Category != nil {
		if err := s.validateCategory(ctx, userID, *patch.Category); err != nil {
			return nil, err
		}
	}

	updated, err := s.movieRepo.Update(ctx, userID, id, patch)
	s.record("update", err == nil && updated != nil)
	if err != nil {
		return nil, fmt.Errorf("映画の更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewMovieNotFoundError(id)
	}
	return updated, nil
}

// Delete は映画をリストから削除し、削除した映画を返す。
func (s *Service) Delete(ctx context.Context, userID string, id int64) (*model.Movie, error) {
	if id <= 0 {
		return nil, model.NewMissingIDError()
	}

	deleted, err := s.movieRepo.Delete(ctx, userID, id)
	s.record("delete", err == nil && deleted != nil)
	if err != nil {
		return nil, fmt.Errorf("映画の削除に失敗しました: %w", err)
	}
	if deleted == nil {
		return nil, model.NewMovieNotFoundError(id)
	}

	slog.Info("movie deleted",
		slog.String("user_id", userID),
		slog.Int64("id", id),
	)
	return deleted, nil
}

func validStatus(v int64) bool {
	return v == model.StatusWantToWatch || v == model.StatusWatched
}

func (s *Service) validateStatus(status model.OptionalInt) error {
	if status.Valid && !validStatus(status.Value) {
		return model.NewInvalidRequestError("Status must be 1 or 2")
	}
	return nil
}

// validateCategory は共有カテゴリまたは本人のカテゴリであることを確認する。
func (s *Service) validateCategory(ctx context.Context, userID string, category model.OptionalInt) error {
	if !category.Valid || category.Value == model.ReservedCategoryID {
		return nil
	}
	c, err := s.categoryRepo.FindByID(ctx, category.Value)
	if err != nil {
		return fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if c == nil || (c.UserID != "" && c.UserID != userID) {
		return model.NewCategoryNotFoundError(category.Value)
	}
	return nil
}

func (s *Service) record(op string, ok bool) {
	if s.recorder != nil {
		s.recorder.RecordMovieWrite(op, ok)
	}
}

// ParseSortKey はクエリ値をSortKeyに変換する。未知の値はtitle。
func ParseSortKey(v string) model.SortKey {
	k := model.SortKey(strings.TrimSpace(v))
	if !k.Valid() {
		return model.SortByTitle
	}
	return k
}
