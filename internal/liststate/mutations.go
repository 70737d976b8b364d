package liststate

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/hitoshi/cinelist/internal/apiclient"
	"github.com/hitoshi/cinelist/internal/model"
)

// Mode は保存操作の種別。
type Mode int

const (
	// ModeAdd は新規追加（全項目をPOST）。
	ModeAdd Mode = iota
	// ModeEdit は編集（変更項目のみをPATCH）。
	ModeEdit
)

// SaveResult は保存・削除操作の結果。
// 失敗時はErrとユーザー向けのMessageが設定される。
type SaveResult struct {
	Movie   *model.Movie
	Err     *apiclient.Error
	Message string
}

// OK は操作が成功した場合にtrueを返す。
func (r SaveResult) OK() bool {
	return r.Err == nil
}

const (
	msgDuplicate     = "That movie is already in your list."
	msgTitleRequired = "Title is required."
	msgIDRequired    = "ID is required."
	msgMovieNotFound = "Movie not found."
	msgSaveFailed    = "Something went wrong while saving the movie."
	msgDeleteFailed  = "Unable to delete movie at this time."
)

// SaveMovie は映画を追加または編集する。一覧の再取得は行わない。
func (e *Engine) SaveMovie(ctx context.Context, m model.Movie, mode Mode) SaveResult {
	switch mode {
	case ModeAdd:
		if strings.TrimSpace(m.Title) == "" {
			return failure(apiclient.ValidationError(model.ErrCodeMissingTitle, msgTitleRequired), msgSaveFailed)
		}
		created, err := e.api.CreateMovie(ctx, m)
		if err != nil {
			return e.saveFailure("add", err, msgSaveFailed)
		}
		return SaveResult{Movie: created}

	case ModeEdit:
		if m.ID == 0 {
			return failure(apiclient.ValidationError(model.ErrCodeMissingID, msgIDRequired), msgSaveFailed)
		}
		updated, err := e.api.UpdateMovie(ctx, m.ID, e.diff(m))
		if err != nil {
			return e.saveFailure("edit", err, msgSaveFailed)
		}
		return SaveResult{Movie: updated}
	}

	return failure(apiclient.ValidationError(model.ErrCodeInvalidRequest, "Unknown save mode."), msgSaveFailed)
}

// DeleteMovie は映画を削除する。一覧の再取得は行わない。
func (e *Engine) DeleteMovie(ctx context.Context, id int64) SaveResult {
	if id == 0 {
		return failure(apiclient.ValidationError(model.ErrCodeMissingID, msgIDRequired), msgDeleteFailed)
	}
	deleted, err := e.api.DeleteMovie(ctx, id)
	if err != nil {
		return e.saveFailure("delete", err, msgDeleteFailed)
	}
	return SaveResult{Movie: deleted}
}

// diff は読み込み済みの同一IDの映画と比較し、変更された項目のみのパッチを作る。
// カテゴリと視聴状態は常に含める。一覧にない場合は空でない項目をすべて送る。
func (e *Engine) diff(m model.Movie) model.MoviePatch {
	category := m.Category
	status := m.Status
	patch := model.MoviePatch{Category: &category, Status: &status}

	e.mu.Lock()
	idx := slices.IndexFunc(e.items, func(it model.Movie) bool { return it.ID == m.ID })
	var orig model.Movie
	if idx >= 0 {
		orig = e.items[idx]
	}
	e.mu.Unlock()

	changed := func(cur, prev string) bool {
		if idx < 0 {
			return cur != ""
		}
		return cur != prev
	}
	if changed(m.Title, orig.Title) && m.Title != "" {
		patch.Title = &m.Title
	}
	if changed(m.ReleaseDate, orig.ReleaseDate) {
		patch.ReleaseDate = &m.ReleaseDate
	}
	if changed(m.PosterPath, orig.PosterPath) {
		patch.PosterPath = &m.PosterPath
	}
	if changed(m.Overview, orig.Overview) {
		patch.Overview = &m.Overview
	}
	if (idx < 0 && m.GenreIDs != nil) || (idx >= 0 && !slices.Equal(m.GenreIDs, orig.GenreIDs)) {
		genres := append([]int64{}, m.GenreIDs...)
		patch.GenreIDs = &genres
	}
	return patch
}

func (e *Engine) saveFailure(op string, err error, fallback string) SaveResult {
	apiErr := apiclient.AsError(err)
	e.logger.Warn("映画の保存に失敗しました",
		slog.String("operation", op),
		slog.String("code", apiErr.Code),
		slog.Int("status", apiErr.Status),
	)
	return failure(apiErr, fallback)
}

func failure(apiErr *apiclient.Error, fallback string) SaveResult {
	return SaveResult{Err: apiErr, Message: movieMessage(apiErr, fallback)}
}

// movieMessage はエラーコードを画面表示用の文言に変換する。
func movieMessage(apiErr *apiclient.Error, fallback string) string {
	switch apiErr.Code {
	case model.ErrCodeDuplicateMovie:
		return msgDuplicate
	case model.ErrCodeMissingTitle:
		return msgTitleRequired
	case model.ErrCodeMissingID:
		return msgIDRequired
	case model.ErrCodeNotFound:
		return msgMovieNotFound
	case model.ErrCodeInternal:
		return fallback
	case model.ErrCodeUnauthorized:
		return model.SessionExpiredMessage
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Refresher は書き込み後に一覧を取り直す。
type Refresher interface {
	Refresh(ctx context.Context) PageResult
}

// Mutations は保存・削除の成功後に必ずRefresherを呼び出す。
type Mutations struct {
	engine    *Engine
	refresher Refresher
}

// NewMutations はMutationsを生成する。refresherがnilの場合はengine自身で再取得する。
func NewMutations(engine *Engine, refresher Refresher) *Mutations {
	if refresher == nil {
		refresher = engine
	}
	return &Mutations{engine: engine, refresher: refresher}
}

// Save は映画を保存し、成功した場合は現在の条件で一覧を取り直す。
func (m *Mutations) Save(ctx context.Context, movie model.Movie, mode Mode) SaveResult {
	res := m.engine.SaveMovie(ctx, movie, mode)
	if res.OK() {
		m.refresher.Refresh(ctx)
	}
	return res
}

// Delete は映画を削除し、成功した場合は現在の条件で一覧を取り直す。
func (m *Mutations) Delete(ctx context.Context, id int64) SaveResult {
	res := m.engine.DeleteMovie(ctx, id)
	if res.OK() {
		m.refresher.Refresh(ctx)
	}
	return res
}
