package liststate

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hitoshi/cinelist/internal/apiclient"
	"github.com/hitoshi/cinelist/internal/model"
)

// CategoryAPI はCategoryStoreが利用するカテゴリAPIの操作。
type CategoryAPI interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) (*model.Category, error)
}

// CategoryResult はカテゴリ保存の結果。
type CategoryResult struct {
	Category *model.Category
	Err      *apiclient.Error
	Message  string
}

// OK は操作が成功した場合にtrueを返す。
func (r CategoryResult) OK() bool {
	return r.Err == nil
}

// CategoryStore はカテゴリ一覧の唯一の所有者。
// 映画一覧とは独立して読み込みとキャッシュを行う。
type CategoryStore struct {
	api    CategoryAPI
	logger *slog.Logger
	group  singleflight.Group

	mu         sync.RWMutex
	categories []model.Category
	loaded     bool
	errMsg     string
}

// NewCategoryStore はCategoryStoreを生成する。
func NewCategoryStore(api CategoryAPI, logger *slog.Logger) *CategoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryStore{api: api, logger: logger}
}

// Load はカテゴリ一覧を返す。読み込み済みでforceがfalseの場合はキャッシュを返す。
// 同時に呼ばれた読み込みは1回のリクエストにまとめる。
func (s *CategoryStore) Load(ctx context.Context, force bool) ([]model.Category, *apiclient.Error) {
	if !force {
		s.mu.RLock()
		if s.loaded {
			out := append([]model.Category(nil), s.categories...)
			s.mu.RUnlock()
			return out, nil
		}
		s.mu.RUnlock()
	}

	v, err, _ := s.group.Do("categories", func() (any, error) {
		return s.api.ListCategories(ctx)
	})
	if err != nil {
		apiErr := apiclient.AsError(err)
		s.mu.Lock()
		s.errMsg = apiErr.Message
		s.mu.Unlock()
		s.logger.Warn("カテゴリ一覧の取得に失敗しました", slog.String("code", apiErr.Code))
		return nil, apiErr
	}

	categories, _ := v.([]model.Category)
	s.mu.Lock()
	s.categories = append([]model.Category(nil), categories...)
	s.loaded = true
	s.errMsg = ""
	s.mu.Unlock()
	return append([]model.Category(nil), categories...), nil
}

// Categories はキャッシュ済みのカテゴリ一覧を返す。
func (s *CategoryStore) Categories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Category(nil), s.categories...)
}

// Error は直近の読み込み失敗のメッセージを返す。
func (s *CategoryStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Name はキャッシュからカテゴリ名を引く。
func (s *CategoryStore) Name(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.ID != nil && *c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}

// Save はIDがなければ作成、あれば名前を変更し、成功後に一覧を読み直す。
// 名前が空の場合と共有カテゴリの場合はリクエストを送らない。
// 読み直しの失敗は保存結果には含めず、Errorで参照できる。
func (s *CategoryStore) Save(ctx context.Context, c model.Category) CategoryResult {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return categoryFailure(apiclient.ValidationError(model.ErrCodeMissingCategoryName, "Category name is required."))
	}
	if c.IsReserved() {
		return categoryFailure(&apiclient.Error{
			Kind:    apiclient.KindForbidden,
			Code:    model.ErrCodeReservedCategory,
			Message: "The default category cannot be changed.",
		})
	}

	var (
		saved *model.Category
		err   error
	)
	if c.ID == nil {
		saved, err = s.api.CreateCategory(ctx, name)
	} else {
		saved, err = s.api.UpdateCategory(ctx, *c.ID, name)
	}
	if err != nil {
		apiErr := apiclient.AsError(err)
		s.logger.Warn("カテゴリの保存に失敗しました", slog.String("code", apiErr.Code))
		return categoryFailure(apiErr)
	}

	if _, reloadErr := s.Load(ctx, true); reloadErr != nil {
		s.logger.Warn("保存後のカテゴリ一覧の再取得に失敗しました",
			slog.String("code", reloadErr.Code),
		)
	}
	return CategoryResult{Category: saved}
}

func categoryFailure(apiErr *apiclient.Error) CategoryResult {
	return CategoryResult{Err: apiErr, Message: categoryMessage(apiErr)}
}

func categoryMessage(apiErr *apiclient.Error) string {
	switch apiErr.Code {
	case model.ErrCodeMissingCategoryName:
		return "Category name is required."
	case model.ErrCodeMissingID:
		return msgIDRequired
	case model.ErrCodeReservedCategory:
		return "The default category cannot be changed."
	case model.ErrCodeNotFound:
		return "Category not found."
	case model.ErrCodeInternal:
		return "Something went wrong while saving the category."
	case model.ErrCodeUnauthorized:
		return model.SessionExpiredMessage
	}
	return apiErr.Message
}
