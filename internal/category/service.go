// Package category はカテゴリ管理のドメインロジックを提供する。
package category

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/cinelist/internal/model"
	"github.com/hitoshi/cinelist/internal/repository"
	"github.com/hitoshi/cinelist/internal/security"
)

// Service はカテゴリの一覧・作成・名前変更を提供する。
// 共有カテゴリ（ID=1）は誰も変更できない。
type Service struct {
	repo      repository.CategoryRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.CategoryRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List はユーザーのカテゴリと共有カテゴリを返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.Category, error) {
	categories, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

// Create はユーザー所有のカテゴリを作成する。
func (s *Service) Create(ctx context.Context, userID, name string) (*model.Category, error) {
	name = s.sanitizer.SanitizeText(name)
	if name == "" {
		return nil, model.NewMissingCategoryNameError()
	}

	c := &model.Category{Name: name, UserID: userID}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("カテゴリの作成に失敗しました: %w", err)
	}

	slog.Info("category created",
		slog.String("user_id", userID),
		slog.Int64("category_id", *c.ID),
	)
	return c, nil
}

// Rename はユーザー所有カテゴリの名前を変更する。
func (s *Service) Rename(ctx context.Context, userID string, id int64, name string) (*model.Category, error) {
	if id <= 0 {
		return nil, model.NewMissingIDError()
	}
	if id == model.ReservedCategoryID {
		return nil, model.NewReservedCategoryError()
	}
	name = s.sanitizer.SanitizeText(name)
	if name == "" {
		return nil, model.NewMissingCategoryNameError()
	}

	c, err := s.repo.UpdateName(ctx, userID, id, name)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの更新に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCategoryNotFoundError(id)
	}
	return c, nil
}
