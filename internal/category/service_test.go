package category

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/cinelist/internal/model"
	"github.com/hitoshi/cinelist/internal/security"
)

type mockCategoryRepo struct {
	listFn   func(ctx context.Context, userID string) ([]model.Category, error)
	createFn func(ctx context.Context, c *model.Category) error
	updateFn func(ctx context.Context, userID string, id int64, name string) (*model.Category, error)
}

func (m *mockCategoryRepo) ListForUser(ctx context.Context, userID string) ([]model.Category, error) {
	return m.listFn(ctx, userID)
}
func (m *mockCategoryRepo) FindByID(ctx context.Context, id int64) (*model.Category, error) {
	return nil, nil
}
func (m *mockCategoryRepo) Create(ctx context.Context, c *model.Category) error {
	return m.createFn(ctx, c)
}
func (m *mockCategoryRepo) UpdateName(ctx context.Context, userID string, id int64, name string) (*model.Category, error) {
	return m.updateFn(ctx, userID, id, name)
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	return apiErr.Code
}

func TestList_EmptyIsNotNil(t *testing.T) {
	svc := NewService(&mockCategoryRepo{
		listFn: func(ctx context.Context, userID string) ([]model.Category, error) { return nil, nil },
	}, security.NewTextSanitizer())

	got, err := svc.List(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestCreate_AssignsOwner(t *testing.T) {
	var saved model.Category
	svc := NewService(&mockCategoryRepo{
		createFn: func(ctx context.Context, c *model.Category) error {
			id := int64(5)
			c.ID = &id
			saved = *c
			return nil
		},
	}, security.NewTextSanitizer())

	got, err := svc.Create(context.Background(), "u-1", " Horror ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got.ID != 5 || saved.Name != "Horror" || saved.UserID != "u-1" {
		t.Errorf("saved = %+v", saved)
	}
}

func TestCreate_MissingName(t *testing.T) {
	svc := NewService(&mockCategoryRepo{}, security.NewTextSanitizer())

	_, err := svc.Create(context.Background(), "u-1", "   ")
	if code := codeOf(t, err); code != model.ErrCodeMissingCategoryName {
		t.Errorf("code = %q", code)
	}
}

func TestRename_Errors(t *testing.T) {
	svc := NewService(&mockCategoryRepo{
		updateFn: func(ctx context.Context, userID string, id int64, name string) (*model.Category, error) {
			return nil, nil
		},
	}, security.NewTextSanitizer())

	tests := []struct {
		name     string
		id       int64
		newName  string
		wantCode string
	}{
		{"missing id", 0, "x", model.ErrCodeMissingID},
		{"reserved", model.ReservedCategoryID, "x", model.ErrCodeReservedCategory},
		{"missing name", 4, "", model.ErrCodeMissingCategoryName},
		{"not owned", 4, "Drama", model.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Rename(context.Background(), "u-1", tt.id, tt.newName)
			if code := codeOf(t, err); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestRename_Success(t *testing.T) {
	svc := NewService(&mockCategoryRepo{
		updateFn: func(ctx context.Context, userID string, id int64, name string) (*model.Category, error) {
			return &model.Category{ID: &id, Name: name, UserID: userID}, nil
		},
	}, security.NewTextSanitizer())

	got, err := svc.Rename(context.Background(), "u-1", 4, "Drama")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Drama" {
		t.Errorf("Name = %q", got.Name)
	}
}
