// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/cinelist/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
// サービス層でドメインエラーに変換される。
var ErrDuplicate = errors.New("repository: duplicate key")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、categories、moviesはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// MovieRepository は保存済み映画の永続化インターフェース。
type MovieRepository interface {
	// List は条件に一致する映画を範囲指定で返す。
	// 並び順は status 昇順（NULLは末尾）、指定キー、id の順。
	List(ctx context.Context, q model.MovieQuery) ([]model.Movie, error)

	// Create は映画を保存する。同一ユーザーで movie_id が重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, movie *model.Movie) error

	// Update は指定フィールドのみ更新する。対象が存在しない場合はnilを返す。
	Update(ctx context.Context, userID string, id int64, patch model.MoviePatch) (*model.Movie, error)

	// Delete は映画を削除し、削除した行を返す。該当しない場合はnil, nil。
	Delete(ctx context.Context, userID string, id int64) (*model.Movie, error)
}

// CategoryRepository はカテゴリの永続化インターフェース。
type CategoryRepository interface {
	// ListForUser はユーザー自身のカテゴリと共有カテゴリをID順で返す。
	ListForUser(ctx context.Context, userID string) ([]model.Category, error)

	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Category, error)

	// Create はカテゴリを作成し、採番されたIDを設定する。
	Create(ctx context.Context, category *model.Category) error

	// UpdateName はユーザー所有カテゴリの名前を変更する。対象が存在しない場合はnilを返す。
	UpdateName(ctx context.Context, userID string, id int64, name string) (*model.Category, error)
}
