package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cinelist/internal/model"
)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

func scanCategory(row rowScanner) (model.Category, error) {
	var c model.Category
	var id int64
	var userID sql.NullString
	if err := row.Scan(&id, &c.Name, &userID, &c.CreatedAt); err != nil {
		return model.Category{}, err
	}
	c.ID = &id
	c.UserID = nullStringValue(userID)
	return c, nil
}

// ListForUser はユーザー自身のカテゴリと共有カテゴリをID順で返す。
func (r *PostgresCategoryRepo) ListForUser(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, user_id, created_at
		 FROM categories
		 WHERE user_id = $1 OR id = $2
		 ORDER BY id ASC`,
		userID, model.ReservedCategoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category rows: %w", err)
	}
	return categories, nil
}

// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindByID(ctx context.Context, id int64) (*model.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT id, name, user_id, created_at FROM categories WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &c, nil
}

// Create はカテゴリを作成し、採番されたIDを設定する。
func (r *PostgresCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, user_id) VALUES ($1, $2) RETURNING id, created_at`,
		category.Name, nullString(category.UserID),
	).Scan(&id, &category.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	category.ID = &id
	return nil
}

// UpdateName はユーザー所有カテゴリの名前を変更する。対象が存在しない場合はnilを返す。
func (r *PostgresCategoryRepo) UpdateName(ctx context.Context, userID string, id int64, name string) (*model.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		`UPDATE categories SET name = $1
		 WHERE id = $2 AND user_id = $3
		 RETURNING id, name, user_id, created_at`,
		name, id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return &c, nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
