package model

import "time"

// Category はユーザーが作成する映画の分類を表す。
// IDは永続化前のみnil。
type Category struct {
	ID        *int64    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"-"`
}

// IsReserved は共有デフォルトカテゴリであればtrueを返す。
func (c Category) IsReserved() bool {
	return c.ID != nil && *c.ID == ReservedCategoryID
}
