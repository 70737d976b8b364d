// Package model はドメインモデルを定義する。
package model

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// MovieStatus は視聴状態を表す。
const (
	// StatusWantToWatch は「観たい」状態。
	StatusWantToWatch int64 = 1
	// StatusWatched は「視聴済み」状態。
	StatusWatched int64 = 2
)

// ReservedCategoryID は全ユーザーに共有されるデフォルトカテゴリのID。
const ReservedCategoryID int64 = 1

// OptionalInt は整数または未設定（空文字列センチネル）を表す。
// JSONでは設定時は数値、未設定時は "" として表現される。
type OptionalInt struct {
	Value int64
	Valid bool
}

// IntOf は設定済みのOptionalIntを返す。
func IntOf(v int64) OptionalInt {
	return OptionalInt{Value: v, Valid: true}
}

// Ptr は設定済みの場合は値へのポインタ、未設定の場合はnilを返す。
func (o OptionalInt) Ptr() *int64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// MarshalJSON はjson.Marshalerを実装する。
func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte(`""`), nil
	}
	return strconv.AppendInt(nil, o.Value, 10), nil
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
// 数値、数値文字列、""、null を受け付ける。
func (o *OptionalInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*o = OptionalInt{}
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid optional int %s: %w", s, err)
		}
		s = unquoted
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid optional int %s: %w", string(b), err)
	}
	*o = IntOf(v)
	return nil
}

// Movie はユーザーのリストに保存された映画を表す。
// IDはローカルDBの採番、MovieIDは外部カタログのID。
type Movie struct {
	ID          int64       `json:"id,omitempty"`
	MovieID     int64       `json:"movie_id"`
	Title       string      `json:"title"`
	ReleaseDate string      `json:"release_date"`
	PosterPath  string      `json:"poster_path"`
	Category    OptionalInt `json:"category"`
	Status      OptionalInt `json:"status"`
	Overview    string      `json:"overview"`
	GenreIDs    []int64     `json:"genre_ids"`
	UserID      string      `json:"user_id,omitempty"`
	CreatedAt   time.Time   `json:"-"`
	UpdatedAt   time.Time   `json:"-"`
}

// MoviePatch は映画の部分更新内容を表す。
// nilフィールドは変更しない。
type MoviePatch struct {
	Title       *string      `json:"title,omitempty"`
	ReleaseDate *string      `json:"release_date,omitempty"`
	PosterPath  *string      `json:"poster_path,omitempty"`
	Category    *OptionalInt `json:"category,omitempty"`
	Status      *OptionalInt `json:"status,omitempty"`
	Overview    *string      `json:"overview,omitempty"`
	GenreIDs    *[]int64     `json:"genre_ids,omitempty"`
}

// IsEmpty は更新対象のフィールドが1つもない場合にtrueを返す。
func (p MoviePatch) IsEmpty() bool {
	return p.Title == nil && p.ReleaseDate == nil && p.PosterPath == nil &&
		p.Category == nil && p.Status == nil && p.Overview == nil && p.GenreIDs == nil
}

// SortKey は映画一覧の並び替えキー。
type SortKey string

const (
	// SortByTitle はタイトル順。
	SortByTitle SortKey = "title"
	// SortByReleaseDate は公開日順。
	SortByReleaseDate SortKey = "release_date"
	// SortByStatus は視聴状態順。
	SortByStatus SortKey = "status"
)

// Valid はサポート対象のソートキーであればtrueを返す。
func (k SortKey) Valid() bool {
	switch k {
	case SortByTitle, SortByReleaseDate, SortByStatus:
		return true
	}
	return false
}

// MovieQuery は映画一覧取得の条件を表す。
// From/Toは0始まりの閉区間。
type MovieQuery struct {
	UserID    string
	From      int
	To        int
	Category  *int64 // nilは絞り込みなし
	Status    int64  // 0は絞り込みなし
	SortBy    SortKey
	Ascending bool
}

// Limit は取得件数を返す。
func (q MovieQuery) Limit() int {
	return q.To - q.From + 1
}
