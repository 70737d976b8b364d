package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/hitoshi/cinelist/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反コード。
const uniqueViolation = "23505"

// isUniqueViolation はerrが一意制約違反であればtrueを返す。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullInt64 はOptionalIntをsql.NullInt64に変換する。
func nullInt64(o model.OptionalInt) sql.NullInt64 {
	return sql.NullInt64{Int64: o.Value, Valid: o.Valid}
}

// optionalInt はsql.NullInt64をOptionalIntに変換する。
func optionalInt(n sql.NullInt64) model.OptionalInt {
	if !n.Valid {
		return model.OptionalInt{}
	}
	return model.IntOf(n.Int64)
}
