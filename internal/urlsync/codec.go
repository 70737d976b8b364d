// Package urlsync は一覧の選択条件とクエリ文字列を相互に変換し、
// ナビゲーション履歴の変化を一覧の再取得に結び付ける。
package urlsync

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/cinelist/internal/liststate"
	"github.com/hitoshi/cinelist/internal/model"
)

// クエリパラメータ名。
const (
	ParamCategory = "category"
	ParamStatus   = "status"
	ParamSortBy   = "sortBy"
	ParamAsc      = "asc"
)

// Encode は4つの条件をすべてクエリパラメータに書き出す。
// 全カテゴリは空文字列で表す。
func Encode(sel liststate.Selection) url.Values {
	v := url.Values{}
	if sel.Category != nil {
		v.Set(ParamCategory, strconv.FormatInt(*sel.Category, 10))
	} else {
		v.Set(ParamCategory, "")
	}
	v.Set(ParamStatus, strconv.Itoa(sel.Status))
	sortBy := sel.Sort.Key
	if !sortBy.Valid() {
		sortBy = model.SortByTitle
	}
	v.Set(ParamSortBy, string(sortBy))
	v.Set(ParamAsc, strconv.FormatBool(sel.Sort.Ascending))
	return v
}

// Parse はクエリパラメータから条件を復元する。
// 不正な値や未指定の値は既定値（共有カテゴリ・全状態・タイトル降順）になる。
func Parse(v url.Values) liststate.Selection {
	sel := liststate.DefaultSelection()

	if v.Has(ParamCategory) {
		raw := strings.TrimSpace(v.Get(ParamCategory))
		if raw == "" {
			sel.Category = nil
		} else if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			sel.Category = &id
		}
	}

	switch v.Get(ParamStatus) {
	case "1":
		sel.Status = int(model.StatusWantToWatch)
	case "2":
		sel.Status = int(model.StatusWatched)
	}

	if key := model.SortKey(v.Get(ParamSortBy)); key.Valid() {
		sel.Sort.Key = key
	}
	sel.Sort.Ascending = v.Get(ParamAsc) == "true"
	return sel
}

// ParseQuery は生のクエリ文字列から条件を復元する。先頭の"?"は無視する。
// 解析できない部分は読み飛ばす。
func ParseQuery(raw string) liststate.Selection {
	v, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return Parse(v)
}
