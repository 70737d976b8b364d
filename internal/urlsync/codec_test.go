package urlsync

import (
	"net/url"
	"testing"

	"github.com/hitoshi/cinelist/internal/liststate"
	"github.com/hitoshi/cinelist/internal/model"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func TestEncodeParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		sel  liststate.Selection
	}{
		{"category 3 watched release date desc", liststate.Selection{
			Category: int64Ptr(3), Status: 2,
			Sort: liststate.SortOption{Key: model.SortByReleaseDate, Ascending: false},
		}},
		{"all categories unwatched title asc", liststate.Selection{
			Status: 1,
			Sort:   liststate.SortOption{Key: model.SortByTitle, Ascending: true},
		}},
		{"default", liststate.DefaultSelection()},
		{"status sort", liststate.Selection{
			Category: int64Ptr(12),
			Sort:     liststate.SortOption{Key: model.SortByStatus, Ascending: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := Encode(tt.sel).Encode()
			got := ParseQuery(raw)
			if !got.Equal(tt.sel) {
				t.Errorf("ParseQuery(%q) = %+v, want %+v", raw, got, tt.sel)
			}
		})
	}
}

func TestEncode_WritesAllDimensions(t *testing.T) {
	v := Encode(liststate.Selection{Sort: liststate.SortOption{Key: model.SortByTitle}})
	for _, key := range []string{ParamCategory, ParamStatus, ParamSortBy, ParamAsc} {
		if !v.Has(key) {
			t.Errorf("%s is missing from %q", key, v.Encode())
		}
	}
	if v.Get(ParamCategory) != "" {
		t.Errorf("category = %q, want empty for all categories", v.Get(ParamCategory))
	}
	if v.Get(ParamAsc) != "false" {
		t.Errorf("asc = %q, want false", v.Get(ParamAsc))
	}
}

func TestParse_Defaults(t *testing.T) {
	got := Parse(url.Values{})
	if got.Category == nil || *got.Category != model.ReservedCategoryID {
		t.Errorf("category = %v, want 1", got.Category)
	}
	if got.Status != 0 {
		t.Errorf("status = %d, want 0", got.Status)
	}
	if got.Sort.Key != model.SortByTitle || got.Sort.Ascending {
		t.Errorf("sort = %+v, want title descending", got.Sort)
	}
}

func TestParse_InvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		raw  string
		want liststate.Selection
	}{
		{"category=abc", liststate.DefaultSelection()},
		{"category=-4", liststate.DefaultSelection()},
		{"status=7", liststate.DefaultSelection()},
		{"status=0", liststate.DefaultSelection()},
		{"sortBy=rating", liststate.DefaultSelection()},
		{"asc=yes", liststate.DefaultSelection()},
		{"?category=&status=2", liststate.Selection{Status: 2, Sort: liststate.SortOption{Key: model.SortByTitle}}},
		{"asc=true&sortBy=release_date", liststate.Selection{
			Category: int64Ptr(1),
			Sort:     liststate.SortOption{Key: model.SortByReleaseDate, Ascending: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseQuery(tt.raw); !got.Equal(tt.want) {
				t.Errorf("ParseQuery(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}
