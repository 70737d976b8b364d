package model

// CatalogMovie は外部映画カタログの検索結果1件を表す。
// IDはカタログ側のIDで、保存時にMovie.MovieIDとなる。
type CatalogMovie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
	GenreIDs    []int64 `json:"genre_ids"`
}

// ToMovie は保存用のMovieに変換する。カテゴリと状態は未設定のまま。
func (c CatalogMovie) ToMovie() Movie {
	return Movie{
		MovieID:     c.ID,
		Title:       c.Title,
		ReleaseDate: c.ReleaseDate,
		PosterPath:  c.PosterPath,
		Overview:    c.Overview,
		GenreIDs:    c.GenreIDs,
	}
}

// CatalogPage はページ番号ベースのカタログ応答を表す。
type CatalogPage struct {
	Page         int            `json:"page"`
	Results      []CatalogMovie `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// CatalogList はカタログの定番一覧の種別。
type CatalogList string

const (
	CatalogTopRated   CatalogList = "top_rated"
	CatalogNowPlaying CatalogList = "now_playing"
	CatalogPopular    CatalogList = "popular"
	CatalogUpcoming   CatalogList = "upcoming"
)

// Valid はサポート対象の一覧種別であればtrueを返す。
func (l CatalogList) Valid() bool {
	switch l {
	case CatalogTopRated, CatalogNowPlaying, CatalogPopular, CatalogUpcoming:
		return true
	}
	return false
}
