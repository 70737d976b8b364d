package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/cinelist/internal/model"
)

// PostgresMovieRepo はPostgreSQLを使用した映画リポジトリ。
type PostgresMovieRepo struct {
	db *sql.DB
}

// NewPostgresMovieRepo はPostgresMovieRepoを生成する。
func NewPostgresMovieRepo(db *sql.DB) *PostgresMovieRepo {
	return &PostgresMovieRepo{db: db}
}

const movieColumns = `id, movie_id, title, release_date, poster_path, category, status,
	overview, genre_ids, user_id, created_at, updated_at`

// sortColumns はSortKeyからORDER BY句のカラムへの許可リスト。
var sortColumns = map[model.SortKey]string{
	model.SortByTitle:       "title",
	model.SortByReleaseDate: "release_date",
	model.SortByStatus:      "status",
}

// buildListQuery は一覧取得のSQLと引数を組み立てる。
// ソートキーは許可リストで解決し、未知の値はtitleとして扱う。
func buildListQuery(q model.MovieQuery) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + movieColumns + ` FROM movies WHERE user_id = $1`)
	args := []interface{}{q.UserID}

	if q.Category != nil {
		args = append(args, *q.Category)
		fmt.Fprintf(&sb, " AND category = $%d", len(args))
	}
	if q.Status != 0 {
		args = append(args, q.Status)
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = sortColumns[model.SortByTitle]
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	fmt.Fprintf(&sb, " ORDER BY status ASC NULLS LAST, %s %s, id ASC", col, dir)

	args = append(args, q.From)
	fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	args = append(args, q.Limit())
	fmt.Fprintf(&sb, " LIMIT $%d", len(args))

	return sb.String(), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMovie(row rowScanner) (model.Movie, error) {
	var m model.Movie
	var category, status sql.NullInt64
	var posterPath sql.NullString
	err := row.Scan(
		&m.ID, &m.MovieID, &m.Title, &m.ReleaseDate, &posterPath, &category, &status,
		&m.Overview, pq.Array(&m.GenreIDs), &m.UserID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return model.Movie{}, err
	}
	m.PosterPath = nullStringValue(posterPath)
	m.Category = optionalInt(category)
	m.Status = optionalInt(status)
	if m.GenreIDs == nil {
		m.GenreIDs = []int64{}
	}
	return m, nil
}

// List は条件に一致する映画を範囲指定で返す。
func (r *PostgresMovieRepo) List(ctx context.Context, q model.MovieQuery) ([]model.Movie, error) {
	query, args := buildListQuery(q)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	movies := make([]model.Movie, 0, q.Limit())
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie row: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movie rows: %w", err)
	}
	return movies, nil
}

// Create は映画を保存する。同一ユーザーで movie_id が重複する場合はErrDuplicateを返す。
func (r *PostgresMovieRepo) Create(ctx context.Context, movie *model.Movie) error {
	genres := movie.GenreIDs
	if genres == nil {
		genres = []int64{}
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO movies (user_id, movie_id, title, release_date, poster_path, category, status, overview, genre_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		movie.UserID, movie.MovieID, movie.Title, movie.ReleaseDate, movie.PosterPath,
		nullInt64(movie.Category), nullInt64(movie.Status), movie.Overview, pq.Array(genres),
	).Scan(&movie.ID, &movie.CreatedAt, &movie.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert movie: %w", err)
	}
	return nil
}

// buildUpdateQuery は部分更新のSQLと引数を組み立てる。
// nilフィールドはSET句に含めない。
func buildUpdateQuery(userID string, id int64, patch model.MoviePatch, now time.Time) (string, []interface{}) {
	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.ReleaseDate != nil {
		set("release_date", *patch.ReleaseDate)
	}
	if patch.PosterPath != nil {
		set("poster_path", *patch.PosterPath)
	}
	if patch.Category != nil {
		set("category", nullInt64(*patch.Category))
	}
	if patch.Status != nil {
		set("status", nullInt64(*patch.Status))
	}
	if patch.Overview != nil {
		set("overview", *patch.Overview)
	}
	if patch.GenreIDs != nil {
		genres := *patch.GenreIDs
		if genres == nil {
			genres = []int64{}
		}
		set("genre_ids", pq.Array(genres))
	}
	set("updated_at", now)

	args = append(args, id, userID)
	query := fmt.Sprintf(
		`UPDATE movies SET %s WHERE id = $%d AND user_id = $%d RETURNING `+movieColumns,
		strings.Join(sets, ", "), len(args)-1, len(args),
	)
	return query, args
}

// Update は指定フィールドのみ更新する。対象が存在しない場合はnilを返す。
func (r *PostgresMovieRepo) Update(ctx context.Context, userID string, id int64, patch model.MoviePatch) (*model.Movie, error) {
	query, args := buildUpdateQuery(userID, id, patch, time.Now().UTC())
	m, err := scanMovie(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update movie: %w", err)
	}
	return &m, nil
}

// Delete は映画を削除し、削除した行を返す。該当行が無い場合はnil, nilを返す。
func (r *PostgresMovieRepo) Delete(ctx context.Context, userID string, id int64) (*model.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx,
		`DELETE FROM movies WHERE id = $1 AND user_id = $2 RETURNING `+movieColumns,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete movie: %w", err)
	}
	return &m, nil
}

// compile-time interface check
var _ MovieRepository = (*PostgresMovieRepo)(nil)
