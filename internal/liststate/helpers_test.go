package liststate

import (
	"context"
	"fmt"
	"sync"

	"github.com/hitoshi/cinelist/internal/apiclient"
	"github.com/hitoshi/cinelist/internal/model"
)

type fakeMovieAPI struct {
	mu          sync.Mutex
	listCalls   []apiclient.ListParams
	createCalls []model.Movie
	updateCalls []model.MoviePatch
	deleteCalls []int64

	listFn   func(ctx context.Context, p apiclient.ListParams) ([]model.Movie, error)
	createFn func(ctx context.Context, m model.Movie) (*model.Movie, error)
	updateFn func(ctx context.Context, id int64, patch model.MoviePatch) (*model.Movie, error)
	deleteFn func(ctx context.Context, id int64) (*model.Movie, error)
}

func (f *fakeMovieAPI) ListMovies(ctx context.Context, p apiclient.ListParams) ([]model.Movie, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, p)
	fn := f.listFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, p)
	}
	return pageOf(p.From, p.To-p.From+1), nil
}

func (f *fakeMovieAPI) CreateMovie(ctx context.Context, m model.Movie) (*model.Movie, error) {
	f.mu.Lock()
	f.createCalls = append(f.createCalls, m)
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(ctx, m)
	}
	m.ID = 100
	return &m, nil
}

func (f *fakeMovieAPI) UpdateMovie(ctx context.Context, id int64, patch model.MoviePatch) (*model.Movie, error) {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, patch)
	f.mu.Unlock()
	if f.updateFn != nil {
		return f.updateFn(ctx, id, patch)
	}
	return &model.Movie{ID: id}, nil
}

func (f *fakeMovieAPI) DeleteMovie(ctx context.Context, id int64) (*model.Movie, error) {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, id)
	f.mu.Unlock()
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return &model.Movie{ID: id}, nil
}

func (f *fakeMovieAPI) lists() []apiclient.ListParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiclient.ListParams(nil), f.listCalls...)
}

func (f *fakeMovieAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls) + len(f.createCalls) + len(f.updateCalls) + len(f.deleteCalls)
}

// pageOf はオフセットfromから始まるn件の映画を返す。IDはオフセット+1。
func pageOf(from, n int) []model.Movie {
	out := make([]model.Movie, n)
	for i := range out {
		id := int64(from + i + 1)
		out[i] = model.Movie{ID: id, Title: fmt.Sprintf("Movie %d", id), PosterPath: "/p.jpg"}
	}
	return out
}

func int64Ptr(v int64) *int64 {
	return &v
}
