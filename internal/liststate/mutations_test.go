package liststate

import (
	"context"
	"testing"

	"github.com/hitoshi/cinelist/internal/apiclient"
	"github.com/hitoshi/cinelist/internal/model"
)

type mockRefresher struct {
	calls int
}

func (m *mockRefresher) Refresh(ctx context.Context) PageResult {
	m.calls++
	return PageResult{}
}

// タイトルが空の追加はリクエストを送らずに失敗する。
func TestSaveMovie_AddWithoutTitleSendsNothing(t *testing.T) {
	api := &fakeMovieAPI{}
	e := NewEngine(api, nil)

	for _, title := range []string{"", "   "} {
		res := e.SaveMovie(context.Background(), model.Movie{Title: title}, ModeAdd)
		if res.OK() {
			t.Fatalf("title %q: expected failure", title)
		}
		if res.Err.Code != model.ErrCodeMissingTitle {
			t.Errorf("Code = %q, want %q", res.Err.Code, model.ErrCodeMissingTitle)
		}
		if res.Message != "Title is required." {
			t.Errorf("Message = %q", res.Message)
		}
	}
	if n := api.totalCalls(); n != 0 {
		t.Errorf("API calls = %d, want 0", n)
	}
}

// 重複登録は専用の文言で失敗し、一覧と読み込み状態は変わらない。
func TestSaveMovie_DuplicateIsDistinguishable(t *testing.T) {
	api := &fakeMovieAPI{}
	e := NewEngine(api, nil)
	e.ApplySelection(context.Background(), DefaultSelection())
	before := e.Snapshot()

	api.createFn = func(ctx context.Context, m model.Movie) (*model.Movie, error) {
		return nil, &apiclient.Error{
			Kind:    apiclient.KindConflict,
			Code:    model.ErrCodeDuplicateMovie,
			Message: "This movie already exists in your list.",
			Status:  409,
		}
	}

	res := e.SaveMovie(context.Background(), model.Movie{Title: "Alien", MovieID: 348}, ModeAdd)
	if res.OK() {
		t.Fatal("expected failure")
	}
	if res.Err.Kind != apiclient.KindConflict {
		t.Errorf("Kind = %q, want conflict", res.Err.Kind)
	}
	if res.Message != "That movie is already in your list." {
		t.Errorf("Message = %q", res.Message)
	}

	after := e.Snapshot()
	if len(after.Items) != len(before.Items) || after.IsLoading {
		t.Errorf("state changed: items %d -> %d, loading %v", len(before.Items), len(after.Items), after.IsLoading)
	}
	if after.Error != "" {
		t.Errorf("list error = %q, want empty", after.Error)
	}
}

func TestSaveMovie_MessageMapping(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{model.ErrCodeMissingID, "ID is required."},
		{model.ErrCodeNotFound, "Movie not found."},
		{model.ErrCodeInternal, "Something went wrong while saving the movie."},
		{model.ErrCodeUnauthorized, model.SessionExpiredMessage},
		{"SOMETHING_ELSE", "server says no"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			api := &fakeMovieAPI{
				updateFn: func(ctx context.Context, id int64, p model.MoviePatch) (*model.Movie, error) {
					return nil, &apiclient.Error{Kind: apiclient.KindServerFault, Code: tt.code, Message: "server says no"}
				},
			}
			res := NewEngine(api, nil).SaveMovie(context.Background(), model.Movie{ID: 4, Title: "x"}, ModeEdit)
			if res.Message != tt.want {
				t.Errorf("Message = %q, want %q", res.Message, tt.want)
			}
		})
	}
}

func TestSaveMovie_EditRequiresID(t *testing.T) {
	api := &fakeMovieAPI{}
	res := NewEngine(api, nil).SaveMovie(context.Background(), model.Movie{Title: "x"}, ModeEdit)
	if res.OK() || res.Err.Code != model.ErrCodeMissingID {
		t.Errorf("result = %+v, want MISSING_ID", res)
	}
	if api.totalCalls() != 0 {
		t.Error("edit without id should not reach the API")
	}
}

func TestSaveMovie_EditSendsChangedFieldsWithCategoryAndStatus(t *testing.T) {
	api := &fakeMovieAPI{}
	e := NewEngine(api, nil)
	e.ApplySelection(context.Background(), DefaultSelection())

	loaded := e.Snapshot().Items[2]
	edited := loaded
	edited.Overview = "new overview"
	edited.Status = model.IntOf(model.StatusWatched)

	res := e.SaveMovie(context.Background(), edited, ModeEdit)
	if !res.OK() {
		t.Fatalf("SaveMovie = %+v", res)
	}

	patch := api.updateCalls[0]
	if patch.Category == nil || patch.Status == nil {
		t.Fatal("category and status must always be sent on edit")
	}
	if *patch.Status != model.IntOf(model.StatusWatched) {
		t.Errorf("status = %+v", *patch.Status)
	}
	if patch.Overview == nil || *patch.Overview != "new overview" {
		t.Errorf("overview = %v", patch.Overview)
	}
	if patch.Title != nil || patch.PosterPath != nil || patch.ReleaseDate != nil || patch.GenreIDs != nil {
		t.Errorf("unchanged fields were sent: %+v", patch)
	}
}

func TestDeleteMovie(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		api := &fakeMovieAPI{}
		res := NewEngine(api, nil).DeleteMovie(context.Background(), 0)
		if res.OK() || res.Err.Code != model.ErrCodeMissingID {
			t.Errorf("result = %+v", res)
		}
		if api.totalCalls() != 0 {
			t.Error("delete without id should not reach the API")
		}
	})

	t.Run("internal error", func(t *testing.T) {
		api := &fakeMovieAPI{
			deleteFn: func(ctx context.Context, id int64) (*model.Movie, error) {
				return nil, &apiclient.Error{Kind: apiclient.KindServerFault, Code: model.ErrCodeInternal, Status: 500}
			},
		}
		res := NewEngine(api, nil).DeleteMovie(context.Background(), 3)
		if res.Message != "Unable to delete movie at this time." {
			t.Errorf("Message = %q", res.Message)
		}
	})

	t.Run("success returns deleted item", func(t *testing.T) {
		res := NewEngine(&fakeMovieAPI{}, nil).DeleteMovie(context.Background(), 3)
		if !res.OK() || res.Movie.ID != 3 {
			t.Errorf("result = %+v", res)
		}
	})
}

// 書き込み成功後の再取得は書き込み開始時ではなく再取得時点の条件を使う。
func TestMutations_RefreshUsesCurrentSelection(t *testing.T) {
	api := &fakeMovieAPI{}
	e := NewEngine(api, nil)
	ctx := context.Background()
	e.ApplySelection(ctx, DefaultSelection())
	e.FetchMore(ctx)

	api.createFn = func(ctx context.Context, m model.Movie) (*model.Movie, error) {
		e.SetStatus(2)
		m.ID = 50
		return &m, nil
	}

	res := NewMutations(e, nil).Save(ctx, model.Movie{Title: "Heat"}, ModeAdd)
	if !res.OK() {
		t.Fatalf("Save = %+v", res)
	}

	calls := api.lists()
	last := calls[len(calls)-1]
	if last.From != 0 || last.To != InitialTo {
		t.Errorf("refresh range = [%d,%d], want [0,%d]", last.From, last.To, InitialTo)
	}
	if last.Status != 2 {
		t.Errorf("refresh status = %d, want 2 (current selection)", last.Status)
	}
	if got := len(e.Snapshot().Items); got != InitialWindow {
		t.Errorf("items after refresh = %d, want %d", got, InitialWindow)
	}
}

func TestMutations_RefreshOnlyAfterSuccess(t *testing.T) {
	refresher := &mockRefresher{}
	api := &fakeMovieAPI{}
	m := NewMutations(NewEngine(api, nil), refresher)
	ctx := context.Background()

	m.Save(ctx, model.Movie{}, ModeAdd)
	m.Delete(ctx, 0)
	if refresher.calls != 0 {
		t.Errorf("refresh calls after failures = %d, want 0", refresher.calls)
	}

	m.Save(ctx, model.Movie{Title: "Alien"}, ModeAdd)
	m.Save(ctx, model.Movie{ID: 1, Title: "Alien"}, ModeEdit)
	m.Delete(ctx, 1)
	if refresher.calls != 3 {
		t.Errorf("refresh calls = %d, want 3", refresher.calls)
	}
}
