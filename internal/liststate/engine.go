// Package liststate は映画一覧のクライアント側状態を管理する。
// 選択条件（カテゴリ・状態・ソート）ごとにエポックを切り替え、
// ページ単位の取得結果を同一エポック内でのみ追記する。
package liststate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/cinelist/internal/apiclient"
	"github.com/hitoshi/cinelist/internal/model"
)

const (
	// PageSize は継続取得1回あたりの件数。
	PageSize = 6
	// InitialWindow はエポック開始時に取得する件数。
	InitialWindow = 12
	// InitialTo は初期ウィンドウの終端オフセット。
	InitialTo = InitialWindow - 1
)

// MovieAPI はEngineが利用する映画APIの操作。
type MovieAPI interface {
	ListMovies(ctx context.Context, p apiclient.ListParams) ([]model.Movie, error)
	CreateMovie(ctx context.Context, m model.Movie) (*model.Movie, error)
	UpdateMovie(ctx context.Context, id int64, patch model.MoviePatch) (*model.Movie, error)
	DeleteMovie(ctx context.Context, id int64) (*model.Movie, error)
}

// SortOption は並び替えキーと方向。
type SortOption struct {
	Key       model.SortKey
	Ascending bool
}

// Selection は一覧の絞り込み・並び替え条件。
type Selection struct {
	Category *int64 // nilは全カテゴリ
	Status   int    // 0は全件、1は未視聴、2は視聴済み
	Sort     SortOption
}

// DefaultSelection は共有カテゴリ・タイトル降順の初期条件を返す。
func DefaultSelection() Selection {
	category := model.ReservedCategoryID
	return Selection{
		Category: &category,
		Sort:     SortOption{Key: model.SortByTitle},
	}
}

// Equal は2つの条件が同一であればtrueを返す。
func (s Selection) Equal(o Selection) bool {
	return sameCategory(s.Category, o.Category) && s.Status == o.Status && s.Sort == o.Sort
}

func (s Selection) clone() Selection {
	if s.Category != nil {
		c := *s.Category
		s.Category = &c
	}
	return s
}

func (s Selection) params(r Range) apiclient.ListParams {
	return apiclient.ListParams{
		From:      r.From,
		To:        r.To,
		Category:  s.Category,
		Status:    s.Status,
		SortBy:    s.Sort.Key,
		Ascending: s.Sort.Ascending,
	}
}

func sameCategory(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Range は0始まりの閉区間。
type Range struct {
	From int
	To   int
}

// InitialRange はエポック開始時の範囲を返す。
func InitialRange() Range {
	return Range{From: 0, To: InitialTo}
}

// Next は直後の1ページ分の範囲を返す。
func (r Range) Next() Range {
	return Range{From: r.To + 1, To: r.To + PageSize}
}

// State はEngineの状態のスナップショット。
type State struct {
	Items     []model.Movie
	IsLoading bool
	Error     string
	Selection Selection
	Range     Range
	Epoch     uint64
	// Loaded は現在のエポックの初期ウィンドウが取得済みであればtrue。
	Loaded bool
}

// PageResult はページ取得1回の結果。
type PageResult struct {
	Items []model.Movie
	Err   *apiclient.Error
	// Stale は取得中にエポックが切り替わり、結果を破棄したことを示す。
	Stale bool
	// Skipped は取得中のリクエストがあるなどの理由で実行しなかったことを示す。
	Skipped bool
	Epoch   uint64
}

// OK は結果が現在のエポックに反映されたときtrueを返す。
func (r PageResult) OK() bool {
	return r.Err == nil && !r.Stale && !r.Skipped
}

// Engine は映画一覧の唯一の所有者。
// 状態の変更はすべてEngineの操作を経由する。
type Engine struct {
	api    MovieAPI
	logger *slog.Logger

	mu          sync.Mutex
	items       []model.Movie
	errMsg      string
	sel         Selection
	rng         Range
	epoch       uint64
	loaded      bool
	inflight    int
	epochCtx    context.Context
	cancelEpoch context.CancelFunc

	listenerMu   sync.Mutex
	listeners    map[int]func(State)
	nextListener int
}

// NewEngine はEngineを生成する。loggerがnilの場合はslog.Default()を使う。
func NewEngine(api MovieAPI, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		api:       api,
		logger:    logger,
		sel:       DefaultSelection(),
		rng:       InitialRange(),
		listeners: make(map[int]func(State)),
	}
	e.epochCtx, e.cancelEpoch = context.WithCancel(context.Background())
	return e
}

// FetchPage は指定範囲を現在のエポックで取得する。
// fromが0の場合は一覧を置き換え、それ以外は末尾に追記する。
// 失敗時は一覧を変更せず、エラーメッセージのみを状態に保存する。
func (e *Engine) FetchPage(ctx context.Context, from, to int, sel Selection) PageResult {
	if from < 0 || to < from {
		return PageResult{Err: apiclient.ValidationError(model.ErrCodeInvalidRange, "Invalid range.")}
	}

	e.mu.Lock()
	epoch := e.epoch
	epochCtx := e.beginLocked()
	e.mu.Unlock()
	e.notify()

	return e.run(ctx, epochCtx, epoch, Range{From: from, To: to}, sel.clone())
}

// FetchMore は確定済み範囲の次の1ページを取得する。
// 初期ウィンドウが未取得、または取得中のリクエストがある場合は何もしない。
func (e *Engine) FetchMore(ctx context.Context) PageResult {
	e.mu.Lock()
	if !e.loaded || e.inflight > 0 {
		epoch := e.epoch
		e.mu.Unlock()
		return PageResult{Skipped: true, Epoch: epoch}
	}
	next := e.rng.Next()
	sel := e.sel.clone()
	epoch := e.epoch
	epochCtx := e.beginLocked()
	e.mu.Unlock()
	e.notify()

	return e.run(ctx, epochCtx, epoch, next, sel)
}

// ApplySelection は4つの条件をまとめて設定し、新しいエポックで初期ウィンドウを1回だけ取得する。
func (e *Engine) ApplySelection(ctx context.Context, sel Selection) PageResult {
	sel = sel.clone()

	e.mu.Lock()
	e.sel = sel
	e.startEpochLocked()
	epoch := e.epoch
	epochCtx := e.beginLocked()
	e.mu.Unlock()
	e.notify()

	return e.run(ctx, epochCtx, epoch, InitialRange(), sel)
}

// Refresh は呼び出し時点の条件で一覧を先頭から取り直す。
func (e *Engine) Refresh(ctx context.Context) PageResult {
	return e.ApplySelection(ctx, e.Selection())
}

// SetActiveCategory はカテゴリ条件のみを変更する。取得は行わない。
func (e *Engine) SetActiveCategory(category *int64) {
	e.updateSelection(func(s *Selection) {
		if category == nil {
			s.Category = nil
			return
		}
		c := *category
		s.Category = &c
	})
}

// SetStatus は視聴状態の条件のみを変更する。取得は行わない。
func (e *Engine) SetStatus(status int) {
	e.updateSelection(func(s *Selection) { s.Status = status })
}

// SetSortBy は並び替え条件のみを変更する。取得は行わない。
func (e *Engine) SetSortBy(sort SortOption) {
	e.updateSelection(func(s *Selection) { s.Sort = sort })
}

// SetRange は確定済み範囲を変更する。取得は行わない。
func (e *Engine) SetRange(from, to int) error {
	if from < 0 || to <= from {
		return apiclient.ValidationError(model.ErrCodeInvalidRange, "Invalid range.")
	}
	e.mu.Lock()
	e.rng = Range{From: from, To: to}
	e.mu.Unlock()
	e.notify()
	return nil
}

// Selection は現在の条件を返す。
func (e *Engine) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.clone()
}

// Snapshot は現在の状態のコピーを返す。
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe は状態変更の通知先を登録し、登録解除関数を返す。
// 通知はロック外で行われる。
func (e *Engine) Subscribe(fn func(State)) func() {
	e.listenerMu.Lock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	e.listenerMu.Unlock()

	return func() {
		e.listenerMu.Lock()
		delete(e.listeners, id)
		e.listenerMu.Unlock()
	}
}

func (e *Engine) updateSelection(mutate func(*Selection)) {
	e.mu.Lock()
	next := e.sel.clone()
	mutate(&next)
	if next.Equal(e.sel) {
		e.mu.Unlock()
		return
	}
	e.sel = next
	e.startEpochLocked()
	e.mu.Unlock()
	e.notify()
}

// startEpochLocked は新しいエポックを開始し、前エポックの取得をキャンセルする。
// 一覧は次の from=0 の取得で置き換えられる。
func (e *Engine) startEpochLocked() {
	e.epoch++
	e.cancelEpoch()
	e.epochCtx, e.cancelEpoch = context.WithCancel(context.Background())
	e.rng = InitialRange()
	e.loaded = false
	e.inflight = 0
	e.errMsg = ""
}

func (e *Engine) beginLocked() context.Context {
	e.inflight++
	return e.epochCtx
}

func (e *Engine) run(ctx context.Context, epochCtx context.Context, epoch uint64, r Range, sel Selection) PageResult {
	fetchCtx, stop := withEpoch(ctx, epochCtx)
	items, err := e.api.ListMovies(fetchCtx, sel.params(r))
	stop()

	e.mu.Lock()
	if epoch != e.epoch {
		current := e.epoch
		e.mu.Unlock()
		e.logger.Debug("古いエポックのページを破棄しました",
			slog.Uint64("epoch", epoch),
			slog.Uint64("current_epoch", current),
			slog.Int("from", r.From),
		)
		return PageResult{Stale: true, Epoch: epoch}
	}
	e.inflight--

	if err != nil {
		apiErr := apiclient.AsError(err)
		if !apiclient.IsCanceled(err) {
			e.errMsg = apiErr.Message
		}
		e.mu.Unlock()
		e.notify()
		e.logger.Warn("映画一覧の取得に失敗しました",
			slog.Uint64("epoch", epoch),
			slog.Int("from", r.From),
			slog.Int("to", r.To),
			slog.String("code", apiErr.Code),
		)
		return PageResult{Err: apiErr, Epoch: epoch}
	}

	if r.From == 0 {
		e.items = append([]model.Movie(nil), items...)
		e.loaded = true
	} else {
		e.items = append(e.items, items...)
	}
	e.rng = r
	e.errMsg = ""
	e.mu.Unlock()
	e.notify()

	return PageResult{Items: items, Epoch: epoch}
}

func (e *Engine) snapshotLocked() State {
	return State{
		Items:     append([]model.Movie(nil), e.items...),
		IsLoading: e.inflight > 0,
		Error:     e.errMsg,
		Selection: e.sel.clone(),
		Range:     e.rng,
		Epoch:     e.epoch,
		Loaded:    e.loaded,
	}
}

func (e *Engine) notify() {
	e.listenerMu.Lock()
	listeners := make([]func(State), 0, len(e.listeners))
	for _, fn := range e.listeners {
		listeners = append(listeners, fn)
	}
	e.listenerMu.Unlock()
	if len(listeners) == 0 {
		return
	}

	s := e.Snapshot()
	for _, fn := range listeners {
		fn(s)
	}
}

// withEpoch は呼び出し元とエポックのどちらかがキャンセルされると終了するコンテキストを返す。
func withEpoch(parent, epoch context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(epoch, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
