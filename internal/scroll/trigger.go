// Package scroll は番兵要素の可視化をきっかけに一覧の続きを取得する。
package scroll

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/cinelist/internal/liststate"
)

// VisibleThreshold は番兵要素を可視とみなす可視率。
const VisibleThreshold = 0.5

// Phase はTriggerの状態。
type Phase int

const (
	// Idle は次の可視化を待っている状態。
	Idle Phase = iota
	// FetchingMore は続きを取得中の状態。
	FetchingMore
	// Exhausted は現在のエポックで取得できる続きがない状態。
	Exhausted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case FetchingMore:
		return "fetching_more"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Pager はTriggerが駆動する一覧の操作。liststate.Engineが実装する。
type Pager interface {
	FetchMore(ctx context.Context) liststate.PageResult
	Snapshot() liststate.State
	Subscribe(fn func(liststate.State)) (unsubscribe func())
}

// Trigger は番兵要素が不可視から可視に変わったときだけ続きを1ページ取得する。
type Trigger struct {
	pager    Pager
	observer VisibilityObserver
	logger   *slog.Logger

	mu         sync.Mutex
	ctx        context.Context
	started    bool
	phase      Phase
	epoch      uint64
	loading    bool
	loaded     bool
	visible    bool // 監視を付け直しても保持する
	gen        uint64
	disconnect func()
	unsub      func()
	wg         sync.WaitGroup
}

// NewTrigger はTriggerを生成する。
func NewTrigger(pager Pager, observer VisibilityObserver, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{pager: pager, observer: observer, logger: logger, ctx: context.Background()}
}

// Start は一覧の状態変化の購読と番兵要素の監視を開始する。
func (t *Trigger) Start(ctx context.Context) {
	s := t.pager.Snapshot()

	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.ctx = ctx
	t.started = true
	t.epoch = s.Epoch
	t.loading = s.IsLoading
	t.loaded = s.Loaded
	t.phase = phaseFor(s)
	t.mu.Unlock()

	unsub := t.pager.Subscribe(t.onState)
	t.mu.Lock()
	t.unsub = unsub
	t.mu.Unlock()

	t.reattach()
}

// Stop は購読と監視を解除する。取得中のページの完了は待たない。
func (t *Trigger) Stop() {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	t.started = false
	unsub := t.unsub
	t.unsub = nil
	t.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	t.reattach()
}

// Wait は開始済みの取得がすべて終わるまで待つ。
func (t *Trigger) Wait() {
	t.wg.Wait()
}

// Reset は現在のエポックの先頭状態に戻し、監視を付け直す。
// 選択条件が変わるたびに呼ばれる。
func (t *Trigger) Reset() {
	s := t.pager.Snapshot()

	t.mu.Lock()
	t.epoch = s.Epoch
	t.loading = s.IsLoading
	t.loaded = s.Loaded
	t.phase = phaseFor(s)
	t.visible = false
	t.mu.Unlock()

	t.reattach()
}

// Phase は現在の状態を返す。
func (t *Trigger) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// HasMore は続きが残っている可能性があればtrueを返す。
func (t *Trigger) HasMore() bool {
	return t.Phase() != Exhausted
}

// phaseFor は一覧の状態から取るべき状態を決める。
// 初期ウィンドウが満たない場合は続きがない。
func phaseFor(s liststate.State) Phase {
	if s.Loaded && !s.IsLoading && s.Range.From == 0 && len(s.Items) < liststate.InitialWindow {
		return Exhausted
	}
	return Idle
}

func (t *Trigger) onState(s liststate.State) {
	t.mu.Lock()
	changed := false
	if s.Epoch != t.epoch {
		t.epoch = s.Epoch
		t.phase = Idle
		t.visible = false
		changed = true
	}
	if s.IsLoading != t.loading || s.Loaded != t.loaded {
		t.loading = s.IsLoading
		t.loaded = s.Loaded
		changed = true
	}
	if t.phase == Idle && phaseFor(s) == Exhausted {
		t.phase = Exhausted
		changed = true
	}
	t.mu.Unlock()

	if changed {
		t.reattach()
	}
}

// reattach は監視を外し、必要であれば付け直す。
// Observeはロック外で呼び、古い監視からのコールバックは世代番号で無視する。
// 可視状態は引き継ぐため、可視のまま付け直しても取得は起きない。
func (t *Trigger) reattach() {
	t.mu.Lock()
	old := t.disconnect
	t.disconnect = nil
	t.gen++
	gen := t.gen
	want := t.started && t.loaded && !t.loading && t.phase == Idle
	t.mu.Unlock()

	if old != nil {
		old()
	}
	if !want {
		return
	}

	disconnect := t.observer.Observe(VisibleThreshold, func(ratio float64) {
		t.onVisibility(gen, ratio)
	})

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		disconnect()
		return
	}
	t.disconnect = disconnect
	t.mu.Unlock()
}

func (t *Trigger) onVisibility(gen uint64, ratio float64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	visible := ratio >= VisibleThreshold
	wasVisible := t.visible
	t.visible = visible
	if !visible || wasVisible || t.phase != Idle || t.loading {
		t.mu.Unlock()
		return
	}
	t.phase = FetchingMore
	epoch := t.epoch
	ctx := t.ctx
	t.wg.Add(1)
	t.mu.Unlock()

	go t.fetch(ctx, epoch)
}

func (t *Trigger) fetch(ctx context.Context, epoch uint64) {
	defer t.wg.Done()

	res := t.pager.FetchMore(ctx)

	t.mu.Lock()
	if epoch != t.epoch || t.phase != FetchingMore {
		t.mu.Unlock()
		return
	}
	switch {
	case res.Stale, res.Skipped:
		t.phase = Idle
	case res.Err != nil:
		t.phase = Idle
		t.logger.Warn("続きの取得に失敗しました",
			slog.Uint64("epoch", epoch),
			slog.String("code", res.Err.Code),
		)
	case len(res.Items) < liststate.PageSize:
		t.phase = Exhausted
		t.logger.Debug("一覧の末尾に到達しました",
			slog.Uint64("epoch", epoch),
			slog.Int("last_page", len(res.Items)),
		)
	default:
		t.phase = Idle
	}
	t.mu.Unlock()

	t.reattach()
}
