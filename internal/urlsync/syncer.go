package urlsync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/cinelist/internal/liststate"
)

// Applier は条件をまとめて適用し1回だけ取得する。liststate.Engineが実装する。
type Applier interface {
	ApplySelection(ctx context.Context, sel liststate.Selection) liststate.PageResult
}

// Resetter はエポック変更時に状態を初期化する。scroll.Triggerが実装する。
type Resetter interface {
	Reset()
}

// Syncer はクエリ文字列を唯一の入力として一覧を再取得する。
// 利用者の操作はクエリへの1回のPushになり、その変化だけが取得を起こす。
type Syncer struct {
	nav      Navigator
	applier  Applier
	resetter Resetter
	logger   *slog.Logger

	mu        sync.Mutex
	ctx       context.Context
	lastQuery string
	applied   bool
	unsub     func()
}

// NewSyncer はSyncerを生成する。resetterはnilでもよい。
func NewSyncer(nav Navigator, applier Applier, resetter Resetter, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		nav:      nav,
		applier:  applier,
		resetter: resetter,
		logger:   logger,
		ctx:      context.Background(),
	}
}

// Start は履歴の購読を開始し、現在のクエリを適用する。
func (s *Syncer) Start(ctx context.Context) liststate.PageResult {
	s.mu.Lock()
	s.ctx = ctx
	if s.unsub == nil {
		s.unsub = s.nav.Subscribe(s.onQuery)
	}
	s.mu.Unlock()

	res, _ := s.HandleQuery(ctx, s.nav.Query())
	return res
}

// Stop は履歴の購読を解除する。
func (s *Syncer) Stop() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Current は現在のクエリから復元した条件を返す。
func (s *Syncer) Current() liststate.Selection {
	return ParseQuery(s.nav.Query())
}

// Select は4つの条件をまとめて1回でクエリに書き込む。
// クエリが変わらない場合はfalseを返し、何もしない。
func (s *Syncer) Select(sel liststate.Selection) bool {
	next := Encode(sel)
	if next.Encode() == s.nav.Query() {
		return false
	}
	s.nav.Push(next)
	return true
}

// SelectCategory はカテゴリのみを変更する。nilは全カテゴリ。
func (s *Syncer) SelectCategory(category *int64) bool {
	sel := s.Current()
	sel.Category = category
	return s.Select(sel)
}

// SelectStatus は視聴状態のみを変更する。
func (s *Syncer) SelectStatus(status int) bool {
	sel := s.Current()
	sel.Status = status
	return s.Select(sel)
}

// SelectSort は並び替えのみを変更する。
func (s *Syncer) SelectSort(sort liststate.SortOption) bool {
	sel := s.Current()
	sel.Sort = sort
	return s.Select(sel)
}

// HandleQuery はクエリを解析して条件を適用し、スクロール状態を初期化する。
// 直前に適用したクエリと同じ場合は何もせずfalseを返す。
func (s *Syncer) HandleQuery(ctx context.Context, rawQuery string) (liststate.PageResult, bool) {
	s.mu.Lock()
	if s.applied && s.lastQuery == rawQuery {
		s.mu.Unlock()
		return liststate.PageResult{Skipped: true}, false
	}
	s.lastQuery = rawQuery
	s.applied = true
	s.mu.Unlock()

	sel := ParseQuery(rawQuery)
	s.logger.Debug("クエリから一覧の条件を適用します", slog.String("query", rawQuery))

	res := s.applier.ApplySelection(ctx, sel)
	if s.resetter != nil {
		s.resetter.Reset()
	}
	return res, true
}

func (s *Syncer) onQuery(raw string) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	s.HandleQuery(ctx, raw)
}
