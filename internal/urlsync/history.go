package urlsync

import (
	"net/url"
	"strings"
	"sync"
)

// Navigator はクエリ文字列を持つナビゲーション履歴。
type Navigator interface {
	Query() string
	Push(v url.Values)
	Subscribe(fn func(rawQuery string)) (unsubscribe func())
}

// History はメモリ上のNavigator実装。戻る・進むに対応する。
type History struct {
	mu      sync.Mutex
	entries []string
	pos     int

	listenerMu   sync.Mutex
	listeners    map[int]func(string)
	nextListener int
}

// NewHistory は初期クエリを1件持つHistoryを生成する。
func NewHistory(initial string) *History {
	return &History{
		entries:   []string{strings.TrimPrefix(initial, "?")},
		listeners: make(map[int]func(string)),
	}
}

// Query は現在のクエリ文字列を返す。
func (h *History) Query() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.pos]
}

// Push は新しいエントリを1件追加する。進む履歴は破棄される。
// 現在と同じクエリの場合は何もしない。
func (h *History) Push(v url.Values) {
	raw := v.Encode()

	h.mu.Lock()
	if h.entries[h.pos] == raw {
		h.mu.Unlock()
		return
	}
	h.entries = append(h.entries[:h.pos+1], raw)
	h.pos++
	h.mu.Unlock()

	h.notify(raw)
}

// Back は1つ前のエントリに戻る。戻れない場合はfalseを返す。
func (h *History) Back() bool {
	return h.move(-1)
}

// Forward は1つ先のエントリに進む。進めない場合はfalseを返す。
func (h *History) Forward() bool {
	return h.move(1)
}

// Len は履歴の件数を返す。
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *History) move(delta int) bool {
	h.mu.Lock()
	next := h.pos + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.pos = next
	raw := h.entries[next]
	h.mu.Unlock()

	h.notify(raw)
	return true
}

// Subscribe はクエリ変更の通知先を登録する。
func (h *History) Subscribe(fn func(string)) func() {
	h.listenerMu.Lock()
	id := h.nextListener
	h.nextListener++
	h.listeners[id] = fn
	h.listenerMu.Unlock()

	return func() {
		h.listenerMu.Lock()
		delete(h.listeners, id)
		h.listenerMu.Unlock()
	}
}

func (h *History) notify(raw string) {
	h.listenerMu.Lock()
	fns := make([]func(string), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.listenerMu.Unlock()

	for _, fn := range fns {
		fn(raw)
	}
}
