package apiclient

import "sync"

// TokenSource はリクエストに付与するBearerトークンを提供する。
type TokenSource interface {
	Token() string
}

// Session はBearerトークンの唯一の所有者。
// ログイン時に設定され、401応答またはログアウトで破棄される。
type Session struct {
	mu       sync.RWMutex
	token    string
	onExpire []func()
}

// NewSession は初期トークンを持つSessionを生成する。空文字列は未ログインを表す。
func NewSession(token string) *Session {
	return &Session{token: token}
}

// Token は現在のトークンを返す。
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken はトークンを設定する。
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Authenticated はトークンを保持していればtrueを返す。
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// OnExpire はセッション失効時に呼ばれるコールバックを登録する。
func (s *Session) OnExpire(fn func()) {
	s.mu.Lock()
	s.onExpire = append(s.onExpire, fn)
	s.mu.Unlock()
}

// Expire はトークンを破棄し、登録済みのコールバックを呼び出す。
// 既に破棄済みの場合は何もしない。
func (s *Session) Expire() {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.token = ""
	callbacks := append([]func(){}, s.onExpire...)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
