// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は映画タイトルや概要などユーザー・外部カタログ由来の文字列から
// マークアップを除去し、プレーンテキストとして保存・返却できる形に整える。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト化のインターフェースを定義する。
type TextSanitizer interface {
	// SanitizeText は全てのHTMLタグを除去し、前後の空白を取り除いた文字列を返す。
	// 文字参照はデコードされる（"&amp;" は "&" になる）。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(s string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのStrictPolicyはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は全てのHTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
