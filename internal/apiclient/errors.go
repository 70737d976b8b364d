package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hitoshi/cinelist/internal/model"
)

// Kind はクライアント側のエラー分類。
type Kind string

const (
	KindUnauthorized   Kind = "unauthorized"
	KindValidation     Kind = "validation"
	KindForbidden      Kind = "forbidden"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindServerFault    Kind = "server_fault"
	KindNetworkFailure Kind = "network_failure"
)

// ErrCodeNetwork は通信自体が完了しなかった場合のコード。
const ErrCodeNetwork = "NETWORK_ERROR"

const (
	genericServerMessage  = "Something went wrong. Please try again later."
	genericNetworkMessage = "Unable to reach the server. Please check your connection and try again."
)

// Error はHTTP層の失敗を正規化したエラー。
// Messageはそのまま利用者に表示できる文言。
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d %s): %s", e.Code, e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable は同じ操作を再試行してよい失敗であればtrueを返す。
func (e *Error) Retryable() bool {
	return e.Kind == KindServerFault || e.Kind == KindNetworkFailure
}

// AsError は任意のエラーを*Errorに変換する。nilはnilのまま返す。
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return networkError(err)
}

// IsCanceled はコンテキストのキャンセルまたはタイムアウトによる失敗であればtrueを返す。
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func networkError(err error) *Error {
	return &Error{
		Kind:    KindNetworkFailure,
		Code:    ErrCodeNetwork,
		Message: genericNetworkMessage,
		Err:     err,
	}
}

// ValidationError はリクエスト前の入力検証エラーを生成する。
func ValidationError(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// fromResponse はステータスコードとレスポンスボディのcode/errorから*Errorを組み立てる。
// 401はボディの内容に関わらず常にセッション切れとして扱う。
func fromResponse(status int, code, message string) *Error {
	if status == http.StatusUnauthorized {
		return &Error{
			Kind:    KindUnauthorized,
			Code:    model.ErrCodeUnauthorized,
			Message: model.SessionExpiredMessage,
			Status:  status,
		}
	}

	e := &Error{Kind: kindForStatus(status), Code: code, Message: message, Status: status}
	if e.Kind == KindServerFault {
		if e.Code == "" {
			e.Code = model.ErrCodeInternal
		}
		if e.Message == "" {
			e.Message = genericServerMessage
		}
	}
	if e.Code == "" {
		e.Code = defaultCodeForKind(e.Kind)
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status >= 400 && status < 500 && status != http.StatusTooManyRequests:
		return KindValidation
	default:
		return KindServerFault
	}
}

func defaultCodeForKind(k Kind) string {
	switch k {
	case KindNotFound:
		return model.ErrCodeNotFound
	case KindValidation:
		return model.ErrCodeInvalidRequest
	default:
		return model.ErrCodeInternal
	}
}
