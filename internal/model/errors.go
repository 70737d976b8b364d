// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントへは {success:false, code, error} として返される。
type APIError struct {
	Code    string // エラーコード
	Message string // ユーザー向けメッセージ
	Kind    string // 分類: auth, validation, conflict, not_found, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラー分類
const (
	KindAuth       = "auth"
	KindValidation = "validation"
	KindConflict   = "conflict"
	KindNotFound   = "not_found"
	KindForbidden  = "forbidden"
	KindSystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeMissingTitle        = "MISSING_TITLE"
	ErrCodeMissingID           = "MISSING_ID"
	ErrCodeDuplicateMovie      = "DUPLICATE_MOVIE"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeMissingCategoryName = "MISSING_CATEGORY_NAME"
	ErrCodeReservedCategory    = "RESERVED_CATEGORY"
	ErrCodeInvalidRange        = "INVALID_RANGE"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken          = "EMAIL_TAKEN"
	ErrCodeCatalogUnavailable  = "CATALOG_UNAVAILABLE"
	ErrCodeInvalidCatalogList  = "INVALID_CATALOG_LIST"
	ErrCodeRateLimited         = "RATE_LIMITED"
)

// SessionExpiredMessage は401応答で常に使われるメッセージ。
const SessionExpiredMessage = "Your session has expired. Please log in again."

// NewUnauthorizedError はセッション切れエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{Code: ErrCodeUnauthorized, Message: SessionExpiredMessage, Kind: KindAuth}
}

// NewMissingTitleError はタイトル未指定エラーを生成する。
func NewMissingTitleError() *APIError {
	return &APIError{Code: ErrCodeMissingTitle, Message: "Title is required", Kind: KindValidation}
}

// NewMissingIDError はID未指定エラーを生成する。
func NewMissingIDError() *APIError {
	return &APIError{Code: ErrCodeMissingID, Message: "ID is required", Kind: KindValidation}
}

// NewDuplicateMovieError は同一映画の重複登録エラーを生成する。
func NewDuplicateMovieError() *APIError {
	return &APIError{
		Code:    ErrCodeDuplicateMovie,
		Message: "This movie already exists in your list.",
		Kind:    KindConflict,
	}
}

// NewMovieNotFoundError は映画未検出エラーを生成する。
func NewMovieNotFoundError(id int64) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("Movie not found: %d", id),
		Kind:    KindNotFound,
	}
}

// NewCategoryNotFoundError はカテゴリ未検出エラーを生成する。
func NewCategoryNotFoundError(id int64) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("Category not found: %d", id),
		Kind:    KindNotFound,
	}
}

// NewMissingCategoryNameError はカテゴリ名未指定エラーを生成する。
func NewMissingCategoryNameError() *APIError {
	return &APIError{
		Code:    ErrCodeMissingCategoryName,
		Message: "Category name is required",
		Kind:    KindValidation,
	}
}

// NewReservedCategoryError は共有カテゴリの編集を拒否するエラーを生成する。
func NewReservedCategoryError() *APIError {
	return &APIError{
		Code:    ErrCodeReservedCategory,
		Message: "The default category cannot be changed.",
		Kind:    KindForbidden,
	}
}

// NewInvalidRangeError は無効な取得範囲エラーを生成する。
func NewInvalidRangeError(reason string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidRange,
		Message: fmt.Sprintf("Invalid range: %s", reason),
		Kind:    KindValidation,
	}
}

// NewInvalidRequestError はリクエストボディ等の不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidRequest,
		Message: reason,
		Kind:    KindValidation,
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレスの存在有無は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidCredentials,
		Message: "Invalid email or password.",
		Kind:    KindAuth,
	}
}

// NewEmailTakenError は登録済みメールアドレスでのサインアップエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:    ErrCodeEmailTaken,
		Message: "An account with this email already exists.",
		Kind:    KindConflict,
	}
}

// NewCatalogUnavailableError は外部カタログAPIの呼び出し失敗エラーを生成する。
func NewCatalogUnavailableError(reason string) *APIError {
	return &APIError{
		Code:    ErrCodeCatalogUnavailable,
		Message: fmt.Sprintf("Movie catalog is unavailable: %s", reason),
		Kind:    KindSystem,
	}
}

// NewInvalidCatalogListError は未対応のカタログ一覧種別エラーを生成する。
func NewInvalidCatalogListError(slug string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidCatalogList,
		Message: fmt.Sprintf("Unknown catalog list: %s", slug),
		Kind:    KindValidation,
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録すること。
func NewInternalError() *APIError {
	return &APIError{
		Code:    ErrCodeInternal,
		Message: "Something went wrong. Please try again later.",
		Kind:    KindSystem,
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: "User not found.",
		Kind:    KindNotFound,
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:    ErrCodeRateLimited,
		Message: "Too many requests. Please try again later.",
		Kind:    KindSystem,
	}
}
