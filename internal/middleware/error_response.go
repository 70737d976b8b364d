package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/cinelist/internal/model"
)

// ErrorResponseBody は失敗時のレスポンス形式。
type ErrorResponseBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

// SuccessResponseBody は成功時のレスポンス形式。
type SuccessResponseBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// WriteSuccess は {success:true, data} 形式でレスポンスを書き込む。
func WriteSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, SuccessResponseBody{Success: true, Data: data})
}

// WriteErrorResponse は {success:false, code, error} 形式でエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, ErrorResponseBody{
		Success: false,
		Code:    apiErr.Code,
		Error:   apiErr.Message,
	})
}

// WriteUnauthorized はセッション切れの401レスポンスを書き込む。
func WriteUnauthorized(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}
