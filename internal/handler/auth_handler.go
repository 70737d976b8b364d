// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/cinelist/internal/middleware"
	"github.com/hitoshi/cinelist/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	SignUp(ctx context.Context, email, name, password string) (*model.Session, *model.User, error)
	Login(ctx context.Context, email, password string) (*model.Session, *model.User, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// AuthHandler はアカウント作成とログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// sessionResponse はログイン成功時に返すトークン情報。
type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

// SignUp はアカウントを作成しセッションを発行する。
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, user, err := h.service.SignUp(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusCreated, sessionResponse{
		Token:     session.ID,
		ExpiresAt: session.ExpiresAt,
		User:      toUserResponse(user),
	})
}

// Login はメールアドレスとパスワードで認証しセッションを発行する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, sessionResponse{
		Token:     session.ID,
		ExpiresAt: session.ExpiresAt,
		User:      toUserResponse(user),
	})
}

// Logout は現在のセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		slog.Error("failed to logout", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, struct{}{})
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w)
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, toUserResponse(user))
}
