package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/cinelist/internal/model"
)

func TestAuthHandler_SignUp_ReturnsToken(t *testing.T) {
	expires := time.Date(2026, 10, 23, 0, 0, 0, 0, time.UTC)
	svc := &mockAuthService{
		signUpFn: func(ctx context.Context, email, name, password string) (*model.Session, *model.User, error) {
			if email != "a@example.com" || password != "secret-pass" {
				t.Errorf("args = %q/%q", email, password)
			}
			return &model.Session{ID: "tok-1", UserID: "u-1", ExpiresAt: expires},
				&model.User{ID: "u-1", Email: email, Name: name}, nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"email":"a@example.com","name":"A","password":"secret-pass"}`))
	w := httptest.NewRecorder()

	h.SignUp(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	env := decodeEnvelope(t, w)
	var resp sessionResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if resp.Token != "tok-1" || resp.User.ID != "u-1" || !resp.ExpiresAt.Equal(expires) {
		t.Errorf("response = %+v", resp)
	}
}

func TestAuthHandler_SignUp_EmailTaken(t *testing.T) {
	svc := &mockAuthService{
		signUpFn: func(ctx context.Context, email, name, password string) (*model.Session, *model.User, error) {
			return nil, nil, model.NewEmailTakenError()
		},
	}
	h := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	h.SignUp(w, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"a@example.com","password":"secret-pass"}`)))

	assertErrorResponse(t, w, http.StatusConflict, model.ErrCodeEmailTaken)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
			return nil, nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@example.com","password":"nope"}`)))

	assertErrorResponse(t, w, http.StatusUnauthorized, model.ErrCodeInvalidCredentials)
}

func TestAuthHandler_Logout_WithoutToken_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assertErrorResponse(t, w, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}

func TestUserHandler_Withdraw(t *testing.T) {
	called := false
	h := NewUserHandler(&mockUserService{
		withdrawFn: func(ctx context.Context, userID string) error {
			called = userID == "user-123"
			return nil
		},
	})

	w := httptest.NewRecorder()
	h.Withdraw(w, withUserID(httptest.NewRequest(http.MethodDelete, "/auth/me", nil), "user-123"))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !called {
		t.Error("expected Withdraw to be called with user-123")
	}
}

func TestUserHandler_Withdraw_UserNotFound(t *testing.T) {
	h := NewUserHandler(&mockUserService{
		withdrawFn: func(ctx context.Context, userID string) error {
			return model.NewUserNotFoundError()
		},
	})

	w := httptest.NewRecorder()
	h.Withdraw(w, withUserID(httptest.NewRequest(http.MethodDelete, "/auth/me", nil), "ghost"))

	assertErrorResponse(t, w, http.StatusNotFound, model.ErrCodeNotFound)
}
