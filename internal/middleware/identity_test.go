package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/realtor/internal/model"
	"github.com/hitoshi/realtor/internal/token"
)

// --- モック定義 ---

type mockVerifier struct {
	verifyFn func(tokenString string) (*model.Identity, error)
}

func (m *mockVerifier) VerifySession(tokenString string) (*model.Identity, error) {
	if m.verifyFn != nil {
		return m.verifyFn(tokenString)
	}
	return nil, token.ErrTokenInvalid
}

var _ SessionVerifier = (*mockVerifier)(nil)

// captureHandler はコンテキストのIdentityを記録する終端ハンドラー。
func captureHandler(captured **model.Identity, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if identity, ok := IdentityFromContext(r.Context()); ok {
			*captured = identity
		}
		w.WriteHeader(http.StatusOK)
	})
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// --- テスト ---

func TestIdentityMiddleware_NoToken_PassesAnonymous(t *testing.T) {
	var captured *model.Identity
	var called bool

	mw := NewIdentityMiddleware(&mockVerifier{
		verifyFn: func(string) (*model.Identity, error) {
			t.Fatal("verifier must not be called without a token")
			return nil, nil
		},
	})
	handler := mw(captureHandler(&captured, &called))

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected next handler to be called")
	}
	if captured != nil {
		t.Error("expected anonymous request to have no identity")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestIdentityMiddleware_ValidBearerToken_InjectsIdentity(t *testing.T) {
	want := &model.Identity{UserID: 42, UserType: model.UserTypeRealtor}
	var captured *model.Identity
	var called bool

	mw := NewIdentityMiddleware(&mockVerifier{
		verifyFn: func(tokenString string) (*model.Identity, error) {
			if tokenString != "valid-token" {
				t.Errorf("token = %q, want %q", tokenString, "valid-token")
			}
			return want, nil
		},
	})
	handler := mw(captureHandler(&captured, &called))

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected next handler to be called")
	}
	if captured == nil || captured.UserID != 42 {
		t.Errorf("captured identity = %+v, want UserID 42", captured)
	}
}

func TestIdentityMiddleware_CookieToken_InjectsIdentity(t *testing.T) {
	var captured *model.Identity
	var called bool

	mw := NewIdentityMiddleware(&mockVerifier{
		verifyFn: func(tokenString string) (*model.Identity, error) {
			if tokenString != "cookie-token" {
				t.Errorf("token = %q, want %q", tokenString, "cookie-token")
			}
			return &model.Identity{UserID: 7, UserType: model.UserTypeBuyer}, nil
		},
	})
	handler := mw(captureHandler(&captured, &called))

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured == nil || captured.UserID != 7 {
		t.Errorf("captured identity = %+v, want UserID 7", captured)
	}
}

func TestIdentityMiddleware_HeaderTakesPrecedenceOverCookie(t *testing.T) {
	var captured *model.Identity
	var called bool

	mw := NewIdentityMiddleware(&mockVerifier{
		verifyFn: func(tokenString string) (*model.Identity, error) {
			if tokenString != "header-token" {
				t.Errorf("token = %q, want header token to win", tokenString)
			}
			return &model.Identity{UserID: 1, UserType: model.UserTypeAdmin}, nil
		},
	})
	handler := mw(captureHandler(&captured, &called))

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured == nil || captured.UserID != 1 {
		t.Errorf("captured identity = %+v, want UserID 1", captured)
	}
}

func TestIdentityMiddleware_ExpiredToken_Returns401Expired(t *testing.T) {
	var captured *model.Identity
	var called bool

	mw := NewIdentityMiddleware(&mockVerifier{
		verifyFn: func(string) (*model.Identity, error) {
			return nil, token.ErrTokenExpired
		},
	})
	handler := mw(captureHandler(&captured, &called))

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("next handler must not be called for an expired token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	body := decodeErrorBody(t, rec)
	if body.Code != model.ErrCodeTokenExpired {
		t.Errorf("error code = %q, want %q", body.Code, model.ErrCodeTokenExpired)
	}
	if body.Message != "expired jwt" {
		t.Errorf("error message = %q, want %q", body.Message, "expired jwt")
	}
}

func TestIdentityMiddleware_InvalidToken_Returns401Invalid(t *testing.T) {
	var captured *model.Identity
	var called bool

	mw := NewIdentityMiddleware(&mockVerifier{
		verifyFn: func(string) (*model.Identity, error) {
			return nil, token.ErrTokenInvalid
		},
	})
	handler := mw(captureHandler(&captured, &called))

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.Header.Set("Authorization", "Bearer tampered-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("next handler must not be called for an invalid token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	body := decodeErrorBody(t, rec)
	if body.Code != model.ErrCodeTokenInvalid {
		t.Errorf("error code = %q, want %q", body.Code, model.ErrCodeTokenInvalid)
	}
	if body.Message != "invalid jwt" {
		t.Errorf("error message = %q, want %q", body.Message, "invalid jwt")
	}
}

func TestIdentityFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if identity, ok := IdentityFromContext(req.Context()); ok || identity != nil {
		t.Errorf("IdentityFromContext() = %+v, %v; want nil, false", identity, ok)
	}
}
