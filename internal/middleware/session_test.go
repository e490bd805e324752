package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/kakeibo/internal/model"
	"github.com/hitoshi/kakeibo/internal/token"
)

// --- モック定義 ---

type mockUserFinder struct {
	findByIDFn func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

const testCookieName = "token"

func newTestToken(t *testing.T, svc *token.Service, user *model.User) string {
	t.Helper()
	tokenString, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return tokenString
}

func existingUserFinder(user *model.User) *mockUserFinder {
	return &mockUserFinder{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, nil
		},
	}
}

// --- テスト ---

func TestSessionMiddleware_ValidToken_InjectsIdentity(t *testing.T) {
	svc := token.NewService("test-secret", time.Hour)
	user := &model.User{ID: 123, Username: "alice"}

	mw := NewSessionMiddleware(svc, existingUserFinder(user), testCookieName)

	var captured *model.Identity
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		captured = identity
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: newTestToken(t, svc, user)})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if captured == nil || captured.UserID != 123 {
		t.Errorf("identity = %+v, want user ID 123", captured)
	}
	if captured != nil && captured.Username != "alice" {
		t.Errorf("username = %q, want %q", captured.Username, "alice")
	}
}

func TestSessionMiddleware_NoCookie_Returns401(t *testing.T) {
	svc := token.NewService("test-secret", time.Hour)
	mw := NewSessionMiddleware(svc, &mockUserFinder{}, testCookieName)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestSessionMiddleware_TamperedToken_Returns401(t *testing.T) {
	svc := token.NewService("test-secret", time.Hour)
	user := &model.User{ID: 123, Username: "alice"}
	mw := NewSessionMiddleware(svc, existingUserFinder(user), testCookieName)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	tampered := newTestToken(t, svc, user) + "x"
	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: tampered})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestSessionMiddleware_DeletedUser_Returns401(t *testing.T) {
	svc := token.NewService("test-secret", time.Hour)
	user := &model.User{ID: 123, Username: "alice"}

	// トークンは有効だがユーザーは既に削除されている
	finder := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, nil
		},
	}
	mw := NewSessionMiddleware(svc, finder, testCookieName)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: newTestToken(t, svc, user)})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestSessionMiddleware_UserLookupError_Returns401(t *testing.T) {
	svc := token.NewService("test-secret", time.Hour)
	user := &model.User{ID: 123, Username: "alice"}

	finder := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, context.DeadlineExceeded
		},
	}
	mw := NewSessionMiddleware(svc, finder, testCookieName)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: newTestToken(t, svc, user)})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestTokenFromCookieHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty header", "", ""},
		{"single cookie", "token=abc123", "abc123"},
		{"first among many", "token=abc123; other=xyz", "abc123"},
		{"last among many", "other=xyz; token=abc123", "abc123"},
		{"surrounding spaces", "  token=abc123  ; other=xyz", "abc123"},
		{"name mismatch", "session=abc123", ""},
		{"no equals sign", "garbage", ""},
		{"empty value", "token=; other=xyz", ""},
		{"value keeps inner equals", "token=abc=def", "abc=def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenFromCookieHeader(tt.header, "token")
			if got != tt.want {
				t.Errorf("TokenFromCookieHeader(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestIdentityFromContext_NoValue_ReturnsError(t *testing.T) {
	ctx := context.Background()
	_, err := IdentityFromContext(ctx)
	if err == nil {
		t.Error("expected error for missing identity in context")
	}
}

func TestIdentityFromContext_ValidValue_ReturnsIdentity(t *testing.T) {
	ctx := ContextWithIdentity(context.Background(), &model.Identity{UserID: 456, Username: "bob"})
	identity, err := IdentityFromContext(ctx)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if identity.UserID != 456 {
		t.Errorf("user ID = %d, want 456", identity.UserID)
	}
}
