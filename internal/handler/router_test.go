package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/meibo/internal/middleware"
	"github.com/hitoshi/meibo/internal/model"
)

// mockSessionFinder はmiddleware.SessionFinderのモック実装。
type mockSessionFinder struct {
	findBySessionIDFn func(ctx context.Context, sessionID string) (*model.Session, error)
}

func (m *mockSessionFinder) FindBySessionID(ctx context.Context, sessionID string) (*model.Session, error) {
	if m.findBySessionIDFn != nil {
		return m.findBySessionIDFn(ctx, sessionID)
	}
	return nil, nil
}

// validSessionFinder はsession-123を有効セッションとして扱うSessionFinderを返す。
func validSessionFinder() middleware.SessionFinder {
	return &mockSessionFinder{
		findBySessionIDFn: func(ctx context.Context, sessionID string) (*model.Session, error) {
			if sessionID == "session-123" {
				return &model.Session{ID: sessionID, UserID: "user-123"}, nil
			}
			return nil, nil
		},
	}
}

func newTestRouter(t *testing.T, search SearchServiceInterface) http.Handler {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		SessionFinder:     validSessionFinder(),
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Authenticator:     &mockAuthenticator{},
		Sessions:          &mockSessionService{},
		SearchService:     search,
	})
}

func TestNewRouter_LoginIsPublic(t *testing.T) {
	auth := &mockAuthenticator{
		findIDFn: func(ctx context.Context, mail, passwordHash string) (string, error) {
			return "user-123", nil
		},
	}

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	router := NewRouter(&RouterDeps{
		SessionFinder:     validSessionFinder(),
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Authenticator:     auth,
		Sessions:          &mockSessionService{},
		SearchService:     &mockSearchService{},
	})

	// セッションCookieなしでログインできること
	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"mail":"taro@example.com","password":"secret"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Errorf("POST /api/login status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
}

func TestNewRouter_UsersRequireSession(t *testing.T) {
	router := newTestRouter(t, &mockSearchService{})

	paths := []string{
		"/api/users",
		"/api/users/u1",
		"/api/users/search?target=userName&keyword=x",
		"/api/users/filter?num=1",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without cookie: status = %d, want %d", path, w.Result().StatusCode, http.StatusUnauthorized)
		}
	}
}

func TestNewRouter_AuthenticatedSearch(t *testing.T) {
	svc := &mockSearchService{
		byUserNameFn: func(ctx context.Context, keyword string) ([]model.SearchedUser, error) {
			return []model.SearchedUser{{ID: "u1", Name: "山田 太郎"}}, nil
		},
	}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/search?target=userName&keyword=x", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-123"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestNewRouter_FilterUsesSessionUserAsSeed(t *testing.T) {
	svc := &mockSearchService{
		sampleFn: func(ctx context.Context, seedUserID string, numOfUsers int) ([]model.UserForFilter, error) {
			if seedUserID != "user-123" {
				t.Errorf("seedUserID = %q, want %q", seedUserID, "user-123")
			}
			return []model.UserForFilter{}, nil
		},
	}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/filter?num=2", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-123"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestNewRouter_UserByIDRouting(t *testing.T) {
	svc := &mockSearchService{
		byIDFn: func(ctx context.Context, id string) (*model.User, error) {
			if id != "u1" {
				t.Errorf("id = %q, want %q", id, "u1")
			}
			return &model.User{ID: "u1", Name: "山田 太郎"}, nil
		},
	}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-123"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestNewRouter_HealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &mockSearchService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestNewRouter_CORSHeaders(t *testing.T) {
	router := newTestRouter(t, &mockSearchService{})

	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
}
