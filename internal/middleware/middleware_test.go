package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/meibo/internal/logger"
	"github.com/hitoshi/meibo/internal/model"
)

type mockSessionFinder struct {
	findFn func(ctx context.Context, sessionID string) (*model.Session, error)
}

func (m *mockSessionFinder) FindBySessionID(ctx context.Context, sessionID string) (*model.Session, error) {
	if m.findFn != nil {
		return m.findFn(ctx, sessionID)
	}
	return nil, nil
}

// okHandler はコンテキストのユーザーIDをそのまま返すテスト用ハンドラー。
func okHandler(t *testing.T, wantUserID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantUserID != "" {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				t.Errorf("UserIDFromContext returned error: %v", err)
			}
			if userID != wantUserID {
				t.Errorf("userID = %q, want %q", userID, wantUserID)
			}
		}
		w.WriteHeader(http.StatusOK)
	})
}

// Cookieなしのリクエストが401になることを検証する。
func TestSessionMiddleware_NoCookie_Unauthorized(t *testing.T) {
	mw := NewSessionMiddleware(&mockSessionFinder{})
	handler := mw(okHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// 有効なセッションでユーザーIDがコンテキストに注入されることを検証する。
func TestSessionMiddleware_ValidSession_InjectsUserID(t *testing.T) {
	finder := &mockSessionFinder{
		findFn: func(ctx context.Context, sessionID string) (*model.Session, error) {
			if sessionID != "s1" {
				return nil, nil
			}
			return &model.Session{ID: "s1", UserID: "u1", CreatedAt: time.Now()}, nil
		},
	}
	mw := NewSessionMiddleware(finder)
	handler := mw(okHandler(t, "u1"))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "s1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// 不明なセッションIDが401になることを検証する。
func TestSessionMiddleware_UnknownSession_Unauthorized(t *testing.T) {
	mw := NewSessionMiddleware(&mockSessionFinder{})
	handler := mw(okHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "unknown"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// リクエストログにmethod、path、statusが含まれることを検証する。
func TestLoggingMiddleware_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	l := logger.Setup(&buf)

	mw := NewLoggingMiddleware(l)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/unknown", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log entry, got error: %v", err)
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %v, want GET", entry["method"])
	}
	if entry["path"] != "/api/users/unknown" {
		t.Errorf("path = %v, want /api/users/unknown", entry["path"])
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("status = %v, want 404", entry["status"])
	}
}

// panicが500レスポンスに変換され、プロセスが落ちないことを検証する。
func TestRecoveryMiddleware_ConvertsPanicTo500(t *testing.T) {
	mw := NewRecoveryMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// バーストを超えたリクエストが429になることを検証する。
func TestRateLimiter_ExceedingBurst_Returns429(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            rate.Limit(1),
		Burst:           2,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := rl.Middleware()(okHandler(t, ""))

	statuses := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), "u1"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("first two requests should pass, got %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", statuses[2])
	}
}

// ユーザーごとに独立したバケットが使われることを検証する。
func TestRateLimiter_PerUserBuckets(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            rate.Limit(1),
		Burst:           1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	handler := rl.Middleware()(okHandler(t, ""))

	for _, userID := range []string{"u1", "u2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("user %s first request status = %d, want 200", userID, rec.Code)
		}
	}
}

// OPTIONSプリフライトに204で応答することを検証する。
func TestCORSMiddleware_Preflight(t *testing.T) {
	mw := NewCORSMiddleware("http://localhost:3000")
	handler := mw(okHandler(t, ""))

	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want http://localhost:3000", got)
	}
}
