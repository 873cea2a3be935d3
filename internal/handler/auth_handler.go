package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/meibo/internal/middleware"
	"github.com/hitoshi/meibo/internal/model"
)

// UserAuthenticator は認証情報の照合インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserAuthenticator interface {
	// FindIDByMailAndPassword は資格情報に一致するユーザーIDを返す。
	// 一致しない場合は空文字列を返す。
	FindIDByMailAndPassword(ctx context.Context, mail, passwordHash string) (string, error)
}

// SessionServiceInterface は認証ハンドラーが必要とするセッションサービスのインターフェース。
type SessionServiceInterface interface {
	Create(ctx context.Context, userID string, now time.Time) (*model.Session, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

// AuthHandler はログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	authenticator UserAuthenticator
	sessions      SessionServiceInterface
	cookieSecure  bool
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(authenticator UserAuthenticator, sessions SessionServiceInterface, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		sessions:      sessions,
		cookieSecure:  cookieSecure,
	}
}

type loginRequest struct {
	Mail     string `json:"mail"`
	Password string `json:"password"`
}

// hashPassword はパスワードのSHA-256ハッシュを16進文字列で返す。
// ストアには同形式のハッシュが保存されている前提。
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Login は資格情報を照合してセッションを作成し、セッションIDをCookieで返す。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Mail == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "メールアドレスとパスワードを指定してください。",
			Category: "validation",
			Action:   "リクエストボディを確認してください。",
		})
		return
	}

	userID, err := h.authenticator.FindIDByMailAndPassword(r.Context(), req.Mail, hashPassword(req.Password))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if userID == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
		return
	}

	session, err := h.sessions.Create(r.Context(), userID, time.Now())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("ログインしました", slog.String("user_id", userID))
	writeJSON(w, http.StatusCreated, map[string]string{"userId": userID})
}

// Logout は認証済みユーザーの全セッションを削除し、Cookieを無効化する。
// POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.sessions.DeleteByUserID(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}
