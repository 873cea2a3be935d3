// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/meibo/internal/middleware"
	"github.com/hitoshi/meibo/internal/model"
)

// defaultUsersPerPage はユーザー一覧の1回の取得件数（デフォルト）。
const defaultUsersPerPage = 50

// SearchServiceInterface はユーザーハンドラーが必要とする検索サービスのインターフェース。
type SearchServiceInterface interface {
	ByUserName(ctx context.Context, keyword string) ([]model.SearchedUser, error)
	ByKana(ctx context.Context, keyword string) ([]model.SearchedUser, error)
	ByMail(ctx context.Context, keyword string) ([]model.SearchedUser, error)
	ByGoal(ctx context.Context, keyword string) ([]model.SearchedUser, error)
	ByDepartmentName(ctx context.Context, keyword string) ([]model.SearchedUser, error)
	ByRoleName(ctx context.Context, keyword string) ([]model.SearchedUser, error)
	ByOfficeName(ctx context.Context, keyword string) ([]model.SearchedUser, error)
	BySkillName(ctx context.Context, keyword string) ([]model.SearchedUser, error)

	List(ctx context.Context, limit, offset int) ([]model.User, error)
	ByID(ctx context.Context, id string) (*model.User, error)
	Sample(ctx context.Context, seedUserID string, numOfUsers int) ([]model.UserForFilter, error)
}

// UserHandler はユーザー検索のHTTPハンドラー。
type UserHandler struct {
	service SearchServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service SearchServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// --- レスポンス型 ---

type userResponse struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	FileName   string `json:"fileName"`
	OfficeName string `json:"officeName"`
}

type searchedUserResponse struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Kana       string `json:"kana"`
	EntryDate  string `json:"entryDate"`
	OfficeName string `json:"officeName"`
	FileName   string `json:"fileName"`
}

type userForFilterResponse struct {
	UserID         string   `json:"userId"`
	UserName       string   `json:"userName"`
	FileName       string   `json:"fileName"`
	OfficeName     string   `json:"officeName"`
	DepartmentName string   `json:"departmentName"`
	SkillNames     []string `json:"skillNames"`
}

// List はページングされたユーザー一覧を返す。
// GET /api/users?limit=&offset=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultUsersPerPage)
	offset := queryInt(r, "offset", 0)

	users, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]userResponse, 0, len(users))
	for _, u := range users {
		res = append(res, userResponse{
			UserID:     u.ID,
			UserName:   u.Name,
			FileName:   u.Icon.FileName,
			OfficeName: u.OfficeName,
		})
	}
	writeJSON(w, http.StatusOK, res)
}

// Get は指定IDのユーザーを返す。
// GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	user, err := h.service.ByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError(userID))
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		UserID:     user.ID,
		UserName:   user.Name,
		FileName:   user.Icon.FileName,
		OfficeName: user.OfficeName,
	})
}

// Search は指定された条件でユーザーを検索する。
// GET /api/users/search?target=&keyword=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	keyword := r.URL.Query().Get("keyword")

	var users []model.SearchedUser
	var err error
	switch target {
	case "userName":
		users, err = h.service.ByUserName(r.Context(), keyword)
	case "kana":
		users, err = h.service.ByKana(r.Context(), keyword)
	case "mail":
		users, err = h.service.ByMail(r.Context(), keyword)
	case "department":
		users, err = h.service.ByDepartmentName(r.Context(), keyword)
	case "role":
		users, err = h.service.ByRoleName(r.Context(), keyword)
	case "office":
		users, err = h.service.ByOfficeName(r.Context(), keyword)
	case "skill":
		users, err = h.service.BySkillName(r.Context(), keyword)
	case "goal":
		users, err = h.service.ByGoal(r.Context(), keyword)
	default:
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidTargetError(target))
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]searchedUserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, searchedUserResponse{
			UserID:     u.ID,
			UserName:   u.Name,
			Kana:       u.Kana,
			EntryDate:  u.EntryDate,
			OfficeName: u.OfficeName,
			FileName:   u.IconFileName,
		})
	}
	writeJSON(w, http.StatusOK, res)
}

// Filter はランダムに選んだユーザーをフィルタ用属性付きで返す。
// 認証済みユーザーを起点として扱う。
// GET /api/users/filter?num=
func (h *UserHandler) Filter(w http.ResponseWriter, r *http.Request) {
	seedUserID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	num := queryInt(r, "num", 1)

	users, err := h.service.Sample(r.Context(), seedUserID, num)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	res := make([]userForFilterResponse, 0, len(users))
	for _, u := range users {
		res = append(res, userForFilterResponse{
			UserID:         u.ID,
			UserName:       u.Name,
			FileName:       u.IconFileName,
			OfficeName:     u.OfficeName,
			DepartmentName: u.DepartmentName,
			SkillNames:     u.SkillNames,
		})
	}
	writeJSON(w, http.StatusOK, res)
}

// --- ヘルパー関数 ---

// queryInt はクエリパラメータを整数として読む。未指定または不正な場合はデフォルト値を返す。
func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidTarget, model.ErrCodeInvalidPagination:
		return http.StatusBadRequest
	case model.ErrCodeEmptyPopulation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
