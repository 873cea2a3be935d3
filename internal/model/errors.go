// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, search, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidTarget      = "INVALID_TARGET"
	ErrCodeInvalidPagination  = "INVALID_PAGINATION"
	ErrCodeEmptyPopulation    = "EMPTY_POPULATION"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
)

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "search",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewInvalidCredentialsError はメールアドレスまたはパスワードが一致しない場合のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidTargetError は検索対象の指定が無効な場合のエラーを生成する。
func NewInvalidTargetError(target string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTarget,
		Message:  fmt.Sprintf("無効な検索対象です: %s", target),
		Category: "validation",
		Action:   "検索対象には userName、kana、mail、department、role、office、skill、goal のいずれかを指定してください。",
	}
}

// NewInvalidPaginationError はlimit/offsetの指定が無効な場合のエラーを生成する。
func NewInvalidPaginationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPagination,
		Message:  fmt.Sprintf("無効なページネーション指定です: %s", reason),
		Category: "validation",
		Action:   "limitとoffsetには0以上の整数を指定してください。",
	}
}

// NewEmptyPopulationError はユーザー数0に対するサンプリング要求のエラーを生成する。
// ランダムオフセットの抽選前に検出し、空の母集団への範囲外アクセスを防ぐ。
func NewEmptyPopulationError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyPopulation,
		Message:  "ユーザーが登録されていないため、サンプリングできません。",
		Category: "search",
		Action:   "ユーザーを登録してから再度お試しください。",
	}
}

// NewUnauthorizedError は認証されていないリクエストのエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
