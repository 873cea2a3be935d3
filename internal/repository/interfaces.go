// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/meibo/internal/model"
)

// UserRepository はユーザーデータの読み取りインターフェース。
// 検索条件の各段階（ID解決）と、ID集合の一括取得を提供する。
type UserRepository interface {
	// FindIDByMailAndPassword はメールアドレスとパスワードハッシュでユーザーIDを検索する。
	// 見つからない場合は空文字列を返す。
	FindIDByMailAndPassword(ctx context.Context, mail, passwordHash string) (string, error)

	// List はentry_date昇順、kana昇順でユーザー一覧を取得する。
	// オフィス名とアイコンファイル名をJOIN済みで返す。
	List(ctx context.Context, limit, offset int) ([]model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// UserIDsByName はユーザー名の部分一致でユーザーIDを検索する。
	UserIDsByName(ctx context.Context, name string) ([]string, error)
	// UserIDsByKana はカナの部分一致でユーザーIDを検索する。
	UserIDsByKana(ctx context.Context, kana string) ([]string, error)
	// UserIDsByMail はメールアドレスの部分一致でユーザーIDを検索する。
	UserIDsByMail(ctx context.Context, mail string) ([]string, error)
	// UserIDsByGoal は目標の部分一致でユーザーIDを検索する。
	UserIDsByGoal(ctx context.Context, goal string) ([]string, error)

	// ActiveDepartmentIDsByName は部署名の部分一致で有効な部署IDを検索する。
	ActiveDepartmentIDsByName(ctx context.Context, name string) ([]string, error)
	// UserIDsByDepartmentIDs は指定部署に在籍中のユーザーIDを検索する。
	// departmentIDsが空の場合に呼び出してはならない。
	UserIDsByDepartmentIDs(ctx context.Context, departmentIDs []string) ([]string, error)

	// ActiveRoleIDsByName はロール名の部分一致で有効なロールIDを検索する。
	ActiveRoleIDsByName(ctx context.Context, name string) ([]string, error)
	// UserIDsByRoleIDs は指定ロールに在籍中のユーザーIDを検索する。
	UserIDsByRoleIDs(ctx context.Context, roleIDs []string) ([]string, error)

	// OfficeIDsByName はオフィス名の部分一致でオフィスIDを検索する。
	OfficeIDsByName(ctx context.Context, name string) ([]string, error)
	// UserIDsByOfficeIDs は指定オフィス所属のユーザーIDを検索する。
	UserIDsByOfficeIDs(ctx context.Context, officeIDs []string) ([]string, error)

	// SkillIDsByName はスキル名の部分一致でスキルIDを検索する。
	SkillIDsByName(ctx context.Context, name string) ([]string, error)
	// UserIDsBySkillIDs は指定スキルを保有するユーザーIDを検索する。
	UserIDsBySkillIDs(ctx context.Context, skillIDs []string) ([]string, error)

	// FindManyByIDs はID集合1チャンク分のユーザーを一括取得する。
	// オフィス名とアイコンファイル名を1回のJOINで付加する。
	// 該当行が存在しないIDは結果から単に欠落し、行順はストアの返却順に従う。
	FindManyByIDs(ctx context.Context, ids []string) ([]model.SearchedUser, error)

	// Count はユーザーの総数を返す。
	Count(ctx context.Context) (int, error)

	// SampleBySerialIDs は連番ID集合に対応するユーザーをフィルタ用属性付きで取得する。
	// 部署名とスキル名集合をJOINで付加する。該当行が存在しない連番は結果から欠落する。
	SampleBySerialIDs(ctx context.Context, serialIDs []int64) ([]SampledUser, error)
}

// SampledUser はランダムサンプリングの結果1件を、抽選に使った連番付きで表す。
// 呼び出し側は連番をキーに重複オフセットを復元する。
type SampledUser struct {
	SerialID int64
	User     model.UserForFilter
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindBySessionID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindBySessionID(ctx context.Context, sessionID string) (*model.Session, error)
	// FindByUserID は指定ユーザーのセッションを1件取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Session, error)
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
