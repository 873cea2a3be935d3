package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/meibo/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindIDByMailAndPassword はメールアドレスとパスワードハッシュでユーザーIDを検索する。
// 見つからない場合は空文字列を返す。
func (r *PostgresUserRepo) FindIDByMailAndPassword(ctx context.Context, mail, passwordHash string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM users WHERE mail = $1 AND password = $2`,
		mail, passwordHash,
	).Scan(&id)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find user by mail and password: %w", err)
	}

	return id, nil
}

// List はentry_date昇順、kana昇順でユーザー一覧を取得する。
func (r *PostgresUserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.user_id, u.user_name, u.user_icon_id, f.file_name, o.office_name
		 FROM users u
		 LEFT JOIN office o ON u.office_id = o.office_id
		 LEFT JOIN file f ON u.user_icon_id = f.file_id
		 ORDER BY u.entry_date ASC, u.kana ASC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		var fileName, officeName sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &u.Icon.FileID, &fileName, &officeName); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		u.Icon.FileName = fileName.String
		u.OfficeName = officeName.String
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}

	return users, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	var fileName, officeName sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT u.user_id, u.user_name, u.user_icon_id, f.file_name, o.office_name
		 FROM users u
		 LEFT JOIN office o ON u.office_id = o.office_id
		 LEFT JOIN file f ON u.user_icon_id = f.file_id
		 WHERE u.user_id = $1`,
		id,
	).Scan(&user.ID, &user.Name, &user.Icon.FileID, &fileName, &officeName)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	user.Icon.FileName = fileName.String
	user.OfficeName = officeName.String
	return user, nil
}

// queryIDs はID1列を返すクエリを実行し、結果をスライスで返す。
func (r *PostgresUserRepo) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query IDs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ID row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ID rows: %w", err)
	}

	return ids, nil
}

// UserIDsByName はユーザー名の部分一致でユーザーIDを検索する。
func (r *PostgresUserRepo) UserIDsByName(ctx context.Context, name string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT user_id FROM users WHERE user_name ILIKE '%' || $1 || '%'`, name)
}

// UserIDsByKana はカナの部分一致でユーザーIDを検索する。
func (r *PostgresUserRepo) UserIDsByKana(ctx context.Context, kana string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT user_id FROM users WHERE kana ILIKE '%' || $1 || '%'`, kana)
}

// UserIDsByMail はメールアドレスの部分一致でユーザーIDを検索する。
func (r *PostgresUserRepo) UserIDsByMail(ctx context.Context, mail string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT user_id FROM users WHERE mail ILIKE '%' || $1 || '%'`, mail)
}

// UserIDsByGoal は目標の部分一致でユーザーIDを検索する。
func (r *PostgresUserRepo) UserIDsByGoal(ctx context.Context, goal string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT user_id FROM users WHERE goal ILIKE '%' || $1 || '%'`, goal)
}

// ActiveDepartmentIDsByName は部署名の部分一致で有効な部署IDを検索する。
func (r *PostgresUserRepo) ActiveDepartmentIDsByName(ctx context.Context, name string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT department_id FROM department WHERE department_name ILIKE '%' || $1 || '%' AND active = TRUE`, name)
}

// UserIDsByDepartmentIDs は指定部署に在籍中のユーザーIDを検索する。
func (r *PostgresUserRepo) UserIDsByDepartmentIDs(ctx context.Context, departmentIDs []string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT user_id FROM department_role_member WHERE department_id = ANY($1) AND belong = TRUE`,
		pq.Array(departmentIDs))
}

// ActiveRoleIDsByName はロール名の部分一致で有効なロールIDを検索する。
func (r *PostgresUserRepo) ActiveRoleIDsByName(ctx context.Context, name string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT role_id FROM role WHERE role_name ILIKE '%' || $1 || '%' AND active = TRUE`, name)
}

// UserIDsByRoleIDs は指定ロールに在籍中のユーザーIDを検索する。
func (r *PostgresUserRepo) UserIDsByRoleIDs(ctx context.Context, roleIDs []string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT user_id FROM department_role_member WHERE role_id = ANY($1) AND belong = TRUE`,
		pq.Array(roleIDs))
}

// OfficeIDsByName はオフィス名の部分一致でオフィスIDを検索する。
func (r *PostgresUserRepo) OfficeIDsByName(ctx context.Context, name string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT office_id FROM office WHERE office_name ILIKE '%' || $1 || '%'`, name)
}

// UserIDsByOfficeIDs は指定オフィス所属のユーザーIDを検索する。
func (r *PostgresUserRepo) UserIDsByOfficeIDs(ctx context.Context, officeIDs []string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT user_id FROM users WHERE office_id = ANY($1)`,
		pq.Array(officeIDs))
}

// SkillIDsByName はスキル名の部分一致でスキルIDを検索する。
func (r *PostgresUserRepo) SkillIDsByName(ctx context.Context, name string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT skill_id FROM skill WHERE skill_name ILIKE '%' || $1 || '%'`, name)
}

// UserIDsBySkillIDs は指定スキルを保有するユーザーIDを検索する。
func (r *PostgresUserRepo) UserIDsBySkillIDs(ctx context.Context, skillIDs []string) ([]string, error) {
	return r.queryIDs(ctx,
		`SELECT user_id FROM skill_member WHERE skill_id = ANY($1)`,
		pq.Array(skillIDs))
}

// FindManyByIDs はID集合1チャンク分のユーザーを一括取得する。
// 該当行が存在しないIDは結果から単に欠落し、行順はストアの返却順に従う。
func (r *PostgresUserRepo) FindManyByIDs(ctx context.Context, ids []string) ([]model.SearchedUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT
			u.user_id,
			u.user_name,
			u.kana,
			to_char(u.entry_date, 'YYYY-MM-DD'),
			u.office_id,
			u.user_icon_id,
			o.office_name,
			f.file_name
		 FROM users u
		 LEFT JOIN office o ON u.office_id = o.office_id
		 LEFT JOIN file f ON u.user_icon_id = f.file_id
		 WHERE u.user_id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find users by IDs: %w", err)
	}
	defer rows.Close()

	users := []model.SearchedUser{}
	for rows.Next() {
		var u model.SearchedUser
		var officeName, fileName sql.NullString
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Kana, &u.EntryDate,
			&u.OfficeID, &u.IconFileID, &officeName, &fileName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan searched user row: %w", err)
		}
		u.OfficeName = officeName.String
		u.IconFileName = fileName.String
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate searched user rows: %w", err)
	}

	return users, nil
}

// Count はユーザーの総数を返す。
func (r *PostgresUserRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// SampleBySerialIDs は連番ID集合に対応するユーザーをフィルタ用属性付きで取得する。
// スキル名はarray_aggで集約し、部署はbelong=TRUEの在籍のみをJOINする。
func (r *PostgresUserRepo) SampleBySerialIDs(ctx context.Context, serialIDs []int64) ([]SampledUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT
			u.serial_id,
			u.user_id,
			u.user_name,
			f.file_name,
			o.office_name,
			d.department_name,
			COALESCE(array_agg(s.skill_name) FILTER (WHERE s.skill_name IS NOT NULL), '{}')
		 FROM users u
		 LEFT JOIN office o ON u.office_id = o.office_id
		 LEFT JOIN file f ON u.user_icon_id = f.file_id
		 LEFT JOIN department_role_member drm ON u.user_id = drm.user_id AND drm.belong = TRUE
		 LEFT JOIN department d ON drm.department_id = d.department_id
		 LEFT JOIN skill_member sm ON u.user_id = sm.user_id
		 LEFT JOIN skill s ON sm.skill_id = s.skill_id
		 WHERE u.serial_id = ANY($1)
		 GROUP BY u.serial_id, u.user_id, u.user_name, f.file_name, o.office_name, d.department_name`,
		pq.Array(serialIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sample users: %w", err)
	}
	defer rows.Close()

	sampled := []SampledUser{}
	for rows.Next() {
		var s SampledUser
		var fileName, officeName, departmentName sql.NullString
		var skillNames pq.StringArray
		if err := rows.Scan(
			&s.SerialID, &s.User.ID, &s.User.Name,
			&fileName, &officeName, &departmentName, &skillNames,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sampled user row: %w", err)
		}
		s.User.IconFileName = fileName.String
		s.User.OfficeName = officeName.String
		s.User.DepartmentName = departmentName.String
		s.User.SkillNames = []string(skillNames)
		sampled = append(sampled, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sampled user rows: %w", err)
	}

	return sampled, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
