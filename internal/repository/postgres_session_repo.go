package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/meibo/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session (session_id, linked_user_id, created_at)
		 VALUES ($1, $2, $3)`,
		session.ID, session.UserID, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindBySessionID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresSessionRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, linked_user_id, created_at
		 FROM session
		 WHERE session_id = $1
		 LIMIT 1`,
		sessionID,
	).Scan(&session.ID, &session.UserID, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session by session ID: %w", err)
	}

	return session, nil
}

// FindByUserID は指定ユーザーのセッションを1件取得する。見つからない場合はnilを返す。
func (r *PostgresSessionRepo) FindByUserID(ctx context.Context, userID string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, linked_user_id, created_at
		 FROM session
		 WHERE linked_user_id = $1
		 LIMIT 1`,
		userID,
	).Scan(&session.ID, &session.UserID, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session by user ID: %w", err)
	}

	return session, nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *PostgresSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM session WHERE linked_user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
