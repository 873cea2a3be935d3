// Package session はセッションの作成・検索・削除を提供する。
//
// 永続ストアが正であり、本パッケージはその手前にプロセス内ミラーを持つ。
// ミラーは作成時にライトスルーで追記し、削除時に先行して無効化する。
// ミラーの検索はリニアスキャンで行う。セッション数は小さいため許容する。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/meibo/internal/metrics"
	"github.com/hitoshi/meibo/internal/model"
	"github.com/hitoshi/meibo/internal/repository"
)

// Service はセッション管理のサービス層。
type Service struct {
	repo      repository.SessionRepository
	collector metrics.MetricsCollector
	logger    *slog.Logger
	newID     func() string

	mu     sync.RWMutex
	mirror []*model.Session
}

// NewService はServiceの新しいインスタンスを生成する。
// プロセス内に1インスタンスを生成し、参照で引き回す。
func NewService(
	repo repository.SessionRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if collector == nil {
		collector = metrics.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		collector: collector,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Create は新しいセッションを作成する。
// 永続ストアへの書き込みが成功した場合のみミラーに追記する
// （永続レコードのないミラーエントリは作らない）。
func (s *Service) Create(ctx context.Context, userID string, now time.Time) (*model.Session, error) {
	session := &model.Session{
		ID:        s.newID(),
		UserID:    userID,
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}

	s.storeInMirror(session)

	s.logger.Info("セッションを作成しました",
		slog.String("user_id", userID),
	)

	return session, nil
}

// FindByUserID は指定ユーザーのセッションを返す。見つからない場合はnilを返す。
// ミラーを先に検索し、ミスした場合のみ永続ストアに問い合わせる。
// 永続ストアでヒットした場合はミラーに書き戻す。
func (s *Service) FindByUserID(ctx context.Context, userID string) (*model.Session, error) {
	if session := s.scanMirror(func(sess *model.Session) bool { return sess.UserID == userID }); session != nil {
		s.collector.RecordSessionCacheHit()
		return session, nil
	}
	s.collector.RecordSessionCacheMiss()

	session, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session != nil {
		s.storeInMirror(session)
	}

	return session, nil
}

// FindBySessionID は指定IDのセッションを返す。見つからない場合はnilを返す。
// フォールバックの書き戻し方針はFindByUserIDと同一とする。
func (s *Service) FindBySessionID(ctx context.Context, sessionID string) (*model.Session, error) {
	if session := s.scanMirror(func(sess *model.Session) bool { return sess.ID == sessionID }); session != nil {
		s.collector.RecordSessionCacheHit()
		return session, nil
	}
	s.collector.RecordSessionCacheMiss()

	session, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session != nil {
		s.storeInMirror(session)
	}

	return session, nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
// ミラーの無効化を永続削除より先に行う。永続削除が失敗した場合、
// ミラーは既に消えている（存在するのに不在に見える）が、次回の
// ミラーミス時に永続ストアから読み戻されて回復する。
func (s *Service) DeleteByUserID(ctx context.Context, userID string) error {
	s.mu.Lock()
	kept := s.mirror[:0]
	for _, sess := range s.mirror {
		if sess.UserID != userID {
			kept = append(kept, sess)
		}
	}
	s.mirror = kept
	s.mu.Unlock()

	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	s.logger.Info("セッションを削除しました",
		slog.String("user_id", userID),
	)

	return nil
}

// scanMirror はミラーを先頭から走査し、最初にマッチしたセッションを返す。
func (s *Service) scanMirror(match func(*model.Session) bool) *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.mirror {
		if match(sess) {
			return sess
		}
	}
	return nil
}

// storeInMirror はセッションをミラーに追記する。同一セッションIDの
// エントリが既にある場合は追記しない。
func (s *Service) storeInMirror(session *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.mirror {
		if sess.ID == session.ID {
			return
		}
	}
	s.mirror = append(s.mirror, session)
}
