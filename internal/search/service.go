// Package search は検索条件の解決とユーザーレコードの一括取得を提供する。
//
// 各検索条件は1段または2段のIDクエリでユーザーID集合に解決され、
// チャンク分割された並列フェッチでレコード化される。
package search

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/hitoshi/meibo/internal/countcache"
	"github.com/hitoshi/meibo/internal/metrics"
	"github.com/hitoshi/meibo/internal/model"
	"github.com/hitoshi/meibo/internal/repository"
)

// Service は検索のサービス層。
// 条件解決、バッチ取得、ランダムサンプリングを提供する。
type Service struct {
	userRepo  repository.UserRepository
	userCount *countcache.Cache
	collector metrics.MetricsCollector
	logger    *slog.Logger
	chunkSize int
	randInt   func(n int) int
}

// NewService はServiceの新しいインスタンスを生成する。
// chunkSizeが0以下の場合はデフォルト値1000を使用する。
func NewService(
	userRepo repository.UserRepository,
	userCount *countcache.Cache,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	chunkSize int,
) *Service {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		userRepo:  userRepo,
		userCount: userCount,
		collector: collector,
		logger:    logger,
		chunkSize: chunkSize,
		randInt:   rand.Intn,
	}
}

// stage1Fn はキーワードからID集合を解決する1段目のクエリ。
type stage1Fn func(ctx context.Context, keyword string) ([]string, error)

// stage2Fn は中間ID集合からユーザーID集合を解決する2段目のクエリ。
type stage2Fn func(ctx context.Context, ids []string) ([]string, error)

// resolveDirect はユーザーテーブルへの直接の部分一致でIDを解決し、レコード化する。
func (s *Service) resolveDirect(ctx context.Context, criterion string, stage1 stage1Fn, keyword string) ([]model.SearchedUser, error) {
	start := time.Now()
	s.collector.RecordSearch(criterion)

	ids, err := stage1(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("検索条件の解決に失敗しました (%s): %w", criterion, err)
	}

	users, err := s.materialize(ctx, ids)
	if err != nil {
		return nil, err
	}

	s.collector.RecordSearchLatency(time.Since(start))
	return users, nil
}

// resolveTwoStage は2段階解決を行う。1段目が空集合の場合は2段目を実行せず
// 空の結果を返す（空のINフィルタは「全件」ではなく「0件」として扱う）。
func (s *Service) resolveTwoStage(ctx context.Context, criterion string, stage1 stage1Fn, stage2 stage2Fn, keyword string) ([]model.SearchedUser, error) {
	start := time.Now()
	s.collector.RecordSearch(criterion)

	intermediateIDs, err := stage1(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("検索条件の解決に失敗しました (%s): %w", criterion, err)
	}
	if len(intermediateIDs) == 0 {
		return []model.SearchedUser{}, nil
	}

	ids, err := stage2(ctx, intermediateIDs)
	if err != nil {
		return nil, fmt.Errorf("検索条件の解決に失敗しました (%s): %w", criterion, err)
	}

	users, err := s.materialize(ctx, ids)
	if err != nil {
		return nil, err
	}

	s.collector.RecordSearchLatency(time.Since(start))
	return users, nil
}

// ByUserName はユーザー名の部分一致で検索する。
func (s *Service) ByUserName(ctx context.Context, keyword string) ([]model.SearchedUser, error) {
	return s.resolveDirect(ctx, "userName", s.userRepo.UserIDsByName, keyword)
}

// ByKana はカナの部分一致で検索する。
func (s *Service) ByKana(ctx context.Context, keyword string) ([]model.SearchedUser, error) {
	return s.resolveDirect(ctx, "kana", s.userRepo.UserIDsByKana, keyword)
}

// ByMail はメールアドレスの部分一致で検索する。
func (s *Service) ByMail(ctx context.Context, keyword string) ([]model.SearchedUser, error) {
	return s.resolveDirect(ctx, "mail", s.userRepo.UserIDsByMail, keyword)
}

// ByGoal は目標の部分一致で検索する。
func (s *Service) ByGoal(ctx context.Context, keyword string) ([]model.SearchedUser, error) {
	return s.resolveDirect(ctx, "goal", s.userRepo.UserIDsByGoal, keyword)
}

// ByDepartmentName は部署名の部分一致で検索する。
// 有効な部署の解決と在籍メンバーの解決の2段階で行う。
func (s *Service) ByDepartmentName(ctx context.Context, keyword string) ([]model.SearchedUser, error) {
	return s.resolveTwoStage(ctx, "department",
		s.userRepo.ActiveDepartmentIDsByName, s.userRepo.UserIDsByDepartmentIDs, keyword)
}

// ByRoleName はロール名の部分一致で検索する。
func (s *Service) ByRoleName(ctx context.Context, keyword string) ([]model.SearchedUser, error) {
	return s.resolveTwoStage(ctx, "role",
		s.userRepo.ActiveRoleIDsByName, s.userRepo.UserIDsByRoleIDs, keyword)
}

// ByOfficeName はオフィス名の部分一致で検索する。
func (s *Service) ByOfficeName(ctx context.Context, keyword string) ([]model.SearchedUser, error) {
	return s.resolveTwoStage(ctx, "office",
		s.userRepo.OfficeIDsByName, s.userRepo.UserIDsByOfficeIDs, keyword)
}

// BySkillName はスキル名の部分一致で検索する。
func (s *Service) BySkillName(ctx context.Context, keyword string) ([]model.SearchedUser, error) {
	return s.resolveTwoStage(ctx, "skill",
		s.userRepo.SkillIDsByName, s.userRepo.UserIDsBySkillIDs, keyword)
}

// List はentry_date昇順、kana昇順のページングされたユーザー一覧を返す。
func (s *Service) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit < 0 || offset < 0 {
		return nil, model.NewInvalidPaginationError(fmt.Sprintf("limit=%d offset=%d", limit, offset))
	}
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// ByID は指定IDのユーザーを返す。見つからない場合はnilを返す。
func (s *Service) ByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return user, nil
}
