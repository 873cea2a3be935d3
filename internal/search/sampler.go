package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/meibo/internal/model"
)

// Sample はランダムに選んだユーザーをフィルタ用属性付きで返す。
//
// ユーザー総数はカウントキャッシュ経由で取得し、0件の場合は抽選せずに
// エラーを返す。オフセットは独立に抽選するため重複し得るが、フィルタは
// しない（重複ユーザーは結果にそのまま現れる）。
//
// seedUserIDが空の場合は候補提示の起点がないため1件のみ抽選する。
// numOfUsersが0以下の場合は1として扱う。
func (s *Service) Sample(ctx context.Context, seedUserID string, numOfUsers int) ([]model.UserForFilter, error) {
	count, err := s.userCount.Get(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, model.NewEmptyPopulationError()
	}

	if numOfUsers <= 0 || seedUserID == "" {
		numOfUsers = 1
	}

	// serial_idは1始まりの連番のため、[0, count)のオフセットを+1して対応付ける。
	serialIDs := make([]int64, numOfUsers)
	for i := range serialIDs {
		serialIDs[i] = int64(s.randInt(count)) + 1
	}

	sampled, err := s.userRepo.SampleBySerialIDs(ctx, serialIDs)
	if err != nil {
		return nil, fmt.Errorf("ランダムサンプリングに失敗しました: %w", err)
	}

	// ストアは重複した連番を1行に畳むため、抽選順に展開し直す。
	bySerial := make(map[int64]model.UserForFilter, len(sampled))
	for _, su := range sampled {
		bySerial[su.SerialID] = su.User
	}

	users := []model.UserForFilter{}
	for _, serialID := range serialIDs {
		if u, ok := bySerial[serialID]; ok {
			users = append(users, u)
		}
	}

	s.logger.Debug("ランダムサンプリングを実行しました",
		slog.Int("requested", numOfUsers),
		slog.Int("returned", len(users)),
		slog.Int("population", count),
	)

	return users, nil
}
