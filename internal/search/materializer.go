package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/meibo/internal/model"
)

// defaultChunkSize は1クエリのプレースホルダ上限を超えないためのチャンクサイズ。
const defaultChunkSize = 1000

// chunk はID列を固定長の部分列に分割する。順序は保存される。
func chunk(ids []string, size int) [][]string {
	chunks := [][]string{}
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[i:end])
	}
	return chunks
}

// materialize はユーザーID列をチャンク分割し、チャンクごとのフェッチを
// 並列に発行してレコード化する。
//
// 結果はチャンク順に連結される。チャンク内の行順はストアの返却順であり、
// 入力ID順とは一致しない。該当行のないIDは結果から欠落するため、
// 出力は入力より短くなり得る。
//
// いずれかのチャンクフェッチが失敗した場合は全体が失敗する（部分結果は
// 返さない）。先に失敗したチャンクのエラーが伝播し、残りの実行中フェッチの
// 結果は破棄される。
func (s *Service) materialize(ctx context.Context, ids []string) ([]model.SearchedUser, error) {
	if len(ids) == 0 {
		return []model.SearchedUser{}, nil
	}

	chunks := chunk(ids, s.chunkSize)
	s.collector.RecordChunkFetches(len(chunks))

	results := make([][]model.SearchedUser, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			users, err := s.userRepo.FindManyByIDs(gctx, c)
			if err != nil {
				return err
			}
			results[i] = users
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := []model.SearchedUser{}
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, nil
}
