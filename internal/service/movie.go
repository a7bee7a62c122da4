package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/user/moviescroll/internal/logging"
	"github.com/user/moviescroll/internal/metrics"
	"github.com/user/moviescroll/internal/model"
	"github.com/user/moviescroll/internal/repository"
)

const (
	// 每次请求的电影数
	BatchSize = 5

	sampleMultiplier = 3
	sampleUpperBound = 50
)

// Randomizer 随机源
type Randomizer interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

type globalRand struct{}

func (globalRand) IntN(n int) int                     { return rand.IntN(n) }
func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// MovieService 随机电影抽样
type MovieService struct {
	store repository.CatalogStore
	rand  Randomizer
}

// NewMovieService rnd 为 nil 时使用 math/rand/v2 的全局随机源
func NewMovieService(store repository.CatalogStore, rnd Randomizer) *MovieService {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &MovieService{store: store, rand: rnd}
}

// EligibleQuery 有预告片的电影
func EligibleQuery() repository.Query {
	return repository.From("movies").
		NotNull("trailer_id").
		Neq("trailer_id", "")
}

// FetchRandom 从目录中随机取出最多 limit 部可展示的电影
func (s *MovieService) FetchRandom(ctx context.Context, limit int) ([]model.Movie, error) {
	movies := make([]model.Movie, 0, max(limit, 0))
	if limit <= 0 {
		return movies, nil
	}

	available, err := s.store.Count(ctx, EligibleQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to count movies: %w", err)
	}
	if available <= 0 {
		return movies, nil
	}

	sampleSize := int(min(int64(min(sampleUpperBound, max(limit*sampleMultiplier, limit))), available))
	maxStart := int(available) - sampleSize
	rangeStart := 0
	if maxStart > 0 {
		rangeStart = s.rand.IntN(maxStart + 1)
	}
	rangeEnd := rangeStart + sampleSize - 1

	q := EligibleQuery().
		OrderBy("id", true).
		WithRange(rangeStart, rangeEnd).
		With("Metrics", "Offers.Provider")

	rows, err := s.store.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movies: %w", err)
	}

	s.rand.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

	seen := make(map[model.MovieID]struct{}, len(rows))
	rejected := 0
	for _, row := range rows {
		if len(movies) == limit {
			break
		}
		movie, ok := NormalizeMovie(row)
		if !ok {
			rejected++
			continue
		}
		if _, dup := seen[movie.ID]; dup {
			continue
		}
		seen[movie.ID] = struct{}{}
		movies = append(movies, movie)
	}

	if rejected > 0 {
		metrics.RowsRejected.Add(float64(rejected))
		logging.Ctx(ctx).Debug().Int("rejected", rejected).Msg("丢弃不可展示的目录行")
	}
	return movies, nil
}

// NextBatch 根据交互信号返回下一批电影（目前交互内容不参与选择）
func (s *MovieService) NextBatch(ctx context.Context, interactions []model.Interaction) ([]model.Movie, error) {
	logging.Ctx(ctx).Debug().
		Int("interactions", len(interactions)).
		Interface("recommended_ids", RecommendedMovieIDs(interactions)).
		Msg("收到交互信号")

	movies, err := s.FetchRandom(ctx, BatchSize)
	if err != nil {
		return nil, err
	}
	metrics.MoviesServed.Add(float64(len(movies)))
	return movies, nil
}

// RecommendedMovieIDs 推荐接口占位：把交互输入直接映射为电影 ID
func RecommendedMovieIDs(interactions []model.Interaction) []model.MovieID {
	ids := make([]model.MovieID, 0, len(interactions))
	for _, in := range interactions {
		ids = append(ids, model.MovieID(in.Input))
	}
	return ids
}
