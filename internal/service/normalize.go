package service

import (
	"math"
	"strings"

	"github.com/user/moviescroll/internal/model"
)

const (
	RatingSource   = "TMDb"
	RatingMaxScore = 10

	untitled        = "Untitled"
	noDescription   = "No description available."
	unknownGenre    = "Unknown"
	youtubeEmbedURL = "https://www.youtube.com/embed/"
)

// NormalizeMovie 把目录行转换为客户端电影记录
//
// 没有预告片或没有评分指标的行不可展示，返回 false。
func NormalizeMovie(row model.CatalogRow) (model.Movie, bool) {
	if row.TrailerID == nil || row.Metrics == nil {
		return model.Movie{}, false
	}
	trailer := strings.TrimSpace(*row.TrailerID)
	if trailer == "" {
		return model.Movie{}, false
	}

	title := untitled
	switch {
	case row.Title != nil:
		title = *row.Title
	case row.OriginalTitle != nil:
		title = *row.OriginalTitle
	}

	description := noDescription
	if row.Overview != nil {
		description = *row.Overview
	}

	var releaseDate string
	if row.ReleaseDate != nil {
		releaseDate = *row.ReleaseDate
	}

	genre := unknownGenre
	if names := genreNames(row.Genres); len(names) > 0 {
		genre = strings.Join(names, ", ")
	}

	var voteAverage float64
	if row.Metrics.VoteAverage != nil {
		voteAverage = *row.Metrics.VoteAverage
	}
	var voteCount int64
	if row.Metrics.VoteCount != nil {
		voteCount = *row.Metrics.VoteCount
	}

	return model.Movie{
		ID:          row.ID,
		Title:       title,
		Description: description,
		ReleaseDate: releaseDate,
		Genre:       genre,
		VideoURL:    youtubeEmbedURL + trailer,
		Rating: model.MovieRating{
			Source:    RatingSource,
			Score:     roundScore(voteAverage),
			MaxScore:  RatingMaxScore,
			VoteCount: voteCount,
		},
		StreamingProviders: ResolveProviders(row.Offers),
	}, true
}

func genreNames(genres []model.GenreValue) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		if g.Name == nil {
			continue
		}
		if name := strings.TrimSpace(*g.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// roundScore 保留一位小数并限制在 [0, 10]
func roundScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	score := math.Round(v*10) / 10
	return math.Min(math.Max(score, 0), RatingMaxScore)
}
