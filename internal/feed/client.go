// Package feed 无限滚动信息流：分页拉取、当前电影跟踪与渲染模型
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/user/moviescroll/internal/model"
	"github.com/user/moviescroll/internal/utils"
)

// PageSize 每页交互数与电影数
const PageSize = 5

// ErrFetchMovies 拉取失败
var ErrFetchMovies = errors.New("failed to fetch movies")

// PageFetcher 按页号拉取电影
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]model.Movie, error)
}

// Client 调用 POST /api/movies/next
type Client struct {
	endpoint string
	http     *utils.HTTPClient
	header   http.Header
}

// NewClient baseURL 形如 http://localhost:5005
func NewClient(baseURL string, hc *utils.HTTPClient) *Client {
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/movies/next",
		http:     hc,
		header:   http.Header{},
	}
}

// WithCookie 携带登录 cookie
func (c *Client) WithCookie(cookie string) *Client {
	if cookie != "" {
		c.header.Set("Cookie", cookie)
	}
	return c
}

// Interactions 第 page 页的占位交互：page*5+1 .. page*5+5
func Interactions(page int) []model.Interaction {
	items := make([]model.Interaction, PageSize)
	for i := range items {
		items[i] = model.Interaction{Input: float64(page*PageSize + i + 1)}
	}
	return items
}

func (c *Client) FetchPage(ctx context.Context, page int) ([]model.Movie, error) {
	req := model.NextMoviesRequest{Interactions: Interactions(page)}

	var resp model.NextMoviesResponse
	if err := c.http.PostJSON(ctx, c.endpoint, c.header, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchMovies, err)
	}
	if resp.Movies == nil {
		resp.Movies = []model.Movie{}
	}
	return resp.Movies, nil
}
