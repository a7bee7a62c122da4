package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/moviescroll/internal/feed"
	"github.com/user/moviescroll/internal/logging"
	"github.com/user/moviescroll/internal/model"
)

// Home 首页
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", h.RenderData(c, gin.H{
		"Title": h.Config.SiteName,
	}))
}

// Scroll 信息流页面，服务端渲染第 page 页
func (h *Handler) Scroll(c *gin.Context) {
	ctx := c.Request.Context()

	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		page = 0
	}

	view := feed.View{Status: feed.StatusSuccess}
	movies, err := h.Movies.NextBatch(ctx, feed.Interactions(page))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("page", page).Msg("加载信息流失败")
		view = feed.View{Status: feed.StatusError, Err: feed.ErrFetchMovies}
	} else {
		view.Movies = movies
		view.Active = activeMovie(movies, c.Query("active"))
		view.EndOfFeed = page > 0 && len(movies) == 0
	}

	c.HTML(http.StatusOK, "scroll.html", h.RenderData(c, gin.H{
		"Title":    "Scroll - " + h.Config.SiteName,
		"Feed":     view,
		"Page":     page,
		"NextPage": page + 1,
		"HasMore":  len(movies) > 0,
	}))
}

// activeMovie 请求指定的电影在本页中则选中它，否则选第一部
func activeMovie(movies []model.Movie, requested string) *model.Movie {
	ids := make([]model.MovieID, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}

	state := feed.ActiveState{}
	if id, err := strconv.ParseInt(requested, 10, 64); err == nil {
		state = state.Observe([]feed.Observation{{MovieID: id, Ratio: 1, Intersecting: true}})
	}
	id, ok := state.Reconcile(ids).ID()
	if !ok {
		return nil
	}
	for i := range movies {
		if movies[i].ID == id {
			return &movies[i]
		}
	}
	return nil
}

// Watchlist 片单
func (h *Handler) Watchlist(c *gin.Context) {
	c.HTML(http.StatusOK, "watchlist.html", h.RenderData(c, gin.H{
		"Title": "Watchlist - " + h.Config.SiteName,
	}))
}

// MyMovies 我的电影
func (h *Handler) MyMovies(c *gin.Context) {
	c.HTML(http.StatusOK, "my_movies.html", h.RenderData(c, gin.H{
		"Title": "My Movies - " + h.Config.SiteName,
	}))
}

// Settings 设置
func (h *Handler) Settings(c *gin.Context) {
	c.HTML(http.StatusOK, "settings.html", h.RenderData(c, gin.H{
		"Title":     "Settings - " + h.Config.SiteName,
		"Languages": []string{"English", "Spanish", "French", "German"},
	}))
}

// NotFound 404
func (h *Handler) NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
		"Title": "Not Found - " + h.Config.SiteName,
	}))
}
