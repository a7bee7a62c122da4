package handler

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/user/moviescroll/internal/config"
	"github.com/user/moviescroll/internal/middleware"
	"github.com/user/moviescroll/internal/model"
	"github.com/user/moviescroll/internal/service"
)

// SessionUserKey session 中保存用户信息的键
const SessionUserKey = "userinfo"

// MovieBatcher 按交互信号返回下一批电影
type MovieBatcher interface {
	NextBatch(ctx context.Context, interactions []model.Interaction) ([]model.Movie, error)
}

// Handler HTTP 处理器
type Handler struct {
	Config   *config.Config
	Movies   MovieBatcher
	Identity *service.IdentityService

	validate *validator.Validate
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, movies MovieBatcher, identity *service.IdentityService) *Handler {
	return &Handler{
		Config:   cfg,
		Movies:   movies,
		Identity: identity,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"SiteUrl":  h.Config.SiteUrl,
		"Path":     c.Request.URL.Path,
	}

	// 优先使用 token 中的用户，其次 session
	if user, ok := middleware.GetUser(c); ok {
		res["UserInfo"] = user
	} else if userinfo := sessions.Default(c).Get(SessionUserKey); userinfo != nil {
		if su, ok := userinfo.(model.SessionUser); ok {
			res["UserInfo"] = su
		}
	}

	res["ActiveMenu"] = h.getActiveMenu(c.Request.URL.Path)

	for k, v := range data {
		res[k] = v
	}
	return res
}

// getActiveMenu 根据路径判断当前高亮菜单
func (h *Handler) getActiveMenu(path string) string {
	switch path {
	case "/scroll":
		return "scroll"
	case "/scroll/watchlist":
		return "watchlist"
	case "/scroll/my-movies":
		return "my-movies"
	case "/scroll/settings":
		return "settings"
	default:
		return ""
	}
}
