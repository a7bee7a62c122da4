package handler

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/moviescroll/internal/logging"
	"github.com/user/moviescroll/internal/middleware"
	"github.com/user/moviescroll/internal/model"
	"github.com/user/moviescroll/internal/service"
)

const (
	defaultNext        = "/scroll"
	verifierCookie     = "code_verifier"
	verifierCookieTTL  = 10 * time.Minute
	verifierCookiePath = "/auth"
)

// ==================== 认证页面 ====================

// LoginPage 登录页面
func (h *Handler) LoginPage(c *gin.Context) {
	// 如果已经登录，直接进入信息流
	if _, ok := middleware.GetUser(c); ok {
		c.Redirect(http.StatusFound, defaultNext)
		return
	}
	c.HTML(http.StatusOK, "login.html", h.RenderData(c, gin.H{
		"Title":           "Login - " + h.Config.SiteName,
		"Next":            safeNext(c.Query("next")),
		"IdentityEnabled": h.Identity.Enabled(),
	}))
}

// LoginStart 生成 PKCE 参数并跳转到身份服务
func (h *Handler) LoginStart(c *gin.Context) {
	origin := requestOrigin(c)
	if !h.Identity.Enabled() {
		c.Redirect(http.StatusFound, origin+"/auth/error?error=identity_not_configured")
		return
	}

	verifier, challenge, err := service.NewPKCE()
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("生成 PKCE 失败")
		c.Redirect(http.StatusFound, origin+"/auth/error")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(verifierCookie, verifier, int(verifierCookieTTL.Seconds()), verifierCookiePath, "", c.Request.TLS != nil, true)

	callback := origin + "/auth/callback?next=" + url.QueryEscape(safeNext(c.Query("next")))
	c.Redirect(http.StatusFound, h.Identity.AuthorizeURL(callback, challenge))
}

// Callback 授权码回调：换取会话、签发登录 cookie 并跳转
func (h *Handler) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	origin := requestOrigin(c)
	errorURL := origin + "/auth/error"

	code := c.Query("code")
	next := safeNext(c.Query("next"))
	if code == "" {
		c.Redirect(http.StatusFound, errorURL)
		return
	}

	verifier, _ := c.Cookie(verifierCookie)
	identity, err := h.Identity.ExchangeCode(ctx, code, verifier)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("授权码换取失败")
		c.Redirect(http.StatusFound, errorURL)
		return
	}

	base, ok := h.redirectBase(c, origin)
	if !ok {
		c.Redirect(http.StatusFound, errorURL)
		return
	}

	token, err := middleware.GenerateToken(identity.User.ID, identity.User.Email, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("签发 token 失败")
		c.Redirect(http.StatusFound, errorURL)
		return
	}
	middleware.SetTokenCookie(c, token, h.Config.JWTExpiry)
	c.SetCookie(verifierCookie, "", -1, verifierCookiePath, "", false, true)

	// 保存 UserInfo 到 Session
	session := sessions.Default(c)
	session.Set(SessionUserKey, model.SessionUser{ID: identity.User.ID, Email: identity.User.Email})
	if err := session.Save(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("保存 session 失败")
	}

	logging.Ctx(ctx).Info().Str("user_id", identity.User.ID).Msg("用户登录")
	c.Redirect(http.StatusFound, base+next)
}

// redirectBase 本地环境跳回请求来源；否则依次使用 SITE_URL、X-Forwarded-Host
func (h *Handler) redirectBase(c *gin.Context, origin string) (string, bool) {
	if h.Config.IsLocal() {
		return origin, true
	}
	if h.Config.SiteUrl != "" {
		return strings.TrimRight(h.Config.SiteUrl, "/"), true
	}
	if host := c.GetHeader("X-Forwarded-Host"); host != "" {
		return "https://" + host, true
	}
	return "", false
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c)

	// 清理 Session
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()

	c.Redirect(http.StatusFound, "/")
}

// ErrorPage 登录失败页面
func (h *Handler) ErrorPage(c *gin.Context) {
	c.HTML(http.StatusOK, "auth_error.html", h.RenderData(c, gin.H{
		"Title":     "Error - " + h.Config.SiteName,
		"ErrorCode": c.Query("error"),
	}))
}

// SignUpSuccess 注册成功页面
func (h *Handler) SignUpSuccess(c *gin.Context) {
	c.HTML(http.StatusOK, "sign_up_success.html", h.RenderData(c, gin.H{
		"Title": "Thank you for signing up - " + h.Config.SiteName,
	}))
}

// safeNext 只接受站内路径
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultNext
	}
	return next
}

func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
