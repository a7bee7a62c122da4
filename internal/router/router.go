package router

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/moviescroll/internal/config"
	"github.com/user/moviescroll/internal/handler"
	"github.com/user/moviescroll/internal/middleware"
	"golang.org/x/crypto/hkdf"
)

//go:embed templates
var templateFS embed.FS

// NewEngine 创建 gin 引擎并挂载中间件与路由
func NewEngine(cfg *config.Config, h *handler.Handler) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())

	// 中间件
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.Security())

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 设置 Session 中间件
	authKey, encKey, err := sessionKeys(cfg.AppSecret)
	if err != nil {
		return nil, err
	}
	store := cookie.NewStore(authKey, encKey)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.JWTExpiry.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("moviescroll_session", store))

	// 加载模板（使用 multitemplate 解决继承问题）
	r.HTMLRender = LoadTemplates()

	RegisterRoutes(r, h)
	return r, nil
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== 公开页面 ====================
	r.GET("/", middleware.OptionalAuth(h.Config.AppSecret), h.Home)

	// ==================== 认证页面 ====================
	auth := r.Group("/auth")
	auth.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		auth.GET("/login", h.LoginPage)
		auth.GET("/login/start", h.LoginStart)
		auth.GET("/callback", h.Callback)
		auth.POST("/logout", h.Logout)
		auth.GET("/error", h.ErrorPage)
		auth.GET("/sign-up-success", h.SignUpSuccess)
	}

	// ==================== 信息流（需要登录）====================
	scroll := r.Group("/scroll")
	scroll.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		scroll.GET("", h.Scroll)
		scroll.GET("/watchlist", h.Watchlist)
		scroll.GET("/my-movies", h.MyMovies)
		scroll.GET("/settings", h.Settings)
	}

	// ==================== API ====================
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		api.POST("/movies/next",
			middleware.RateLimit(h.Config.RateLimit.RPS, h.Config.RateLimit.Burst),
			h.NextMovies)
	}

	r.NoRoute(h.NotFound)
}

// sessionKeys 从 APP_SECRET 派生 cookie 签名与加密密钥
func sessionKeys(secret string) (authKey, encKey []byte, err error) {
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("moviescroll session cookie"))
	authKey = make([]byte, 32)
	encKey = make([]byte, 32)
	if _, err := io.ReadFull(kdf, authKey); err != nil {
		return nil, nil, fmt.Errorf("派生 session 密钥失败: %w", err)
	}
	if _, err := io.ReadFull(kdf, encKey); err != nil {
		return nil, nil, fmt.Errorf("派生 session 密钥失败: %w", err)
	}
	return authKey, encKey, nil
}

// 页面模板
var pages = []string{
	"home", "login", "auth_error", "sign_up_success",
	"scroll", "watchlist", "my_movies", "settings", "404",
}

// LoadTemplates 使用 multitemplate 加载内嵌模板
func LoadTemplates() multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts := mustReadGlob("templates/layouts/*.html")
	partials := mustReadGlob("templates/partials/*.html")

	for _, page := range pages {
		files := make([]string, 0, len(layouts)+len(partials)+1)
		files = append(files, layouts...)
		files = append(files, partials...)
		files = append(files, mustRead("templates/pages/"+page+".html"))
		r.AddFromStringsFuncs(page+".html", funcMap, files...)
	}
	return r
}

func mustReadGlob(pattern string) []string {
	names, err := fs.Glob(templateFS, pattern)
	if err != nil {
		panic(err)
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, mustRead(name))
	}
	return out
}

func mustRead(name string) string {
	b, err := templateFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// 模板函数
var funcMap = template.FuncMap{
	"dict": func(values ...interface{}) (map[string]interface{}, error) {
		if len(values)%2 != 0 {
			return nil, fmt.Errorf("invalid dict call")
		}
		dict := make(map[string]interface{}, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict keys must be strings")
			}
			dict[key] = values[i+1]
		}
		return dict, nil
	},
	"score":   func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
	"compact": compactNumber,
	"title":   titleCase,
}

// titleCase subscription -> Subscription
func titleCase(v any) string {
	s := fmt.Sprint(v)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// compactNumber 1520 -> 1.5K
func compactNumber(n int64) string {
	units := []struct {
		size   float64
		suffix string
	}{{1e9, "B"}, {1e6, "M"}, {1e3, "K"}}

	for _, u := range units {
		if float64(n) >= u.size {
			v := math.Round(float64(n)/u.size*10) / 10
			return strconv.FormatFloat(v, 'f', -1, 64) + u.suffix
		}
	}
	return strconv.FormatInt(n, 10)
}
