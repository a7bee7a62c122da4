package handler

import (
	"context"
	"encoding/gob"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/user/moviescroll/internal/config"
	"github.com/user/moviescroll/internal/middleware"
	"github.com/user/moviescroll/internal/model"
	"github.com/user/moviescroll/internal/service"
	"github.com/user/moviescroll/internal/utils"
)

const testSecret = "test-secret-0123456789"

func init() {
	gin.SetMode(gin.TestMode)
	gob.Register(model.SessionUser{})
}

type stubBatcher struct {
	movies []model.Movie
	err    error
	calls  int
	got    []model.Interaction
}

func (s *stubBatcher) NextBatch(_ context.Context, interactions []model.Interaction) ([]model.Movie, error) {
	s.calls++
	s.got = interactions
	return s.movies, s.err
}

func testConfig(env string) *config.Config {
	return &config.Config{
		Env:       env,
		AppSecret: testSecret,
		JWTExpiry: time.Hour,
		SiteName:  "MovieScroll",
	}
}

func newTestEngine(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte(testSecret))))
	r.POST("/api/movies/next", h.NextMovies)
	r.GET("/auth/callback", middleware.OptionalAuth(testSecret), h.Callback)
	r.GET("/auth/login/start", h.LoginStart)
	r.POST("/auth/logout", h.Logout)
	return r
}

func postNext(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/movies/next", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是 JSON: %v (%s)", err, w.Body.String())
	}
	return resp
}

const fiveInteractions = `{"interactions":[{"input":1},{"input":2},{"input":3},{"input":4},{"input":5}]}`

func TestNextMovies_BadRequest(t *testing.T) {
	cases := map[string]string{
		"空请求体":    "",
		"非 JSON":  "not json",
		"缺少字段":    `{}`,
		"不是数组":    `{"interactions":"abc"}`,
		"数量不足":    `{"interactions":[{"input":1},{"input":2}]}`,
		"数量过多":    `{"interactions":[{},{},{},{},{},{}]}`,
		"null 数组": `{"interactions":null}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			batcher := &stubBatcher{}
			r := newTestEngine(NewHandler(testConfig("development"), batcher, nil))

			w := postNext(r, body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("期望 400，得到 %d", w.Code)
			}
			if got := decodeError(t, w).Error; got != "Expected exactly 5 interactions" {
				t.Fatalf("错误信息不符: %q", got)
			}
			if batcher.calls != 0 {
				t.Fatalf("校验失败时不应查询电影")
			}
		})
	}
}

func TestNextMovies_MalformedItemsStillCount(t *testing.T) {
	batcher := &stubBatcher{movies: []model.Movie{{ID: 1}}}
	r := newTestEngine(NewHandler(testConfig("development"), batcher, nil))

	w := postNext(r, `{"interactions":[1,"a",{"input":"x"},{},{"input":4}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，得到 %d %s", w.Code, w.Body.String())
	}
	if len(batcher.got) != 5 || batcher.got[4].Input != 4 {
		t.Fatalf("交互解析错误: %+v", batcher.got)
	}
}

func TestNextMovies_OK(t *testing.T) {
	movies := []model.Movie{
		{ID: 1, Title: "A", StreamingProviders: []model.StreamingProvider{}},
		{ID: 2, Title: "B", StreamingProviders: []model.StreamingProvider{}},
	}
	r := newTestEngine(NewHandler(testConfig("development"), &stubBatcher{movies: movies}, nil))

	w := postNext(r, fiveInteractions)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，得到 %d", w.Code)
	}
	var resp model.NextMoviesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(resp.Movies) != 2 || resp.Movies[1].Title != "B" {
		t.Fatalf("响应电影不符: %+v", resp.Movies)
	}
}

func TestNextMovies_Empty(t *testing.T) {
	r := newTestEngine(NewHandler(testConfig("development"), &stubBatcher{}, nil))

	w := postNext(r, fiveInteractions)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("期望 503，得到 %d", w.Code)
	}
	if got := decodeError(t, w).Error; got != "No movies available" {
		t.Fatalf("错误信息不符: %q", got)
	}
}

func TestNextMovies_ServiceError(t *testing.T) {
	cases := []struct {
		env        string
		wantDetail string
	}{
		{"development", "failed to count movies: db down"},
		{"production", ""},
	}
	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			batcher := &stubBatcher{err: errors.New("failed to count movies: db down")}
			r := newTestEngine(NewHandler(testConfig(tc.env), batcher, nil))

			w := postNext(r, fiveInteractions)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("期望 500，得到 %d", w.Code)
			}
			resp := decodeError(t, w)
			if resp.Error != "Failed to fetch movie recommendations" {
				t.Fatalf("错误信息不符: %q", resp.Error)
			}
			if resp.Detail != tc.wantDetail {
				t.Fatalf("detail 期望 %q，得到 %q", tc.wantDetail, resp.Detail)
			}
		})
	}
}

// identityServer 模拟身份服务的 token 接口
func identityServer(t *testing.T, fail bool) *service.IdentityService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at","user":{"id":"u-1","email":"a@b.c"}}`))
	}))
	t.Cleanup(srv.Close)
	return service.NewIdentityService(config.IdentityConfig{URL: srv.URL, AnonKey: "anon", Provider: "github"}, utils.NewHTTPClient(time.Second))
}

func callback(r *gin.Engine, target string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Host = "localhost:5005"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func hasCookie(w *httptest.ResponseRecorder, name string) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}

func TestCallback_MissingCode(t *testing.T) {
	h := NewHandler(testConfig("development"), &stubBatcher{}, identityServer(t, false))
	w := callback(newTestEngine(h), "/auth/callback", nil)

	if w.Code != http.StatusFound || w.Header().Get("Location") != "http://localhost:5005/auth/error" {
		t.Fatalf("缺少 code 应跳转错误页，得到 %d %s", w.Code, w.Header().Get("Location"))
	}
}

func TestCallback_ExchangeFailure(t *testing.T) {
	h := NewHandler(testConfig("development"), &stubBatcher{}, identityServer(t, true))
	w := callback(newTestEngine(h), "/auth/callback?code=bad", nil)

	if w.Header().Get("Location") != "http://localhost:5005/auth/error" {
		t.Fatalf("换取失败应跳转错误页，得到 %s", w.Header().Get("Location"))
	}
	if hasCookie(w, middleware.TokenCookie) {
		t.Fatalf("换取失败不应签发 token")
	}
}

func TestCallback_Redirects(t *testing.T) {
	cases := []struct {
		name    string
		env     string
		siteURL string
		target  string
		header  map[string]string
		want    string
	}{
		{"本地跳回来源", "development", "https://ignored.example", "/auth/callback?code=c", nil, "http://localhost:5005/scroll"},
		{"本地保留 next", "development", "", "/auth/callback?code=c&next=/scroll/settings", nil, "http://localhost:5005/scroll/settings"},
		{"SITE_URL 优先", "production", "https://movies.example/", "/auth/callback?code=c", map[string]string{"X-Forwarded-Host": "proxy.example"}, "https://movies.example/scroll"},
		{"转发主机", "production", "", "/auth/callback?code=c&next=/scroll/watchlist", map[string]string{"X-Forwarded-Host": "proxy.example"}, "https://proxy.example/scroll/watchlist"},
		{"无可用地址", "production", "", "/auth/callback?code=c", nil, "http://localhost:5005/auth/error"},
		{"外部 next 被忽略", "development", "", "/auth/callback?code=c&next=//evil.example", nil, "http://localhost:5005/scroll"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(tc.env)
			cfg.SiteUrl = tc.siteURL
			h := NewHandler(cfg, &stubBatcher{}, identityServer(t, false))

			w := callback(newTestEngine(h), tc.target, tc.header)
			if w.Code != http.StatusFound {
				t.Fatalf("期望 302，得到 %d", w.Code)
			}
			if got := w.Header().Get("Location"); got != tc.want {
				t.Fatalf("跳转地址期望 %s，得到 %s", tc.want, got)
			}
			loggedIn := !strings.HasSuffix(tc.want, "/auth/error")
			if hasCookie(w, middleware.TokenCookie) != loggedIn {
				t.Fatalf("token cookie 与登录结果不一致")
			}
		})
	}
}

func TestLoginStart(t *testing.T) {
	h := NewHandler(testConfig("development"), &stubBatcher{}, identityServer(t, false))
	w := callback(newTestEngine(h), "/auth/login/start?next=/scroll/settings", nil)

	loc := w.Header().Get("Location")
	if w.Code != http.StatusFound || !strings.Contains(loc, "/auth/v1/authorize?") {
		t.Fatalf("应跳转到授权地址，得到 %d %s", w.Code, loc)
	}
	if !strings.Contains(loc, "code_challenge_method=s256") || !strings.Contains(loc, "provider=github") {
		t.Fatalf("授权地址缺少参数: %s", loc)
	}
	if !hasCookie(w, verifierCookie) {
		t.Fatalf("应写入 code_verifier cookie")
	}
}

func TestLoginStart_NotConfigured(t *testing.T) {
	identity := service.NewIdentityService(config.IdentityConfig{}, utils.NewHTTPClient(time.Second))
	h := NewHandler(testConfig("development"), &stubBatcher{}, identity)
	w := callback(newTestEngine(h), "/auth/login/start", nil)

	if got := w.Header().Get("Location"); got != "http://localhost:5005/auth/error?error=identity_not_configured" {
		t.Fatalf("未配置身份服务应跳转错误页，得到 %s", got)
	}
}

func TestLogout(t *testing.T) {
	h := NewHandler(testConfig("development"), &stubBatcher{}, nil)
	w := httptest.NewRecorder()
	newTestEngine(h).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("登出应跳转首页，得到 %d %s", w.Code, w.Header().Get("Location"))
	}
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                  "/scroll",
		"/scroll/settings":  "/scroll/settings",
		"https://evil.test": "/scroll",
		"//evil.test":       "/scroll",
		"/\\evil.test":      "/scroll",
		"scroll":            "/scroll",
	}
	for in, want := range cases {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q，期望 %q", in, got, want)
		}
	}
}

func TestActiveMovie(t *testing.T) {
	movies := []model.Movie{{ID: 10}, {ID: 20}, {ID: 30}}

	if got := activeMovie(movies, ""); got == nil || got.ID != 10 {
		t.Fatalf("默认应选中第一部，得到 %+v", got)
	}
	if got := activeMovie(movies, "20"); got == nil || got.ID != 20 {
		t.Fatalf("应选中请求的电影，得到 %+v", got)
	}
	if got := activeMovie(movies, "99"); got == nil || got.ID != 10 {
		t.Fatalf("请求的电影不在本页时应回到第一部，得到 %+v", got)
	}
	if got := activeMovie(nil, "20"); got != nil {
		t.Fatalf("空列表不应有选中电影，得到 %+v", got)
	}
}
