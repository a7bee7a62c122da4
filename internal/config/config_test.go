package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SITE_URL", "")
	t.Setenv("DB_NAME", "catalog")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cfg.Env != "development" || !cfg.IsLocal() || cfg.IsProduction() {
		t.Fatalf("默认环境应为 development，实际 %q", cfg.Env)
	}
	if !strings.HasSuffix(cfg.DatabaseURL, "/catalog?sslmode=disable") {
		t.Fatalf("DatabaseURL 拼接错误：%s", cfg.DatabaseURL)
	}
	if cfg.SiteUrl != "" {
		t.Fatalf("SITE_URL 不应有默认值，实际 %q", cfg.SiteUrl)
	}
	if cfg.JWTExpiry != 72*time.Hour {
		t.Fatalf("JWTExpiry 默认应为 72h，实际 %v", cfg.JWTExpiry)
	}
	if cfg.CountCacheTTL != 30*time.Second {
		t.Fatalf("CountCacheTTL 默认应为 30s，实际 %v", cfg.CountCacheTTL)
	}
	if cfg.CatalogRefresh != 5*time.Minute {
		t.Fatalf("CatalogRefresh 默认应为 5m，实际 %v", cfg.CatalogRefresh)
	}
}

func TestLoad_DatabaseURLOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cfg.DatabaseURL != "postgres://u:p@db:5432/x" {
		t.Fatalf("DATABASE_URL 未生效：%s", cfg.DatabaseURL)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown env", "APP_ENV", "staging"},
		{"bad site url", "SITE_URL", "not a url"},
		{"bad port", "PORT", "http"},
		{"bad log format", "LOG_FORMAT", "xml"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("期望 %s=%q 校验失败", tc.key, tc.val)
			}
		})
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_SECRET", "")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("生产环境使用默认密钥应报错")
	}

	t.Setenv("APP_SECRET", "a-very-long-production-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !cfg.IsProduction() || cfg.IsLocal() {
		t.Fatalf("环境判断错误：%q", cfg.Env)
	}
}
