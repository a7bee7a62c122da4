// Package app 组装数据库、缓存、服务与 HTTP 引擎
package app

import (
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/user/moviescroll/internal/config"
	"github.com/user/moviescroll/internal/handler"
	"github.com/user/moviescroll/internal/logging"
	"github.com/user/moviescroll/internal/model"
	"github.com/user/moviescroll/internal/repository"
	"github.com/user/moviescroll/internal/router"
	"github.com/user/moviescroll/internal/service"
	"github.com/user/moviescroll/internal/utils"
	"gorm.io/gorm"
)

const identityTimeout = 10 * time.Second

func init() {
	// 注册 Session 模型
	gob.Register(model.SessionUser{})
}

// App 应用运行时依赖
type App struct {
	Config  *config.Config
	Repos   *repository.Repositories
	Movies  *service.MovieService
	Monitor *service.CatalogMonitor
	Engine  *gin.Engine

	redis *redis.Client
}

// New 连接数据库与 Redis 并组装应用
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	rdb, err := repository.InitRedis(ctx, cfg.Redis)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	a, err := Build(cfg, db, rdb)
	if err != nil {
		closeDB(db)
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}
	return a, nil
}

// Build 用已建立的连接组装应用，rdb 为 nil 时计数缓存使用进程内存
func Build(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	if cfg.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	repos := repository.NewRepositories(db)

	// 目录查询：熔断在内，计数缓存在外，缓存命中时不经过熔断器
	var store repository.CatalogStore = repository.NewBreakerCatalog(repos.Catalog, repository.DefaultBreakerConfig())
	if cfg.CountCacheTTL > 0 {
		store = repository.NewCachedCatalog(store, countCache(cfg, rdb))
	}

	movies := service.NewMovieService(store, nil)
	monitor := service.NewCatalogMonitor(store, cfg.CatalogRefresh)
	identity := service.NewIdentityService(cfg.Identity, utils.NewHTTPClient(identityTimeout))
	h := handler.NewHandler(cfg, movies, identity)

	engine, err := router.NewEngine(cfg, h)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("env", cfg.Env).
		Bool("redis", rdb != nil).
		Bool("identity", identity.Enabled()).
		Dur("count_cache_ttl", cfg.CountCacheTTL).
		Msg("应用初始化完成")

	return &App{
		Config:  cfg,
		Repos:   repos,
		Movies:  movies,
		Monitor: monitor,
		Engine:  engine,
		redis:   rdb,
	}, nil
}

func countCache(cfg *config.Config, rdb *redis.Client) repository.CountCache {
	if rdb != nil {
		return repository.NewRedisCountCache(rdb, cfg.CountCacheTTL)
	}
	return utils.NewMemoryCache(cfg.CountCacheTTL)
}

// Start 启动后台任务，ctx 结束后停止
func (a *App) Start(ctx context.Context) {
	a.Monitor.Start(ctx)
}

// Close 释放数据库与 Redis 连接
func (a *App) Close() error {
	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if sqlDB, err := a.Repos.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
