package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/user/moviescroll/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接（lib/pq 连接池交给 gorm 使用）
func InitDB(databaseURL string) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("初始化 gorm 失败: %w", err)
	}
	return db, nil
}

// Migrate 创建目录相关表（目录数据由外部导入，这里只保证表结构存在）
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Provider{},
		&model.CatalogRow{},
		&model.Metrics{},
		&model.Offer{},
	)
}

// Repositories 仓库集合
type Repositories struct {
	DB      *gorm.DB
	Catalog *CatalogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:      db,
		Catalog: NewCatalogRepository(db),
	}
}
