package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/user/moviescroll/internal/metrics"
	"github.com/user/moviescroll/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository 基于 gorm 的目录存储适配器
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Count 统计满足过滤条件的行数
func (r *CatalogRepository) Count(ctx context.Context, q Query) (int64, error) {
	start := time.Now()
	tx, err := r.apply(r.db.WithContext(ctx).Table(q.Table), q.Filters)
	if err != nil {
		return 0, err
	}

	var count int64
	err = tx.Count(&count).Error
	metrics.ObserveCatalogQuery("count", start, err)
	return count, err
}

// Fetch 按排序与范围读取行，并预加载关联
func (r *CatalogRepository) Fetch(ctx context.Context, q Query) ([]model.CatalogRow, error) {
	rows := make([]model.CatalogRow, 0)
	if q.Range != nil && q.Range.To < q.Range.From {
		return rows, nil
	}

	start := time.Now()
	tx, err := r.apply(r.db.WithContext(ctx).Table(q.Table), q.Filters)
	if err != nil {
		return nil, err
	}

	for _, o := range q.Order {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: !o.Ascending})
	}
	if q.Range != nil {
		tx = tx.Offset(q.Range.From).Limit(q.Range.To - q.Range.From + 1)
	}
	for _, rel := range q.Relations {
		tx = tx.Preload(rel)
	}

	err = tx.Find(&rows).Error
	metrics.ObserveCatalogQuery("fetch", start, err)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepository) apply(tx *gorm.DB, filters []Filter) (*gorm.DB, error) {
	for _, f := range filters {
		col := clause.Column{Name: f.Column}
		switch f.Op {
		case OpEq:
			tx = tx.Where(clause.Eq{Column: col, Value: f.Value})
		case OpNeq:
			tx = tx.Where(clause.Neq{Column: col, Value: f.Value})
		case OpNotNull:
			tx = tx.Where(clause.Expr{SQL: "? IS NOT NULL", Vars: []any{col}})
		default:
			return nil, fmt.Errorf("不支持的过滤操作: %s", f.Op)
		}
	}
	return tx, nil
}
