package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/user/moviescroll/internal/model"
)

// CatalogStore 执行目录查询描述的存储适配器
type CatalogStore interface {
	Count(ctx context.Context, q Query) (int64, error)
	Fetch(ctx context.Context, q Query) ([]model.CatalogRow, error)
}

// FilterOp 过滤操作
type FilterOp string

const (
	OpEq      FilterOp = "eq"
	OpNeq     FilterOp = "neq"
	OpNotNull FilterOp = "not_null"
)

// Filter 单个过滤条件
type Filter struct {
	Column string
	Op     FilterOp
	Value  any
}

// OrderBy 排序
type OrderBy struct {
	Column    string
	Ascending bool
}

// Range 闭区间行范围 [From, To]
type Range struct {
	From int
	To   int
}

// Query 声明式目录查询：表、过滤、排序、范围与需要一并加载的关联
//
// 所有构造方法都返回新的 Query，不会修改原值。
type Query struct {
	Table     string
	Filters   []Filter
	Order     []OrderBy
	Range     *Range
	Relations []string
}

// From 以表名开始构造查询
func From(table string) Query {
	return Query{Table: table}
}

func (q Query) Eq(column string, value any) Query {
	q.Filters = append(slices.Clip(q.Filters), Filter{Column: column, Op: OpEq, Value: value})
	return q
}

func (q Query) Neq(column string, value any) Query {
	q.Filters = append(slices.Clip(q.Filters), Filter{Column: column, Op: OpNeq, Value: value})
	return q
}

func (q Query) NotNull(column string) Query {
	q.Filters = append(slices.Clip(q.Filters), Filter{Column: column, Op: OpNotNull})
	return q
}

func (q Query) OrderBy(column string, ascending bool) Query {
	q.Order = append(slices.Clip(q.Order), OrderBy{Column: column, Ascending: ascending})
	return q
}

// WithRange 限定行范围（含两端）
func (q Query) WithRange(from, to int) Query {
	q.Range = &Range{From: from, To: to}
	return q
}

// With 追加需要预加载的关联，如 "Offers.Provider"
func (q Query) With(relations ...string) Query {
	q.Relations = append(slices.Clip(q.Relations), relations...)
	return q
}

// Key 只由表与过滤条件决定，供 count 缓存使用
func (q Query) Key() string {
	var b strings.Builder
	b.WriteString(q.Table)
	for _, f := range q.Filters {
		fmt.Fprintf(&b, "|%s:%s:%v", f.Column, f.Op, f.Value)
	}
	return b.String()
}
