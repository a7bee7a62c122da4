package utils

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_Count(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	if _, ok := c.GetCount(ctx, "k"); ok {
		t.Fatalf("空缓存不应命中")
	}
	c.SetCount(ctx, "k", 42)
	n, ok := c.GetCount(ctx, "k")
	if !ok || n != 42 {
		t.Fatalf("期望命中 42，得到 %d %v", n, ok)
	}

	c.Flush()
	if _, ok := c.GetCount(ctx, "k"); ok {
		t.Fatalf("Flush 后不应命中")
	}
}

func TestTTLCache_Expiry(t *testing.T) {
	c := NewTTLCache[int](10, 20*time.Millisecond)
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("期望 1，得到 %d %v", v, ok)
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("过期数据不应返回")
	}
	if c.Len() != 0 {
		t.Fatalf("过期数据应被移除，Len=%d", c.Len())
	}
}

func TestTTLCache_GetOrAdd(t *testing.T) {
	c := NewTTLCache[*int](10, time.Minute)
	calls := 0
	create := func() *int {
		calls++
		v := calls
		return &v
	}

	first := c.GetOrAdd("ip", create)
	second := c.GetOrAdd("ip", create)
	if first != second {
		t.Fatalf("同一个 key 应返回同一个值")
	}
	if calls != 1 {
		t.Fatalf("create 应只调用一次，实际 %d", calls)
	}
}

func TestTTLCache_EvictsOldest(t *testing.T) {
	c := NewTTLCache[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("超过容量时最旧的条目应被淘汰")
	}
	if v, ok := c.Get("c"); !ok || v != "3" {
		t.Fatalf("最新条目应存在")
	}
}
