package utils

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestPostJSON_DecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type 错误: %s", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("apikey") != "k" {
			t.Errorf("缺少自定义请求头")
		}
		body, _ := io.ReadAll(r.Body)
		var in map[string]int
		_ = json.Unmarshal(body, &in)

		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		_ = json.NewEncoder(gz).Encode(map[string]int{"echo": in["n"]})
	}))
	defer srv.Close()

	var out struct {
		Echo int `json:"echo"`
	}
	header := http.Header{"apikey": []string{"k"}}
	err := NewHTTPClient(time.Second).PostJSON(context.Background(), srv.URL, header, map[string]int{"n": 3}, &out)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if out.Echo != 3 {
		t.Fatalf("期望 3，得到 %d", out.Echo)
	}
}

func TestPostJSON_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Expected exactly 5 interactions"}`))
	}))
	defer srv.Close()

	err := NewHTTPClient(time.Second).PostJSON(context.Background(), srv.URL, nil, map[string]any{}, nil)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("期望 HTTPError，得到 %v", err)
	}
	if httpErr.StatusCode != 400 || httpErr.Message != "Expected exactly 5 interactions" {
		t.Fatalf("错误内容不对: %+v", httpErr)
	}
}
