package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/user/moviescroll/internal/model"
	"github.com/user/moviescroll/internal/utils"
)

func TestInteractions(t *testing.T) {
	got := Interactions(2)
	if len(got) != PageSize {
		t.Fatalf("期望 %d 条交互，得到 %d", PageSize, len(got))
	}
	for i, in := range got {
		if want := float64(11 + i); in.Input != want {
			t.Fatalf("第 %d 条期望 %v，得到 %v", i, want, in.Input)
		}
	}
}

func TestClient_FetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/movies/next" {
			t.Errorf("请求错误: %s %s", r.Method, r.URL.Path)
		}
		var req model.NextMoviesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("请求体无法解析: %v", err)
		}
		if len(req.Interactions) != 5 || req.Interactions[0].Input != 6 {
			t.Errorf("第 1 页交互错误: %+v", req.Interactions)
		}
		_ = json.NewEncoder(w).Encode(model.NextMoviesResponse{Movies: []model.Movie{{ID: 42, Title: "Answer"}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", utils.NewHTTPClient(time.Second))
	movies, err := c.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if len(movies) != 1 || movies[0].ID != 42 {
		t.Fatalf("结果错误: %+v", movies)
	}
}

func TestClient_FetchPageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"No movies available"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, utils.NewHTTPClient(time.Second)).FetchPage(context.Background(), 0)
	if !errors.Is(err, ErrFetchMovies) {
		t.Fatalf("期望 ErrFetchMovies，得到 %v", err)
	}
	var httpErr *utils.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 503 {
		t.Fatalf("应保留状态码: %v", err)
	}
}
