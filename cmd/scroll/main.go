// scroll 是信息流的终端客户端：逐部浏览电影，接近末尾时自动加载下一页
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/user/moviescroll/internal/feed"
	"github.com/user/moviescroll/internal/logging"
	"github.com/user/moviescroll/internal/model"
	"github.com/user/moviescroll/internal/utils"
)

const (
	viewportHeight = 800
	cardHeight     = 600
)

func main() {
	baseURL := flag.String("url", "http://localhost:5005", "服务地址")
	cookie := flag.String("cookie", "", "请求携带的 Cookie，如 token=...")
	timeout := flag.Duration("timeout", 10*time.Second, "单次请求超时")
	logLevel := flag.String("log-level", "warn", "日志级别")
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, Format: "console"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redraw := make(chan struct{}, 1)
	client := feed.NewClient(*baseURL, utils.NewHTTPClient(*timeout)).WithCookie(*cookie)
	ctrl := feed.NewController(client, feed.WithOnChange(func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	}))
	defer func() {
		stop()
		ctrl.Close()
	}()

	if err := ctrl.Start(ctx); err != nil {
		logging.Fatal().Err(err).Msg("启动信息流失败")
	}

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	s := &session{ctrl: ctrl, out: os.Stdout}
	for {
		select {
		case <-ctx.Done():
			return
		case <-redraw:
			s.render()
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !s.handle(ctx, strings.TrimSpace(line)) {
				return
			}
			s.render()
		}
	}
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out <- sc.Text()
	}
}

// session 终端里的"视口"：cursor 指向占据视口的电影
type session struct {
	ctrl   *feed.Controller
	out    io.Writer
	cursor int
}

// handle 处理一条命令，返回 false 表示退出
func (s *session) handle(ctx context.Context, cmd string) bool {
	view := s.ctrl.View()
	switch cmd {
	case "q", "quit":
		return false
	case "", "n", "next":
		if s.cursor < len(view.Movies)-1 {
			s.cursor++
		}
	case "p", "prev":
		if s.cursor > 0 {
			s.cursor--
		}
	case "r", "retry":
		if err := s.ctrl.FetchNext(ctx); err != nil {
			fmt.Fprintln(s.out, "retry:", err)
		}
		return true
	default:
		fmt.Fprintln(s.out, "commands: n/Enter next, p prev, r retry, q quit")
		return true
	}
	s.scroll(ctx, len(view.Movies))
	return true
}

// scroll 根据 cursor 模拟可见比例与末尾标记距离
func (s *session) scroll(ctx context.Context, total int) {
	movies := s.ctrl.View().Movies
	batch := make([]feed.Observation, 0, 3)
	for i := max(s.cursor-1, 0); i <= min(s.cursor+1, len(movies)-1); i++ {
		ratio := float64(viewportHeight-cardHeight) / 2 / cardHeight
		if i == s.cursor {
			ratio = 1
		}
		batch = append(batch, feed.Observation{MovieID: movies[i].ID, Ratio: ratio, Intersecting: true})
	}
	s.ctrl.Observe(batch)

	// 视口底部到列表末尾的距离
	distance := float64((total-s.cursor)*cardHeight - viewportHeight)
	s.ctrl.OnSentinel(ctx, max(distance, 0))
}

func (s *session) render() {
	view := s.ctrl.View()
	fmt.Fprint(s.out, "\033[H\033[2J")

	if msg := view.Message(); msg != "" {
		fmt.Fprintln(s.out, msg)
		if view.Status != feed.StatusSuccess {
			return
		}
	}

	if view.Active != nil {
		renderMovie(s.out, *view.Active)
	}

	fmt.Fprintln(s.out)
	for i, m := range view.Movies {
		marker := "  "
		if view.Active != nil && m.ID == view.Active.ID {
			marker = "> "
		}
		fmt.Fprintf(s.out, "%s%2d. %s\n", marker, i+1, m.Title)
	}

	switch {
	case view.FetchingNext:
		fmt.Fprintln(s.out, "\nLoading more movies...")
	case view.NextErr != nil:
		fmt.Fprintln(s.out, "\nError loading movies:", view.NextErr)
	case view.EndOfFeed:
		fmt.Fprintln(s.out, "\nNo more movies to load")
	}
}

func renderMovie(w io.Writer, m model.Movie) {
	fmt.Fprintf(w, "%s", m.Title)
	if m.ReleaseDate != "" {
		fmt.Fprintf(w, " (%s)", m.ReleaseDate)
	}
	fmt.Fprintf(w, "\n%s\n%s\n", m.Genre, m.Description)
	fmt.Fprintf(w, "%s %.1f/%g · %d ratings\n", m.Rating.Source, m.Rating.Score, m.Rating.MaxScore, m.Rating.VoteCount)
	fmt.Fprintf(w, "Trailer: %s\n", m.VideoURL)
	for _, p := range m.StreamingProviders {
		fmt.Fprintf(w, "  - %s (%s)\n", p.Name, p.Access)
	}
}
