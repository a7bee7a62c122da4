package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/user/moviescroll/internal/logging"
	"github.com/user/moviescroll/internal/model"
)

// DefaultProximityMargin 距离列表末尾多少像素时开始加载下一页
const DefaultProximityMargin = 200

var (
	ErrFetchInFlight = errors.New("feed: fetch already in flight")
	ErrNoNextPage    = errors.New("feed: no next page")
	ErrClosed        = errors.New("feed: controller closed")
)

// Status 首屏状态
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Option 控制器选项
type Option func(*Controller)

// WithProximityMargin 设置触发加载的距离
func WithProximityMargin(px float64) Option {
	return func(c *Controller) { c.margin = px }
}

// WithOnChange 状态变化回调（在锁外调用）
func WithOnChange(fn func()) Option {
	return func(c *Controller) { c.onChange = fn }
}

// Controller 分页信息流控制器
//
// 同一时间最多一个请求在途；页面在控制器生命周期内不过期，Reset 清空。
type Controller struct {
	fetcher  PageFetcher
	margin   float64
	onChange func()

	mu         sync.Mutex
	pages      [][]model.Movie
	status     Status
	err        error // 首屏错误
	nextErr    error // 后续页错误
	hasNext    bool
	fetching   bool
	closed     bool
	generation uint64
	active     ActiveState

	wg sync.WaitGroup
}

func NewController(fetcher PageFetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher: fetcher,
		margin:  DefaultProximityMargin,
		status:  StatusPending,
		hasNext: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start 拉取首屏，已有数据或正在拉取时不做任何事
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if len(c.pages) > 0 || c.fetching {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.FetchNext(ctx)
}

// OnSentinel 列表末尾标记距离视口 distancePx 像素，进入范围时尝试加载下一页，返回是否发起了请求
func (c *Controller) OnSentinel(ctx context.Context, distancePx float64) bool {
	if distancePx > c.margin {
		return false
	}
	return c.FetchNext(ctx) == nil
}

// FetchNext 异步拉取下一页
func (c *Controller) FetchNext(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.fetching:
		c.mu.Unlock()
		return ErrFetchInFlight
	case !c.hasNext:
		c.mu.Unlock()
		return ErrNoNextPage
	}

	page := len(c.pages)
	gen := c.generation
	c.fetching = true
	c.nextErr = nil
	if page == 0 {
		c.status = StatusPending
		c.err = nil
	}
	c.wg.Add(1)
	c.mu.Unlock()
	c.notify()

	go func() {
		defer c.wg.Done()
		movies, err := c.fetcher.FetchPage(ctx, page)
		c.finish(ctx, gen, page, movies, err)
	}()
	return nil
}

func (c *Controller) finish(ctx context.Context, gen uint64, page int, movies []model.Movie, err error) {
	c.mu.Lock()
	if gen != c.generation {
		// Reset 之前发起的请求
		c.mu.Unlock()
		return
	}
	c.fetching = false

	switch {
	case err != nil:
		logging.Ctx(ctx).Warn().Err(err).Int("page", page).Msg("加载电影失败")
		if len(c.pages) == 0 {
			c.status = StatusError
			c.err = err
		} else {
			c.nextErr = err
		}
	case page == len(c.pages):
		c.pages = append(c.pages, movies)
		c.status = StatusSuccess
		if len(movies) == 0 {
			c.hasNext = false
		}
		c.active = c.active.Reconcile(c.movieIDs())
	}
	c.mu.Unlock()
	c.notify()
}

// Observe 更新可见比例，只影响当前电影，不会触发请求
func (c *Controller) Observe(batch []Observation) {
	c.mu.Lock()
	prev := c.active
	c.active = c.active.Observe(batch)
	changed := prev != c.active
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

// Reset 清空所有页面，之前在途请求的结果会被丢弃
func (c *Controller) Reset() {
	c.mu.Lock()
	c.generation++
	c.pages = nil
	c.status = StatusPending
	c.err = nil
	c.nextErr = nil
	c.hasNext = true
	c.fetching = false
	c.active = ActiveState{}
	c.mu.Unlock()
	c.notify()
}

// Wait 等待在途请求结束
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close 拒绝新的请求并等待在途请求结束
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *Controller) movieIDs() []model.MovieID {
	ids := make([]model.MovieID, 0, len(c.pages)*PageSize)
	for _, p := range c.pages {
		for _, m := range p {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// View 渲染模型
type View struct {
	Status       Status
	Movies       []model.Movie
	Active       *model.Movie
	FetchingNext bool
	EndOfFeed    bool
	Err          error
	NextErr      error
}

// View 当前状态快照
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	movies := make([]model.Movie, 0, len(c.pages)*PageSize)
	for _, p := range c.pages {
		movies = append(movies, p...)
	}

	v := View{
		Status:       c.status,
		Movies:       movies,
		FetchingNext: c.fetching && len(c.pages) > 0,
		EndOfFeed:    !c.hasNext && len(movies) > 0,
		Err:          c.err,
		NextErr:      c.nextErr,
	}
	if len(movies) > 0 {
		v.Active = &movies[0]
		if id, ok := c.active.ID(); ok {
			for i := range movies {
				if movies[i].ID == id {
					v.Active = &movies[i]
					break
				}
			}
		}
	}
	return v
}

// Message 状态提示文案，正常展示电影时为空
func (v View) Message() string {
	switch {
	case v.Status == StatusPending:
		return "Loading movies..."
	case v.Err != nil:
		return "Error loading movies: " + v.Err.Error()
	case v.Active == nil:
		return "No movies to display"
	default:
		return ""
	}
}
