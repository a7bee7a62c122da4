package utils

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/user/moviescroll/internal/logging"
)

// HTTPError 非 2xx 响应
type HTTPError struct {
	StatusCode int
	Message    string // 响应体中的 error 字段
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("请求失败，状态码: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("请求失败，状态码: %d", e.StatusCode)
}

// HTTPClient JSON 接口客户端
type HTTPClient struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPClient 创建新的HTTP客户端
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "moviescroll/1.0",
	}
}

// WithTransport 替换底层 Transport（测试用）
func (c *HTTPClient) WithTransport(rt http.RoundTripper) *HTTPClient {
	c.httpClient.Transport = rt
	return c
}

// PostJSON 发送 JSON 请求并解析 JSON 响应，target 为 nil 时丢弃响应体
func (c *HTTPClient) PostJSON(ctx context.Context, url string, header http.Header, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
			Msg              string `json:"msg"`
		}
		_ = json.Unmarshal(data, &e)
		msg := e.Error
		if e.ErrorDescription != "" {
			msg = e.ErrorDescription
		} else if msg == "" {
			msg = e.Msg
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("url", url).Bytes("body", truncate(data, 512)).Msg("解析JSON失败")
		return fmt.Errorf("解析JSON失败: %w", err)
	}
	return nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("创建gzip读取器失败: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	default:
		reader = resp.Body
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return body, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
