package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/user/moviescroll/internal/config"
	"github.com/user/moviescroll/internal/model"
	"github.com/user/moviescroll/internal/utils"
)

// ErrIdentityExchange 授权码换取会话失败
var ErrIdentityExchange = errors.New("identity code exchange failed")

// IdentityService 对接身份服务（GoTrue 兼容接口）
type IdentityService struct {
	baseURL  string
	anonKey  string
	provider string
	client   *utils.HTTPClient
}

func NewIdentityService(cfg config.IdentityConfig, client *utils.HTTPClient) *IdentityService {
	return &IdentityService{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		anonKey:  cfg.AnonKey,
		provider: cfg.Provider,
		client:   client,
	}
}

// Enabled 是否配置了身份服务
func (s *IdentityService) Enabled() bool {
	return s.baseURL != ""
}

// NewPKCE 生成 code_verifier 与对应的 S256 code_challenge
func NewPKCE() (verifier, challenge string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("生成 code_verifier 失败: %w", err)
	}
	verifier = base64.RawURLEncoding.EncodeToString(buf)
	return verifier, CodeChallenge(verifier), nil
}

// CodeChallenge S256(verifier)
func CodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// AuthorizeURL 第三方登录跳转地址
func (s *IdentityService) AuthorizeURL(redirectTo, challenge string) string {
	q := url.Values{}
	q.Set("provider", s.provider)
	q.Set("redirect_to", redirectTo)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "s256")
	return s.baseURL + "/auth/v1/authorize?" + q.Encode()
}

// ExchangeCode 用授权码与 code_verifier 换取会话
func (s *IdentityService) ExchangeCode(ctx context.Context, code, verifier string) (*model.IdentitySession, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("%w: identity service not configured", ErrIdentityExchange)
	}

	header := http.Header{}
	header.Set("apikey", s.anonKey)

	body := map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	}

	var session model.IdentitySession
	if err := s.client.PostJSON(ctx, s.baseURL+"/auth/v1/token?grant_type=pkce", header, body, &session); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityExchange, err)
	}
	if session.User.ID == "" {
		return nil, fmt.Errorf("%w: response missing user", ErrIdentityExchange)
	}
	return &session, nil
}
