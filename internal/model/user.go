package model

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	ID    string
	Email string
}

// IdentityUser 身份服务返回的用户
type IdentityUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// IdentitySession 授权码换取到的会话
type IdentitySession struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	TokenType    string       `json:"token_type"`
	User         IdentityUser `json:"user"`
}
