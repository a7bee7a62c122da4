package model

// Interaction 用户互动信号（目前只是占位，不参与个性化）
type Interaction struct {
	Input float64 `json:"input"`
}

// NextMoviesRequest POST /api/movies/next 请求体
type NextMoviesRequest struct {
	Interactions []Interaction `json:"interactions" validate:"len=5"`
}

// NextMoviesResponse POST /api/movies/next 响应体
type NextMoviesResponse struct {
	Movies []Movie `json:"movies"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
