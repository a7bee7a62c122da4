package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/user/moviescroll/internal/logging"
	"github.com/user/moviescroll/internal/model"
	"github.com/user/moviescroll/internal/utils"
)

const maxRequestBody = 64 << 10

// NextMovies POST /api/movies/next
func (h *Handler) NextMovies(c *gin.Context) {
	ctx := c.Request.Context()

	req := model.NextMoviesRequest{Interactions: parseInteractions(c.Request.Body)}
	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(c, "Expected exactly 5 interactions")
		return
	}

	movies, err := h.Movies.NextBatch(ctx, req.Interactions)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("获取推荐电影失败")
		detail := err.Error()
		if h.Config.IsProduction() {
			detail = ""
		}
		utils.ErrorWithDetail(c, http.StatusInternalServerError, "Failed to fetch movie recommendations", detail)
		return
	}
	if len(movies) == 0 {
		utils.ServiceUnavailable(c, "No movies available")
		return
	}

	c.JSON(http.StatusOK, model.NextMoviesResponse{Movies: movies})
}

// parseInteractions 宽松解析：请求体无法解析或 interactions 不是数组时视为空
func parseInteractions(body io.Reader) []model.Interaction {
	data, err := io.ReadAll(io.LimitReader(body, maxRequestBody))
	if err != nil {
		return nil
	}

	var envelope struct {
		Interactions json.RawMessage `json:"interactions"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(envelope.Interactions, &items); err != nil {
		return nil
	}

	interactions := make([]model.Interaction, len(items))
	for i, raw := range items {
		// 内容不参与选择，单条解析失败按 0 处理
		_ = json.Unmarshal(raw, &interactions[i])
	}
	return interactions
}
