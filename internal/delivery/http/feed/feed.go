package http_feed

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/pokerboard/internal/delivery/http/common"
	"github.com/humanbelnik/pokerboard/internal/model"
	usecase_feed "github.com/humanbelnik/pokerboard/internal/usecase/feed"
)

type Controller struct {
	usecase *usecase_feed.Usecase
	logger  *slog.Logger
}

func New(usecase *usecase_feed.Usecase) *Controller {
	return &Controller{
		usecase: usecase,
		logger:  slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	messages := router.Group("/boards/:code/messages")
	{
		messages.GET("", c.list)
		messages.POST("", c.post)
	}
}

type PostRequestDTO struct {
	Text string `json:"text" binding:"required"`
}

type MessageDTO struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	PostedAt time.Time `json:"posted_at"`
	Seq      int64     `json:"seq"`
	Read     bool      `json:"read"`
}

func toDTO(m model.Message) MessageDTO {
	return MessageDTO{
		ID:       m.ID.String(),
		Text:     m.Text,
		PostedAt: m.PostedAt,
		Seq:      m.Seq,
		Read:     m.Read,
	}
}

func (c *Controller) list(ctx *gin.Context) {
	msgs, err := c.usecase.List(ctx, ctx.Param("code"))
	if err != nil {
		c.writeError(ctx, "failed to list messages", err)
		return
	}

	out := make([]MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toDTO(m))
	}
	ctx.JSON(http.StatusOK, out)
}

func (c *Controller) post(ctx *gin.Context) {
	var req PostRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "text is required",
		})
		return
	}

	msg, err := c.usecase.Post(ctx, ctx.Param("code"), req.Text)
	if err != nil {
		c.writeError(ctx, "failed to post message", err)
		return
	}
	ctx.JSON(http.StatusCreated, toDTO(msg))
}

func (c *Controller) writeError(ctx *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, usecase_feed.ErrNotFound):
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
	case errors.Is(err, usecase_feed.ErrValidation):
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "validation failed",
		})
	default:
		c.logger.Error(msg, slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
	}
}
