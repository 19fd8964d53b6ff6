package http_feature

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	http_common "github.com/humanbelnik/pokerboard/internal/delivery/http/common"
	"github.com/humanbelnik/pokerboard/internal/model"
	usecase_feature "github.com/humanbelnik/pokerboard/internal/usecase/feature"
)

const sessionTokenHeader = "X-session-token"

type Controller struct {
	usecase *usecase_feature.Usecase
	logger  *slog.Logger
}

func New(usecase *usecase_feature.Usecase) *Controller {
	return &Controller{
		usecase: usecase,
		logger:  slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	features := router.Group("/features")
	{
		features.GET("", c.list)
		features.POST("", c.create)
		features.POST("/:id/votes", c.vote)
	}
}

type CreateRequestDTO struct {
	Name string `json:"name" binding:"required"`
}

type VoteRequestDTO struct {
	Delta int `json:"delta" binding:"required,oneof=1 -1"`
}

type FeatureDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Votes     int       `json:"votes"`
	CreatedAt time.Time `json:"created_at"`
}

func toDTO(f model.Feature) FeatureDTO {
	return FeatureDTO{
		ID:        f.ID.String(),
		Name:      f.Name,
		Votes:     f.Votes,
		CreatedAt: f.CreatedAt,
	}
}

func (c *Controller) list(ctx *gin.Context) {
	features, err := c.usecase.List(ctx)
	if err != nil {
		c.writeError(ctx, "failed to list features", err)
		return
	}

	out := make([]FeatureDTO, 0, len(features))
	for _, f := range features {
		out = append(out, toDTO(f))
	}
	ctx.JSON(http.StatusOK, out)
}

func (c *Controller) create(ctx *gin.Context) {
	var req CreateRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "name is required",
		})
		return
	}

	f, err := c.usecase.Create(ctx, req.Name)
	if err != nil {
		c.writeError(ctx, "failed to create feature", err)
		return
	}
	ctx.JSON(http.StatusCreated, toDTO(f))
}

// Vote is limited to one per session token and feature.
func (c *Controller) vote(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid feature id",
		})
		return
	}

	var req VoteRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "delta must be 1 or -1",
		})
		return
	}

	token := ctx.GetHeader(sessionTokenHeader)
	if token == "" {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "missing session token",
		})
		return
	}

	f, err := c.usecase.Vote(ctx, token, id, req.Delta)
	if err != nil {
		c.writeError(ctx, "failed to vote for feature", err)
		return
	}
	ctx.JSON(http.StatusOK, toDTO(f))
}

func (c *Controller) writeError(ctx *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, usecase_feature.ErrNotFound):
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
	case errors.Is(err, usecase_feature.ErrValidation):
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "validation failed",
		})
	case errors.Is(err, usecase_feature.ErrAlreadyVoted):
		ctx.JSON(http.StatusConflict, http_common.ErrorResponse{
			Message: "already voted",
		})
	default:
		c.logger.Error(msg, slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
	}
}
