package http_board

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/pokerboard/internal/delivery/http/common"
	"github.com/humanbelnik/pokerboard/internal/model"
	"github.com/humanbelnik/pokerboard/internal/service/tally"
	usecase_board "github.com/humanbelnik/pokerboard/internal/usecase/board"
)

type Controller struct {
	usecase *usecase_board.Usecase
	logger  *slog.Logger
}

func New(usecase *usecase_board.Usecase) *Controller {
	return &Controller{
		usecase: usecase,
		logger:  slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	boards := router.Group("/boards")
	{
		boards.POST("", c.create)
		boards.GET("/:code", c.find)
		boards.PATCH("/:code", c.updateContent)
		boards.GET("/:code/tally", c.tally)
		boards.POST("/:code/participants", c.addParticipant)
		boards.DELETE("/:code/participants/:name", c.removeParticipant)
		boards.PUT("/:code/votes/:name", c.setVote)
		boards.DELETE("/:code/votes", c.resetVotes)
	}
}

func FacilitatorPath(code model.BoardCode) string {
	return "/board/" + code
}

func ParticipantPath(code model.BoardCode) string {
	return "/devboard/" + code
}

type CreateRequestDTO struct {
	Code string `json:"code"`
}

type CreateResponseDTO struct {
	Code            string `json:"code"`
	FacilitatorPath string `json:"facilitator_path"`
	ParticipantPath string `json:"participant_path"`
}

type BoardResponseDTO struct {
	Code            string         `json:"code"`
	Epic            string         `json:"epic"`
	Story           string         `json:"story"`
	Task            string         `json:"task"`
	Participants    []string       `json:"participants"`
	Votes           map[string]int `json:"votes"`
	CreatedAt       time.Time      `json:"created_at"`
	Revision        int64          `json:"revision"`
	Round           int64          `json:"round"`
	ParticipantPath string         `json:"participant_path"`
}

type TallyResponseDTO struct {
	Outcome   string      `json:"outcome"`
	Value     int         `json:"value,omitempty"`
	Text      string      `json:"text"`
	Leaders   []int       `json:"leaders"`
	Histogram map[int]int `json:"histogram"`
	Cast      int         `json:"cast"`
}

type ContentRequestDTO struct {
	Epic  *string `json:"epic"`
	Story *string `json:"story"`
	Task  *string `json:"task"`
}

type ParticipantRequestDTO struct {
	Name string `json:"name" binding:"required"`
}

type VoteRequestDTO struct {
	Value int `json:"value" binding:"required"`
}

// Create opens a board; an omitted code gets a generated one.
func (c *Controller) create(ctx *gin.Context) {
	var req CreateRequestDTO
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: "invalid request body",
			})
			return
		}
	}

	board, err := c.usecase.Create(ctx, req.Code)
	if err != nil {
		c.writeError(ctx, "failed to create board", err)
		return
	}

	ctx.JSON(http.StatusCreated, CreateResponseDTO{
		Code:            board.Code,
		FacilitatorPath: FacilitatorPath(board.Code),
		ParticipantPath: ParticipantPath(board.Code),
	})
}

func (c *Controller) find(ctx *gin.Context) {
	board, err := c.usecase.FindByCode(ctx, ctx.Param("code"))
	if err != nil {
		c.writeError(ctx, "failed to find board", err)
		return
	}

	votes := make(map[string]int, len(board.Votes))
	for name, v := range board.Votes {
		votes[name] = int(v)
	}

	ctx.JSON(http.StatusOK, BoardResponseDTO{
		Code:            board.Code,
		Epic:            board.Epic,
		Story:           board.Story,
		Task:            board.Task,
		Participants:    board.Participants,
		Votes:           votes,
		CreatedAt:       board.CreatedAt,
		Revision:        board.Revision,
		Round:           board.Round,
		ParticipantPath: ParticipantPath(board.Code),
	})
}

func (c *Controller) tally(ctx *gin.Context) {
	res, err := c.usecase.Tally(ctx, ctx.Param("code"))
	if err != nil {
		c.writeError(ctx, "failed to tally board", err)
		return
	}

	ctx.JSON(http.StatusOK, toTallyDTO(res))
}

func toTallyDTO(res tally.Result) TallyResponseDTO {
	dto := TallyResponseDTO{
		Outcome:   string(res.Outcome),
		Value:     int(res.Value),
		Text:      res.String(),
		Leaders:   make([]int, 0, len(res.Leaders)),
		Histogram: make(map[int]int, len(res.Histogram)),
		Cast:      res.Cast,
	}
	for _, v := range res.Leaders {
		dto.Leaders = append(dto.Leaders, int(v))
	}
	for v, n := range res.Histogram {
		dto.Histogram[int(v)] = n
	}
	return dto
}

func (c *Controller) updateContent(ctx *gin.Context) {
	var req ContentRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request body",
		})
		return
	}

	err := c.usecase.UpdateContent(ctx, ctx.Param("code"), model.ContentPatch{
		Epic:  req.Epic,
		Story: req.Story,
		Task:  req.Task,
	})
	if err != nil {
		c.writeError(ctx, "failed to update content", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) addParticipant(ctx *gin.Context) {
	var req ParticipantRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "name is required",
		})
		return
	}

	if err := c.usecase.AddParticipant(ctx, ctx.Param("code"), req.Name); err != nil {
		c.writeError(ctx, "failed to add participant", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) removeParticipant(ctx *gin.Context) {
	if err := c.usecase.RemoveParticipant(ctx, ctx.Param("code"), ctx.Param("name")); err != nil {
		c.writeError(ctx, "failed to remove participant", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) setVote(ctx *gin.Context) {
	var req VoteRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "value is required",
		})
		return
	}

	if err := c.usecase.SetVote(ctx, ctx.Param("code"), ctx.Param("name"), model.Vote(req.Value)); err != nil {
		c.writeError(ctx, "failed to set vote", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) resetVotes(ctx *gin.Context) {
	if err := c.usecase.ResetVotes(ctx, ctx.Param("code")); err != nil {
		c.writeError(ctx, "failed to reset votes", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) writeError(ctx *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, usecase_board.ErrNotFound):
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
	case errors.Is(err, usecase_board.ErrValidation):
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "validation failed",
		})
	case errors.Is(err, usecase_board.ErrAlreadyExists):
		ctx.JSON(http.StatusConflict, http_common.ErrorResponse{
			Message: "code already taken",
		})
	case errors.Is(err, usecase_board.ErrCodesExhausted):
		ctx.JSON(http.StatusServiceUnavailable, http_common.ErrorResponse{
			Message: "unavailable",
		})
	default:
		c.logger.Error(msg, slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
	}
}
