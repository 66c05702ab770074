package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ticket-rag/backend/internal/model"
	"github.com/ticket-rag/backend/internal/service"
)

type Replier interface {
	Reply(ctx context.Context, req model.BotRequest) (*service.ChatResult, error)
}

type BotHandler struct {
	svc Replier
}

func NewBotHandler(svc Replier) *BotHandler {
	return &BotHandler{svc: svc}
}

// Bot godoc
// @Summary Send one conversation turn
// @Description isNew=true returns a preview of the text without calling retrieval or the chat model.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body model.BotRequest true "Conversation turn"
// @Success 200 {object} model.BotResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /bot [post]
func (h *BotHandler) Bot(c *gin.Context) {
	var req model.BotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	h.reply(c, req)
}

// Chat godoc
// @Summary Send one conversation turn (legacy body)
// @Tags chat
// @Accept json
// @Produce json
// @Param request body model.LegacyChatRequest true "Conversation turn"
// @Success 200 {object} model.BotResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /chat [post]
func (h *BotHandler) Chat(c *gin.Context) {
	var req model.LegacyChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	h.reply(c, req.BotRequest())
}

func (h *BotHandler) reply(c *gin.Context, req model.BotRequest) {
	result, err := h.svc.Reply(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.BotResponse{
		Response:       result.Response,
		ConversationID: result.ConversationID,
	})
}
