package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ticket-rag/backend/internal/model"
)

type TicketBoard interface {
	Board(ctx context.Context) (*model.TicketBoardResponse, error)
}

type BoardHandler struct {
	svc TicketBoard
}

func NewBoardHandler(svc TicketBoard) *BoardHandler {
	return &BoardHandler{svc: svc}
}

// GetBoard godoc
// @Summary Dashboard ticket board
// @Description Done and in-progress issues read straight from the tracker. A failed tracker call yields an empty column.
// @Tags tickets
// @Produce json
// @Success 200 {object} model.TicketBoardResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/tickets [get]
func (h *BoardHandler) GetBoard(c *gin.Context) {
	board, err := h.svc.Board(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}
