package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ticket-rag/backend/internal/model"
)

const maxSimilarK = 50

type TicketSearcher interface {
	Retrieve(ctx context.Context, query string, k int) ([]model.TicketEvidence, error)
}

type TicketSyncer interface {
	Sync(ctx context.Context, status string) (model.SyncResult, error)
}

type TicketLister interface {
	ListEmbeddings(ctx context.Context) ([]model.ScoredTicket, error)
}

type TicketHandler struct {
	lister   TicketLister
	searcher TicketSearcher
	syncer   TicketSyncer
}

func NewTicketHandler(lister TicketLister, searcher TicketSearcher, syncer TicketSyncer) *TicketHandler {
	return &TicketHandler{lister: lister, searcher: searcher, syncer: syncer}
}

// ListTickets godoc
// @Summary List indexed tickets
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.TicketListResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /api/v1/tickets [get]
func (h *TicketHandler) ListTickets(c *gin.Context) {
	scored, err := h.lister.ListEmbeddings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	data := make([]model.TicketEvidence, 0, len(scored))
	for _, sc := range scored {
		data = append(data, model.EvidenceFromScored(sc))
	}
	c.JSON(http.StatusOK, model.TicketListResponse{Status: "success", Count: len(data), Data: data})
}

// SimilarTickets godoc
// @Summary Find resolved tickets similar to a query
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param q query string true "Free-text query"
// @Param k query int false "Number of results"
// @Success 200 {object} model.SimilarTicketsResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 502 {object} model.ErrorResponse
// @Router /api/v1/tickets/similar [get]
func (h *TicketHandler) SimilarTickets(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "q is required"})
		return
	}
	k := 0
	if raw := c.Query("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSimilarK {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "k must be between 1 and " + strconv.Itoa(maxSimilarK)})
			return
		}
		k = parsed
	}

	data, err := h.searcher.Retrieve(c.Request.Context(), query, k)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SimilarTicketsResponse{Status: "success", Query: query, Data: data})
}

// SyncTickets godoc
// @Summary Re-sync resolved tickets from the tracker
// @Description Fetches every ticket in the given status (default Done), embeds it and upserts it.
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.SyncRequest false "Status filter"
// @Success 200 {object} model.SyncResult
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/tickets/sync [post]
func (h *TicketHandler) SyncTickets(c *gin.Context) {
	var req model.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.syncer.Sync(c.Request.Context(), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
