package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/core"
	"github.com/domainwatch/domainwatch/internal/dispatch"
)

// WorkerHandler serves the offload worker fleet: pull due domains,
// push results back asynchronously.
type WorkerHandler struct {
	offload *dispatch.OffloadService
	logger  *zap.Logger
}

func NewWorkerHandler(offload *dispatch.OffloadService, logger *zap.Logger) *WorkerHandler {
	return &WorkerHandler{offload: offload, logger: logger}
}

// GetDue handles GET /due?limit=N. Read-only; safe for the fleet to
// poll frequently.
func (h *WorkerHandler) GetDue(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}

	domains, err := h.offload.FetchDue(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to fetch due domains", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch due domains"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(domains),
		"domains": domains,
	})
}

type submitRequest struct {
	Results []core.CheckResult `json:"results" binding:"required"`
}

// SubmitResults handles POST /results. Items are applied
// independently: one bad result is reported per-item, the rest go
// through.
func (h *WorkerHandler) SubmitResults(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome := h.offload.SubmitResults(c.Request.Context(), req.Results)
	c.JSON(http.StatusOK, outcome)
}
