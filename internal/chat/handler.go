package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/documents"
	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
	"docchat-backend/internal/summaries"
)

// Handler wires HTTP handlers to the orchestrator.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches conversation, summary, and usage routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/ask", h.ask)
	rg.GET("/documents/:id/conversation", h.conversation)
	rg.POST("/documents/:id/summaries", h.summarize)
	rg.GET("/documents/:id/summaries/latest", h.latestSummary)
	rg.GET("/usage", h.usage)
}

// RegisterDevRoutes attaches endpoints that only exist outside
// production.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/usage/reset", h.resetUsage)
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *Handler) ask(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	result, err := h.Svc.Ask(c.Request.Context(), userID, c.Param("id"), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuestion):
			respond.Error(c, http.StatusBadRequest, "validation_error", "question is required", nil)
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, documents.ErrNotReady):
			respond.Error(c, http.StatusConflict, "not_ready", "document is still processing", nil)
		case errors.Is(err, ErrQuotaExhausted):
			respond.Error(c, http.StatusPaymentRequired, "quota_exhausted", "token balance exhausted, upgrade your plan", gin.H{
				"usage": result.Account,
			})
		case errors.Is(err, ErrOracle):
			respond.Error(c, http.StatusBadGateway, "oracle_error", "failed to generate an answer", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to answer question", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, result)
}

func (h *Handler) conversation(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 50
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 200 {
		limit = 200
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	turns, err := h.Svc.History(c.Request.Context(), userID, c.Param("id"), limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch conversation", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"turns": turns})
}

type summarizeRequest struct {
	Mode string `json:"mode"`
}

func (h *Handler) summarize(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	mode, err := summaries.ParseMode(req.Mode)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown summary mode", gin.H{"mode": req.Mode})
		return
	}

	summary, account, err := h.Svc.Summarize(c.Request.Context(), userID, c.Param("id"), mode)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, documents.ErrNotReady):
			respond.Error(c, http.StatusConflict, "not_ready", "document is still processing", nil)
		case errors.Is(err, ErrQuotaExhausted):
			respond.Error(c, http.StatusPaymentRequired, "quota_exhausted", "token balance exhausted, upgrade your plan", gin.H{
				"usage": account,
			})
		case errors.Is(err, ErrOracle):
			respond.Error(c, http.StatusBadGateway, "oracle_error", "failed to generate a summary", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate summary", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, summary)
}

func (h *Handler) latestSummary(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	mode, err := summaries.ParseMode(c.Query("mode"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown summary mode", gin.H{"mode": c.Query("mode")})
		return
	}

	summary, err := h.Svc.LatestSummary(c.Request.Context(), userID, c.Param("id"), mode)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, summaries.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no summary for this mode yet", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch summary", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, summary)
}

func (h *Handler) usage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	account, err := h.Svc.Usage(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch usage", nil)
		return
	}
	respond.JSON(c, http.StatusOK, account)
}

func (h *Handler) resetUsage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	account, err := h.Svc.ResetUsage(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to reset usage", nil)
		return
	}
	respond.JSON(c, http.StatusOK, account)
}
