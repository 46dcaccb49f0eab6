package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadtriage_backend/internal/triage/service"
	"leadtriage_backend/internal/triage/transport"
	"leadtriage_backend/platform/httpkit"
	"leadtriage_backend/platform/validator"
)

// Handler handles HTTP requests for the triage module.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgAgentIDRequired  = "agent id is required"
)

// New creates a new triage handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ProcessTurn ingests one conversational turn.
// POST /api/v1/triage/turns
func (h *Handler) ProcessTurn(c *gin.Context) {
	var req transport.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ProcessTurn(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetSession returns a snapshot of a live session.
// GET /api/v1/triage/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		httpkit.Error(c, http.StatusBadRequest, "session id is required", nil)
		return
	}

	result, err := h.svc.GetSession(id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ResetSession discards a session.
// POST /api/v1/triage/sessions/:id/reset
func (h *Handler) ResetSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		httpkit.Error(c, http.StatusBadRequest, "session id is required", nil)
		return
	}

	h.svc.ResetSession(id)
	httpkit.OK(c, gin.H{"status": "reset"})
}

// ListAgents returns the stored roster.
// GET /api/v1/admin/agents
func (h *Handler) ListAgents(c *gin.Context) {
	result, err := h.svc.ListAgents(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpsertAgent creates or replaces a roster entry.
// PUT /api/v1/admin/agents/:id
func (h *Handler) UpsertAgent(c *gin.Context) {
	var req transport.UpsertAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	req.ID = c.Param("id")
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpsertAgent(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteAgent removes a roster entry.
// DELETE /api/v1/admin/agents/:id
func (h *Handler) DeleteAgent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		httpkit.Error(c, http.StatusBadRequest, msgAgentIDRequired, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteAgent(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "deleted"})
}
