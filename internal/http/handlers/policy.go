package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/http/response"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/services"
)

type PolicyHandler struct {
	log        *logger.Logger
	disclosure services.DisclosureService
}

func NewPolicyHandler(log *logger.Logger, disclosure services.DisclosureService) *PolicyHandler {
	return &PolicyHandler{log: log.With("handler", "PolicyHandler"), disclosure: disclosure}
}

type createPolicyRequest struct {
	Visibility pitch.Visibility `json:"visibility"`
	Password   *string          `json:"password,omitempty"`
}

// GET /api/pitches/:id/policy
func (h *PolicyHandler) Get(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	state, err := h.disclosure.State(ctx, viewer.UserID, id)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	history, err := h.disclosure.History(ctx, viewer.UserID, id)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	var active *pitch.SharePolicy
	for _, p := range history {
		if p.Active() {
			active = p
		}
	}
	response.RespondOK(c, gin.H{
		"state":              state,
		"active":             active,
		"password_protected": active.PasswordProtected(),
		"history":            history,
	})
}

// POST /api/pitches/:id/policy
func (h *PolicyHandler) Create(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req createPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := h.disclosure.CreatePolicy(c.Request.Context(), viewer.UserID, id, req.Visibility, req.Password)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"policy": created, "password_protected": created.PasswordProtected()})
}

// DELETE /api/pitches/:id/policy
func (h *PolicyHandler) Revoke(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	revoked, err := h.disclosure.Revoke(c.Request.Context(), viewer.UserID, id)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"policy": revoked})
}
