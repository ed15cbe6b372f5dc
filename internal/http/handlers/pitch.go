package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/http/response"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/services"
)

type PitchHandler struct {
	log      *logger.Logger
	composer services.DocumentComposer
}

func NewPitchHandler(log *logger.Logger, composer services.DocumentComposer) *PitchHandler {
	return &PitchHandler{log: log.With("handler", "PitchHandler"), composer: composer}
}

// POST /api/pitches
func (h *PitchHandler) Create(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	var fields pitch.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.composer.Create(c.Request.Context(), viewer.UserID, fields)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"pitch": p})
}

// GET /api/pitches
func (h *PitchHandler) List(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	pitches, err := h.composer.ListForOwner(c.Request.Context(), viewer.UserID)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"pitches": pitches})
}

// GET /api/pitches/:id
func (h *PitchHandler) Get(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.composer.LoadForOwner(c.Request.Context(), viewer.UserID, id)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, doc)
}

// PUT /api/pitches/:id
func (h *PitchHandler) Save(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	doc, err := h.composer.Save(c.Request.Context(), viewer.UserID, id, req)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, doc)
}

// DELETE /api/pitches/:id
func (h *PitchHandler) Delete(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.composer.SoftDelete(c.Request.Context(), viewer.UserID, id); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/public/pitches
func (h *PitchHandler) ListPublic(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	rows, err := h.composer.ListPublic(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"pitches": rows, "limit": limit, "offset": offset})
}
