package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pitchroom-backend/internal/http/response"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/services"
)

const headerLedgerSecret = "X-Ledger-Secret"

type FundingHandler struct {
	log        *logger.Logger
	ledger     services.FundingLedger
	disclosure services.DisclosureService
	// webhookSecret guards the pledge confirmation endpoint; empty disables it.
	webhookSecret string
}

func NewFundingHandler(log *logger.Logger, ledger services.FundingLedger, disclosure services.DisclosureService, webhookSecret string) *FundingHandler {
	return &FundingHandler{
		log:           log.With("handler", "FundingHandler"),
		ledger:        ledger,
		disclosure:    disclosure,
		webhookSecret: strings.TrimSpace(webhookSecret),
	}
}

// GET /api/pitches/:id/funding
func (h *FundingHandler) Get(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	d, err := h.disclosure.AuthorizeOwner(ctx, viewer, id)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	sum, err := h.ledger.Summary(ctx, d)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"funding": sum})
}

// POST /api/pitches/:id/funding
func (h *FundingHandler) Enable(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.FundingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rec, err := h.ledger.Enable(c.Request.Context(), viewer.UserID, id, in)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"funding": rec})
}

// PUT /api/pitches/:id/funding
func (h *FundingHandler) Update(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.FundingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rec, err := h.ledger.Update(c.Request.Context(), viewer.UserID, id, in)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"funding": rec})
}

// POST /api/internal/pledges
func (h *FundingHandler) RecordPledge(c *gin.Context) {
	got := strings.TrimSpace(c.GetHeader(headerLedgerSecret))
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var in services.PledgeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, created, err := h.ledger.RecordPledge(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"pledge": p, "created": created})
}
