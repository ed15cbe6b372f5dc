package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/http/response"
	"github.com/yungbote/pitchroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/services"
)

const headerShareGrant = "X-Share-Grant"

type ShareHandler struct {
	log        *logger.Logger
	composer   services.DocumentComposer
	disclosure services.DisclosureService
	assets     services.AssetIssuer
	funding    services.FundingLedger
}

func NewShareHandler(
	log *logger.Logger,
	composer services.DocumentComposer,
	disclosure services.DisclosureService,
	assets services.AssetIssuer,
	funding services.FundingLedger,
) *ShareHandler {
	return &ShareHandler{
		log:        log.With("handler", "ShareHandler"),
		composer:   composer,
		disclosure: disclosure,
		assets:     assets,
		funding:    funding,
	}
}

// sharedPitch is the viewer-facing projection; the owner id stays server-side.
type sharedPitch struct {
	ID uuid.UUID `json:"id"`
	pitch.Fields
	CurrentVersion int       `json:"current_version"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type shareView struct {
	Pitch          sharedPitch            `json:"pitch"`
	Sections       []pitch.SectionState   `json:"sections"`
	EnabledKeys    []string               `json:"enabled_keys"`
	Assets         []services.SignedAsset `json:"assets"`
	Funding        *pitch.FundingSummary  `json:"funding,omitempty"`
	Grant          string                 `json:"grant,omitempty"`
	GrantExpiresAt *time.Time             `json:"grant_expires_at,omitempty"`
}

type unlockRequest struct {
	Password string `json:"password"`
}

// GET /api/share/:id
func (h *ShareHandler) View(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	h.serve(c, services.AuthorizeRequest{PitchID: id, Grant: strings.TrimSpace(c.GetHeader(headerShareGrant))})
}

// POST /api/share/:id
func (h *ShareHandler) Unlock(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.serve(c, services.AuthorizeRequest{PitchID: id, Password: &req.Password})
}

func (h *ShareHandler) serve(c *gin.Context, req services.AuthorizeRequest) {
	ctx := c.Request.Context()
	d, err := h.disclosure.Authorize(ctx, ctxutil.GetViewer(ctx), req)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	if !d.Allowed {
		status, msg := denyStatus(d.Reason)
		response.RespondError(c, status, string(d.Reason), errors.New(msg))
		return
	}

	doc, err := h.composer.Load(ctx, d.PitchID)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	assets, err := h.assets.IssueForPitch(ctx, d)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	var funding *pitch.FundingSummary
	if h.funding != nil {
		funding, err = h.funding.Summary(ctx, d)
		if err != nil && !domainagg.IsCode(err, domainagg.CodeNotFound) {
			response.RespondServiceError(c, h.log, err)
			return
		}
	}

	response.RespondOK(c, shareView{
		Pitch: sharedPitch{
			ID:             doc.Pitch.ID,
			Fields:         doc.Pitch.Fields,
			CurrentVersion: doc.Pitch.CurrentVersion,
			UpdatedAt:      doc.Pitch.UpdatedAt,
		},
		Sections:       enabledOnly(doc.Sections),
		EnabledKeys:    doc.EnabledKeys,
		Assets:         assets,
		Funding:        funding,
		Grant:          d.Grant,
		GrantExpiresAt: d.GrantExpiresAt,
	})
}

// enabledOnly drops the disabled catalog placeholders that only the editor needs.
func enabledOnly(states []pitch.SectionState) []pitch.SectionState {
	out := make([]pitch.SectionState, 0, len(states))
	for _, s := range states {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func denyStatus(reason services.DenyReason) (int, string) {
	switch reason {
	case services.ReasonPrivate:
		return http.StatusForbidden, "this pitch is private"
	case services.ReasonPasswordRequired:
		return http.StatusUnauthorized, "a password is required to view this pitch"
	default:
		return http.StatusNotFound, "not found"
	}
}
