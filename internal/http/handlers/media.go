package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pitchroom-backend/internal/http/response"
	"github.com/yungbote/pitchroom-backend/internal/platform/apierr"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/services"
)

const maxMultipartMemory = 32 << 20

type MediaHandler struct {
	log        *logger.Logger
	media      services.MediaService
	disclosure services.DisclosureService
	assets     services.AssetIssuer
}

func NewMediaHandler(log *logger.Logger, media services.MediaService, disclosure services.DisclosureService, assets services.AssetIssuer) *MediaHandler {
	return &MediaHandler{
		log:        log.With("handler", "MediaHandler"),
		media:      media,
		disclosure: disclosure,
		assets:     assets,
	}
}

type uploadOutcome struct {
	services.UploadResult
	Error *response.APIError `json:"error,omitempty"`
}

// POST /api/pitches/:id/media (multipart: section_key, files)
func (h *MediaHandler) Upload(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	pitchID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	form := c.Request.MultipartForm
	defer func() { _ = form.RemoveAll() }()

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		response.RespondError(c, http.StatusBadRequest, "missing_files", errors.New("no files in form"))
		return
	}
	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
			closeAll(files)
			return
		}
		files = append(files, services.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}
	defer closeAll(files)

	results, err := h.media.UploadBatch(c.Request.Context(), viewer.UserID, pitchID, c.PostForm("section_key"), files)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	out := make([]uploadOutcome, 0, len(results))
	succeeded := 0
	for _, r := range results {
		o := uploadOutcome{UploadResult: r}
		if r.Err != nil {
			e := apierr.FromError(r.Err)
			o.Error = &response.APIError{Message: e.Error(), Code: e.Code}
		} else {
			succeeded++
		}
		out = append(out, o)
	}
	status := http.StatusCreated
	if succeeded == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"results": out, "succeeded": succeeded, "failed": len(out) - succeeded})
}

func closeAll(files []services.UploadFile) {
	for _, f := range files {
		if cl, ok := f.Body.(io.Closer); ok {
			_ = cl.Close()
		}
	}
}

// GET /api/pitches/:id/media
func (h *MediaHandler) List(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	pitchID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	d, err := h.disclosure.AuthorizeOwner(ctx, viewer, pitchID)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	if !d.Allowed {
		response.RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	media, err := h.media.List(ctx, viewer.UserID, pitchID)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	assets, err := h.assets.IssueBatch(ctx, d, media)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"media": media, "assets": assets})
}

// DELETE /api/media/:id
func (h *MediaHandler) Delete(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	mediaID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.media.Delete(c.Request.Context(), viewer.UserID, mediaID); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
