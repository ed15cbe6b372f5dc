package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pitchroom-backend/internal/http/response"
	"github.com/yungbote/pitchroom-backend/internal/platform/localstore"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/platform/objectstore"
)

// SignedMediaHandler serves objects from the local store behind signed handles.
type SignedMediaHandler struct {
	log   *logger.Logger
	store *localstore.Store
}

func NewSignedMediaHandler(log *logger.Logger, store *localstore.Store) *SignedMediaHandler {
	return &SignedMediaHandler{log: log.With("handler", "SignedMediaHandler"), store: store}
}

// GET /media/signed/:token
func (h *SignedMediaHandler) Serve(c *gin.Context) {
	rc, attrs, err := h.store.Open(c.Request.Context(), c.Param("token"))
	switch {
	case errors.Is(err, localstore.ErrExpiredHandle):
		response.RespondError(c, http.StatusForbidden, "expired", errors.New("link expired"))
		return
	case errors.Is(err, localstore.ErrInvalidHandle), errors.Is(err, objectstore.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	case err != nil:
		h.log.Error("Serving signed media failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, attrs.Size, attrs.ContentType, rc, map[string]string{
		"Cache-Control":          "private, max-age=" + strconv.Itoa(60),
		"X-Content-Type-Options": "nosniff",
	})
}
