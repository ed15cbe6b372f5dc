package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pitchroom-backend/internal/http/response"
	"github.com/yungbote/pitchroom-backend/internal/platform/ctxutil"
)

// uuidParam parses a path parameter. A malformed id is answered as not found.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusNotFound, "not_found", nil)
		return uuid.Nil, false
	}
	return id, true
}

// requireViewer reads the authenticated viewer attached by RequireAuth.
func requireViewer(c *gin.Context) (ctxutil.Viewer, bool) {
	v := ctxutil.GetViewer(c.Request.Context())
	if !v.Authenticated() {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return v, false
	}
	return v, true
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
