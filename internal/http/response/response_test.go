package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

func TestRespondServiceErrorHidesDependencyDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	RespondServiceError(c, logger.Nop(), aggregates.Dependency("media.upload", errors.New("gs://bucket/secret/path")))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: %d", rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "dependency" || env.Error.Message != "upstream dependency failed" {
		t.Fatalf("envelope: %+v", env)
	}
}

func TestRespondServiceErrorValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	RespondServiceError(c, nil, aggregates.Validation("composer.save", "title is required"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
}
