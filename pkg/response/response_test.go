package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	apperrors "github.com/minddump/auditd/pkg/errors"
)

func record(handler func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	return rec
}

func TestJSONWritesPayloadWithoutEnvelope(t *testing.T) {
	rec := record(func(c *gin.Context) {
		JSON(c, http.StatusCreated, gin.H{"id": 7})
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, map[string]any{"id": float64(7)}, body)
}

func TestErrorRendersAppError(t *testing.T) {
	rec := record(func(c *gin.Context) {
		Error(c, apperrors.ErrNotFound)
	})

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Audit log not found", body.Error)
	require.Equal(t, "NOT_FOUND", body.Code)
}

func TestErrorMapsUnknownErrorsTo500(t *testing.T) {
	rec := record(func(c *gin.Context) {
		Error(c, errors.New("database exploded"))
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Internal server error: database exploded", body.Error)
	require.Equal(t, "INTERNAL_ERROR", body.Code)
}
