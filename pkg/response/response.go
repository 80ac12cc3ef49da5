package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/minddump/auditd/pkg/errors"
)

// ErrorBody is the error payload shape consumed by the dashboard: a
// human-readable message plus a stable code for programmatic handling.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes a success payload as-is. Records and record lists are rendered
// without an envelope so the body matches the documented API contract.
func JSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// Error renders an error, mapping anything that is not an AppError to a 500
// with the underlying message attached.
func Error(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	if appErr == nil {
		appErr = apperrors.ErrInternalServer
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorBody{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}
