package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/minddump/auditd/internal/services"
	apperrors "github.com/minddump/auditd/pkg/errors"
	"github.com/minddump/auditd/pkg/metrics"
	"github.com/minddump/auditd/pkg/response"
	"github.com/minddump/auditd/pkg/validator"
)

// AuditHandler exposes the audit log API: ingestion, query, aggregation and
// deletion.
type AuditHandler struct {
	svc *services.AuditService
}

// NewAuditHandler wires an AuditHandler to the provided database handle.
func NewAuditHandler(db *gorm.DB, opts ...services.Option) (*AuditHandler, error) {
	svc, err := services.NewAuditService(db, opts...)
	if err != nil {
		return nil, err
	}
	return &AuditHandler{svc: svc}, nil
}

type createAuditLogRequest struct {
	Action     string  `json:"action" validate:"required"`
	EntityType string  `json:"entityType" validate:"required"`
	UserID     *string `json:"userId"`
	EntityID   *string `json:"entityId"`
	Metadata   any     `json:"metadata"`
	IPAddress  *string `json:"ipAddress"`
	UserAgent  *string `json:"userAgent"`
}

// Create handles POST /audit-logs.
func (h *AuditHandler) Create(c *gin.Context) {
	var req createAuditLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	req.Action = strings.TrimSpace(req.Action)
	req.EntityType = strings.TrimSpace(req.EntityType)

	if err := validator.ValidateStruct(req); err != nil {
		appErr := mapCreateValidation(err)
		metrics.RecordsRejected.WithLabelValues(appErr.Code).Inc()
		response.Error(c, appErr)
		return
	}

	record, err := h.svc.Create(requestContext(c), services.CreateInput{
		Action:     req.Action,
		EntityType: req.EntityType,
		UserID:     req.UserID,
		EntityID:   req.EntityID,
		Metadata:   req.Metadata,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	})
	if err != nil {
		if appErr := apperrors.FromError(err); appErr.StatusCode == http.StatusBadRequest {
			metrics.RecordsRejected.WithLabelValues(appErr.Code).Inc()
		}
		response.Error(c, err)
		return
	}

	metrics.RecordsIngested.WithLabelValues(record.Action, record.EntityType).Inc()
	response.JSON(c, http.StatusCreated, record)
}

// Get handles GET /audit-logs. A non-empty id query parameter selects
// single-record mode; an absent or empty id falls through to the filtered
// list.
func (h *AuditHandler) Get(c *gin.Context) {
	if raw := c.Query("id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			response.Error(c, err)
			return
		}

		record, err := h.svc.GetByID(requestContext(c), id)
		if err != nil {
			response.Error(c, err)
			return
		}

		response.JSON(c, http.StatusOK, record)
		return
	}

	h.list(c)
}

// GetByID handles GET /audit-logs/:id.
func (h *AuditHandler) GetByID(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.svc.GetByID(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record)
}

// Delete handles DELETE /audit-logs?id=<int>.
func (h *AuditHandler) Delete(c *gin.Context) {
	h.deleteByID(c, c.Query("id"))
}

// DeleteByID handles DELETE /audit-logs/:id.
func (h *AuditHandler) DeleteByID(c *gin.Context) {
	h.deleteByID(c, c.Param("id"))
}

// Stats handles GET /audit-logs/stats.
func (h *AuditHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats)
}

func (h *AuditHandler) list(c *gin.Context) {
	opts := services.ListOptions{
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		UserID:     c.Query("user_id"),
		Limit:      intQuery(c, "limit", services.DefaultListLimit),
		Offset:     intQuery(c, "offset", 0),
	}

	// Malformed time bounds are ignored rather than rejected; they are
	// optional filters.
	if raw := c.Query("start_date"); raw != "" {
		if sec, err := strconv.ParseInt(raw, 10, 64); err == nil {
			start := time.Unix(sec, 0)
			opts.Start = &start
		}
	}
	if raw := c.Query("end_date"); raw != "" {
		if sec, err := strconv.ParseInt(raw, 10, 64); err == nil {
			end := time.Unix(sec, 0)
			opts.End = &end
		}
	}

	records, err := h.svc.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, records)
}

func (h *AuditHandler) deleteByID(c *gin.Context, raw string) {
	id, err := parseID(raw)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.svc.Delete(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	metrics.RecordsDeleted.Inc()
	response.JSON(c, http.StatusOK, gin.H{
		"message":       "Audit log deleted successfully",
		"deletedRecord": record,
	})
}

func mapCreateValidation(err error) *apperrors.AppError {
	var failures validator.FieldErrors
	if errors.As(err, &failures) {
		if failures.Has("action") {
			return apperrors.ErrMissingAction
		}
		if failures.Has("entityType") {
			return apperrors.ErrMissingEntityType
		}
	}
	return apperrors.New("VALIDATION_FAILED", err.Error(), http.StatusBadRequest)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperrors.ErrInvalidID
	}
	if id < 0 {
		// Negative ids parse fine but can never match a record.
		return 0, apperrors.ErrNotFound
	}
	return uint(id), nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
