package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/minddump/auditd/internal/models"
	apperrors "github.com/minddump/auditd/pkg/errors"
)

const (
	// DefaultListLimit applies when a list request supplies no limit.
	DefaultListLimit = 50
	// MaxListLimit is the hard cap regardless of the requested value.
	MaxListLimit = 200

	recentActivityN = 10
)

// Record is an audit log as rendered to API consumers, with metadata
// deserialized back to structured form.
type Record struct {
	ID         uint      `json:"id"`
	UserID     *string   `json:"userId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   *string   `json:"entityId"`
	Metadata   any       `json:"metadata"`
	IPAddress  *string   `json:"ipAddress"`
	UserAgent  *string   `json:"userAgent"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateInput captures a single audit event to persist. Metadata may be any
// JSON-compatible value; a string is stored verbatim.
type CreateInput struct {
	Action     string
	EntityType string
	UserID     *string
	EntityID   *string
	Metadata   any
	IPAddress  *string
	UserAgent  *string
}

// ListOptions holds the optional filters and pagination for list queries.
// Empty strings mean "no filter"; nil time bounds mean unbounded.
type ListOptions struct {
	Action     string
	EntityType string
	EntityID   string
	UserID     string
	Start      *time.Time
	End        *time.Time
	Limit      int
	Offset     int
}

// Stats is the combined aggregate response for the dashboard.
type Stats struct {
	ActionCounts     map[string]int64 `json:"actionCounts"`
	EntityTypeCounts map[string]int64 `json:"entityTypeCounts"`
	RecentActivity   []Record         `json:"recentActivity"`
	TotalLogs        int64            `json:"totalLogs"`
	TodayCount       int64            `json:"todayCount"`
	ActiveUsers      int64            `json:"activeUsers"`
}

// AuditService persists and retrieves audit log records.
type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

// Option customises the AuditService.
type Option func(*AuditService)

// WithNow overrides the clock used when stamping records, primarily for tests.
func WithNow(now func() time.Time) Option {
	return func(s *AuditService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB, opts ...Option) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}

	svc := &AuditService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create validates, normalizes and inserts exactly one audit record. The
// created_at timestamp is always assigned here, never taken from the caller.
func (s *AuditService) Create(ctx context.Context, input CreateInput) (*Record, error) {
	ctx = ensureContext(ctx)

	action := strings.TrimSpace(input.Action)
	if action == "" {
		return nil, apperrors.ErrMissingAction
	}

	entityType := strings.TrimSpace(input.EntityType)
	if entityType == "" {
		return nil, apperrors.ErrMissingEntityType
	}

	metadata, err := encodeMetadata(input.Metadata)
	if err != nil {
		return nil, apperrors.ErrInvalidMetadata.WithInternal(err)
	}

	log := models.AuditLog{
		Action:     action,
		EntityType: entityType,
		UserID:     normalizeOptional(input.UserID),
		EntityID:   normalizeOptional(input.EntityID),
		Metadata:   metadata,
		IPAddress:  normalizeOptional(input.IPAddress),
		UserAgent:  normalizeOptional(input.UserAgent),
		CreatedAt:  s.now(),
	}

	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		return nil, fmt.Errorf("audit service: create record: %w", err)
	}

	record := toRecord(log)
	return &record, nil
}

// GetByID returns the single matching record with metadata deserialized.
func (s *AuditService) GetByID(ctx context.Context, id uint) (*Record, error) {
	ctx = ensureContext(ctx)

	var log models.AuditLog
	if err := s.db.WithContext(ctx).Take(&log, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("audit service: get record: %w", err)
	}

	record := toRecord(log)
	return &record, nil
}

// List returns records matching the conjunction of all supplied filters,
// newest first, with insertion order breaking created_at ties.
func (s *AuditService) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	ctx = ensureContext(ctx)

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := applyListFilters(s.db.WithContext(ctx).Model(&models.AuditLog{}), opts)

	var logs []models.AuditLog
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("audit service: list records: %w", err)
	}

	return toRecords(logs), nil
}

// Delete removes a record by id and returns the deleted record as
// confirmation.
func (s *AuditService) Delete(ctx context.Context, id uint) (*Record, error) {
	ctx = ensureContext(ctx)

	var log models.AuditLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&log, id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.AuditLog{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("audit service: delete record: %w", err)
	}

	record := toRecord(log)
	return &record, nil
}

// Stats computes the combined aggregate response over the full record set.
func (s *AuditService) Stats(ctx context.Context) (*Stats, error) {
	ctx = ensureContext(ctx)

	actionCounts, err := s.groupCounts(ctx, "action")
	if err != nil {
		return nil, err
	}

	entityTypeCounts, err := s.groupCounts(ctx, "entity_type")
	if err != nil {
		return nil, err
	}

	var recent []models.AuditLog
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(recentActivityN).
		Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("audit service: recent activity: %w", err)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("audit service: total count: %w", err)
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var today int64
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("created_at >= ?", midnight).
		Count(&today).Error; err != nil {
		return nil, fmt.Errorf("audit service: today count: %w", err)
	}

	var activeUsers int64
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("user_id IS NOT NULL").
		Distinct("user_id").
		Count(&activeUsers).Error; err != nil {
		return nil, fmt.Errorf("audit service: active users: %w", err)
	}

	return &Stats{
		ActionCounts:     actionCounts,
		EntityTypeCounts: entityTypeCounts,
		RecentActivity:   toRecords(recent),
		TotalLogs:        total,
		TodayCount:       today,
		ActiveUsers:      activeUsers,
	}, nil
}

// CleanupOlderThan removes records older than the supplied retention window
// (in days) and reports how many rows were deleted.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup records: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (s *AuditService) groupCounts(ctx context.Context, column string) (map[string]int64, error) {
	type row struct {
		Value string
		Count int64
	}

	var rows []row
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).
		Select(column + " AS value, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("audit service: group by %s: %w", column, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		if r.Value != "" {
			counts[r.Value] = r.Count
		}
	}
	return counts, nil
}

func applyListFilters(query *gorm.DB, opts ListOptions) *gorm.DB {
	if opts.Action != "" {
		query = query.Where("action = ?", opts.Action)
	}
	if opts.EntityType != "" {
		query = query.Where("entity_type = ?", opts.EntityType)
	}
	if opts.EntityID != "" {
		query = query.Where("entity_id = ?", opts.EntityID)
	}
	if opts.UserID != "" {
		query = query.Where("user_id = ?", opts.UserID)
	}
	if opts.Start != nil {
		query = query.Where("created_at >= ?", *opts.Start)
	}
	if opts.End != nil {
		query = query.Where("created_at <= ?", *opts.End)
	}
	return query
}

// encodeMetadata serializes metadata to text. Strings are stored verbatim so
// they round-trip exactly; nil means absent.
func encodeMetadata(metadata any) (*string, error) {
	if metadata == nil {
		return nil, nil
	}

	if text, ok := metadata.(string); ok {
		return &text, nil
	}

	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	payload := string(encoded)
	return &payload, nil
}

// decodeMetadata parses stored metadata back to structured form, falling back
// to the raw stored text when it is not valid JSON.
func decodeMetadata(stored *string) any {
	if stored == nil {
		return nil
	}

	var value any
	if err := json.Unmarshal([]byte(*stored), &value); err != nil {
		return *stored
	}
	return value
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toRecord(log models.AuditLog) Record {
	return Record{
		ID:         log.ID,
		UserID:     log.UserID,
		Action:     log.Action,
		EntityType: log.EntityType,
		EntityID:   log.EntityID,
		Metadata:   decodeMetadata(log.Metadata),
		IPAddress:  log.IPAddress,
		UserAgent:  log.UserAgent,
		CreatedAt:  log.CreatedAt,
	}
}

func toRecords(logs []models.AuditLog) []Record {
	records := make([]Record, len(logs))
	for i, log := range logs {
		records[i] = toRecord(log)
	}
	return records
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
