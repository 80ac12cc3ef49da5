package models

import "time"

// AuditLog is a single immutable audit record. Optional fields use pointers so
// that "blank after trimming" is stored as NULL rather than the empty string.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *string   `gorm:"index" json:"userId"`
	Action     string    `gorm:"not null;index" json:"action"`
	EntityType string    `gorm:"not null;index" json:"entityType"`
	EntityID   *string   `gorm:"index" json:"entityId"`
	Metadata   *string   `json:"metadata"`
	IPAddress  *string   `json:"ipAddress"`
	UserAgent  *string   `json:"userAgent"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

// TableName pins the table name used by the original schema.
func (AuditLog) TableName() string {
	return "audit_logs"
}
