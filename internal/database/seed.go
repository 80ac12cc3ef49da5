package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/minddump/auditd/internal/models"
)

// SeedDemoData inserts a small set of sample audit records so a fresh install
// has something to show on the dashboard. It is a no-op unless the table is
// empty.
func SeedDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	var count int64
	if err := db.Model(&models.AuditLog{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed: count audit logs: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	records := []models.AuditLog{
		demoRecord("entry_created", "entry", "entry_abc123", "user_123",
			map[string]any{"title": "Morning Reflections on Productivity", "wordCount": 456, "tags": []string{"productivity", "morning"}},
			now.Add(-6*24*time.Hour-8*time.Hour)),
		demoRecord("entry_created", "entry", "entry_xyz789", "user_456",
			map[string]any{"title": "Weekend Adventure Plans", "wordCount": 234, "tags": []string{"travel", "weekend"}},
			now.Add(-5*24*time.Hour-14*time.Hour)),
		demoRecord("entry_updated", "entry", "entry_abc123", "user_123",
			map[string]any{"wordCount": 512, "previousWordCount": 456},
			now.Add(-4*24*time.Hour-10*time.Hour)),
		demoRecord("entry_viewed", "entry", "entry_xyz789", "user_456",
			map[string]any{"wordCount": 234},
			now.Add(-3*24*time.Hour-6*time.Hour)),
		demoRecord("draft_auto_saved", "draft", "draft_current", "user_123",
			map[string]any{"wordCount": 87, "characterCount": 512},
			now.Add(-2*24*time.Hour-4*time.Hour)),
		demoRecord("search_performed", "system", "", "user_789",
			map[string]any{"query": "meditation", "resultsCount": 3},
			now.Add(-24*time.Hour-2*time.Hour)),
		demoRecord("mode_switched", "system", "", "user_123",
			map[string]any{"from": "write", "to": "browse"},
			now.Add(-12*time.Hour)),
		demoRecord("app_loaded", "system", "", "user_456",
			map[string]any{"version": "1.0.0", "entriesCount": 12, "hasDraft": true},
			now.Add(-1*time.Hour)),
	}

	return db.Create(&records).Error
}

func demoRecord(action, entityType, entityID, userID string, metadata map[string]any, createdAt time.Time) models.AuditLog {
	record := models.AuditLog{
		Action:     action,
		EntityType: entityType,
		CreatedAt:  createdAt,
	}
	if entityID != "" {
		record.EntityID = &entityID
	}
	if userID != "" {
		record.UserID = &userID
	}
	if metadata != nil {
		encoded, err := json.Marshal(metadata)
		if err == nil {
			payload := string(encoded)
			record.Metadata = &payload
		}
	}
	ip := "192.168.1.100"
	ua := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	record.IPAddress = &ip
	record.UserAgent = &ua
	return record
}
