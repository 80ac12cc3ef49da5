package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/minddump/auditd/internal/database/testutil"
	"github.com/minddump/auditd/internal/models"
	"github.com/minddump/auditd/internal/services"
)

func newCleanupFixture(t *testing.T) (*gorm.DB, *services.AuditService) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	svc, err := services.NewAuditService(db)
	require.NoError(t, err)
	return db, svc
}

func seedAged(t *testing.T, db *gorm.DB, action string, age time.Duration) {
	t.Helper()

	log := models.AuditLog{Action: action, EntityType: "system", CreatedAt: time.Now().Add(-age)}
	require.NoError(t, db.Create(&log).Error)
}

func TestRunOncePurgesOnlyExpiredRecords(t *testing.T) {
	db, svc := newCleanupFixture(t)
	cleaner := NewCleaner(svc, WithRetentionDays(30))

	seedAged(t, db, "old_event", 45*24*time.Hour)
	seedAged(t, db, "older_event", 90*24*time.Hour)
	seedAged(t, db, "recent_event", 5*24*time.Hour)

	require.NoError(t, cleaner.RunOnce(context.Background()))

	var remaining []models.AuditLog
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "recent_event", remaining[0].Action)
}

func TestRunOnceNoOpWhenRetentionDisabled(t *testing.T) {
	db, svc := newCleanupFixture(t)
	cleaner := NewCleaner(svc, WithRetentionDays(0))

	seedAged(t, db, "ancient_event", 365*24*time.Hour)

	require.NoError(t, cleaner.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRunOnceWithoutServiceFails(t *testing.T) {
	cleaner := NewCleaner(nil)
	require.Error(t, cleaner.RunOnce(context.Background()))
}

func TestStartSchedulesJob(t *testing.T) {
	_, svc := newCleanupFixture(t)
	cleaner := NewCleaner(svc, WithRetentionDays(30), WithSchedule("@every 1h"))

	require.NoError(t, cleaner.Start())
	defer func() { <-cleaner.Stop().Done() }()

	require.False(t, cleaner.NextRun().IsZero())
	require.Equal(t, 30, cleaner.Retention())
}

func TestStartNoOpWhenDisabled(t *testing.T) {
	_, svc := newCleanupFixture(t)
	cleaner := NewCleaner(svc, WithRetentionDays(-1))

	require.NoError(t, cleaner.Start())
	require.True(t, cleaner.NextRun().IsZero())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	_, svc := newCleanupFixture(t)
	cleaner := NewCleaner(svc, WithSchedule("not a schedule"))

	require.Error(t, cleaner.Start())
}
