package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/minddump/auditd/internal/services"
	"github.com/minddump/auditd/pkg/logger"
	"github.com/minddump/auditd/pkg/metrics"
)

const (
	defaultRetentionDays = 90
	defaultSchedule      = "@daily"
)

// Cleaner periodically purges audit records older than the retention window.
type Cleaner struct {
	audit     *services.AuditService
	cron      *cron.Cron
	log       *zap.Logger
	retention int
	schedule  string
	entryID   cron.EntryID
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithRetentionDays adjusts how long audit records are retained. Days <= 0
// disables the cleanup job.
func WithRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		cleaner.retention = days
	}
}

// WithSchedule overrides the cron specification for retention enforcement.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		audit:     audit,
		retention: defaultRetentionDays,
		schedule:  defaultSchedule,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New()
	}

	return cleaner
}

// Start registers the cleanup job and starts the scheduler. It is a no-op
// when retention is disabled or there is nothing to clean.
func (c *Cleaner) Start() error {
	if c.audit == nil || c.retention <= 0 {
		return nil
	}

	id, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("retention cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("maintenance: schedule cleanup: %w", err)
	}

	c.entryID = id
	c.cron.Start()
	c.log.Info("retention cleanup scheduled",
		zap.String("schedule", c.schedule),
		zap.Int("retention_days", c.retention),
	)
	return nil
}

// Stop halts the scheduler and returns a context that completes once any
// running job has finished.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		done, cancel := context.WithCancel(context.Background())
		cancel()
		return done
	}
	return c.cron.Stop()
}

// RunOnce performs a single cleanup pass immediately.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if c.audit == nil {
		return errors.New("maintenance: audit service not configured")
	}
	if c.retention <= 0 {
		return nil
	}

	var errs error

	removed, err := c.audit.CleanupOlderThan(ctx, c.retention)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if removed > 0 {
		metrics.RecordsPurged.Add(float64(removed))
		c.log.Info("purged expired audit records",
			zap.Int64("removed", removed),
			zap.Int("retention_days", c.retention),
		)
	}

	return errs
}

// Retention reports the configured retention window in days.
func (c *Cleaner) Retention() int {
	return c.retention
}

// NextRun reports when the scheduled job will fire next, zero when the
// scheduler is idle.
func (c *Cleaner) NextRun() time.Time {
	if c.cron == nil || c.entryID == 0 {
		return time.Time{}
	}
	return c.cron.Entry(c.entryID).Next
}
