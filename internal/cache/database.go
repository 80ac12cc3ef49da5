package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/minddump/auditd/internal/models"
)

var errStoreNotReady = errors.New("cache: database store not initialised")

// DatabaseStore implements Store on the primary SQL database. It is the
// fallback when Redis is not configured: slower, but always available.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore constructs a database-backed Store. Returns nil for a nil
// database handle.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) guard(ctx context.Context) (context.Context, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, nil
}

// IncrementWithTTL bumps the counter for key inside the current window,
// starting a fresh window when the previous one has lapsed.
func (s *DatabaseStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	ctx, err := s.guard(ctx)
	if err != nil {
		return 0, 0, err
	}
	if window <= 0 {
		window = time.Minute
	}

	now := time.Now()
	deadline := now.Add(window)

	var count int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.CacheEntry
		// Lock the row so concurrent requests serialize on the counter.
		found := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&row, "key = ?", key).Error
		if errors.Is(found, gorm.ErrRecordNotFound) {
			count = 1
			return tx.Create(&models.CacheEntry{
				Key:       key,
				Value:     counterBytes(count),
				ExpiresAt: deadline,
			}).Error
		}
		if found != nil {
			return found
		}

		count = counterValue(row.Value) + 1
		if row.ExpiresAt.Before(now) {
			// Lapsed window, start counting again.
			count = 1
		}
		row.Value = counterBytes(count)
		row.ExpiresAt = deadline
		return tx.Save(&row).Error
	})
	if err != nil {
		return 0, 0, err
	}

	return count, window, nil
}

// Set stores value under key. A non-positive ttl means the entry never
// expires.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, err := s.guard(ctx)
	if err != nil {
		return err
	}

	row := models.CacheEntry{Key: key, Value: value}
	if ttl > 0 {
		row.ExpiresAt = time.Now().Add(ttl)
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&row).Error
}

// Get returns the stored value; expired entries read as absent.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, err := s.guard(ctx)
	if err != nil {
		return nil, false, err
	}

	var row models.CacheEntry
	if err := s.db.WithContext(ctx).Take(&row, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if expired(row.ExpiresAt) {
		return nil, false, nil
	}

	return row.Value, true, nil
}

// Delete removes the given keys, ignoring ones that are already gone.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	ctx, err := s.guard(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&models.CacheEntry{}).Error
}

func expired(at time.Time) bool {
	return !at.IsZero() && at.Before(time.Now())
}

func counterValue(raw []byte) int64 {
	n, _ := strconv.ParseInt(string(raw), 10, 64)
	return n
}

func counterBytes(n int64) []byte {
	return []byte(strconv.FormatInt(n, 10))
}
