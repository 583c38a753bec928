package archive

import (
	"context"
	"fmt"
	"time"

	"focus-server/models"
	"focus-server/tracking"

	"go.uber.org/zap"
)

// DefaultInterval is used when Run is given a non-positive interval.
const DefaultInterval = 24 * time.Hour

// TrackingStore is the slice of the store the retention job needs.
type TrackingStore interface {
	TrackingDaysBefore(cutoff string) (models.TrackingData, error)
	DeleteTrackingBefore(cutoff string) (int64, error)
}

// Retention moves tracking days older than RetainDays into the archive.
type Retention struct {
	store      TrackingStore
	archive    *Archive
	retainDays int
	now        func() time.Time
	logger     *zap.Logger
}

func NewRetention(store TrackingStore, archive *Archive, retainDays int, logger *zap.Logger) *Retention {
	return &Retention{
		store:      store,
		archive:    archive,
		retainDays: retainDays,
		now:        time.Now,
		logger:     logger.With(zap.String("component", "retention")),
	}
}

// Cutoff is the oldest day key that is kept.
func (r *Retention) Cutoff() string {
	return tracking.DayKey(r.now().AddDate(0, 0, -r.retainDays))
}

// RunOnce archives and prunes. It returns the number of archived days.
// Nothing is deleted unless the archive commit succeeded.
func (r *Retention) RunOnce() (int, error) {
	if r.retainDays <= 0 {
		return 0, nil
	}

	cutoff := r.Cutoff()
	old, err := r.store.TrackingDaysBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("load days before %s: %w", cutoff, err)
	}
	if len(old) == 0 {
		return 0, nil
	}

	hash, err := r.archive.Commit(old, r.now())
	if err != nil {
		return 0, fmt.Errorf("archive days: %w", err)
	}

	rows, err := r.store.DeleteTrackingBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune days before %s: %w", cutoff, err)
	}

	r.logger.Info("tracking days archived",
		zap.Int("days", len(old)),
		zap.Int64("rows", rows),
		zap.String("cutoff", cutoff),
		zap.String("commit", hash.String()))
	return len(old), nil
}

// Run calls RunOnce immediately and then every interval until ctx is done.
func (r *Retention) Run(ctx context.Context, interval time.Duration) error {
	if r.retainDays <= 0 {
		r.logger.Info("tracking retention disabled")
		<-ctx.Done()
		return nil
	}

	if interval <= 0 {
		r.logger.Warn("retention interval not positive, using default",
			zap.Duration("interval", interval),
			zap.Duration("default", DefaultInterval))
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(); err != nil {
			r.logger.Error("retention run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
