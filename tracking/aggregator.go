// Package tracking accumulates per-day, per-domain visit counts and active time.
package tracking

import (
	"errors"
	"fmt"
	"time"

	"focus-server/blocklist"
	"focus-server/models"

	"go.uber.org/zap"
)

// DayLayout formats the calendar-day keys of TrackingData.
const DayLayout = "2006-01-02"

var (
	ErrInvalidSeconds = errors.New("active seconds must be positive")
	ErrEmptyDomain    = errors.New("domain is required")
)

// Store is the persistence the aggregator writes through. *store.Store satisfies it.
type Store interface {
	IncrementVisits(day, domain string, n int) error
	AddTimeSpent(day, domain string, seconds int64) error
	GetTrackingDay(day string) (models.TrackingDay, error)
	GetTrackingData() (models.TrackingData, error)
	IncrementBlocks(day string) error
	GetBlocksCount(day string) (int, error)
	SetFocusMinutes(day string, minutes int) error
	GetFocusStats() (map[string]int, error)
}

type Aggregator struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

func NewAggregator(store Store, logger *zap.Logger, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		store:  store,
		now:    now,
		logger: logger.With(zap.String("component", "tracking")),
	}
}

// DayKey returns the tracking key for t in t's location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

func (a *Aggregator) Today() string {
	return DayKey(a.now())
}

func (a *Aggregator) RecordVisit(domain string) error {
	if domain == "" {
		return ErrEmptyDomain
	}
	if err := a.store.IncrementVisits(a.Today(), domain, 1); err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// RecordURL records a visit to rawURL's hostname. Unparseable URLs are ignored.
func (a *Aggregator) RecordURL(rawURL string) (string, error) {
	host := blocklist.Hostname(rawURL)
	if host == "" {
		a.logger.Debug("ignoring visit with no hostname", zap.String("url", rawURL))
		return "", nil
	}
	return host, a.RecordVisit(host)
}

func (a *Aggregator) RecordActiveSeconds(domain string, seconds int64) error {
	if domain == "" {
		return ErrEmptyDomain
	}
	if seconds <= 0 {
		return ErrInvalidSeconds
	}
	if err := a.store.AddTimeSpent(a.Today(), domain, seconds); err != nil {
		return fmt.Errorf("record active time: %w", err)
	}
	return nil
}

func (a *Aggregator) RecordBlock() error {
	if err := a.store.IncrementBlocks(a.Today()); err != nil {
		return fmt.Errorf("record block: %w", err)
	}
	return nil
}

func (a *Aggregator) TrackingData() (models.TrackingData, error) {
	return a.store.GetTrackingData()
}

// Analytics computes today's figures and persists today's focus minutes.
func (a *Aggregator) Analytics() (*models.Analytics, error) {
	now := a.now()
	today := DayKey(now)

	day, err := a.store.GetTrackingDay(today)
	if err != nil {
		return nil, fmt.Errorf("load tracking day: %w", err)
	}
	blocks, err := a.store.GetBlocksCount(today)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}

	focusMinutes := FocusMinutes(day)
	if err := a.store.SetFocusMinutes(today, focusMinutes); err != nil {
		a.logger.Warn("failed to persist focus minutes", zap.Error(err))
	}

	focusStats, err := a.store.GetFocusStats()
	if err != nil {
		return nil, fmt.Errorf("load focus stats: %w", err)
	}
	focusStats[today] = focusMinutes

	score := ProductivityScore(focusMinutes, blocks, day)
	return &models.Analytics{
		Day:           today,
		FocusMinutes:  focusMinutes,
		Blocks:        blocks,
		Score:         score,
		Rating:        Rating(score),
		Streak:        Streak(focusStats, now),
		WeeklyAverage: WeeklyAverage(focusStats, now),
		Chart:         Last7Days(focusStats, now),
		TopSites:      TopSites(day, 8),
		Insights:      Insights(focusMinutes, blocks, day, score, now.Hour()),
	}, nil
}
