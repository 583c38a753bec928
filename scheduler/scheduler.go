// Package scheduler fires one-shot reminders at their deadline.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"focus-server/models"
	"focus-server/notify"

	"go.uber.org/zap"
)

var ErrInvalidTimestamp = errors.New("invalid reminder timestamp")

// ReminderStore is the persistence the scheduler needs. *store.Store satisfies it.
type ReminderStore interface {
	AddReminder(r models.Reminder) (*models.Reminder, error)
	RemoveReminder(id string) error
	ListReminders() ([]models.Reminder, error)
}

type Scheduler struct {
	store    ReminderStore
	notifier notify.Notifier
	logger   *zap.Logger
	clock    Clock
	maxDelay time.Duration
	onFired  func(models.Reminder)

	mu     sync.Mutex
	timers map[string]*DelayedAction
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithMaxDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.maxDelay = d }
}

// WithOnFired registers a hook that runs after a reminder fired and was deleted.
func WithOnFired(fn func(models.Reminder)) Option {
	return func(s *Scheduler) { s.onFired = fn }
}

func New(store ReminderStore, notifier notify.Notifier, logger *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "scheduler")),
		clock:    RealClock(),
		maxDelay: DefaultMaxDelay,
		timers:   make(map[string]*DelayedAction),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add persists a reminder and schedules it.
func (s *Scheduler) Add(ctx context.Context, r models.Reminder) (*models.Reminder, error) {
	if r.FireAt.IsZero() {
		return nil, ErrInvalidTimestamp
	}
	saved, err := s.store.AddReminder(r)
	if err != nil {
		return nil, fmt.Errorf("save reminder: %w", err)
	}
	s.Schedule(ctx, *saved)
	return saved, nil
}

// Schedule arms the reminder, replacing any timer already armed for the same id.
// A reminder that is already due fires before Schedule returns.
func (s *Scheduler) Schedule(ctx context.Context, r models.Reminder) {
	s.mu.Lock()
	if prev, ok := s.timers[r.ID]; ok {
		prev.Stop()
		delete(s.timers, r.ID)
	}

	delay := r.FireAt.Sub(s.clock.Now())
	if delay <= 0 {
		s.mu.Unlock()
		s.logger.Debug("reminder already due, firing now", zap.String("id", r.ID))
		s.fire(ctx, r)
		return
	}

	action := NewDelayedAction(s.clock, r.FireAt, s.maxDelay)
	s.timers[r.ID] = action
	action.Start(func() { s.expire(r, action) })
	s.mu.Unlock()

	s.logger.Debug("reminder scheduled",
		zap.String("id", r.ID),
		zap.Duration("delay", delay),
		zap.Time("fire_at", r.FireAt))
}

func (s *Scheduler) expire(r models.Reminder, action *DelayedAction) {
	s.mu.Lock()
	if s.timers[r.ID] != action {
		// superseded by a later Schedule or Cancel
		s.mu.Unlock()
		return
	}
	delete(s.timers, r.ID)
	s.mu.Unlock()

	s.fire(context.Background(), r)
}

func (s *Scheduler) fire(ctx context.Context, r models.Reminder) {
	err := s.notifier.Notify(ctx, models.Notification{
		Title:              r.Title,
		Body:               r.Body,
		RequireInteraction: true,
	})
	switch {
	case errors.Is(err, notify.ErrPermissionDenied):
		s.logger.Warn("reminder notification suppressed: permission denied", zap.String("id", r.ID))
	case err != nil:
		s.logger.Error("reminder notification failed", zap.String("id", r.ID), zap.Error(err))
	default:
		s.logger.Info("reminder fired", zap.String("id", r.ID), zap.String("title", r.Title))
	}

	if err := s.store.RemoveReminder(r.ID); err != nil {
		s.logger.Error("failed to delete fired reminder", zap.String("id", r.ID), zap.Error(err))
	}

	if s.onFired != nil {
		s.onFired(r)
	}
}

// Cancel stops the reminder's timer and deletes it from the store.
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	if action, ok := s.timers[id]; ok {
		action.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	if err := s.store.RemoveReminder(id); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// Restore schedules every stored reminder. Past-due reminders fire immediately.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	reminders, err := s.store.ListReminders()
	if err != nil {
		return 0, fmt.Errorf("list reminders: %w", err)
	}
	for _, r := range reminders {
		s.Schedule(ctx, r)
	}
	s.logger.Info("reminders restored", zap.Int("count", len(reminders)))
	return len(reminders), nil
}

// Pending reports whether a timer is armed for id.
func (s *Scheduler) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every timer. Stored reminders are kept for the next Restore.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, action := range s.timers {
		action.Stop()
		delete(s.timers, id)
	}
}
