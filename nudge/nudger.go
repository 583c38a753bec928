// Package nudge sends periodic wellbeing reminders while focus reminders are enabled.
package nudge

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"focus-server/models"
	"focus-server/notify"
	"focus-server/scheduler"
	"focus-server/templates"

	"go.uber.org/zap"
)

const (
	Title                  = "Focus AI Reminder"
	DefaultIntervalMinutes = 30
)

// SettingsLoader returns the current settings; it is called on every event.
type SettingsLoader func() (models.Settings, error)

type Nudger struct {
	load     SettingsLoader
	notifier notify.Notifier
	clock    scheduler.Clock
	catalog  Catalog
	logger   *zap.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	alarm    *scheduler.DelayedAction
	interval time.Duration
}

type Option func(*Nudger)

func WithClock(c scheduler.Clock) Option {
	return func(n *Nudger) { n.clock = c }
}

func WithCatalog(c Catalog) Option {
	return func(n *Nudger) { n.catalog = c }
}

func WithRand(r *rand.Rand) Option {
	return func(n *Nudger) { n.rng = r }
}

func New(load SettingsLoader, notifier notify.Notifier, logger *zap.Logger, opts ...Option) *Nudger {
	n := &Nudger{
		load:     load,
		notifier: notifier,
		clock:    scheduler.RealClock(),
		catalog:  DefaultCatalog,
		logger:   logger.With(zap.String("component", "nudge")),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Reconfigure clears the alarm and, if nudges are enabled, arms a new one
// with the stored interval. Call it whenever the relevant settings change.
func (n *Nudger) Reconfigure() error {
	settings, err := n.load()
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.clearLocked()

	if !settings.AIRemindersEnabled {
		n.logger.Info("nudges disabled")
		return nil
	}
	minutes := settings.ReminderInterval
	if minutes <= 0 {
		minutes = DefaultIntervalMinutes
	}
	n.interval = time.Duration(minutes) * time.Minute
	n.armLocked()
	n.logger.Info("nudge alarm armed", zap.Duration("interval", n.interval))
	return nil
}

// Stop clears the alarm.
func (n *Nudger) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clearLocked()
}

// Armed reports whether a periodic alarm is pending.
func (n *Nudger) Armed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.alarm != nil
}

func (n *Nudger) clearLocked() {
	if n.alarm != nil {
		n.alarm.Stop()
		n.alarm = nil
	}
}

func (n *Nudger) armLocked() {
	alarm := scheduler.NewDelayedAction(n.clock, n.clock.Now().Add(n.interval), 0)
	n.alarm = alarm
	alarm.Start(func() { n.tick(alarm) })
}

func (n *Nudger) tick(alarm *scheduler.DelayedAction) {
	n.mu.Lock()
	if n.alarm != alarm {
		n.mu.Unlock()
		return
	}
	n.armLocked()
	n.mu.Unlock()

	if err := n.Send(context.Background()); err != nil && !errors.Is(err, ErrDisabled) {
		n.logger.Warn("nudge not delivered", zap.Error(err))
	}
}

var ErrDisabled = errors.New("nudges are disabled")

// Send delivers one nudge if the stored settings still allow it.
func (n *Nudger) Send(ctx context.Context) error {
	settings, err := n.load()
	if err != nil {
		return err
	}
	if !settings.AIRemindersEnabled {
		n.logger.Debug("nudge skipped, reminders disabled")
		return ErrDisabled
	}
	return n.deliver(ctx, settings)
}

// Test delivers one nudge regardless of the enabled flag.
func (n *Nudger) Test(ctx context.Context) error {
	settings, err := n.load()
	if err != nil {
		return err
	}
	return n.deliver(ctx, settings)
}

func (n *Nudger) deliver(ctx context.Context, settings models.Settings) error {
	minutes := settings.ReminderInterval
	if minutes <= 0 {
		minutes = DefaultIntervalMinutes
	}

	category, message := n.Pick()
	body := templates.Interpolate(message, &templates.Context{Interval: minutes, Now: n.clock.Now()})
	err := n.notifier.Notify(ctx, models.Notification{
		Title:              Title,
		Body:               body,
		RequireInteraction: true,
	})
	if err != nil {
		return err
	}
	n.logger.Info("nudge sent", zap.String("category", category))
	return nil
}

// Pick chooses a random category, then a random message within it.
func (n *Nudger) Pick() (string, string) {
	categories := make([]string, 0, len(n.catalog))
	for c := range n.catalog {
		categories = append(categories, c)
	}
	if len(categories) == 0 {
		return "", ""
	}
	sort.Strings(categories)

	n.mu.Lock()
	defer n.mu.Unlock()
	category := categories[n.rng.Intn(len(categories))]
	messages := n.catalog[category]
	if len(messages) == 0 {
		return category, ""
	}
	return category, messages[n.rng.Intn(len(messages))]
}
