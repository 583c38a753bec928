// Package notify delivers user-facing notifications to whatever surface is available.
package notify

import (
	"context"
	"errors"

	"focus-server/models"

	"go.uber.org/zap"
)

// ErrPermissionDenied means no connected surface may show notifications.
var ErrPermissionDenied = errors.New("notification permission denied")

type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n models.Notification) error

func (f Func) Notify(ctx context.Context, n models.Notification) error {
	return f(ctx, n)
}

// WithFallback tries primary first and hands the notification to fallback
// when primary fails. The primary error is returned so callers can log it.
func WithFallback(primary, fallback Notifier) Notifier {
	return Func(func(ctx context.Context, n models.Notification) error {
		err := primary.Notify(ctx, n)
		if err == nil {
			return nil
		}
		if ferr := fallback.Notify(ctx, n); ferr != nil {
			return errors.Join(err, ferr)
		}
		return err
	})
}

// Log writes the notification to the log, the last-resort surface.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger.With(zap.String("component", "notify"))}
}

func (l *Log) Notify(_ context.Context, n models.Notification) error {
	l.logger.Warn("notification not delivered to any client",
		zap.String("title", n.Title),
		zap.String("body", n.Body))
	return nil
}
