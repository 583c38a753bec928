package notify

import (
	"context"
	"errors"
	"testing"

	"focus-server/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWithFallback(t *testing.T) {
	n := models.Notification{Title: "t", Body: "b"}

	t.Run("primary succeeds", func(t *testing.T) {
		fellBack := false
		nf := WithFallback(
			Func(func(context.Context, models.Notification) error { return nil }),
			Func(func(context.Context, models.Notification) error { fellBack = true; return nil }),
		)
		assert.NoError(t, nf.Notify(context.Background(), n))
		assert.False(t, fellBack)
	})

	t.Run("primary denied", func(t *testing.T) {
		var got models.Notification
		nf := WithFallback(
			Func(func(context.Context, models.Notification) error { return ErrPermissionDenied }),
			Func(func(_ context.Context, n models.Notification) error { got = n; return nil }),
		)
		err := nf.Notify(context.Background(), n)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Equal(t, n, got)
	})

	t.Run("both fail", func(t *testing.T) {
		boom := errors.New("boom")
		nf := WithFallback(
			Func(func(context.Context, models.Notification) error { return ErrPermissionDenied }),
			Func(func(context.Context, models.Notification) error { return boom }),
		)
		err := nf.Notify(context.Background(), n)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.ErrorIs(t, err, boom)
	})
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLog(zap.NewNop()).Notify(context.Background(), models.Notification{Title: "x"}))
}
