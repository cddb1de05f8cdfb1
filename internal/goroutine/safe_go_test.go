package goroutine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/freelance-orders/internal/logger"
)

func TestSafeGo_RecoversPanic(t *testing.T) {
	logger.Discard()
	var ran atomic.Bool

	SafeGo("panics", func() { panic("boom") })
	SafeGo("works", func() { ran.Store(true) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, Wait(ctx))
	assert.True(t, ran.Load())
}

func TestWait_RespectsDeadline(t *testing.T) {
	release := make(chan struct{})
	SafeGoWithContext(context.Background(), "blocked", func(context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, Wait(ctx), context.DeadlineExceeded)
	close(release)
}
