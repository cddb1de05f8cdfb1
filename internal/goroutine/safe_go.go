package goroutine

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-orders/internal/logger"
)

// inflight фоновые задачи, которые ещё выполняются. Wait нужен для корректного завершения.
var inflight sync.WaitGroup

// SafeGo запускает горутину с перехватом паники.
func SafeGo(name string, fn func()) {
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		defer recoverPanic(name)
		fn()
	}()
}

// SafeGoWithContext то же, что SafeGo, но передаёт ctx в fn.
func SafeGoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	SafeGo(name, func() { fn(ctx) })
}

// Wait ждёт завершения запущенных горутин или отмены ctx.
func Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recoverPanic(name string) {
	if r := recover(); r != nil {
		logger.Log.WithFields(logrus.Fields{
			"task":  name,
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("паника в фоновой горутине")
	}
}
