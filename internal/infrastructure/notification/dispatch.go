package notification

import (
	"context"
	"errors"
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/goroutine"
)

// Recorder считает результаты доставки по приёмникам.
type Recorder interface {
	RecordNotification(sink string, err error)
}

// Named приёмник с именем для метрик.
type Named struct {
	Name string
	Sink gateway.NotificationDispatcher
}

// Fanout отправляет уведомление во все приёмники. Отказ одного не мешает остальным.
// Возвращает id из первого успешного приёмника.
type Fanout struct {
	sinks   []Named
	metrics Recorder
}

func NewFanout(metrics Recorder, sinks ...Named) *Fanout {
	return &Fanout{sinks: sinks, metrics: metrics}
}

func (f *Fanout) Send(ctx context.Context, n gateway.Notification) (string, error) {
	var (
		firstID string
		errs    []error
	)
	for _, s := range f.sinks {
		id, err := s.Sink.Send(ctx, n)
		if f.metrics != nil {
			f.metrics.RecordNotification(s.Name, err)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if firstID == "" {
			firstID = id
		}
	}
	return firstID, errors.Join(errs...)
}

// Async отправляет уведомления в фоне, отвязав их от контекста запроса.
// Ответ клиенту не ждёт доставки.
type Async struct {
	next    gateway.NotificationDispatcher
	timeout time.Duration
	onError func(n gateway.Notification, err error)
}

func NewAsync(next gateway.NotificationDispatcher, timeout time.Duration, onError func(gateway.Notification, error)) *Async {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Async{next: next, timeout: timeout, onError: onError}
}

// Send возвращает пустой id: он станет известен только после доставки.
func (a *Async) Send(ctx context.Context, n gateway.Notification) (string, error) {
	detached := context.WithoutCancel(ctx)
	goroutine.SafeGo("notification:"+n.Event, func() {
		ctx, cancel := context.WithTimeout(detached, a.timeout)
		defer cancel()
		if _, err := a.next.Send(ctx, n); err != nil && a.onError != nil {
			a.onError(n, err)
		}
	})
	return "", nil
}
