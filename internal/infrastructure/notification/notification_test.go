package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/goroutine"
	"github.com/ignatzorin/freelance-orders/internal/logger"
	"github.com/ignatzorin/freelance-orders/internal/testutil"
)

func sample() gateway.Notification {
	return gateway.Notification{
		UserID:  10,
		Event:   gateway.EventOrderCreated,
		Title:   "Новый заказ",
		Message: "Получен новый заказ «Логотип»",
		Type:    gateway.TypeOrder,
		Data:    map[string]any{"order_id": int64(5)},
	}
}

type fakePusher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *fakePusher) Push(userID int64, event string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func TestStoreSink_PersistsAndPushes(t *testing.T) {
	logger.Discard()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	pusher := &fakePusher{err: errors.New("queue full")}
	sink := NewStoreSink(sqlx.NewDb(db, "postgres"), pusher)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(sqlmock.AnyArg(), int64(10), gateway.EventOrderCreated, "Новый заказ", sqlmock.AnyArg(),
			gateway.TypeOrder, []byte(`{"order_id":5}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := sink.Send(context.Background(), sample())
	require.NoError(t, err, "ошибка websocket не должна ронять отправку")
	assert.Len(t, id, 36)
	assert.Equal(t, []string{gateway.EventOrderCreated}, pusher.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSink_InsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	pusher := &fakePusher{}
	sink := NewStoreSink(sqlx.NewDb(db, "postgres"), pusher)
	mock.ExpectExec("INSERT INTO notifications").WillReturnError(errors.New("connection reset"))

	_, err = sink.Send(context.Background(), sample())
	assert.Error(t, err)
	assert.Empty(t, pusher.events)
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink_KeyedByUser(t *testing.T) {
	writer := &fakeWriter{}
	sink := &KafkaSink{writer: writer}

	id, err := sink.Send(context.Background(), sample())
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "10", string(msg.Key))

	var event Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, id, event.ID)
	assert.Equal(t, gateway.EventOrderCreated, event.Event)
	assert.EqualValues(t, 5, event.Data["order_id"])

	writer.err = errors.New("leader not available")
	_, err = sink.Send(context.Background(), sample())
	assert.Error(t, err)
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordNotification(sink string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	key := sink + ":ok"
	if err != nil {
		key = sink + ":error"
	}
	r.counts[key]++
}

func TestFanout_ContinuesAfterFailure(t *testing.T) {
	broken := &testutil.Notifier{Err: errors.New("down")}
	healthy := &testutil.Notifier{}
	rec := &countingRecorder{}

	fanout := NewFanout(rec, Named{Name: "store", Sink: broken}, Named{Name: "kafka", Sink: healthy})
	id, err := fanout.Send(context.Background(), sample())

	assert.Error(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, healthy.Sent(), 1)
	assert.Equal(t, 1, rec.counts["store:error"])
	assert.Equal(t, 1, rec.counts["kafka:ok"])
}

func TestAsync_DetachesFromRequestContext(t *testing.T) {
	logger.Discard()
	next := &testutil.Notifier{}
	async := NewAsync(next, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := async.Send(ctx, sample())
	cancel()
	require.NoError(t, err)

	waitCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, goroutine.Wait(waitCtx))
	assert.Len(t, next.Sent(), 1)
}

func TestAsync_ReportsFailures(t *testing.T) {
	logger.Discard()
	next := &testutil.Notifier{Err: errors.New("down")}
	var mu sync.Mutex
	var failed []string
	async := NewAsync(next, time.Second, func(n gateway.Notification, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, n.Event)
	})

	_, err := async.Send(context.Background(), sample())
	require.NoError(t, err)

	waitCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, goroutine.Wait(waitCtx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{gateway.EventOrderCreated}, failed)
}
