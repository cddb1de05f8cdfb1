package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-orders/internal/logger"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	logger.Discard()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

func TestHub_PushReachesOnlyTargetUser(t *testing.T) {
	hub := startHub(t)

	seller := &Client{hub: hub, userID: 10, send: make(chan []byte, 4)}
	buyer := &Client{hub: hub, userID: 20, send: make(chan []byte, 4)}
	hub.Register(seller)
	hub.Register(buyer)

	require.NoError(t, hub.Push(10, "order_created", map[string]any{"order_id": 5}))

	select {
	case raw := <-seller.send:
		var msg struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "order_created", msg.Type)
		assert.EqualValues(t, 5, msg.Data["order_id"])
	case <-time.After(time.Second):
		t.Fatal("сообщение не доставлено")
	}

	assert.Len(t, buyer.send, 0)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)

	slow := &Client{hub: hub, userID: 10, send: make(chan []byte)}
	hub.Register(slow)
	assert.Eventually(t, func() bool { return hub.Online(10) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Push(10, "order_delivered", nil))
	assert.Eventually(t, func() bool { return hub.Online(10) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_StopsWithContext(t *testing.T) {
	logger.Discard()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &Client{hub: hub, userID: 1, send: make(chan []byte, 1)}
	hub.Register(client)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("хаб не остановился")
	}

	_, ok := <-client.send
	assert.False(t, ok, "канал клиента должен быть закрыт")
	assert.NoError(t, hub.Push(1, "order_created", nil))
	hub.Unregister(client)
}
