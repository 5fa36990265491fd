package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline-io/planline/internal/model"
)

func newTestBroker() *Broker {
	return NewBroker(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBrokerPublishReachesAllSubscribers(t *testing.T) {
	b := newTestBroker()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)
	require.Equal(t, 2, b.SubscriberCount())

	rec := model.ChangeRecord{
		ID:         "chg-1",
		Timestamp:  time.Now().UTC(),
		Type:       model.ChangeUpdated,
		EntityID:   "plan-1",
		EntityName: "Acme - Rye Loaf",
	}
	b.Publish(rec)

	for _, ch := range []chan []byte{ch1, ch2} {
		select {
		case event := <-ch:
			s := string(event)
			require.True(t, strings.HasPrefix(s, "event: change\ndata: "), "unexpected frame: %q", s)
			require.True(t, strings.HasSuffix(s, "\n\n"))

			payload := strings.TrimSuffix(strings.TrimPrefix(s, "event: change\ndata: "), "\n\n")
			var got model.ChangeRecord
			require.NoError(t, json.Unmarshal([]byte(payload), &got))
			assert.Equal(t, "chg-1", got.ID)
			assert.Equal(t, model.ChangeUpdated, got.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := newTestBroker()

	ch := b.Subscribe()
	b.Unsubscribe(ch)
	require.Equal(t, 0, b.SubscriberCount())

	_, open := <-ch
	assert.False(t, open, "channel should be closed after unsubscribe")
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := newTestBroker()

	slow := b.Subscribe()
	defer b.Unsubscribe(slow)

	// Fill the subscriber buffer and then some; broadcast must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			b.Publish(model.ChangeRecord{ID: "chg", Type: model.ChangeCreated})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}
