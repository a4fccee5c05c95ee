package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_FiltersAndDelivers(t *testing.T) {
	hub := NewHub(4)
	e := sampleEvent(KindPunchEscalated)

	mine := hub.Subscribe(func(ev Event) bool { return ev.GroupID == e.GroupID })
	defer mine.Close()
	other := hub.Subscribe(func(ev Event) bool { return false })
	defer other.Close()

	require.NoError(t, hub.Publish(context.Background(), e))

	select {
	case got := <-mine.C:
		assert.Equal(t, e.EntityID, got.EntityID)
	default:
		t.Fatal("matching subscriber did not receive the event")
	}
	assert.Empty(t, other.C)
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(2)
	sub := hub.Subscribe(nil)
	defer sub.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, hub.Publish(context.Background(), sampleEvent(KindPunchCommitted)))
	}

	assert.Len(t, sub.C, 2)
	assert.Equal(t, int64(3), hub.Dropped())
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe(nil)
	assert.Equal(t, 1, hub.Subscribers())

	sub.Close()
	sub.Close()

	assert.Zero(t, hub.Subscribers())
	_, open := <-sub.C
	assert.False(t, open)
	require.NoError(t, hub.Publish(context.Background(), sampleEvent(KindPunchCommitted)))
}
