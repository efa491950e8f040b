package notifier

import (
	"context"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/statforge/statengine/internal/domain/stats"
	"github.com/statforge/statengine/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, buffer int) *Client {
	return &Client{
		hub:      hub,
		send:     make(chan []byte, buffer),
		channels: make(map[string]bool),
	}
}

func decodeTestEvent(t *testing.T, data []byte) Event {
	t.Helper()
	var event Event
	require.NoError(t, sonic.Unmarshal(data, &event))
	return event
}

func sampleSet() stats.MetricSet {
	fp := 42.5
	return stats.MetricSet{
		Sport:            "basketball",
		PlayerID:         "p1",
		GameID:           "g1",
		TeamID:           "t1",
		Metrics:          map[string]*float64{"fantasy_points": &fp},
		ComputedAt:       time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC),
		InputFingerprint: "abc123",
	}
}

func TestHub_PublishMetricSetFansOutPerChannel(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, logging.NewNop(), 10)

	playerSub := newTestClient(hub, 4)
	gameSub := newTestClient(hub, 4)
	teamSub := newTestClient(hub, 4)
	idle := newTestClient(hub, 4)

	for _, c := range []*Client{playerSub, gameSub, teamSub, idle} {
		hub.registerClient(c)
	}
	hub.Subscribe(playerSub, PlayerChannel("p1"))
	hub.Subscribe(gameSub, GameChannel("g1"))
	hub.Subscribe(teamSub, TeamChannel("t1"))

	hub.PublishMetricSet(context.Background(), sampleSet())

	event := decodeTestEvent(t, <-playerSub.send)
	assert.Equal(t, EventTypeMetricUpdate, event.Type)
	assert.Equal(t, "player:p1", event.Channel)
	require.NotNil(t, event.Set)
	assert.Equal(t, "p1", event.Set.PlayerID)
	assert.NotEmpty(t, event.ID)

	gameEvent := decodeTestEvent(t, <-gameSub.send)
	assert.Equal(t, "game:g1", gameEvent.Channel)

	teamEvent := decodeTestEvent(t, <-teamSub.send)
	assert.Equal(t, "team:t1", teamEvent.Channel)

	select {
	case <-idle.send:
		t.Fatal("unsubscribed client must not receive events")
	default:
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, logging.NewNop(), 10)
	client := newTestClient(hub, 4)
	hub.registerClient(client)
	hub.Subscribe(client, GameChannel("g1"))
	hub.Unsubscribe(client, GameChannel("g1"))

	hub.PublishMetricSet(context.Background(), sampleSet())

	select {
	case <-client.send:
		t.Fatal("unsubscribed client must not receive events")
	default:
	}
}

func TestHub_SlowSubscriberIsDropped(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, logging.NewNop(), 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := newTestClient(hub, 0)
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Subscribe(slow, GameChannel("g1"))
	hub.PublishMetricSet(ctx, sampleSet())

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_RejectsConnectionsAtCapacity(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, logging.NewNop(), 1)

	first := newTestClient(hub, 4)
	hub.registerClient(first)
	require.False(t, hub.CanAccept())

	second := newTestClient(hub, 4)
	hub.registerClient(second)

	event := decodeTestEvent(t, <-second.send)
	assert.Equal(t, EventTypeError, event.Type)
	assert.Equal(t, "server at capacity", event.Error)

	_, open := <-second.send
	assert.False(t, open)
	assert.Equal(t, 1, hub.ClientCount())
}
