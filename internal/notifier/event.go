package notifier

import (
	"bytes"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/statforge/statengine/internal/domain/stats"
	"github.com/valyala/bytebufferpool"
)

// Channel naming: "player:<id>", "game:<id>", "team:<id>".
func PlayerChannel(playerID string) string { return "player:" + playerID }
func GameChannel(gameID string) string     { return "game:" + gameID }
func TeamChannel(teamID string) string     { return "team:" + teamID }

const (
	EventTypeMetricUpdate = "metric_update"
	EventTypeStatus       = "status"
	EventTypeError        = "error"
)

// Event is one update on one channel. Delivery is at-least-once; ComputedAt
// lets subscribers merge idempotently by keeping the latest value per
// (player, game).
type Event struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Channel     string           `json:"channel,omitempty"`
	Set         *stats.MetricSet `json:"set,omitempty"`
	Status      string           `json:"status,omitempty"`
	Error       string           `json:"error,omitempty"`
	PublishedAt time.Time        `json:"published_at"`
}

func newMetricEvent(channel string, set stats.MetricSet) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        EventTypeMetricUpdate,
		Channel:     channel,
		Set:         &set,
		PublishedAt: time.Now().UTC(),
	}
}

func newStatusEvent(status string) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        EventTypeStatus,
		Status:      status,
		PublishedAt: time.Now().UTC(),
	}
}

func newErrorEvent(reason string) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        EventTypeError,
		Error:       reason,
		PublishedAt: time.Now().UTC(),
	}
}

// encodeEvent serializes through a pooled buffer so broadcast hot paths do
// not allocate a fresh encoder buffer per event.
func encodeEvent(event Event) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(event); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return bytes.TrimRight(out, "\n"), nil
}
