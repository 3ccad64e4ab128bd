package api

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"sprawlstats/domain/analysis"
)

// EventType names the server-sent events published to UI collaborators
type EventType string

const (
	EventAnalysisCompleted EventType = "analysis_completed"
	EventAnalysisFailed    EventType = "analysis_failed"
	EventDatasetUpdated    EventType = "dataset_updated"
	EventDatasetDeleted    EventType = "dataset_deleted"
)

// Event is one server-sent event
type Event struct {
	Type      EventType   `json:"event_type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// ToSSEFormat renders the event as an SSE frame
func (e *Event) ToSSEFormat() string {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, `{"error":"error marshalling event"}`)
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, payload)
}

// AnalysisEvent is the data of analysis_* events
type AnalysisEvent struct {
	ResultID  string          `json:"result_id"`
	ConfigID  string          `json:"config_id"`
	Status    analysis.Status `json:"status"`
	Summary   string          `json:"summary,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
}

// DatasetEvent is the data of dataset_* events
type DatasetEvent struct {
	DatasetID string `json:"dataset_id"`
	Points    int    `json:"points"`
}

func analysisEvent(r *analysis.Result) *Event {
	typ := EventAnalysisCompleted
	if r.Status == analysis.StatusFailed {
		typ = EventAnalysisFailed
	}
	return &Event{
		Type:      typ,
		Timestamp: time.Now(),
		Data: AnalysisEvent{
			ResultID:  r.ID,
			ConfigID:  r.ConfigID,
			Status:    r.Status,
			Summary:   r.Summary,
			ErrorCode: r.ErrorCode,
		},
	}
}

func datasetEvent(typ EventType, id string, points int) *Event {
	return &Event{Type: typ, Timestamp: time.Now(), Data: DatasetEvent{DatasetID: id, Points: points}}
}

// Broadcaster fans events out to every subscribed stream. Slow subscribers
// drop events instead of blocking publishers.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[chan *Event]struct{}
	buffer int
}

// NewBroadcaster creates a broadcaster whose subscriptions buffer up to
// buffer events
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster{subs: make(map[chan *Event]struct{}), buffer: buffer}
}

// Subscribe registers a stream. Call the returned func to unsubscribe.
func (b *Broadcaster) Subscribe() (<-chan *Event, func()) {
	ch := make(chan *Event, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers event to every subscriber with room in its buffer and
// returns how many received it
func (b *Broadcaster) Publish(event *Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	delivered := 0
	for ch := range b.subs {
		select {
		case ch <- event:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers reports the number of open streams
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
