package batch

import (
	"sync"
	"time"

	"gll2txt/internal/domain"
)

// EventType classifies messages emitted while a batch runs.
type EventType string

const (
	EventTypeLog      EventType = "log"
	EventTypeProgress EventType = "progress"
	EventTypeOutcome  EventType = "outcome"
	EventTypeComplete EventType = "complete"
)

// Event is a sequenced payload consumed by progress subscribers, typically
// a log panel or progress bar in a presentation layer.
type Event struct {
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	BatchID   string    `json:"batchId"`
	Type      EventType `json:"type"`

	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`

	GLLFile     string             `json:"gllFile,omitempty"`
	SpeakerName string             `json:"speakerName,omitempty"`
	Outcome     domain.OutcomeKind `json:"outcome,omitempty"`

	// Percent is completedCount/totalCount after each job, 0-100.
	Percent int  `json:"percent,omitempty"`
	OK      bool `json:"ok,omitempty"`
}

// EventBus stores recent events and provides incremental reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
