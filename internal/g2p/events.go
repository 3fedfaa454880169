package g2p

import "sync"

// Event names published by the Converter.
const (
	EventConvertStart  = "convert_start"
	EventConvertDone   = "convert_done"
	EventConvertFailed = "convert_failed"
)

// Event represents a conversion lifecycle event.
type Event struct {
	Name   string
	RunID  string
	Fields map[string]any
}

// EventPublisher receives events from the Converter. Implementations should
// be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher stores events in-memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
