package manager

import "g2pd/internal/g2p"

// Event represents a manager lifecycle event.
// Minimal and stable: name + model ID and optional fields via key/values.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// converterEvents forwards driver events, tagged with the serving variant.
type converterEvents struct {
	pub   EventPublisher
	model string
}

func (c converterEvents) Publish(e g2p.Event) {
	fields := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields["run_id"] = e.RunID
	c.pub.Publish(Event{Name: e.Name, ModelID: c.model, Fields: fields})
}
