package manager

import "sync"

// MemoryPublisher records manager events in publish order. It backs the
// event assertions in tests.
type MemoryPublisher struct {
	mu  sync.Mutex
	log []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = append(p.log, e)
}

// Events returns a snapshot of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	return p.filter(func(Event) bool { return true })
}

// ForModel returns the events published for one variant.
func (p *MemoryPublisher) ForModel(id string) []Event {
	return p.filter(func(e Event) bool { return e.ModelID == id })
}

// Names lists event names in publish order.
func (p *MemoryPublisher) Names() []string {
	evs := p.Events()
	names := make([]string, len(evs))
	for i, e := range evs {
		names[i] = e.Name
	}
	return names
}

func (p *MemoryPublisher) filter(keep func(Event) bool) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.log {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
