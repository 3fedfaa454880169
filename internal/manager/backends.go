package manager

import (
	"fmt"
	"io"
	"time"

	"g2pd/internal/backend"
	"g2pd/internal/backend/lexicon"
	"g2pd/internal/backend/llama"
	"g2pd/internal/backend/openai"
	"g2pd/internal/backend/remote"
)

// DefaultBackends returns a registry with every bundled backend.
func DefaultBackends() *backend.Registry {
	r := backend.NewRegistry()
	r.Register("lexicon", lexicon.Factory)
	r.Register("remote", remote.Factory)
	r.Register("openai", openai.Factory)
	r.Register("llama", llama.Factory)
	return r
}

// LlamaBuilt reports whether the llama backend is compiled in.
func LlamaBuilt() bool { return llama.Built }

// instance returns the cached predictor for the named variant, creating it
// on first use. An empty name selects the default variant.
func (m *Manager) instance(name string) (*Instance, error) {
	if name == "" {
		name = m.defaultVariant
	}
	if name == "" {
		return nil, ErrModelNotFound("(no default variant configured)")
	}
	if m.store == nil {
		return nil, ErrModelNotFound(name)
	}
	v, ok := m.store.Lookup(name)
	if !ok {
		return nil, ErrModelNotFound(name)
	}

	m.ensureMu.Lock()
	defer m.ensureMu.Unlock()

	m.mu.RLock()
	inst := m.instances[name]
	m.mu.RUnlock()
	if inst != nil && inst.Variant == v {
		return inst, nil
	}

	if !m.backends.Has(v.Backend) {
		return nil, backend.ErrDependencyUnavailable(fmt.Sprintf("no backend %q for variant %q", v.Backend, v.Name))
	}
	start := time.Now()
	m.events.Publish(Event{Name: "instance_start", ModelID: name, Fields: map[string]any{"backend": v.Backend}})
	p, err := m.backends.Create(v, m.backendOpts)
	if err != nil {
		m.events.Publish(Event{Name: "instance_error", ModelID: name, Fields: map[string]any{"error": err.Error()}})
		m.setLastError(err)
		return nil, err
	}
	next := &Instance{
		Variant:   v,
		Predictor: p,
		inferer:   &backend.Batched{Predictor: p, Logger: &m.log},
	}

	m.mu.Lock()
	old := m.instances[name]
	m.instances[name] = next
	m.mu.Unlock()
	if old != nil {
		// The catalog changed under this name; drop the stale predictor.
		closePredictor(old.Predictor)
	}
	m.log.Info().Str("model", name).Str("backend", v.Backend).Dur("took", time.Since(start)).Msg("instance ready")
	m.events.Publish(Event{Name: "instance_ready", ModelID: name, Fields: map[string]any{"backend": v.Backend}})
	return next, nil
}

func closePredictor(p backend.Predictor) {
	if c, ok := p.(io.Closer); ok {
		_ = c.Close()
	}
}
