package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"g2pd/internal/backend"
	"g2pd/internal/g2p"
	"g2pd/pkg/types"
)

type Manager struct {
	mu       sync.RWMutex
	ensureMu sync.Mutex

	store          Catalog
	backends       *backend.Registry
	backendOpts    backend.Options
	family         string
	defaultVariant string
	defaults       ConvertDefaults
	lister         *g2p.Converter

	instances map[string]*Instance
	outputs   map[string]*outputSlot
	closed    bool
	err       string

	conversions uint64
	failures    uint64
	records     uint64

	// Queue config
	maxQueueDepth int
	maxWait       time.Duration

	events    EventPublisher
	log       zerolog.Logger
	startTime time.Time
}

// Ready reports whether the manager can serve requests.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.closed && m.store != nil
}

// ListModels lists the variants available under the configured family.
func (m *Manager) ListModels(ctx context.Context) ([]types.Variant, error) {
	if m.store == nil {
		return []types.Variant{}, nil
	}
	return m.lister.ListAvailableModels(ctx)
}

// Convert runs the manifest driver for req with the requested variant.
func (m *Manager) Convert(ctx context.Context, req types.ConvertRequest) (types.ConvertResponse, error) {
	if m.isClosed() {
		return types.ConvertResponse{}, tooBusyError{key: "shutting down"}
	}
	inst, err := m.instance(req.Model)
	if err != nil {
		return types.ConvertResponse{}, err
	}
	release, err := m.admit(ctx, req.Output)
	if err != nil {
		if IsTooBusy(err) {
			m.events.Publish(Event{Name: "admission_rejected", ModelID: inst.Variant.Name, Fields: map[string]any{"output": req.Output}})
		}
		return types.ConvertResponse{}, err
	}
	defer release()

	conv := g2p.New(g2p.Config{
		Inferer:  inst.inferer,
		Resolver: m.store,
		Family:   m.family,
		Logger:   &m.log,
		Events:   converterEvents{pub: m.events, model: inst.Variant.Name},
	})
	preds, err := conv.Convert(ctx, g2p.Options{
		ManifestPath:  req.Manifest,
		OutputPath:    req.Output,
		GraphemeField: firstNonEmpty(req.GraphemeField, m.defaults.GraphemeField),
		PredField:     firstNonEmpty(req.PredField, m.defaults.PredField),
		BatchSize:     orDefault(req.BatchSize, m.defaults.BatchSize),
		NumWorkers:    orDefaultPtr(req.NumWorkers, m.defaults.NumWorkers),
	})

	m.mu.Lock()
	inst.LastUsed = time.Now()
	if err != nil {
		m.failures++
		m.err = err.Error()
	} else {
		m.conversions++
		m.records += uint64(len(preds))
		inst.Conversions++
	}
	m.mu.Unlock()
	if err != nil {
		return types.ConvertResponse{}, err
	}

	resp := types.ConvertResponse{Model: inst.Variant.Name, Output: req.Output, Records: len(preds)}
	if req.ReturnPredictions || req.Output == "" {
		resp.Predictions = preds
	}
	return resp, nil
}

// Predict converts graphemes directly with the named variant.
func (m *Manager) Predict(ctx context.Context, model string, graphemes []string) ([]string, error) {
	if m.isClosed() {
		return nil, tooBusyError{key: "shutting down"}
	}
	inst, err := m.instance(model)
	if err != nil {
		return nil, err
	}
	if len(graphemes) == 0 {
		return []string{}, nil
	}
	out, err := inst.Predictor.PredictBatch(ctx, graphemes)
	if err == nil && len(out) != len(graphemes) {
		err = fmt.Errorf("predictor returned %d predictions for %d inputs", len(out), len(graphemes))
	}
	m.mu.Lock()
	inst.LastUsed = time.Now()
	if err != nil {
		m.err = err.Error()
	}
	m.mu.Unlock()
	return out, err
}

// Close releases every predictor. Later calls fail as too busy.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	insts := m.instances
	m.instances = make(map[string]*Instance)
	m.mu.Unlock()
	for _, inst := range insts {
		closePredictor(inst.Predictor)
	}
	return nil
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.err = err.Error()
	m.mu.Unlock()
}

func firstNonEmpty(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// orDefault keeps explicit values, including invalid negatives which
// the driver rejects.
func orDefault(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

// orDefaultPtr is orDefault for fields where zero is a meaningful value.
func orDefaultPtr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}
