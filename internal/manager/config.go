package manager

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"g2pd/internal/backend"
	"g2pd/internal/g2p"
	"g2pd/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxQueueDepth = 8
	defaultMaxWait       = 30 * time.Second
)

// Catalog is the variant source the manager resolves against.
// *registry.Store satisfies it.
type Catalog interface {
	Resolve(ctx context.Context, family string) ([]types.Variant, error)
	Lookup(name string) (types.Variant, bool)
}

// ConvertDefaults fill unset ConvertRequest fields. Zero values defer to
// the driver defaults.
type ConvertDefaults struct {
	GraphemeField string
	PredField     string
	BatchSize     int
	NumWorkers    int
}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Store Catalog
	// Backends defaults to DefaultBackends().
	Backends       *backend.Registry
	BackendOptions backend.Options
	// Family is the base family listed by ListModels (default G2PModel).
	Family         string
	DefaultVariant string
	Defaults       ConvertDefaults
	MaxQueueDepth  int
	MaxWait        time.Duration
	Events         EventPublisher
	Logger         *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		store:          cfg.Store,
		backends:       cfg.Backends,
		backendOpts:    cfg.BackendOptions,
		family:         cfg.Family,
		defaultVariant: cfg.DefaultVariant,
		defaults:       cfg.Defaults,
		instances:      make(map[string]*Instance),
		outputs:        make(map[string]*outputSlot),
		events:         cfg.Events,
		log:            zerolog.Nop(),
	}
	// Apply defaults if unset
	if cfg.MaxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	} else {
		m.maxQueueDepth = cfg.MaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		m.maxWait = defaultMaxWait
	} else {
		m.maxWait = cfg.MaxWait
	}
	if m.family == "" {
		m.family = g2p.DefaultFamily
	}
	if m.backends == nil {
		m.backends = DefaultBackends()
	}
	if m.events == nil {
		m.events = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	}
	if m.backendOpts.Logger == nil {
		m.backendOpts.Logger = &m.log
	}
	m.lister = g2p.New(g2p.Config{Resolver: m.store, Family: m.family, Logger: &m.log})
	m.startTime = time.Now()
	return m
}
