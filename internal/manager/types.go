package manager

import (
	"time"

	"g2pd/internal/backend"
	"g2pd/pkg/types"
)

// Instance is a live predictor for one variant.
type Instance struct {
	Variant     types.Variant
	Predictor   backend.Predictor
	LastUsed    time.Time
	Conversions uint64
	inferer     *backend.Batched
}

// outputSlot serialises conversions writing the same output path.
type outputSlot struct {
	genCh   chan struct{} // size 1: single in-flight conversion
	queueCh chan struct{} // buffered: queue slots
	refs    int
}
