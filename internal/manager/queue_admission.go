package manager

import (
	"context"
	"path/filepath"
	"time"
)

// outputKey normalises an output path so equivalent spellings share a slot.
func outputKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (m *Manager) acquireSlot(key string) *outputSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.outputs[key]
	if s == nil {
		s = &outputSlot{genCh: make(chan struct{}, 1), queueCh: make(chan struct{}, m.maxQueueDepth)}
		m.outputs[key] = s
	}
	s.refs++
	return s
}

func (m *Manager) releaseSlot(key string, s *outputSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 && m.outputs[key] == s {
		delete(m.outputs, key)
	}
}

// admit reserves a queue slot and then the single in-flight slot for the
// output path. Returns a release func to be deferred.
func (m *Manager) admit(ctx context.Context, output string) (func(), error) {
	if output == "" {
		return func() {}, nil
	}
	key := outputKey(output)
	s := m.acquireSlot(key)
	drop := func() { m.releaseSlot(key, s) }

	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		drop()
		return func() {}, err
	}

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case s.queueCh <- struct{}{}:
		// reserved queue slot
	case <-ctx.Done():
		drop()
		return func() {}, ctx.Err()
	case <-timer.C:
		drop()
		return func() {}, tooBusyError{key: output}
	}

	// Wait to acquire the single in-flight slot
	acquired := false
	defer func() {
		if !acquired {
			<-s.queueCh
			drop()
		}
	}()
	select {
	case s.genCh <- struct{}{}:
		acquired = true
		return func() { <-s.genCh; <-s.queueCh; drop() }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{key: output}
	}
}
