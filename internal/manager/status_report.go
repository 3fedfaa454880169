package manager

import (
	"sort"
	"time"

	"g2pd/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := types.StatusResponse{
		ActiveOutputs:    len(m.outputs),
		MaxQueueDepth:    m.maxQueueDepth,
		ConversionsTotal: m.conversions,
		FailuresTotal:    m.failures,
		RecordsTotal:     m.records,
		LastError:        m.err,
		UptimeSeconds:    int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
	}
	resp.Instances = make([]types.InstanceStatus, 0, len(m.instances))
	for _, inst := range m.instances {
		var lastUsed int64
		if !inst.LastUsed.IsZero() {
			lastUsed = inst.LastUsed.Unix()
		}
		resp.Instances = append(resp.Instances, types.InstanceStatus{
			Model:       inst.Variant.Name,
			Backend:     inst.Variant.Backend,
			LastUsed:    lastUsed,
			Conversions: inst.Conversions,
		})
	}
	sort.Slice(resp.Instances, func(i, j int) bool { return resp.Instances[i].Model < resp.Instances[j].Model })
	return resp
}
