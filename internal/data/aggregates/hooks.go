package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/pitchroom-backend/internal/observability"
)

// Hooks receives one signal per aggregate write and one per conflict.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}

type metricsHooks struct {
	m *observability.Metrics
}

// NewObservabilityHooks feeds write outcomes into the process metrics. A nil set is a no-op.
func NewObservabilityHooks(m *observability.Metrics) Hooks {
	if m == nil {
		return noopHooks{}
	}
	return metricsHooks{m: m}
}

func (h metricsHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.m.ObserveAggregateOperation(opLabel(name), status, dur)
}

func (h metricsHooks) IncConflict(name string) {
	h.m.IncAggregateConflict(opLabel(name))
}

func opLabel(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	return name
}
