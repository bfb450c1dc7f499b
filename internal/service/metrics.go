package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collision sources
const (
	CollisionExists = "exists"
	CollisionClaim  = "claim"
	CollisionInsert = "insert"
)

// AllocatorMetrics counts identifier allocation outcomes per entity kind.
// A nil *AllocatorMetrics records nothing.
type AllocatorMetrics struct {
	Attempts   *prometheus.CounterVec
	Collisions *prometheus.CounterVec
	Exhausted  *prometheus.CounterVec
}

// NewAllocatorMetrics registers the allocator counters on reg.
func NewAllocatorMetrics(reg prometheus.Registerer) *AllocatorMetrics {
	f := promauto.With(reg)
	return &AllocatorMetrics{
		Attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nonagon_id_allocation_attempts_total",
			Help: "Candidate identifiers generated, by entity kind",
		}, []string{"kind"}),
		Collisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nonagon_id_allocation_collisions_total",
			Help: "Candidates rejected as already used, by entity kind and where the collision was found",
		}, []string{"kind", "source"}),
		Exhausted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nonagon_id_allocation_exhausted_total",
			Help: "Allocations that hit the attempt limit, by entity kind",
		}, []string{"kind"}),
	}
}

func (m *AllocatorMetrics) attempt(kind string) {
	if m != nil {
		m.Attempts.WithLabelValues(kind).Inc()
	}
}

func (m *AllocatorMetrics) collision(kind, source string) {
	if m != nil {
		m.Collisions.WithLabelValues(kind, source).Inc()
	}
}

func (m *AllocatorMetrics) exhausted(kind string) {
	if m != nil {
		m.Exhausted.WithLabelValues(kind).Inc()
	}
}
