package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Moderation holds the update-request workflow counters.
type Moderation struct {
	CreatedTotal     *prometheus.CounterVec
	ApprovedTotal    *prometheus.CounterVec
	RejectedTotal    *prometheus.CounterVec
	AutoAppliedTotal *prometheus.CounterVec
	SiblingsPruned   prometheus.Counter
	SiblingsDeleted  prometheus.Counter
}

var moderationSingleton = sync.OnceValue(func() *Moderation {
	return &Moderation{
		CreatedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moderation",
			Name:      "update_requests_created_total",
			Help:      "Update requests persisted, by updateable type.",
		}, []string{"type"}),
		ApprovedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moderation",
			Name:      "update_requests_approved_total",
			Help:      "Update requests approved and applied, by updateable type.",
		}, []string{"type"}),
		RejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moderation",
			Name:      "update_requests_rejected_total",
			Help:      "Update requests rejected, by updateable type.",
		}, []string{"type"}),
		AutoAppliedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moderation",
			Name:      "update_requests_auto_applied_total",
			Help:      "Update requests applied immediately for privileged submitters.",
		}, []string{"type"}),
		SiblingsPruned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "moderation",
			Name:      "conflict_siblings_pruned_total",
			Help:      "Pending sibling requests narrowed by conflict resolution.",
		}),
		SiblingsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "moderation",
			Name:      "conflict_siblings_deleted_total",
			Help:      "Pending sibling requests soft-deleted after losing all fields.",
		}),
	}
})

func UseModeration() *Moderation {
	return moderationSingleton()
}
