package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// NotificationOutcomes counts payment notification handling outcomes
	// (applied, already_completed, verification_failed, not_found).
	NotificationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vorders",
			Subsystem: "reconcile",
			Name:      "notification_outcomes_total",
			Help:      "Total payment notification outcomes by kind",
		},
		[]string{"outcome"},
	)

	// TransitionsTotal counts committed order state transitions by trigger.
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vorders",
			Subsystem: "reconcile",
			Name:      "transitions_total",
			Help:      "Total committed payment state transitions",
		},
		[]string{"trigger"},
	)

	// TransitionConflicts counts conditional updates lost past the retry budget.
	TransitionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vorders",
			Subsystem: "reconcile",
			Name:      "transition_conflicts_total",
			Help:      "Total transitions aborted after losing the conditional update race",
		},
	)
)

func init() {
	Registry.MustRegister(NotificationOutcomes, TransitionsTotal, TransitionConflicts)
}
