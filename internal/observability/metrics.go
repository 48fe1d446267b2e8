package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. HTTP metrics live in the middleware package; these track
// business events that are not visible from status codes alone.
var (
	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notifications persisted, by type.",
		},
		[]string{"type"},
	)

	// NotificationsDropped counts best-effort notifications that failed to persist.
	NotificationsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Notifications that could not be persisted, by type.",
		},
		[]string{"type"},
	)

	WishReservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wish_reservations_total",
			Help: "Reservation attempts by outcome (reserved, conflict, cancelled, cascade_cancelled).",
		},
		[]string{"result"},
	)

	ContactTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_transitions_total",
			Help: "Contact state changes by target state.",
		},
		[]string{"to"},
	)
)

func init() {
	prometheus.MustRegister(NotificationsCreated, NotificationsDropped, WishReservations, ContactTransitions)
}
