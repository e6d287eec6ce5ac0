package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circulate_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circulate_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	borrowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circulate_borrows_total",
		Help: "Count of borrow attempts by result",
	}, []string{"result"})

	returnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circulate_returns_total",
		Help: "Count of return attempts by result",
	}, []string{"result"})

	finesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circulate_fines_collected_total",
		Help: "Total fine amount collected",
	})

	reservationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "circulate_reservation_queue_depth",
		Help: "Number of live reservations across all books",
	})

	reservationsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circulate_reservations_processed_total",
		Help: "Count of reservation fulfillment attempts by result",
	}, []string{"result"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circulate_notifications_total",
		Help: "Count of notification deliveries by channel and result",
	}, []string{"channel", "result"})

	openLoans = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "circulate_open_loans",
		Help: "Number of currently open loans",
	})

	frozenAccounts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "circulate_frozen_accounts",
		Help: "Number of accounts currently frozen",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveBorrow increments the borrow counter with a result label.
func ObserveBorrow(result string) {
	borrowsTotal.WithLabelValues(result).Inc()
}

// ObserveReturn increments the return counter with a result label.
func ObserveReturn(result string) {
	returnsTotal.WithLabelValues(result).Inc()
}

// ObserveFinePayment adds a collected fine amount to the running total.
func ObserveFinePayment(amount float64) {
	if amount > 0 {
		finesCollected.Add(amount)
	}
}

// SetReservationQueueDepth sets the live reservation gauge.
func SetReservationQueueDepth(n int) {
	if n < 0 {
		n = 0
	}
	reservationQueueDepth.Set(float64(n))
}

// ObserveReservation increments the fulfillment counter with a result label.
func ObserveReservation(result string) {
	reservationsProcessed.WithLabelValues(result).Inc()
}

// ObserveNotification records a delivery attempt on a channel.
func ObserveNotification(channel, result string) {
	notificationsTotal.WithLabelValues(channel, result).Inc()
}

// IncrementOpenLoans increments the open loan gauge.
func IncrementOpenLoans() {
	openLoans.Inc()
}

// DecrementOpenLoans decrements the open loan gauge.
func DecrementOpenLoans() {
	openLoans.Dec()
}

// SetFrozenAccounts sets the frozen account gauge.
func SetFrozenAccounts(n int) {
	if n < 0 {
		n = 0
	}
	frozenAccounts.Set(float64(n))
}
