package obs

import (
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared logger used across the service.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", log.LstdFlags|log.LUTC)
	})
	return logger
}

var (
	// PaymentEventOutcomes counts webhook event processing by outcome:
	// transitioned, ignored, already_processed, rejected, failed.
	PaymentEventOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restobooking_payment_event_outcomes_total",
		Help: "Payment webhook events by processing outcome.",
	}, []string{"outcome"})

	// GuestDenied counts capability-token rejections on the guest API.
	GuestDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restobooking_guest_denied_total",
		Help: "Guest requests denied by the capability token gate.",
	})

	// InvoicesCreated counts newly recorded invoices.
	InvoicesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restobooking_invoices_created_total",
		Help: "Invoices recorded from confirmed payments.",
	})
)

// MetricsHandler exposes the default registry, mounted on /metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
