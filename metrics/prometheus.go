package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/amc-portal/amc"
)

// Manager owns the portal's metrics and the registry they live on.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Portfolio health, refreshed by each risk scan
	clientsTotal   prometheus.Gauge
	clientsAtRisk  prometheus.Gauge
	clientsSkipped prometheus.Gauge
	riskBySeverity *prometheus.GaugeVec
	hoursRemaining prometheus.Gauge
	hoursConsumed  prometheus.Gauge
	amountPaid     prometheus.Gauge

	// Scan bookkeeping
	scanDuration prometheus.Histogram
	scansTotal   *prometheus.CounterVec
	lastScanUnix prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager. Without WithRegistry a fresh
// registry is used so the Go runtime collectors stay out of /metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "amc",
		subsystem:        "portal",
		histogramBuckets: prometheus.DefBuckets,
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.clientsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "clients",
		Help:      "Number of clients evaluated by the last risk scan",
	})

	m.clientsAtRisk = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "clients_at_risk",
		Help:      "Number of clients expiring soon or low on hours",
	})

	m.clientsSkipped = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "clients_skipped",
		Help:      "Number of clients the last scan could not evaluate",
	})

	m.riskBySeverity = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "clients_by_severity",
			Help:      "Number of clients per risk severity",
		},
		[]string{"severity"},
	)

	m.hoursRemaining = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hours_remaining",
		Help:      "Hours remaining across the portfolio",
	})

	m.hoursConsumed = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hours_consumed",
		Help:      "Hours consumed across the portfolio",
	})

	m.amountPaid = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "amount_paid",
		Help:      "Payments received across the portfolio",
	})

	m.scanDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "risk_scan_duration_seconds",
		Help:      "Duration of portfolio risk scans",
		Buckets:   m.histogramBuckets,
	})

	m.scansTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "risk_scans_total",
			Help:      "Risk scans by outcome",
		},
		[]string{"outcome"},
	)

	m.lastScanUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "risk_scan_last_unix",
		Help:      "Unix timestamp of the last successful risk scan",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and method",
		},
		[]string{"route", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   m.histogramBuckets,
		},
		[]string{"route", "method", "status_code"},
	)
}

// RecordPortfolio publishes a portfolio report's health gauges.
func (m *Manager) RecordPortfolio(report amc.PortfolioReport) {
	m.clientsTotal.Set(float64(report.Summary.ClientCount))
	m.clientsAtRisk.Set(float64(report.Summary.AtRiskCount))
	m.clientsSkipped.Set(float64(len(report.Skipped)))

	counts := map[amc.Severity]int{
		amc.SeverityNone:     0,
		amc.SeverityWarning:  0,
		amc.SeverityCritical: 0,
	}
	for _, c := range report.Clients {
		counts[c.Risk.Severity]++
	}
	for severity, n := range counts {
		m.riskBySeverity.WithLabelValues(string(severity)).Set(float64(n))
	}

	m.hoursRemaining.Set(report.Summary.TotalRemaining.InexactFloat64())
	m.hoursConsumed.Set(report.Summary.TotalConsumed.InexactFloat64())
	m.amountPaid.Set(report.Summary.TotalPaid.InexactFloat64())
}

// RecordScan records one risk scan. A nil err counts as success.
func (m *Manager) RecordScan(duration time.Duration, err error) {
	m.scanDuration.Observe(duration.Seconds())
	if err != nil {
		m.scansTotal.WithLabelValues("error").Inc()
		return
	}
	m.scansTotal.WithLabelValues("ok").Inc()
	m.lastScanUnix.SetToCurrentTime()
}

// RecordHTTPRequest counts a request and observes its duration.
func (m *Manager) RecordHTTPRequest(route, method, statusCode string, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, statusCode).Observe(duration.Seconds())
}

// Registry returns the registry the metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
