/*
scheduler.go - Periodic portfolio risk scan

PURPOSE:
  Periodically evaluates every client, logs the ones expiring soon or low
  on hours, and publishes the portfolio gauges to Prometheus.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Scans immediately on start, then on every tick
  - A client with bad data is logged as skipped and does not stop the scan
  - Stop waits for an in-flight scan to finish

CONFIGURATION:
  - Interval: How often to scan (risk_scan_interval, default 1 hour)
  - Enabled: Whether the scanner is active (interval 0 disables it)

USAGE:
  scanner := NewRiskScanner(reporter, log, metricsManager)
  scanner.Start()
  // ... later
  scanner.Stop()

SEE ALSO:
  - amc/reporter.go: Portfolio evaluation
  - metrics/prometheus.go: RecordPortfolio, RecordScan
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/amc-portal/amc"
	"github.com/warp/amc-portal/logger"
	"github.com/warp/amc-portal/metrics"
)

// RiskScanner runs the portfolio risk scan on a ticker.
type RiskScanner struct {
	Reporter *amc.Reporter
	Interval time.Duration
	Enabled  bool

	log     logger.Logger
	metrics *metrics.Manager
	now     func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastRun    time.Time
	lastReport *amc.PortfolioReport
}

// NewRiskScanner creates a scanner with a one hour interval. m may be nil.
func NewRiskScanner(reporter *amc.Reporter, log logger.Logger, m *metrics.Manager) *RiskScanner {
	if log == nil {
		log = logger.Nop()
	}
	return &RiskScanner{
		Reporter: reporter,
		Interval: time.Hour,
		Enabled:  true,
		log:      log.Named("risk-scanner"),
		metrics:  m,
		now:      time.Now,
	}
}

// Start begins the scanner.
func (rs *RiskScanner) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	ctx := context.Background()
	if !rs.Enabled || rs.Interval <= 0 {
		rs.log.Info(ctx, "disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.log.Info(ctx, "started", logger.Duration("interval", rs.Interval))
}

// Stop stops the scanner and waits for a running scan to finish.
func (rs *RiskScanner) Stop() {
	rs.mu.Lock()
	if rs.ticker == nil {
		rs.mu.Unlock()
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.ticker = nil
	rs.mu.Unlock()

	rs.wg.Wait()
	rs.log.Info(context.Background(), "stopped")
}

func (rs *RiskScanner) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Run immediately on start
	rs.scan(ctx)

	for {
		select {
		case <-ticker.C:
			rs.scan(ctx)
		case <-stop:
			return
		}
	}
}

// RunNow performs one scan synchronously and returns its report.
func (rs *RiskScanner) RunNow(ctx context.Context) (amc.PortfolioReport, error) {
	return rs.scan(ctx)
}

func (rs *RiskScanner) scan(ctx context.Context) (amc.PortfolioReport, error) {
	start := time.Now()
	asOf := rs.now()

	report, err := rs.Reporter.Portfolio(ctx, asOf)
	elapsed := time.Since(start)
	if rs.metrics != nil {
		rs.metrics.RecordScan(elapsed, err)
	}
	if err != nil {
		rs.log.Error(ctx, "scan failed", logger.Error(err))
		return amc.PortfolioReport{}, err
	}

	for _, c := range report.Clients {
		if !c.Risk.IsAtRisk {
			continue
		}
		fields := []logger.Field{
			logger.String("client_id", string(c.Client.ID)),
			logger.String("project", c.Client.ProjectName),
			logger.String("severity", string(c.Risk.Severity)),
			logger.Stringer("hours_remaining", c.Utilization.HoursRemaining),
			logger.Any("reasons", c.Risk.Reasons),
		}
		if c.Risk.DaysUntilExpiry != nil {
			fields = append(fields, logger.Int("days_until_expiry", *c.Risk.DaysUntilExpiry))
		}
		rs.log.Warn(ctx, "client at risk", fields...)
	}
	for _, s := range report.Skipped {
		rs.log.Warn(ctx, "client skipped",
			logger.String("client_id", string(s.ClientID)),
			logger.Error(s.Err),
		)
	}
	if rs.metrics != nil {
		rs.metrics.RecordPortfolio(report)
	}

	rs.log.Info(ctx, "scan completed",
		logger.Int("clients", report.Summary.ClientCount),
		logger.Int("at_risk", report.Summary.AtRiskCount),
		logger.Int("skipped", len(report.Skipped)),
		logger.Duration("elapsed", elapsed),
	)

	rs.mu.Lock()
	rs.lastRun = asOf
	rs.lastReport = &report
	rs.mu.Unlock()

	return report, nil
}

// LastReport returns the most recent successful scan, nil before the first.
func (rs *RiskScanner) LastReport() (*amc.PortfolioReport, time.Time) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.lastReport, rs.lastRun
}

// GetNextRunTime returns when the next scan is due.
func (rs *RiskScanner) GetNextRunTime() time.Time {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.lastRun.IsZero() {
		return rs.now()
	}
	return rs.lastRun.Add(rs.Interval)
}
