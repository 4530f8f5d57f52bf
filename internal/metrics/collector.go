package metrics

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/domainwatch/domainwatch/internal/core"
	"github.com/domainwatch/domainwatch/internal/notify"
)

type Collector struct {
	checksTotal         *prometheus.CounterVec
	checkResponseTime   *prometheus.HistogramVec
	domainsQueuedTotal  prometheus.Counter
	domainsDue          prometheus.Gauge
	ticksSkippedTotal   prometheus.Counter
	batchesAbandoned    prometheus.Counter
	notificationsTotal  *prometheus.CounterVec
	offloadResultsTotal *prometheus.CounterVec
	queueDepth          prometheus.Gauge
}

// NewCollector registers the collector's metrics with reg. Pass
// prometheus.DefaultRegisterer in binaries and a fresh registry in
// tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domainwatch_checks_total",
				Help: "Check results applied, by account and resulting status",
			},
			[]string{"account_id", "status"},
		),

		checkResponseTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "domainwatch_check_response_seconds",
				Help:    "Probe response time in seconds",
				Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"status"},
		),

		domainsQueuedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "domainwatch_domains_queued_total",
				Help: "Domains marked pending and dispatched for checking",
			},
		),

		domainsDue: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "domainwatch_domains_due",
				Help: "Domains selected as due in the last scheduler tick",
			},
		),

		ticksSkippedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "domainwatch_scheduler_ticks_skipped_total",
				Help: "Scheduler ticks skipped because a prior tick held the lease",
			},
		),

		batchesAbandoned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "domainwatch_check_batches_abandoned_total",
				Help: "Check batches swept as stale before completing",
			},
		),

		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domainwatch_notifications_total",
				Help: "Notification events forwarded, by event and delivery success",
			},
			[]string{"event", "success"},
		),

		offloadResultsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domainwatch_offload_results_total",
				Help: "Offload result submissions, by outcome",
			},
			[]string{"outcome"},
		),

		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "domainwatch_check_queue_depth",
				Help: "Pending jobs in the check queue",
			},
		),
	}
}

func (c *Collector) RecordResultApplied(accountID uuid.UUID, result *core.CheckResult) {
	c.checksTotal.WithLabelValues(accountID.String(), string(result.Status)).Inc()
	if result.ResponseTimeMs != nil {
		c.checkResponseTime.WithLabelValues(string(result.Status)).
			Observe(float64(*result.ResponseTimeMs) / 1000)
	}
}

func (c *Collector) RecordDomainsQueued(n int) {
	c.domainsQueuedTotal.Add(float64(n))
	c.domainsDue.Set(float64(n))
}

func (c *Collector) RecordTickSkipped() {
	c.ticksSkippedTotal.Inc()
}

func (c *Collector) RecordBatchesAbandoned(n int64) {
	c.batchesAbandoned.Add(float64(n))
}

func (c *Collector) RecordNotification(event notify.Event, success bool) {
	c.notificationsTotal.WithLabelValues(string(event), strconv.FormatBool(success)).Inc()
}

func (c *Collector) RecordOffloadResult(outcome string) {
	c.offloadResultsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) SetQueueDepth(depth int64) {
	c.queueDepth.Set(float64(depth))
}
