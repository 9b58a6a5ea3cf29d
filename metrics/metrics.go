package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "petshop"

var (
	// Registry holds every petshop collector, it is served by Handler.
	Registry = prometheus.NewRegistry()

	contractReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contract_reads_total",
		Help:      "Contract reads by method and result (hit, miss, error).",
	}, []string{"method", "result"})

	readDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "contract_read_duration_seconds",
		Help:      "Latency of contract reads that reached a node.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	invalidations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_invalidations_total",
		Help:      "Prefix invalidations issued after successful transactions.",
	})

	pollTicks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_refreshes_total",
		Help:      "Poller refreshes by subscription and result.",
	}, []string{"subscription", "result"})

	txSubmissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tx_submissions_total",
		Help:      "Submitted write intents by action and outcome.",
	}, []string{"action", "outcome"})
)

func init() {
	Registry.MustRegister(contractReads, readDuration, invalidations, pollTicks, txSubmissions)
}

func ObserveRead(method, result string) {
	contractReads.WithLabelValues(method, result).Inc()
}

func ObserveReadDuration(method string, d time.Duration) {
	readDuration.WithLabelValues(method).Observe(d.Seconds())
}

func ObserveInvalidation() {
	invalidations.Inc()
}

func ObservePoll(subscription string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	pollTicks.WithLabelValues(subscription, result).Inc()
}

func ObserveTx(action, outcome string) {
	txSubmissions.WithLabelValues(action, outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// DumpSummary logs the current value of every counter.
func DumpSummary() error {
	families, err := Registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := log.Fields{"metric": mf.GetName()}
			for _, l := range m.GetLabel() {
				fields[l.GetName()] = l.GetValue()
			}
			if c := m.GetCounter(); c != nil {
				fields["value"] = c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				fields["count"] = h.GetSampleCount()
				fields["sum"] = h.GetSampleSum()
			}
			log.WithFields(fields).Info("metric")
		}
	}
	return nil
}
