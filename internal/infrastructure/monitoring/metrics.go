package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	CollectionsTotal  *prometheus.CounterVec
	AmountCollected   prometheus.Counter
	LoansIssuedTotal  *prometheus.CounterVec
	ClientsRegistered prometheus.Counter
	DefaulterClients  prometheus.Gauge
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easyfinance_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		CollectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyfinance_emi_collections_total",
				Help: "Total number of EMI collection attempts by outcome.",
			},
			[]string{"status"},
		),
		AmountCollected: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "easyfinance_emi_amount_collected_total",
				Help: "Sum of accepted EMI collection amounts.",
			},
		),
		LoansIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easyfinance_loans_issued_total",
				Help: "Total number of loans issued by EMI cadence.",
			},
			[]string{"emi_type"},
		),
		ClientsRegistered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "easyfinance_clients_registered_total",
				Help: "Total number of clients registered.",
			},
		),
		DefaulterClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "easyfinance_defaulter_clients",
				Help: "Number of clients with at least one loan in default at the last sweep.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

// RecordCollection counts a collection attempt. amount is only added for accepted collections.
func RecordCollection(status string, amount float64) {
	Business.CollectionsTotal.WithLabelValues(status).Inc()
	if status == "success" && amount > 0 {
		Business.AmountCollected.Add(amount)
	}
}

func RecordLoanIssued(emiType string) {
	Business.LoansIssuedTotal.WithLabelValues(emiType).Inc()
}

func RecordClientRegistered() {
	Business.ClientsRegistered.Inc()
}

func SetDefaulterClients(count int) {
	Business.DefaulterClients.Set(float64(count))
}
