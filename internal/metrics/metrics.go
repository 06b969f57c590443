package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "courierstats_messages_total",
			Help: "Total number of inbound chat messages from the operational group",
		},
	)

	DeliveriesRecordedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "courierstats_deliveries_recorded_total",
			Help: "Total number of delivery records appended to the ledger",
		},
	)

	DeliveriesDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "courierstats_deliveries_dropped_total",
			Help: "Total number of parsed deliveries lost to a ledger write fault",
		},
	)

	MalformedRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "courierstats_malformed_rows_total",
			Help: "Total number of ledger rows skipped during scans",
		},
	)

	ReportsSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "courierstats_reports_sent_total",
			Help: "Total number of scheduled reports delivered",
		},
	)

	ReportsFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "courierstats_reports_failed_total",
			Help: "Total number of scheduled reports that could not be computed or sent",
		},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default prometheus registry.
func Register() {
	registerOnce.Do(register)
}

func register() {
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(DeliveriesRecordedTotal)
	prometheus.MustRegister(DeliveriesDroppedTotal)
	prometheus.MustRegister(MalformedRowsTotal)
	prometheus.MustRegister(ReportsSentTotal)
	prometheus.MustRegister(ReportsFailedTotal)
}
