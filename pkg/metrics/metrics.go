package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Block store metrics.
	BlockOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parsec_block_ops_total",
			Help: "Total block store operations by op and outcome",
		},
		[]string{"op", "outcome"},
	)

	BlocksDirty = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parsec_blocks_dirty",
			Help: "Number of locally-created blocks not yet synchronized",
		},
	)

	// Vlob store metrics.
	VlobOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parsec_vlob_ops_total",
			Help: "Total vlob store operations by op and outcome",
		},
		[]string{"op", "outcome"},
	)

	VlobsDirty = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parsec_vlobs_dirty",
			Help: "Number of locally-staged vlob versions not yet synchronized",
		},
	)

	// File engine metrics.
	FlushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parsec_file_flush_duration_seconds",
			Help:    "Time taken by File.Flush to fold pending modifications into vlob updates",
			Buckets: prometheus.DefBuckets,
		},
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parsec_file_commit_duration_seconds",
			Help:    "Time taken by File.Commit to synchronize blocks and the vlob",
			Buckets: prometheus.DefBuckets,
		},
	)

	BlocksGCed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parsec_blocks_gc_total",
			Help: "Total blocks deleted as orphans during flush",
		},
	)

	FilesOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parsec_files_open",
			Help: "Number of File handles currently held in the registry",
		},
	)

	// Effect runtime metrics.
	MailboxQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "parsec_effect_mailbox_depth",
			Help: "Number of queued requests in an effect mailbox, by mailbox label",
		},
		[]string{"file_id"},
	)
)

// Register adds every collector in this package to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		BlockOpsTotal,
		BlocksDirty,
		VlobOpsTotal,
		VlobsDirty,
		FlushDuration,
		CommitDuration,
		BlocksGCed,
		FilesOpen,
		MailboxQueueDepth,
	)
}

// Handler returns the standard Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
