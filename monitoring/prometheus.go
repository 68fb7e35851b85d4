package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"minechain/logx"
)

type AbortReason string

var (
	AbortRequested   AbortReason = "requested"
	AbortSuperseded  AbortReason = "superseded"
	AbortAfterFinal  AbortReason = "after_finalize"
	AbortReasonOther AbortReason = "other"
)

type chainPromMetrics struct {
	nodeUpUnixSeconds prometheus.Gauge
	pendingQueueSize  prometheus.Gauge
	chainHeight       prometheus.Gauge
	hashAttemptCount  prometheus.Counter
	solveSeconds      prometheus.Histogram
	abortedBlockCount *prometheus.CounterVec
	committedBlocks   prometheus.Counter
	importedBlocks    prometheus.Counter
	rejectedImports   prometheus.Counter
	panicCount        prometheus.Counter
}

var metrics = newChainPromMetrics()

func newChainPromMetrics() *chainPromMetrics {
	return &chainPromMetrics{
		nodeUpUnixSeconds: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "minechain_node_up_unix_seconds",
			Help: "Unix timestamp at which the node came up",
		}),
		pendingQueueSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "minechain_pending_queue_size",
			Help: "Number of entries waiting for block construction",
		}),
		chainHeight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "minechain_chain_height",
			Help: "Number of committed blocks",
		}),
		hashAttemptCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minechain_hash_attempts_total",
			Help: "Total nonce candidates hashed by the proof-of-work search",
		}),
		solveSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "minechain_solve_seconds",
			Help:    "Wall time spent solving a block",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
		}),
		abortedBlockCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "minechain_aborted_blocks_total",
			Help: "Block constructions that ended in abort, by reason",
		}, []string{"reason"}),
		committedBlocks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minechain_committed_blocks_total",
			Help: "Blocks committed to the chain",
		}),
		importedBlocks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minechain_imported_blocks_total",
			Help: "Externally solved blocks accepted via AddBlock",
		}),
		rejectedImports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minechain_rejected_imports_total",
			Help: "Externally solved blocks rejected via AddBlock",
		}),
		panicCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minechain_panic_total",
			Help: "Recovered panics in guarded goroutines",
		}),
	}
}

func SetNodeUp() {
	metrics.nodeUpUnixSeconds.Set(float64(time.Now().Unix()))
}

func SetPendingQueueSize(n int) {
	metrics.pendingQueueSize.Set(float64(n))
}

func SetChainHeight(n int) {
	metrics.chainHeight.Set(float64(n))
}

func AddHashAttempts(n uint64) {
	metrics.hashAttemptCount.Add(float64(n))
}

func ObserveSolveDuration(d time.Duration) {
	metrics.solveSeconds.Observe(d.Seconds())
}

func IncreaseAbortedBlockCount(reason AbortReason) {
	metrics.abortedBlockCount.WithLabelValues(string(reason)).Inc()
}

func IncreaseCommittedBlockCount() {
	metrics.committedBlocks.Inc()
}

func IncreaseImportedBlockCount() {
	metrics.importedBlocks.Inc()
}

func IncreaseRejectedImportCount() {
	metrics.rejectedImports.Inc()
}

func IncreasePanicCount() {
	metrics.panicCount.Inc()
}

// ServeMetrics exposes the prometheus registry on addr under /metrics.
func ServeMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logx.Error("MONITORING", "metrics server stopped: ", err)
		}
	}()
}
