package workspace

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks per-operation counters for one workspace instance. Each
// Workspace owns its own registry rather than registering against the
// global default, since process-wide singletons are explicitly disallowed
// for anything workspace-scoped.
type Metrics struct {
	Registry        *prometheus.Registry
	SnapshotsCreated *prometheus.CounterVec
	QueriesExecuted prometheus.Counter
	DiffsComputed   prometheus.Counter
	ExportsWritten  prometheus.Counter
	CleanupsRun     prometheus.Counter
}

// NewMetrics builds and registers a fresh metrics set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		SnapshotsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snapbase_snapshots_created_total",
			Help: "Number of snapshots successfully committed, by source.",
		}, []string{"source"}),
		QueriesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapbase_queries_executed_total",
			Help: "Number of query operations executed against the workspace.",
		}),
		DiffsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapbase_diffs_computed_total",
			Help: "Number of diff or status operations computed.",
		}),
		ExportsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapbase_exports_written_total",
			Help: "Number of snapshots materialized to an output file.",
		}),
		CleanupsRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapbase_cleanups_run_total",
			Help: "Number of cleanup operations run.",
		}),
	}
	reg.MustRegister(m.SnapshotsCreated, m.QueriesExecuted, m.DiffsComputed, m.ExportsWritten, m.CleanupsRun)
	return m
}
