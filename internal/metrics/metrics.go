// Package metrics provides application-level counters using stdlib expvar.
// Counters are exported on the /debug/vars HTTP endpoint by the serve command.
package metrics

import "expvar"

// Operation counters.
var (
	APICalls        = expvar.NewInt("copper_api_calls_total")
	APIErrors       = expvar.NewInt("copper_api_errors_total")
	CacheHits       = expvar.NewInt("copper_cache_hits_total")
	CacheMisses     = expvar.NewInt("copper_cache_misses_total")
	SyncPages       = expvar.NewInt("copper_sync_pages_total")
	RecordsSynced   = expvar.NewInt("copper_sync_records_total")
	RecordsEnriched = expvar.NewInt("copper_records_enriched_total")
	Actions         = expvar.NewInt("copper_actions_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }

// Add increments the given counter by n.
func Add(counter *expvar.Int, n int) { counter.Add(int64(n)) }
