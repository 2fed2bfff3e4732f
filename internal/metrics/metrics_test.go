package metrics

import (
	"expvar"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersAreExported(t *testing.T) {
	for _, name := range []string{
		"copper_api_calls_total",
		"copper_api_errors_total",
		"copper_cache_hits_total",
		"copper_cache_misses_total",
		"copper_sync_pages_total",
		"copper_sync_records_total",
		"copper_records_enriched_total",
		"copper_actions_total",
	} {
		assert.NotNil(t, expvar.Get(name), name)
	}
}

func TestIncAndAdd(t *testing.T) {
	before := SyncPages.Value()
	Inc(SyncPages)
	Add(SyncPages, 4)
	assert.Equal(t, before+5, SyncPages.Value())
}
