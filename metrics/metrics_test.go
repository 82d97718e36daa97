package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := New(reg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	o.CacheBuilt("character:Alice", 5*time.Millisecond, 12)
	o.Lookup("exact")
	o.Lookup("exact")
	o.Lookup("miss")
	o.ProbeChecked(true, false)
	o.Mutation("upload", nil)
	o.Mutation("upload", errors.New("boom"))

	if got := testutil.ToFloat64(o.cacheRecords.WithLabelValues("character:Alice")); got != 12 {
		t.Errorf("cache_records = %v", got)
	}
	if got := testutil.ToFloat64(o.lookups.WithLabelValues("exact")); got != 2 {
		t.Errorf("lookups{exact} = %v", got)
	}
	if got := testutil.ToFloat64(o.mutations.WithLabelValues("upload", "failed")); got != 1 {
		t.Errorf("mutations{upload,failed} = %v", got)
	}

	// second observer on the same registry shares collectors
	o2, err := New(reg)
	if err != nil {
		t.Fatalf("New() second time error = %v", err)
	}
	o2.Lookup("exact")
	if got := testutil.ToFloat64(o.lookups.WithLabelValues("exact")); got != 3 {
		t.Errorf("shared lookups{exact} = %v", got)
	}
}

func TestNilObserver(t *testing.T) {
	var o *Observer
	o.CacheBuilt("x", time.Second, 1)
	o.CacheInvalidated("x")
	o.SourceFailed("probe")
	o.Lookup("miss")
	o.ProbeChecked(false, true)
	o.RenderTick(time.Millisecond)
	o.RenderFault()
	o.Mutation("delete", nil)
}
