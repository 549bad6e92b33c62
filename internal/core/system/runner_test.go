package system

import (
	"testing"
	"time"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhaseStable(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"cleanup", PhaseCleanup, &log})
	r.Register(recorder{"accrual", PhaseUpdate, &log})
	r.Register(recorder{"spawn", PhaseUpdate, &log})
	r.Register(recorder{"net", PhaseInput, &log})

	r.Tick(time.Millisecond)

	want := []string{"net", "accrual", "spawn", "cleanup"}
	if len(log) != len(want) {
		t.Fatalf("ran %d systems, want %d", len(log), len(want))
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("order[%d] = %s, want %s (got %v)", i, log[i], want[i], log)
		}
	}
}
