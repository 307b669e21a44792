package period

import "math/rand"

func lnk(from, to int) Link {
	return Link{From: NodeID(from), To: NodeID(to)}
}

func flowsOf(fs ...*Flow) Flows {
	out := make(Flows, len(fs))
	for _, f := range fs {
		out[f.ID] = f
	}
	return out
}

// randomFlows draws n flows over a small pool of links so that overlaps,
// merges and same-timestamp ties are frequent.
func randomFlows(rng *rand.Rand, n, nLinks int, horizon int64) Flows {
	pool := make([]Link, nLinks)
	for i := range pool {
		pool[i] = lnk(i, i+1)
	}
	flows := make(Flows, n)
	for i := 0; i < n; i++ {
		start := rng.Int63n(horizon)
		end := start + rng.Int63n(horizon/4+1)
		f := NewFlow(FlowID(i), start, end)
		hops := 1 + rng.Intn(3)
		for h := 0; h < hops; h++ {
			f.AddLink(pool[rng.Intn(nLinks)])
		}
		flows[f.ID] = f
	}
	return flows
}

func newTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// mustDetect runs Detect with invariant checks enabled and fails the test on error.
func mustDetect(t interface {
	Helper()
	Fatalf(string, ...any)
}, flows Flows) []BusyPeriod {
	t.Helper()
	periods, err := Detect(flows, WithInvariantChecks(true))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return periods
}
