package engine

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/five82/pinpoint/internal/state"
	"github.com/five82/pinpoint/internal/tracker"
)

func TestPoller_MetaScenario(t *testing.T) {
	api := newFakeAPI(
		tracker.Summary{Total: 3, Newest: "t0"},
		tracker.Summary{Total: 3, Newest: "t0"},
		tracker.Summary{Total: 4, Newest: "t1"},
	)
	api.setBody(1, "t1", "t0")
	store := state.NewStore(1)

	var refreshed []CycleResult
	p := NewPoller(api, api, store, PollerOptions{OnRefresh: func(r CycleResult) { refreshed = append(refreshed, r) }})
	ctx := context.Background()

	if err := p.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if got := p.Last(); !got.Equal(tracker.Summary{Total: 3, Newest: "t0"}) {
		t.Fatalf("Last() = %v after seed", got)
	}

	if res := p.Check(ctx); res.Outcome != OutcomeUnchanged {
		t.Fatalf("cycle 1 outcome = %v, want unchanged", res.Outcome)
	}
	if _, bodies, _, _ := api.counts(); bodies != 0 {
		t.Fatalf("body fetches = %d, want 0 while summary unchanged", bodies)
	}

	res := p.Check(ctx)
	if res.Outcome != OutcomeSwapped {
		t.Fatalf("cycle 2 outcome = %v, want swapped", res.Outcome)
	}
	if _, bodies, _, _ := api.counts(); bodies != 1 {
		t.Fatalf("body fetches = %d, want 1", bodies)
	}
	if len(refreshed) != 1 || refreshed[0].Loaded {
		t.Fatalf("refresh callbacks = %+v, want one poll refresh", refreshed)
	}
	if got := p.Last(); got.Newest != "t1" {
		t.Fatalf("Last() = %v, want t1 committed", got)
	}
	if snap := store.Snapshot(); len(snap.Rows) != 2 || snap.Summary.Total != 4 {
		t.Fatalf("display = %+v", snap)
	}
}

func TestPoller_RefetchWithoutSwap(t *testing.T) {
	api := newFakeAPI(tracker.Summary{Total: 1, Newest: "a"}, tracker.Summary{Total: 1, Newest: "b"})
	api.setBody(1, "a")
	store := state.NewStore(1)
	p := NewPoller(api, api, store, PollerOptions{})
	ctx := context.Background()

	_ = p.Seed(ctx)
	if res := p.Load(ctx); res.Outcome != OutcomeSwapped || !res.Loaded {
		t.Fatalf("initial load = %+v, want swapped", res)
	}
	swapAt := store.Snapshot().LastSwap

	if res := p.Check(ctx); res.Outcome != OutcomeRefetched {
		t.Fatalf("outcome = %v, want refetched", res.Outcome)
	}
	if got := store.Snapshot().LastSwap; !got.Equal(swapAt) {
		t.Fatal("display replaced although rows were identical")
	}
}

func TestPoller_FailuresAreNoOps(t *testing.T) {
	api := newFakeAPI(tracker.Summary{Total: 1, Newest: "a"}, tracker.Summary{Total: 2, Newest: "b"})
	api.summaryErrs = []error{errUnavailable}
	store := state.NewStore(1)
	p := NewPoller(api, api, store, PollerOptions{})
	ctx := context.Background()

	if err := p.Seed(ctx); err == nil {
		t.Fatal("Seed should report the failure")
	}
	if got := p.Last(); !got.Equal(tracker.Summary{}) {
		t.Fatalf("Last() = %v, want zero after failed seed", got)
	}

	api.bodyErr = errUnavailable
	res := p.Check(ctx)
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed on body error", res.Outcome)
	}
	if got := p.Last(); !got.Equal(tracker.Summary{}) {
		t.Fatalf("Last() = %v, summary must not commit without a body", got)
	}

	api.mu.Lock()
	api.bodyErr = nil
	api.bodies[1] = "<tr><td>b</td></tr>"
	api.mu.Unlock()
	if res := p.Check(ctx); res.Outcome != OutcomeSwapped {
		t.Fatalf("retry outcome = %v, want swapped", res.Outcome)
	}
}

func TestPoller_HiddenThenVisible(t *testing.T) {
	api := newFakeAPI(tracker.Summary{Total: 1, Newest: "a"}, tracker.Summary{Total: 2, Newest: "b"})
	api.setBody(1, "b", "a")
	store := state.NewStore(1)
	p := NewPoller(api, api, store, PollerOptions{})

	ticks := make(chan time.Time)
	metaSeen := make(chan struct{}, 8)
	api.onMeta = func() { metaSeen <- struct{}{} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.loop(ctx, ticks) }()

	waitFor(t, metaSeen, "seed")

	p.SetVisible(false)
	if res := p.Check(ctx); res.Outcome != OutcomeSkipped {
		t.Fatalf("hidden outcome = %v, want skipped", res.Outcome)
	}
	// The second send only completes once the first tick was handled.
	ticks <- time.Now()
	ticks <- time.Now()
	if meta, _, _, _ := api.counts(); meta != 1 {
		t.Fatalf("meta calls while hidden = %d, want 1 (seed only)", meta)
	}

	p.SetVisible(true)
	waitFor(t, metaSeen, "immediate check on visible")

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("loop returned %v", err)
	}
	meta, bodies, _, _ := api.counts()
	if meta != 2 || bodies != 2 {
		t.Fatalf("meta=%d bodies=%d, want 2 and 2 (load plus visible check)", meta, bodies)
	}
}

func TestPoller_NavigateLoadsPageAndDiscardsStale(t *testing.T) {
	api := newFakeAPI(tracker.Summary{Total: 25, Newest: "a"})
	api.setBody(1, "a")
	api.setBody(2, "k")
	store := state.NewStore(1)
	p := NewPoller(api, api, store, PollerOptions{})
	ctx := context.Background()

	_ = p.Seed(ctx)
	p.Load(ctx)

	rows := store.Snapshot().Rows
	store.SetPage(2)
	if res := p.apply(1, rows, false); res.Outcome != OutcomeStale {
		t.Fatalf("outcome = %v, want stale", res.Outcome)
	}

	p.Navigate(2)
	select {
	case <-p.reload:
	default:
		t.Fatal("Navigate should request a load")
	}
	res := p.Load(ctx)
	if res.Outcome != OutcomeSwapped || res.Page != 2 {
		t.Fatalf("load = %+v, want swapped page 2", res)
	}
	if snap := store.Snapshot(); snap.RowsPage != 2 || snap.Rows[0].ID != "k" {
		t.Fatalf("display = %+v, want page 2 rows", snap)
	}
}

func TestPoller_RefetchIffSummaryChanged(t *testing.T) {
	newest := rapid.SampledFrom([]string{"", "t0", "t1"})
	rapid.Check(t, func(t *rapid.T) {
		a := tracker.Summary{Total: rapid.IntRange(0, 3).Draw(t, "ta"), Newest: newest.Draw(t, "na")}
		b := tracker.Summary{Total: rapid.IntRange(0, 3).Draw(t, "tb"), Newest: newest.Draw(t, "nb")}

		api := newFakeAPI(a, b)
		api.setBody(1, "x")
		p := NewPoller(api, api, state.NewStore(1), PollerOptions{})
		ctx := context.Background()
		_ = p.Seed(ctx)
		p.Check(ctx)

		_, bodies, _, _ := api.counts()
		if refetched := bodies == 1; refetched == a.Equal(b) {
			t.Fatalf("summaries %v -> %v: body fetches = %d", a, b, bodies)
		}
	})
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
