package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/five82/pinpoint/internal/tracker"
)

var errUnavailable = errors.New("unavailable")

// fakeAPI scripts summary responses and records every call.
type fakeAPI struct {
	mu sync.Mutex

	summaries   []tracker.Summary
	summaryErrs []error
	summaryIdx  int

	bodies  map[int]string
	bodyErr error

	metaCalls int
	bodyPages []int
	acks      int
	reports   []tracker.Report

	submitGate chan struct{}
	onMeta     func()
}

func newFakeAPI(summaries ...tracker.Summary) *fakeAPI {
	return &fakeAPI{summaries: summaries, bodies: map[int]string{}}
}

func (f *fakeAPI) FetchSummary(ctx context.Context) (tracker.Summary, error) {
	f.mu.Lock()
	f.metaCalls++
	idx := f.summaryIdx
	if f.summaryIdx < len(f.summaries)-1 {
		f.summaryIdx++
	}
	var err error
	if idx < len(f.summaryErrs) {
		err = f.summaryErrs[idx]
	}
	var s tracker.Summary
	if len(f.summaries) > 0 {
		s = f.summaries[idx]
	}
	hook := f.onMeta
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return tracker.Summary{}, err
	}
	return s, nil
}

func (f *fakeAPI) FetchTableBody(ctx context.Context, page int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodyPages = append(f.bodyPages, page)
	if f.bodyErr != nil {
		return "", f.bodyErr
	}
	return f.bodies[page], nil
}

func (f *fakeAPI) SubmitReport(ctx context.Context, report tracker.Report) (tracker.ReportResult, error) {
	f.mu.Lock()
	f.reports = append(f.reports, report)
	gate := f.submitGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return tracker.ReportResult{}, ctx.Err()
		}
	}
	return tracker.ReportResult{Status: "ok"}, nil
}

func (f *fakeAPI) Acknowledge(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks++
	return nil
}

func (f *fakeAPI) setBody(page int, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[page] = body(ids...)
}

func (f *fakeAPI) counts() (meta, bodies, acks, reports int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metaCalls, len(f.bodyPages), f.acks, len(f.reports)
}

func body(ids ...string) string {
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, `<tr data-ts="%s"><td><span data-ts="%s">just now</span>%s</td></tr>`, id, id, id)
	}
	return b.String()
}

var _ = tracker.API(&fakeAPI{})
