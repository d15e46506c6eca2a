package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/five82/pinpoint/internal/geo"
	"github.com/five82/pinpoint/internal/tracker"
)

func TestReporter_SingleFlight(t *testing.T) {
	api := newFakeAPI()
	release := make(chan struct{})
	api.submitGate = release

	stamp := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	r := NewReporter(api, ReporterOptions{Now: func() time.Time { return stamp }})
	ctx := context.Background()
	device := tracker.Device{UserAgent: "pinpoint/test", IsMobile: false}

	s1 := r.Submit(ctx, geo.Fix{Lat: 1, Lng: 2, Accuracy: 3}, device)
	if !s1.Accepted {
		t.Fatal("S1 should be accepted")
	}
	if s1.Report.Timestamp != "2025-03-04T10:00:00.000Z" {
		t.Fatalf("timestamp = %q", s1.Report.Timestamp)
	}
	if !r.InFlight() {
		t.Fatal("InFlight() = false while S1 pending")
	}

	s2 := r.Submit(ctx, geo.Fix{Lat: 4, Lng: 5}, device)
	if s2.Accepted {
		t.Fatal("S2 should be dropped while S1 is in flight")
	}
	if _, err := s2.Wait(ctx); !errors.Is(err, ErrDropped) {
		t.Fatalf("S2.Wait err = %v, want ErrDropped", err)
	}

	close(release)
	result, err := s1.Wait(ctx)
	if err != nil || result.Status != "ok" {
		t.Fatalf("S1.Wait = %+v, %v", result, err)
	}
	if r.InFlight() {
		t.Fatal("guard not cleared after settlement")
	}

	s3 := r.Submit(ctx, geo.Fix{Lat: 6, Lng: 7}, device)
	if !s3.Accepted {
		t.Fatal("S3 should be accepted after S1 settled")
	}
	if _, err := s3.Wait(ctx); err != nil {
		t.Fatalf("S3.Wait: %v", err)
	}

	if _, _, _, reports := api.counts(); reports != 2 {
		t.Fatalf("reports posted = %d, want 2", reports)
	}
}

type failingSubmitter struct{}

func (failingSubmitter) SubmitReport(context.Context, tracker.Report) (tracker.ReportResult, error) {
	return tracker.ReportResult{}, errUnavailable
}

func TestReporter_FailureClearsGuard(t *testing.T) {
	r := NewReporter(failingSubmitter{}, ReporterOptions{})
	ctx := context.Background()

	s := r.Submit(ctx, geo.Fix{}, tracker.Device{})
	if _, err := s.Wait(ctx); !errors.Is(err, errUnavailable) {
		t.Fatalf("Wait err = %v, want errUnavailable", err)
	}
	if !r.Submit(ctx, geo.Fix{}, tracker.Device{}).Accepted {
		t.Fatal("submission after a failure should be accepted")
	}
}

func TestSubmission_WaitHonoursContext(t *testing.T) {
	api := newFakeAPI()
	api.submitGate = make(chan struct{})
	r := NewReporter(api, ReporterOptions{})

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	s := r.Submit(runCtx, geo.Fix{}, tracker.Device{})

	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Wait(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait err = %v, want deadline exceeded", err)
	}
}
