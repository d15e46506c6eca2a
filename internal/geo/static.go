package geo

import (
	"context"
	"time"
)

// StaticSource always reports the same position.
type StaticSource struct {
	Fix Fix
}

// Current returns the fixed position stamped with the current time when
// no time was set.
func (s StaticSource) Current(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}
	if err := s.Fix.Validate(); err != nil {
		return Fix{}, err
	}
	fix := s.Fix
	if fix.At.IsZero() {
		fix.At = time.Now()
	}
	return fix, nil
}

// Watch emits the position once and closes when ctx is done.
func (s StaticSource) Watch(ctx context.Context) <-chan Reading {
	out := make(chan Reading, 1)
	fix, err := s.Current(ctx)
	out <- Reading{Fix: fix, Err: err}
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out
}
