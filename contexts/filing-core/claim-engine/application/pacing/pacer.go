package pacing

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	application "recoup/contexts/filing-core/claim-engine/application"
)

// JitterPacer hands out submission slots after a uniformly random wait in
// [Min, Max] inclusive. Every acquisition samples independently; a fixed
// period is the exact fingerprint this exists to avoid.
type JitterPacer struct {
	Min    time.Duration
	Max    time.Duration
	Rand   *rand.Rand
	Logger *slog.Logger
}

// NewSubmissionPacer paces marketplace filings (180-420s reads as a human
// working through cases).
func NewSubmissionPacer(logger *slog.Logger) *JitterPacer {
	return &JitterPacer{Min: 180 * time.Second, Max: 420 * time.Second, Logger: logger}
}

// NewPollPacer paces case status checks (30-90s).
func NewPollPacer(logger *slog.Logger) *JitterPacer {
	return &JitterPacer{Min: 30 * time.Second, Max: 90 * time.Second, Logger: logger}
}

// Sample draws one wait duration. Exported so the distribution is testable
// without sleeping.
func (p *JitterPacer) Sample() time.Duration {
	min, max := p.Min, p.Max
	if max < min {
		min, max = max, min
	}
	span := int64(max-min) + 1
	if span <= 1 {
		return min
	}
	if p.Rand != nil {
		return min + time.Duration(p.Rand.Int63n(span))
	}
	return min + time.Duration(rand.Int63n(span))
}

func (p *JitterPacer) AcquireSlot(ctx context.Context) error {
	wait := p.Sample()
	logger := application.ResolveLogger(p.Logger)
	logger.Debug("pacer slot wait",
		"event", "pacer_slot_wait",
		"module", "filing-core/claim-engine",
		"layer", "application",
		"wait", wait.String(),
	)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ZeroPacer grants slots immediately. Used by manual run-once entry points
// and tests where pacing would only slow the operator down.
type ZeroPacer struct{}

func (ZeroPacer) AcquireSlot(ctx context.Context) error {
	return ctx.Err()
}
