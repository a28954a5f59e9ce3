package pacing

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestSubmissionPacerSampleBounds(t *testing.T) {
	pacer := NewSubmissionPacer(nil)
	pacer.Rand = rand.New(rand.NewSource(1))

	for i := 0; i < 10000; i++ {
		wait := pacer.Sample()
		if wait < 180*time.Second || wait > 420*time.Second {
			t.Fatalf("sample %d out of bounds: %s", i, wait)
		}
	}
}

func TestPollPacerSampleBounds(t *testing.T) {
	pacer := NewPollPacer(nil)
	pacer.Rand = rand.New(rand.NewSource(2))

	for i := 0; i < 10000; i++ {
		wait := pacer.Sample()
		if wait < 30*time.Second || wait > 90*time.Second {
			t.Fatalf("sample %d out of bounds: %s", i, wait)
		}
	}
}

func TestSampleIsNotConstant(t *testing.T) {
	pacer := NewSubmissionPacer(nil)
	pacer.Rand = rand.New(rand.NewSource(3))

	seen := make(map[time.Duration]bool)
	for i := 0; i < 200; i++ {
		seen[pacer.Sample()] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected varied samples, got %d distinct value(s)", len(seen))
	}
}

func TestSampleWithSwappedBounds(t *testing.T) {
	pacer := &JitterPacer{Min: 90 * time.Second, Max: 30 * time.Second, Rand: rand.New(rand.NewSource(4))}
	for i := 0; i < 1000; i++ {
		wait := pacer.Sample()
		if wait < 30*time.Second || wait > 90*time.Second {
			t.Fatalf("sample out of bounds after swap: %s", wait)
		}
	}
}

func TestSampleDegenerateRange(t *testing.T) {
	pacer := &JitterPacer{Min: 5 * time.Second, Max: 5 * time.Second}
	if got := pacer.Sample(); got != 5*time.Second {
		t.Fatalf("expected fixed 5s, got %s", got)
	}
}

func TestAcquireSlotHonorsCancellation(t *testing.T) {
	pacer := &JitterPacer{Min: time.Hour, Max: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := pacer.AcquireSlot(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestZeroPacerGrantsImmediately(t *testing.T) {
	if err := (ZeroPacer{}).AcquireSlot(context.Background()); err != nil {
		t.Fatalf("expected immediate slot, got %v", err)
	}
}
