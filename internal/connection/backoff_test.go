package connection

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestBackoffDelay(t *testing.T) {
	b := DefaultBackoff()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{200, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := b.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffExhausted(t *testing.T) {
	b := DefaultBackoff()
	if b.Exhausted(9) {
		t.Error("9 attempts should not exhaust a budget of 10")
	}
	if !b.Exhausted(10) {
		t.Error("10 attempts should exhaust a budget of 10")
	}
}

func TestBackoffDelayProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	b := DefaultBackoff()

	properties.Property("delay(n) = min(base*2^n, cap)", prop.ForAll(
		func(n int) bool {
			want := b.Cap
			if n < 5 {
				want = b.Base << uint(n)
				if want > b.Cap {
					want = b.Cap
				}
			}
			return b.Delay(n) == want
		},
		gen.IntRange(1, 1000),
	))

	properties.Property("delay never decreases and never exceeds cap", prop.ForAll(
		func(n int) bool {
			return b.Delay(n) <= b.Delay(n+1) && b.Delay(n+1) <= b.Cap
		},
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
