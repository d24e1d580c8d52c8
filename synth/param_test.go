package synth

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParamLinearRamp(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(0, 1)
	p.LinearRampToValueAtTime(1, 2)

	cases := map[float64]float64{0.5: 0, 1: 0, 1.5: 0.5, 2: 1, 3: 1}
	for at, want := range cases {
		if got := p.ValueAt(at); !near(got, want) {
			t.Errorf("ValueAt(%v) = %v, want %v", at, got, want)
		}
	}
}

func TestParamExponentialRamp(t *testing.T) {
	p := NewParam(150)
	p.SetValueAtTime(150, 0)
	p.ExponentialRampToValueAtTime(40, 0.08)

	mid := p.ValueAt(0.04)
	want := 150 * math.Sqrt(40.0/150.0)
	if !near(mid, want) {
		t.Fatalf("midpoint = %v, want %v", mid, want)
	}
	if got := p.ValueAt(1); got != 40 {
		t.Fatalf("after ramp = %v, want 40", got)
	}
}

func TestParamExponentialToZeroHolds(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(0, 0)
	p.ExponentialRampToValueAtTime(1, 1)
	if got := p.ValueAt(0.5); got != 0 {
		t.Fatalf("exp ramp from 0 should hold, got %v", got)
	}
}

func TestParamCancelAndHold(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(0, 0)
	p.LinearRampToValueAtTime(1, 1)
	p.LinearRampToValueAtTime(0, 2)

	p.CancelScheduledValues(2)
	if p.Len() != 2 {
		t.Fatalf("Len after cancel = %d, want 2", p.Len())
	}

	v := p.Hold(0.5)
	if !near(v, 0.5) {
		t.Fatalf("Hold(0.5) = %v", v)
	}
	if p.Len() != 1 {
		t.Fatalf("Len after hold = %d, want 1", p.Len())
	}
	if got := p.ValueAt(10); !near(got, 0.5) {
		t.Fatalf("held value = %v", got)
	}
}

func TestParamSameTimeLaterWins(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(1, 1)
	p.SetValueAtTime(2, 1)
	if got := p.ValueAt(1); got != 2 {
		t.Fatalf("ValueAt = %v, want 2", got)
	}
}
