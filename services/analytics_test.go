package services

import (
	"math"
	"testing"
)

func TestErfAccuracy(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{0, 0},
		{0.5, 0.5204999},
		{1, 0.8427008},
		{2, 0.9953223},
		{-1, -0.8427008},
	}
	for _, tt := range tests {
		if got := erf(tt.x); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("erf(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestPValueBoundaries(t *testing.T) {
	if got := PValue(0, 0); got != 1 {
		t.Errorf("no attempts should give p = 1, got %v", got)
	}
	if got := PValue(0, 20); got != 1 {
		t.Errorf("zero successes should give p = 1, got %v", got)
	}
	if got := PValue(20, 20); got != 0.0001 {
		t.Errorf("perfect record should clamp to 0.0001, got %v", got)
	}
}

func TestPValueAgainstChance(t *testing.T) {
	// 8/10 against a 50% null: z ≈ 1.897, two-tailed p ≈ 0.058.
	p := PValue(8, 10)
	if p < 0.05 || p > 0.07 {
		t.Errorf("PValue(8, 10) = %v, want ≈ 0.058", p)
	}

	// 5/10 is exactly chance.
	if p := PValue(5, 10); math.Abs(p-1) > 1e-9 {
		t.Errorf("PValue(5, 10) = %v, want 1", p)
	}

	// A larger sample at the same rate is more significant.
	if PValue(80, 100) >= PValue(8, 10) {
		t.Error("80/100 should be more significant than 8/10")
	}
}

func TestPValueNeverExceedsOne(t *testing.T) {
	// Below-chance records push Z negative; the result must clamp at 1.
	for _, s := range []int{1, 2, 3, 4} {
		if p := PValue(s, 10); p > 1 {
			t.Errorf("PValue(%d, 10) = %v, want at most 1", s, p)
		}
	}
	if p := PValue(2, 10); p != 1 {
		t.Errorf("PValue(2, 10) = %v, want 1", p)
	}
}

func TestSuccessRate(t *testing.T) {
	if got := SuccessRate(0, 0); got != 0 {
		t.Errorf("no attempts should give rate 0, got %v", got)
	}
	if got := SuccessRate(3, 4); got != 75 {
		t.Errorf("SuccessRate(3, 4) = %v, want 75", got)
	}
}
