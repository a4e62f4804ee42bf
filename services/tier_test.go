package services

import (
	"testing"
	"time"
)

func TestNextTierMovesAtMostOneStep(t *testing.T) {
	for rank := 0; rank < len(TierTable); rank++ {
		for points := -200; points <= 300; points += 7 {
			next := NextTier(rank, points)
			if diff := next - rank; diff < -1 || diff > 1 {
				t.Fatalf("rank %d with %d points jumped to %d", rank, points, next)
			}
			if next < 0 || next >= len(TierTable) {
				t.Fatalf("rank %d with %d points left the table: %d", rank, points, next)
			}
		}
	}
}

func TestNextTierBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		current int
		points  int
		want    int
	}{
		{"bottom tier promotes at threshold", 0, 1, 1},
		{"bottom tier never demotes", 0, -500, 0},
		{"initiate demotes at down threshold", 1, -30, 0},
		{"initiate holds between thresholds", 1, 0, 1},
		{"initiate promotes at up threshold", 1, 1, 2},
		{"visionary demotes at exactly down", 4, 30, 3},
		{"visionary holds just above down", 4, 31, 4},
		{"visionary promotes at up", 4, 81, 5},
		{"top tier never promotes", 9, 1000, 9},
		{"top tier demotes at down", 9, 120, 8},
		{"out of range clamps to bottom", 42, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextTier(tt.current, tt.points); got != tt.want {
				t.Errorf("NextTier(%d, %d) = %d, want %d", tt.current, tt.points, got, tt.want)
			}
		})
	}
}

func TestPenalizedPoints(t *testing.T) {
	tests := []struct {
		name      string
		points    int
		completed int
		want      int
	}{
		{"full cycle is untouched", 120, 10, 120},
		{"one missing challenge costs 10", 50, 9, 40},
		{"penalty floors at -29", 0, 0, -29},
		{"floor applies even from positive points", 50, 0, -29},
		{"partial penalty above floor", 100, 5, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PenalizedPoints(tt.points, tt.completed); got != tt.want {
				t.Errorf("PenalizedPoints(%d, %d) = %d, want %d", tt.points, tt.completed, got, tt.want)
			}
		})
	}
}

func TestShouldCloseCycle(t *testing.T) {
	now := time.Now()
	if !ShouldCloseCycle(CycleChallenges, now, now) {
		t.Error("cycle with full challenge count should close")
	}
	if ShouldCloseCycle(CycleChallenges-1, now.Add(-14*24*time.Hour), now) {
		t.Error("cycle at 9 challenges and 14 days should stay open")
	}
	if !ShouldCloseCycle(0, now.Add(-15*24*time.Hour), now) {
		t.Error("cycle at 15 elapsed days should close regardless of count")
	}
}

func TestDaysInCycle(t *testing.T) {
	now := time.Now()
	if d := DaysInCycle(now.Add(time.Hour), now); d != 0 {
		t.Errorf("future anchor should report 0 days, got %d", d)
	}
	if d := DaysInCycle(now.Add(-36*time.Hour), now); d != 1 {
		t.Errorf("36 hours should report 1 whole day, got %d", d)
	}
}

func TestTierName(t *testing.T) {
	if TierName(0) != "NOVICE SEEKER" {
		t.Errorf("unexpected bottom tier name %q", TierName(0))
	}
	if TierName(9) != "ASCENDING MASTER" {
		t.Errorf("unexpected top tier name %q", TierName(9))
	}
	if TierName(-1) != TierName(0) || TierName(99) != TierName(0) {
		t.Error("out-of-range ordinals should clamp to the bottom tier")
	}
}

func TestNextTierPoint(t *testing.T) {
	if got := NextTierPoint(2); got != 31 {
		t.Errorf("NextTierPoint(2) = %d, want 31", got)
	}
	if got := NextTierPoint(9); got != 0 {
		t.Errorf("top tier should have no promotion threshold, got %d", got)
	}
}
