package services

import "testing"

func TestScoreTMC(t *testing.T) {
	tests := []struct {
		name   string
		target string
		first  string
		second string
		want   int
	}{
		{"first choice match", "img-a", "img-a", "img-b", PointsFirstChoice},
		{"second choice match", "img-a", "img-b", "img-a", PointsSecondChoice},
		{"miss", "img-a", "img-b", "img-c", PointsMiss},
		{"first wins even if second also matches", "img-a", "img-a", "img-a", PointsFirstChoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreTMC(tt.target, tt.first, tt.second); got != tt.want {
				t.Errorf("ScoreTMC(%q, %q, %q) = %d, want %d", tt.target, tt.first, tt.second, got, tt.want)
			}
		})
	}
}

func TestScoreARV(t *testing.T) {
	if got := ScoreARV("img-a", "img-a"); got != PointsFirstChoice {
		t.Errorf("matching outcome should award %d, got %d", PointsFirstChoice, got)
	}
	if got := ScoreARV("img-a", "img-b"); got != PointsMiss {
		t.Errorf("missed outcome should award %d, got %d", PointsMiss, got)
	}
}
