package services

import (
	"testing"
	"time"
)

func TestBoundaryCrossed(t *testing.T) {
	now := time.Now()
	watermark := now.Add(-time.Minute)
	inside := now.Add(-30 * time.Second)
	before := now.Add(-2 * time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name     string
		boundary *time.Time
		want     bool
	}{
		{"nil boundary", nil, false},
		{"inside window", &inside, true},
		{"exactly at watermark is excluded", &watermark, false},
		{"exactly at now is included", &now, true},
		{"before watermark", &before, false},
		{"in the future", &future, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BoundaryCrossed(tt.boundary, watermark, now); got != tt.want {
				t.Errorf("BoundaryCrossed = %v, want %v", got, tt.want)
			}
		})
	}
}
