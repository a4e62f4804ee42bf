package models

import (
	"time"
)

// GameUser is the local game-state snapshot for a user. Identity lives in the
// profile service; this row mirrors only what the scoring core owns: tier,
// cycle points, remaining submissions and the cached analytics figures.
// TierRank and the cycle counters are written exclusively by the tier engine.
type GameUser struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // profile service UUID

	TierRank    int `json:"tier_rank" gorm:"default:0"` // ordinal index into the tier table
	TotalPoints int `json:"total_points" gorm:"default:0"`
	TargetsLeft int `json:"targets_left" gorm:"default:10"` // submissions remaining this cycle

	// Cached analytics, refreshed by the analytics service.
	TMCSuccessRate float64 `json:"tmc_success_rate" gorm:"default:0"`
	TMCPValue      float64 `json:"tmc_p_value" gorm:"default:1"`
	ARVSuccessRate float64 `json:"arv_success_rate" gorm:"default:0"`
	ARVPValue      float64 `json:"arv_p_value" gorm:"default:1"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
