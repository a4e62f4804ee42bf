package models

import (
	"time"
)

// Submission is one user attempt against one target. The composite unique
// index makes scoring idempotent: a retry of the same attempt can never award
// points twice.
type Submission struct {
	ID       string `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_target"`
	TargetID string `json:"target_id" gorm:"not null;index;uniqueIndex:idx_user_target"`
	Variant  string `json:"variant" gorm:"index;not null"`

	// TMC choices
	FirstChoice  string `json:"first_choice,omitempty"`
	SecondChoice string `json:"second_choice,omitempty"`

	// ARV submitted image
	SubmittedImage string `json:"submitted_image,omitempty"`

	// Points is 0 for an ARV attempt until the outcome is published; Scored
	// flips to true once the award is final.
	Points int  `json:"points"`
	Scored bool `json:"scored" gorm:"default:false;index"`

	SubmittedAt time.Time `json:"submitted_at" gorm:"autoCreateTime;index"`
}

// UserCycle holds a user's running cycle counters. One row per user, created
// lazily on first submission, reset (never deleted) on cycle close.
type UserCycle struct {
	ID                  string    `json:"id" gorm:"primaryKey"`
	UserID              string    `json:"user_id" gorm:"uniqueIndex;not null"`
	CompletedChallenges int       `json:"completed_challenges" gorm:"default:0"`
	TotalPoints         int       `json:"total_points" gorm:"default:0"`
	LastChallengeDate   time.Time `json:"last_challenge_date"`
	TierRank            int       `json:"tier_rank" gorm:"default:0"` // ordinal index into the tier table

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
