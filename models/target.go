package models

import (
	"time"
)

// Target variants. ARV targets are judged against an outcome revealed later,
// TMC targets are judged immediately against the true image.
const (
	VariantARV = "arv"
	VariantTMC = "tmc"
)

// Target lifecycle states. A target moves pending → queued → active →
// (revealed, ARV only) → completed. Deactivation sends a target back toward
// queued, never back to pending.
const (
	StatusPending   = "pending"
	StatusQueued    = "queued"
	StatusActive    = "active"
	StatusRevealed  = "revealed" // ARV post-reveal / pre-outcome sub-state
	StatusCompleted = "completed"
)

// Target is a timed challenge of either variant. Timestamps are RFC3339 at the
// API edge and must satisfy gameTime <= revealTime, and for ARV additionally
// revealTime < outcomeTime <= bufferTime.
type Target struct {
	ID      string `json:"id" gorm:"primaryKey"`
	Code    string `json:"code" gorm:"uniqueIndex;not null"`
	Variant string `json:"variant" gorm:"index;not null"`

	EventName        string `json:"event_name"`
	EventDescription string `json:"event_description"`

	// Content refs are opaque identifiers/URLs owned by the content service.
	TargetImage string `json:"target_image"`            // TMC true image
	ResultImage string `json:"result_image,omitempty"`  // ARV outcome, set on publication

	GameTime    time.Time  `json:"game_time" gorm:"not null"`
	RevealTime  time.Time  `json:"reveal_time" gorm:"not null;index"`
	OutcomeTime *time.Time `json:"outcome_time,omitempty" gorm:"index"` // ARV only
	BufferTime  *time.Time `json:"buffer_time,omitempty"`               // ARV only

	Status      string     `json:"status" gorm:"default:'pending';index"`
	QueuedAt    *time.Time `json:"queued_at,omitempty" gorm:"index"` // activation tie-break: oldest queued wins
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Options []TargetOption `json:"options,omitempty" gorm:"foreignKey:TargetID"`
}

// TargetOption is a candidate/control image shown to the player: the choice
// pool for TMC, the reveal set for ARV.
type TargetOption struct {
	ID          string `json:"id" gorm:"primaryKey"`
	TargetID    string `json:"target_id" gorm:"not null;index"`
	ImageRef    string `json:"image_ref" gorm:"not null"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order" gorm:"column:sort_order;default:0"`
}

// ActiveSlot is the single-row compare-and-set record enforcing the global
// one-active-target invariant. Row 1 always exists; TargetID is nil when no
// target of either variant is active. All reads/writes go through a row lock.
type ActiveSlot struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	TargetID  *string   `json:"target_id"`
	Variant   string    `json:"variant"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// ActiveSlotID is the fixed primary key of the singleton slot row.
const ActiveSlotID = 1

// CompletedTarget is the per-variant ledger of finished targets. The unique
// index on TargetID makes the append at-most-once.
type CompletedTarget struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Variant     string    `json:"variant" gorm:"index;not null"`
	TargetID    string    `json:"target_id" gorm:"uniqueIndex;not null"`
	CompletedAt time.Time `json:"completed_at" gorm:"autoCreateTime"`
}

// SchedulerWatermark stores the last instant the boundary scheduler scanned up
// to. Each tick scans (LastScanned, now] so a stalled tick never skips or
// double-fires a boundary.
type SchedulerWatermark struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	LastScanned time.Time `json:"last_scanned" gorm:"not null"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// WatermarkID is the fixed primary key of the singleton watermark row.
const WatermarkID = 1
