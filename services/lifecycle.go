package services

import (
	"context"
	"fmt"
	"time"

	"remote-viewing-system/models"
	"remote-viewing-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LifecycleService drives targets through pending → queued → active →
// (revealed, ARV) → completed. It is the only writer of target status and of
// the active slot, so the one-active-target invariant lives entirely here.
type LifecycleService struct {
	DB *gorm.DB
}

func NewLifecycleService(db *gorm.DB) *LifecycleService {
	return &LifecycleService{DB: db}
}

// TargetOptionInput is one candidate/control image reference.
type TargetOptionInput struct {
	ImageRef    string `json:"image_ref"`
	Description string `json:"description"`
}

// CreateTargetInput carries everything the admin service sends for a new
// target. All times are absolute instants; ordering is validated here and
// never re-checked after creation.
type CreateTargetInput struct {
	Variant          string              `json:"variant"`
	EventName        string              `json:"event_name"`
	EventDescription string              `json:"event_description"`
	TargetImage      string              `json:"target_image"` // TMC true image
	Options          []TargetOptionInput `json:"options"`
	GameTime         time.Time           `json:"game_time"`
	RevealTime       time.Time           `json:"reveal_time"`
	OutcomeTime      *time.Time          `json:"outcome_time"` // ARV
	BufferTime       *time.Time          `json:"buffer_time"`  // ARV
}

// ValidateWindow checks the timestamp ordering rules at creation time:
// gameTime <= revealTime for both variants; for ARV additionally
// revealTime < outcomeTime <= bufferTime.
func ValidateWindow(in CreateTargetInput) error {
	if in.GameTime.IsZero() || in.RevealTime.IsZero() {
		return fmt.Errorf("game_time and reveal_time are required: %w", ErrValidation)
	}
	if in.RevealTime.Before(in.GameTime) {
		return fmt.Errorf("reveal_time precedes game_time: %w", ErrValidation)
	}
	switch in.Variant {
	case models.VariantTMC:
		return nil
	case models.VariantARV:
		if in.OutcomeTime == nil || in.BufferTime == nil {
			return fmt.Errorf("outcome_time and buffer_time are required for ARV: %w", ErrValidation)
		}
		if !in.OutcomeTime.After(in.RevealTime) {
			return fmt.Errorf("outcome_time must follow reveal_time: %w", ErrValidation)
		}
		if in.BufferTime.Before(*in.OutcomeTime) {
			return fmt.Errorf("buffer_time precedes outcome_time: %w", ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("unknown variant %q: %w", in.Variant, ErrValidation)
	}
}

// CreateTarget validates the window, assigns a shareable code and stores the
// target in pending state with its option images.
func (s *LifecycleService) CreateTarget(ctx context.Context, in CreateTargetInput) (*models.Target, error) {
	if err := ValidateWindow(in); err != nil {
		return nil, err
	}
	if in.Variant == models.VariantTMC && in.TargetImage == "" {
		return nil, fmt.Errorf("target_image is required for TMC: %w", ErrValidation)
	}

	target := &models.Target{
		ID:               uuid.NewString(),
		Code:             utils.NewTargetCode(in.EventName),
		Variant:          in.Variant,
		EventName:        in.EventName,
		EventDescription: in.EventDescription,
		TargetImage:      in.TargetImage,
		GameTime:         in.GameTime,
		RevealTime:       in.RevealTime,
		OutcomeTime:      in.OutcomeTime,
		BufferTime:       in.BufferTime,
		Status:           models.StatusPending,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Options").Create(target).Error; err != nil {
			return err
		}
		for i, opt := range in.Options {
			option := models.TargetOption{
				ID:          uuid.NewString(),
				TargetID:    target.ID,
				ImageRef:    opt.ImageRef,
				Description: opt.Description,
				SortOrder:   i,
			}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
			target.Options = append(target.Options, option)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// lockSlot takes the FOR UPDATE lock on the singleton slot row. Every state
// transition acquires it first, so transitions serialize behind one lock and a
// precondition checked afterwards cannot go stale before the write commits.
func lockSlot(tx *gorm.DB) (*models.ActiveSlot, error) {
	var slot models.ActiveSlot
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&slot, "id = ?", models.ActiveSlotID).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// lockTarget reads a target under FOR UPDATE. Callers must hold the slot lock
// already; slot-then-target is the only lock order.
func lockTarget(tx *gorm.DB, id string) (*models.Target, error) {
	var target models.Target
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&target, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("target %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// GetTarget returns a target with its options.
func (s *LifecycleService) GetTarget(ctx context.Context, id string) (*models.Target, error) {
	var target models.Target
	err := s.DB.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"sort_order\" ASC")
		}).
		First(&target, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("target %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// Enqueue marks a pending (or previously deactivated) target as queued for
// activation. The game time must still be in the future. The status check
// happens under the slot lock so a concurrent activation cannot slip between
// the check and the write.
func (s *LifecycleService) Enqueue(ctx context.Context, id string) (*models.Target, error) {
	var target *models.Target
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSlot(tx); err != nil {
			return err
		}
		t, err := lockTarget(tx, id)
		if err != nil {
			return err
		}
		if t.Status == models.StatusActive || t.Status == models.StatusRevealed {
			return fmt.Errorf("target %s is running: %w", t.Code, ErrActiveConflict)
		}
		if t.Status == models.StatusCompleted {
			return fmt.Errorf("target %s is completed: %w", t.Code, ErrValidation)
		}
		if !t.GameTime.After(time.Now()) {
			return fmt.Errorf("game time %s is over: %w", t.GameTime.Format(time.RFC3339), ErrInvalidWindow)
		}

		now := time.Now()
		if err := tx.Model(t).Updates(map[string]interface{}{
			"status":    models.StatusQueued,
			"queued_at": now,
		}).Error; err != nil {
			return err
		}
		t.Status = models.StatusQueued
		t.QueuedAt = &now
		target = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// Dequeue removes a queued target from the activation queue. An active or
// revealed target cannot be dequeued.
func (s *LifecycleService) Dequeue(ctx context.Context, id string) (*models.Target, error) {
	var target *models.Target
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSlot(tx); err != nil {
			return err
		}
		t, err := lockTarget(tx, id)
		if err != nil {
			return err
		}
		if t.Status == models.StatusActive || t.Status == models.StatusRevealed {
			return fmt.Errorf("target %s is running: %w", t.Code, ErrActiveConflict)
		}
		target = t
		if t.Status != models.StatusQueued {
			return nil // already out of the queue
		}

		if err := tx.Model(t).Updates(map[string]interface{}{
			"status":    models.StatusPending,
			"queued_at": nil,
		}).Error; err != nil {
			return err
		}
		t.Status = models.StatusPending
		t.QueuedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// ActivateNext atomically promotes the oldest queued target of the requested
// variant to active. The singleton slot row is locked for the whole decision,
// so two concurrent calls can never both succeed — one of them observes the
// occupied slot and fails with ErrActiveConflict. An ARV target still in its
// revealed window also blocks activation of its variant.
func (s *LifecycleService) ActivateNext(ctx context.Context, variant string) (*models.Target, error) {
	if variant != models.VariantARV && variant != models.VariantTMC {
		return nil, fmt.Errorf("unknown variant %q: %w", variant, ErrValidation)
	}

	var activated models.Target
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slot, err := lockSlot(tx)
		if err != nil {
			return err
		}
		if slot.TargetID != nil {
			return fmt.Errorf("target %s is active: %w", *slot.TargetID, ErrActiveConflict)
		}

		var revealed int64
		if err := tx.Model(&models.Target{}).
			Where("variant = ? AND status = ?", variant, models.StatusRevealed).
			Count(&revealed).Error; err != nil {
			return err
		}
		if revealed > 0 {
			return fmt.Errorf("a %s target is awaiting its outcome: %w", variant, ErrActiveConflict)
		}

		// Oldest queued first: first-queued, first-activated.
		err = tx.Where("variant = ? AND status = ?", variant, models.StatusQueued).
			Order("queued_at ASC").
			First(&activated).Error
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("no %s target is queued: %w", variant, ErrNotFound)
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&activated).Update("status", models.StatusActive).Error; err != nil {
			return err
		}
		return tx.Model(slot).Updates(map[string]interface{}{
			"target_id": activated.ID,
			"variant":   variant,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	activated.Status = models.StatusActive
	return &activated, nil
}

// Deactivate takes a target out of the active slot once its game time has
// elapsed. A TMC target returns to queued; an ARV target enters the revealed
// sub-state until its buffer time is over.
func (s *LifecycleService) Deactivate(ctx context.Context, id string) (*models.Target, error) {
	var target *models.Target
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slot, err := lockSlot(tx)
		if err != nil {
			return err
		}
		t, err := lockTarget(tx, id)
		if err != nil {
			return err
		}
		if t.Status != models.StatusActive {
			return fmt.Errorf("target %s is not active: %w", t.Code, ErrValidation)
		}
		if t.GameTime.After(time.Now()) {
			return fmt.Errorf("game time %s has not elapsed: %w", t.GameTime.Format(time.RFC3339), ErrTooEarly)
		}

		next := models.StatusQueued
		if t.Variant == models.VariantARV {
			next = models.StatusRevealed
		}

		if slot.TargetID != nil && *slot.TargetID == t.ID {
			if err := tx.Model(slot).Updates(map[string]interface{}{
				"target_id": nil,
				"variant":   "",
			}).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(t).Update("status", next).Error; err != nil {
			return err
		}
		t.Status = next
		target = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// FullyDeactivate closes an ARV target's revealed window once its buffer time
// has elapsed, returning it to queued so it can be completed.
func (s *LifecycleService) FullyDeactivate(ctx context.Context, id string) (*models.Target, error) {
	var target *models.Target
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSlot(tx); err != nil {
			return err
		}
		t, err := lockTarget(tx, id)
		if err != nil {
			return err
		}
		if t.Variant != models.VariantARV {
			return fmt.Errorf("target %s is not an ARV target: %w", t.Code, ErrValidation)
		}
		if t.Status != models.StatusRevealed {
			return fmt.Errorf("target %s is not in its revealed window: %w", t.Code, ErrValidation)
		}
		if t.BufferTime != nil && t.BufferTime.After(time.Now()) {
			return fmt.Errorf("buffer time %s has not elapsed: %w", t.BufferTime.Format(time.RFC3339), ErrTooEarly)
		}

		if err := tx.Model(t).Update("status", models.StatusQueued).Error; err != nil {
			return err
		}
		t.Status = models.StatusQueued
		target = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// Complete finishes a target and appends it to the per-variant ledger. The
// unique index on the ledger makes the append at-most-once even if the call is
// retried.
func (s *LifecycleService) Complete(ctx context.Context, id string) (*models.Target, error) {
	var target *models.Target
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSlot(tx); err != nil {
			return err
		}
		t, err := lockTarget(tx, id)
		if err != nil {
			return err
		}
		if t.Status == models.StatusActive || t.Status == models.StatusRevealed {
			return fmt.Errorf("target %s is running: %w", t.Code, ErrActiveConflict)
		}
		target = t
		if t.Status == models.StatusCompleted {
			return nil
		}

		now := time.Now()
		if err := tx.Model(t).Updates(map[string]interface{}{
			"status":       models.StatusCompleted,
			"queued_at":    nil,
			"completed_at": now,
		}).Error; err != nil {
			return err
		}
		t.Status = models.StatusCompleted
		t.QueuedAt = nil
		t.CompletedAt = &now

		entry := models.CompletedTarget{
			ID:       uuid.NewString(),
			Variant:  t.Variant,
			TargetID: t.ID,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// GetActiveTarget returns the currently active (or, for ARV, revealed) target
// of a variant.
func (s *LifecycleService) GetActiveTarget(ctx context.Context, variant string) (*models.Target, error) {
	var target models.Target
	err := s.DB.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"sort_order\" ASC")
		}).
		Where("variant = ? AND status IN ?", variant, []string{models.StatusActive, models.StatusRevealed}).
		First(&target).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("no active %s target: %w", variant, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// CompletedSummary counts ledger entries per variant for the admin dashboard.
func (s *LifecycleService) CompletedSummary(ctx context.Context) (map[string]int64, error) {
	summary := map[string]int64{}
	for _, variant := range []string{models.VariantARV, models.VariantTMC} {
		var count int64
		if err := s.DB.WithContext(ctx).
			Model(&models.CompletedTarget{}).
			Where("variant = ?", variant).
			Count(&count).Error; err != nil {
			return nil, err
		}
		summary[variant] = count
	}
	return summary, nil
}

// EnsureSingletons creates the active-slot and scheduler-watermark rows on
// first boot.
func EnsureSingletons(db *gorm.DB) error {
	slot := models.ActiveSlot{ID: models.ActiveSlotID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&slot).Error; err != nil {
		return err
	}
	wm := models.SchedulerWatermark{ID: models.WatermarkID, LastScanned: time.Now()}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&wm).Error
}
