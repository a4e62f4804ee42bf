// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"remote-viewing-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// BoundaryCrossed reports whether a reveal/outcome instant falls inside the
// half-open scan window (watermark, now].
func BoundaryCrossed(boundary *time.Time, watermark, now time.Time) bool {
	if boundary == nil {
		return false
	}
	return boundary.After(watermark) && !boundary.After(now)
}

// SchedulerService watches target reveal/outcome boundaries and raises
// notifications when they pass. Scans are driven by a persisted watermark:
// each tick covers (lastScanned, now], so a stalled or skipped tick catches up
// on the next run instead of missing or double-firing a boundary.
type SchedulerService struct {
	DB       *gorm.DB
	Notifier *Notifier
}

func NewSchedulerService(db *gorm.DB, notifier *Notifier) *SchedulerService {
	return &SchedulerService{DB: db, Notifier: notifier}
}

// StartBoundaryScheduler runs the boundary sweep once per minute until ctx is
// cancelled. Per-tick errors are logged and swallowed so one bad record never
// halts later sweeps.
func (s *SchedulerService) StartBoundaryScheduler(ctx context.Context) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if err := s.Sweep(ctx); err != nil {
				log.Printf("[SCHEDULER] sweep failed: %v", err)
			}
		}),
	)

	go func() {
		<-ctx.Done()
		_ = sched.Shutdown()
	}()
}

// Sweep scans (watermark, now] for reveal/outcome boundaries, emits one
// notification per crossed target and advances the watermark. The watermark
// only moves after every notification of the window was written, so a failed
// tick is retried whole.
func (s *SchedulerService) Sweep(ctx context.Context) error {
	var wm models.SchedulerWatermark
	if err := s.DB.WithContext(ctx).First(&wm, "id = ?", models.WatermarkID).Error; err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}

	now := time.Now()
	if !now.After(wm.LastScanned) {
		return nil
	}

	var targets []models.Target
	err := s.DB.WithContext(ctx).
		Where("(reveal_time > ? AND reveal_time <= ?) OR (outcome_time > ? AND outcome_time <= ?)",
			wm.LastScanned, now, wm.LastScanned, now).
		Find(&targets).Error
	if err != nil {
		return fmt.Errorf("scan boundaries: %w", err)
	}

	for _, target := range targets {
		kind := "outcome"
		revealTime := target.RevealTime
		if BoundaryCrossed(&revealTime, wm.LastScanned, now) {
			kind = "reveal"
		}
		msg := fmt.Sprintf("%s target with code %q has reached its %s time.",
			strings.ToUpper(target.Variant), target.Code, kind)
		if err := s.Notifier.Notify(ctx, nil, msg); err != nil {
			// Leave the watermark in place so this window is rescanned.
			return fmt.Errorf("notify for target %s: %w", target.Code, err)
		}
	}

	return s.DB.WithContext(ctx).
		Model(&wm).
		Update("last_scanned", now).Error
}
