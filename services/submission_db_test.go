package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"remote-viewing-system/models"

	"github.com/google/uuid"
)

func createOpenTMCTarget(t *testing.T, svc *LifecycleService, name string) *models.Target {
	t.Helper()
	base := time.Now().Add(2 * time.Hour)
	target, err := svc.CreateTarget(context.Background(), CreateTargetInput{
		Variant:     models.VariantTMC,
		EventName:   name,
		TargetImage: "img-true",
		Options: []TargetOptionInput{
			{ImageRef: "img-true"},
			{ImageRef: "img-decoy"},
		},
		GameTime:   base,
		RevealTime: base.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	return target
}

func TestSubmitTMCFlow(t *testing.T) {
	db := setupTestDB(t)
	notifier := NewNotifier(db)
	tiers := NewTierService(db, notifier)
	subs := NewSubmissionService(db, tiers)
	lifecycle := NewLifecycleService(db)
	ctx := context.Background()

	userID := uuid.NewString()
	target := createOpenTMCTarget(t, lifecycle, "submit flow test")

	result, err := subs.SubmitTMC(ctx, userID, target.ID, "img-true", "img-decoy")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Points != PointsFirstChoice {
		t.Errorf("first-choice hit should award %d, got %d", PointsFirstChoice, result.Points)
	}
	if result.TargetsLeft != CycleChallenges-1 {
		t.Errorf("targets left = %d, want %d", result.TargetsLeft, CycleChallenges-1)
	}
	if result.CompletedChallenges != 1 {
		t.Errorf("completed challenges = %d, want 1", result.CompletedChallenges)
	}

	// A retry of the same attempt returns the recorded award and moves nothing.
	again, err := subs.SubmitTMC(ctx, userID, target.ID, "img-decoy", "img-true")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.Points != PointsFirstChoice {
		t.Errorf("retried attempt should keep its original award %d, got %d", PointsFirstChoice, again.Points)
	}
	if again.TargetsLeft != CycleChallenges-1 || again.CompletedChallenges != 1 {
		t.Errorf("retry must not move counters: left=%d completed=%d", again.TargetsLeft, again.CompletedChallenges)
	}
}

func TestSubmitTMCCycleExhausted(t *testing.T) {
	db := setupTestDB(t)
	notifier := NewNotifier(db)
	tiers := NewTierService(db, notifier)
	subs := NewSubmissionService(db, tiers)
	lifecycle := NewLifecycleService(db)
	ctx := context.Background()

	userID := uuid.NewString()
	first := createOpenTMCTarget(t, lifecycle, "exhaustion first")
	second := createOpenTMCTarget(t, lifecycle, "exhaustion second")

	if _, err := subs.SubmitTMC(ctx, userID, first.ID, "img-true", "img-decoy"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Burn the remaining budget directly.
	if err := db.Model(&models.GameUser{}).
		Where("external_user_id = ?", userID).
		Update("targets_left", 0).Error; err != nil {
		t.Fatalf("drain budget: %v", err)
	}

	if _, err := subs.SubmitTMC(ctx, userID, second.ID, "img-true", "img-decoy"); !errors.Is(err, ErrCycleExhausted) {
		t.Fatalf("want ErrCycleExhausted with no budget left, got %v", err)
	}
}

func TestCheckCycleClosesWithPenalty(t *testing.T) {
	db := setupTestDB(t)
	notifier := NewNotifier(db)
	tiers := NewTierService(db, notifier)
	subs := NewSubmissionService(db, tiers)
	lifecycle := NewLifecycleService(db)
	ctx := context.Background()

	userID := uuid.NewString()
	target := createOpenTMCTarget(t, lifecycle, "cycle close test")
	if _, err := subs.SubmitTMC(ctx, userID, target.ID, "img-decoy", "img-true"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Age the cycle past the day limit with 4 of 10 challenges done and zero
	// points: the shortfall penalty of -60 must floor at -29.
	anchor := time.Now().Add(-16 * 24 * time.Hour)
	if err := db.Model(&models.UserCycle{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"completed_challenges": 4,
			"total_points":         0,
			"last_challenge_date":  anchor,
		}).Error; err != nil {
		t.Fatalf("age cycle: %v", err)
	}
	if err := db.Model(&models.GameUser{}).
		Where("external_user_id = ?", userID).
		Update("total_points", 0).Error; err != nil {
		t.Fatalf("reset user points: %v", err)
	}

	result, err := tiers.CheckCycle(ctx, userID)
	if err != nil {
		t.Fatalf("check cycle: %v", err)
	}
	if !result.Closed {
		t.Fatal("aged cycle should close")
	}
	if result.FinalPoints != PenaltyFloor {
		t.Errorf("final points = %d, want floor %d", result.FinalPoints, PenaltyFloor)
	}
	if result.NewTier != TierName(0) {
		t.Errorf("bottom-tier user must stay at %s, got %s", TierName(0), result.NewTier)
	}

	var user models.GameUser
	if err := db.Where("external_user_id = ?", userID).First(&user).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.TargetsLeft != CycleChallenges {
		t.Errorf("budget should replenish to %d, got %d", CycleChallenges, user.TargetsLeft)
	}
	if user.TotalPoints != PenaltyFloor {
		t.Errorf("penalized points should carry forward, got %d", user.TotalPoints)
	}

	var cycle models.UserCycle
	if err := db.Where("user_id = ?", userID).First(&cycle).Error; err != nil {
		t.Fatalf("reload cycle: %v", err)
	}
	if cycle.CompletedChallenges != 0 {
		t.Errorf("challenge counter should reset, got %d", cycle.CompletedChallenges)
	}

	// A second check right after the close is a pure observation.
	second, err := tiers.CheckCycle(ctx, userID)
	if err != nil {
		t.Fatalf("recheck cycle: %v", err)
	}
	if second.Closed {
		t.Error("freshly reset cycle must not close again")
	}
}
