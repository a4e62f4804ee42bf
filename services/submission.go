package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"remote-viewing-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scoring rule for a forced-choice (TMC) attempt.
const (
	PointsFirstChoice  = 25
	PointsSecondChoice = 10
	PointsMiss         = -10
)

// ScoreTMC returns the point delta for a TMC attempt: first-choice match,
// second-choice match, or miss. Pure and deterministic for a fixed target and
// attempt.
func ScoreTMC(targetImage, firstChoice, secondChoice string) int {
	switch targetImage {
	case firstChoice:
		return PointsFirstChoice
	case secondChoice:
		return PointsSecondChoice
	default:
		return PointsMiss
	}
}

// ScoreARV returns the point delta for an ARV attempt once the result image is
// known.
func ScoreARV(resultImage, submittedImage string) int {
	if resultImage == submittedImage {
		return PointsFirstChoice
	}
	return PointsMiss
}

// SubmissionService accepts player attempts, awards points and keeps the cycle
// counters moving. It is the only writer of attempt records; tier movement is
// delegated to the tier engine after every accepted mutation.
type SubmissionService struct {
	DB    *gorm.DB
	Tiers *TierService
}

func NewSubmissionService(db *gorm.DB, tiers *TierService) *SubmissionService {
	return &SubmissionService{DB: db, Tiers: tiers}
}

// SubmitResult is returned for an accepted attempt.
type SubmitResult struct {
	Points              int          `json:"points"`
	TierRank            string       `json:"tier_rank"`
	TotalPoints         int          `json:"total_points"`
	TargetsLeft         int          `json:"targets_left"`
	NextTierPoint       int          `json:"next_tier_point"`
	CompletedChallenges int          `json:"completed_challenges"`
	Cycle               *CycleResult `json:"cycle,omitempty"`
}

// ensureUser lazily creates the game-state row for a first-time player.
func ensureUser(tx *gorm.DB, userID string) (*models.GameUser, error) {
	var user models.GameUser
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_user_id = ?", userID).
		First(&user).Error
	if err == gorm.ErrRecordNotFound {
		user = models.GameUser{
			ID:             uuid.NewString(),
			ExternalUserID: userID,
			TargetsLeft:    CycleChallenges,
			TMCPValue:      1,
			ARVPValue:      1,
		}
		if err := tx.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ensureCycle lazily creates the cycle counters for a first-time player.
func ensureCycle(tx *gorm.DB, userID string) (*models.UserCycle, error) {
	var cycle models.UserCycle
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cycle).Error
	if err == gorm.ErrRecordNotFound {
		cycle = models.UserCycle{
			ID:                uuid.NewString(),
			UserID:            userID,
			LastChallengeDate: time.Now(),
		}
		if err := tx.Create(&cycle).Error; err != nil {
			return nil, err
		}
		return &cycle, nil
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (s *SubmissionService) loadTarget(ctx context.Context, targetID, variant string) (*models.Target, error) {
	var target models.Target
	err := s.DB.WithContext(ctx).First(&target, "id = ? AND variant = ?", targetID, variant).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%s target %s: %w", variant, targetID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// SubmitTMC validates the submission window and the user's cycle budget,
// scores the attempt immediately and updates the cycle counters, all inside
// one transaction keyed by a lock on the user's rows. A repeat submission for
// the same target returns the already-recorded attempt unchanged.
func (s *SubmissionService) SubmitTMC(ctx context.Context, userID, targetID, firstChoice, secondChoice string) (*SubmitResult, error) {
	target, err := s.loadTarget(ctx, targetID, models.VariantTMC)
	if err != nil {
		return nil, err
	}
	if !target.GameTime.After(time.Now()) {
		return nil, fmt.Errorf("submissions closed at %s: %w", target.GameTime.Format(time.RFC3339), ErrWindowClosed)
	}

	points := ScoreTMC(target.TargetImage, firstChoice, secondChoice)

	result, err := s.record(ctx, userID, target, func() models.Submission {
		return models.Submission{
			ID:           uuid.NewString(),
			UserID:       userID,
			TargetID:     target.ID,
			Variant:      models.VariantTMC,
			FirstChoice:  firstChoice,
			SecondChoice: secondChoice,
			Points:       points,
			Scored:       true,
		}
	})
	if err != nil {
		return nil, err
	}

	// TMC points are final on submission, so the cycle may close right here.
	cycle, err := s.Tiers.CheckCycle(ctx, userID)
	if err != nil {
		log.Printf("[SUBMIT] cycle check failed for user %s: %v", userID, err)
	} else {
		result.Cycle = cycle
	}
	return result, nil
}

// SubmitARV records an attempt with zero points; the award is finalized by
// ScoreARVOutcome once the result image is published.
func (s *SubmissionService) SubmitARV(ctx context.Context, userID, targetID, submittedImage string) (*SubmitResult, error) {
	target, err := s.loadTarget(ctx, targetID, models.VariantARV)
	if err != nil {
		return nil, err
	}
	if !target.GameTime.After(time.Now()) {
		return nil, fmt.Errorf("submissions closed at %s: %w", target.GameTime.Format(time.RFC3339), ErrWindowClosed)
	}

	return s.record(ctx, userID, target, func() models.Submission {
		return models.Submission{
			ID:             uuid.NewString(),
			UserID:         userID,
			TargetID:       target.ID,
			Variant:        models.VariantARV,
			SubmittedImage: submittedImage,
			Points:         0,
			Scored:         false,
		}
	})
}

// record applies the shared accept path: lock the user's rows, enforce the
// cycle budget, insert the attempt exactly once and move the counters.
func (s *SubmissionService) record(ctx context.Context, userID string, target *models.Target, build func() models.Submission) (*SubmitResult, error) {
	var result SubmitResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := ensureUser(tx, userID)
		if err != nil {
			return err
		}
		cycle, err := ensureCycle(tx, userID)
		if err != nil {
			return err
		}

		// Retried attempt: return what was recorded the first time.
		var existing models.Submission
		err = tx.Where("user_id = ? AND target_id = ?", userID, target.ID).First(&existing).Error
		if err == nil {
			result = SubmitResult{
				Points:              existing.Points,
				TierRank:            TierName(user.TierRank),
				TotalPoints:         user.TotalPoints,
				TargetsLeft:         user.TargetsLeft,
				NextTierPoint:       NextTierPoint(user.TierRank),
				CompletedChallenges: cycle.CompletedChallenges,
			}
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if user.TargetsLeft <= 0 {
			return fmt.Errorf("user %s: %w", userID, ErrCycleExhausted)
		}

		sub := build()
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(cycle).Updates(map[string]interface{}{
			"completed_challenges": cycle.CompletedChallenges + 1,
			"total_points":         cycle.TotalPoints + sub.Points,
			"last_challenge_date":  now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(user).Updates(map[string]interface{}{
			"total_points": cycle.TotalPoints + sub.Points,
			"targets_left": user.TargetsLeft - 1,
		}).Error; err != nil {
			return err
		}

		result = SubmitResult{
			Points:              sub.Points,
			TierRank:            TierName(user.TierRank),
			TotalPoints:         cycle.TotalPoints + sub.Points,
			TargetsLeft:         user.TargetsLeft - 1,
			NextTierPoint:       NextTierPoint(user.TierRank),
			CompletedChallenges: cycle.CompletedChallenges + 1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// PublishOutcome stores the ARV result image and finalizes every pending
// attempt against the target.
func (s *SubmissionService) PublishOutcome(ctx context.Context, targetID, resultImage string) (int, error) {
	if resultImage == "" {
		return 0, fmt.Errorf("result_image is required: %w", ErrValidation)
	}
	target, err := s.loadTarget(ctx, targetID, models.VariantARV)
	if err != nil {
		return 0, err
	}
	if err := s.DB.WithContext(ctx).Model(target).Update("result_image", resultImage).Error; err != nil {
		return 0, err
	}
	target.ResultImage = resultImage
	return s.ScoreARVOutcome(ctx, target)
}

// ScoreARVOutcome awards points for every unscored attempt against an ARV
// target whose result image is known. Each user is settled in its own
// transaction; one bad record logs and moves on rather than blocking the
// rest. Returns the number of attempts settled.
func (s *SubmissionService) ScoreARVOutcome(ctx context.Context, target *models.Target) (int, error) {
	if target.ResultImage == "" {
		return 0, fmt.Errorf("target %s has no result image: %w", target.Code, ErrValidation)
	}

	var pending []models.Submission
	if err := s.DB.WithContext(ctx).
		Where("target_id = ? AND scored = ?", target.ID, false).
		Find(&pending).Error; err != nil {
		return 0, err
	}

	settled := 0
	for _, sub := range pending {
		points := ScoreARV(target.ResultImage, sub.SubmittedImage)
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Conditional update keeps the award at-most-once under retries.
			res := tx.Model(&models.Submission{}).
				Where("id = ? AND scored = ?", sub.ID, false).
				Updates(map[string]interface{}{"points": points, "scored": true})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil // already settled by a concurrent run
			}

			cycle, err := ensureCycle(tx, sub.UserID)
			if err != nil {
				return err
			}
			if err := tx.Model(cycle).
				Update("total_points", cycle.TotalPoints+points).Error; err != nil {
				return err
			}

			user, err := ensureUser(tx, sub.UserID)
			if err != nil {
				return err
			}
			return tx.Model(user).Update("total_points", user.TotalPoints+points).Error
		})
		if err != nil {
			log.Printf("[OUTCOME] failed to settle attempt %s (user %s): %v", sub.ID, sub.UserID, err)
			continue
		}
		settled++

		if _, err := s.Tiers.CheckCycle(ctx, sub.UserID); err != nil {
			log.Printf("[OUTCOME] cycle check failed for user %s: %v", sub.UserID, err)
		}
	}
	return settled, nil
}

// TierStatus is the live game state shown on a user's profile.
type TierStatus struct {
	TierRank            string `json:"tier_rank"`
	TotalPoints         int    `json:"total_points"`
	TargetsLeft         int    `json:"targets_left"`
	NextTierPoint       int    `json:"next_tier_point"`
	CompletedChallenges int    `json:"completed_challenges"`
	DaysInCycle         int    `json:"days_in_cycle"`
}

// GetUserTierStatus reports the user's tier, cycle points and remaining
// submissions. The cycle is evaluated first so a day-based close is applied
// even for users with no recent scored submissions.
func (s *SubmissionService) GetUserTierStatus(ctx context.Context, userID string) (*TierStatus, error) {
	if _, err := s.Tiers.CheckCycle(ctx, userID); err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("[STATUS] cycle check failed for user %s: %v", userID, err)
	}

	var user models.GameUser
	err := s.DB.WithContext(ctx).Where("external_user_id = ?", userID).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	status := &TierStatus{
		TierRank:      TierName(user.TierRank),
		TotalPoints:   user.TotalPoints,
		TargetsLeft:   user.TargetsLeft,
		NextTierPoint: NextTierPoint(user.TierRank),
	}

	var cycle models.UserCycle
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cycle).Error; err == nil {
		status.CompletedChallenges = cycle.CompletedChallenges
		status.DaysInCycle = DaysInCycle(cycle.LastChallengeDate, time.Now())
	}
	return status, nil
}

// PreviousResults lists a user's attempts of one variant, optionally excluding
// the target currently being played.
func (s *SubmissionService) PreviousResults(ctx context.Context, userID, variant, excludeTargetID string) ([]models.Submission, error) {
	query := s.DB.WithContext(ctx).
		Where("user_id = ? AND variant = ?", userID, variant).
		Order("submitted_at DESC")
	if excludeTargetID != "" {
		query = query.Where("target_id <> ?", excludeTargetID)
	}
	var subs []models.Submission
	err := query.Find(&subs).Error
	return subs, err
}

// TargetResult returns a user's attempt against one target.
func (s *SubmissionService) TargetResult(ctx context.Context, userID, targetID string) (*models.Submission, error) {
	var sub models.Submission
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("no submission for target %s: %w", targetID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// TotalAttempts counts attempts across all users for the admin dashboard.
func (s *SubmissionService) TotalAttempts(ctx context.Context) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Submission{}).Count(&count).Error
	return count, err
}

// LeaderboardRow is one leaderboard line, ordered by cycle points.
type LeaderboardRow struct {
	ExternalUserID string `json:"external_user_id"`
	TierRank       string `json:"tier_rank"`
	TotalPoints    int    `json:"total_points"`
	Position       int    `json:"position"`
}

// Leaderboard returns the top users by tier then cycle points.
func (s *SubmissionService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit < 1 || limit > 100 {
		limit = 25
	}
	var users []models.GameUser
	err := s.DB.WithContext(ctx).
		Order("tier_rank DESC, total_points DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	rows := make([]LeaderboardRow, 0, len(users))
	for i, u := range users {
		rows = append(rows, LeaderboardRow{
			ExternalUserID: u.ExternalUserID,
			TierRank:       TierName(u.TierRank),
			TotalPoints:    u.TotalPoints,
			Position:       i + 1,
		})
	}
	return rows, nil
}
