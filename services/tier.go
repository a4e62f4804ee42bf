package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"remote-viewing-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cycle rules: a scoring cycle closes after CycleChallenges accepted
// submissions or CycleDays elapsed days, whichever comes first. A user who
// closes a cycle short of CycleChallenges pays ShortfallPenalty points per
// missing challenge, floored at PenaltyFloor.
const (
	CycleChallenges  = 10
	CycleDays        = 15
	ShortfallPenalty = 10
	PenaltyFloor     = -29
)

// Tier is one row of the ordered tier table. Up is the cycle-point threshold
// to promote one step, Down the threshold at or below which the user drops one
// step. A nil threshold means the boundary does not exist (bottom/top tier).
type Tier struct {
	Name string
	Up   *int
	Down *int
}

func ptr(v int) *int { return &v }

// TierTable is ordered by ordinal; index order defines adjacency for
// promotion/demotion. Never look tiers up by name.
var TierTable = []Tier{
	{Name: "NOVICE SEEKER", Up: ptr(1), Down: nil},
	{Name: "INITIATE", Up: ptr(1), Down: ptr(-30)},
	{Name: "APPRENTICE", Up: ptr(31), Down: ptr(0)},
	{Name: "EXPLORER", Up: ptr(61), Down: ptr(0)},
	{Name: "VISIONARY", Up: ptr(81), Down: ptr(30)},
	{Name: "ADEPT", Up: ptr(101), Down: ptr(30)},
	{Name: "SEER", Up: ptr(121), Down: ptr(60)},
	{Name: "ORACLE", Up: ptr(141), Down: ptr(60)},
	{Name: "MASTER REMOTE VIEWER", Up: ptr(161), Down: ptr(100)},
	{Name: "ASCENDING MASTER", Up: nil, Down: ptr(120)},
}

// TierName returns the display name for an ordinal, clamping out-of-range
// values to the bottom tier.
func TierName(rank int) string {
	if rank < 0 || rank >= len(TierTable) {
		return TierTable[0].Name
	}
	return TierTable[rank].Name
}

// NextTier evaluates one cycle's points against the tier table and returns the
// new ordinal. Movement is at most one adjacent step. Demotion is checked
// before promotion so boundary values cannot oscillate upward.
func NextTier(current int, points int) int {
	if current < 0 || current >= len(TierTable) {
		return 0
	}
	t := TierTable[current]
	if t.Down != nil && points <= *t.Down {
		if current == 0 {
			return 0
		}
		return current - 1
	}
	if t.Up != nil && current < len(TierTable)-1 && points >= *t.Up {
		return current + 1
	}
	return current
}

// NextTierPoint returns the promotion threshold for the given ordinal, or 0 if
// the user already sits at the top tier.
func NextTierPoint(rank int) int {
	if rank < 0 || rank >= len(TierTable) || TierTable[rank].Up == nil {
		return 0
	}
	return *TierTable[rank].Up
}

// DaysInCycle returns whole days elapsed since the cycle anchor.
func DaysInCycle(cycleStart, now time.Time) int {
	if now.Before(cycleStart) {
		return 0
	}
	return int(now.Sub(cycleStart).Hours() / 24)
}

// ShouldCloseCycle reports whether the cycle is over: CycleChallenges accepted
// submissions or CycleDays elapsed days.
func ShouldCloseCycle(completed int, cycleStart, now time.Time) bool {
	return completed >= CycleChallenges || DaysInCycle(cycleStart, now) >= CycleDays
}

// PenalizedPoints applies the shortfall penalty for a cycle closed with fewer
// than CycleChallenges completed: ShortfallPenalty per missing challenge,
// floored at PenaltyFloor. A full cycle carries its points through untouched.
func PenalizedPoints(points, completed int) int {
	if completed >= CycleChallenges {
		return points
	}
	missing := CycleChallenges - completed
	points -= missing * ShortfallPenalty
	if points < PenaltyFloor {
		points = PenaltyFloor
	}
	return points
}

// TierService owns tier evaluation and the cycle close. It is the only writer
// of TierRank and the cycle counters.
type TierService struct {
	DB       *gorm.DB
	Notifier *Notifier
}

func NewTierService(db *gorm.DB, notifier *Notifier) *TierService {
	return &TierService{DB: db, Notifier: notifier}
}

// CycleResult reports a CheckCycle evaluation. When Closed is false the call
// was a pure observation and nothing was mutated.
type CycleResult struct {
	Closed         bool   `json:"closed"`
	GamesCompleted int    `json:"games_completed"`
	DaysInCycle    int    `json:"days_in_cycle"`
	PreviousTier   string `json:"previous_tier,omitempty"`
	NewTier        string `json:"new_tier,omitempty"`
	PreviousPoints int    `json:"previous_points,omitempty"`
	FinalPoints    int    `json:"final_points,omitempty"`
	TierChanged    bool   `json:"tier_changed"`
}

// CheckCycle closes the user's cycle if it is over: applies the shortfall
// penalty, re-evaluates the tier, carries the penalized points into the next
// cycle, resets the challenge counter and submission budget, and notifies the
// user. User and cycle records are updated inside one transaction so a partial
// update (tier moved, counters not reset) can never be observed.
func (s *TierService) CheckCycle(ctx context.Context, userID string) (*CycleResult, error) {
	var cycle models.UserCycle
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cycle).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("cycle record for user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}

	now := time.Now()
	result := &CycleResult{
		GamesCompleted: cycle.CompletedChallenges,
		DaysInCycle:    DaysInCycle(cycle.LastChallengeDate, now),
	}
	if !ShouldCloseCycle(cycle.CompletedChallenges, cycle.LastChallengeDate, now) {
		return result, nil
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lockedCycle models.UserCycle
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&lockedCycle).Error; err != nil {
			return err
		}

		// Re-check under the lock: a concurrent close may have won.
		if !ShouldCloseCycle(lockedCycle.CompletedChallenges, lockedCycle.LastChallengeDate, now) {
			return nil
		}

		var user models.GameUser
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_user_id = ?", userID).
			First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("game user %s: %w", userID, ErrNotFound)
			}
			return err
		}

		finalPoints := PenalizedPoints(lockedCycle.TotalPoints, lockedCycle.CompletedChallenges)
		newTier := NextTier(user.TierRank, finalPoints)

		result.Closed = true
		result.GamesCompleted = lockedCycle.CompletedChallenges
		result.PreviousTier = TierName(user.TierRank)
		result.NewTier = TierName(newTier)
		result.PreviousPoints = lockedCycle.TotalPoints
		result.FinalPoints = finalPoints
		result.TierChanged = newTier != user.TierRank

		if err := tx.Model(&user).Updates(map[string]interface{}{
			"tier_rank":    newTier,
			"total_points": finalPoints,
			"targets_left": CycleChallenges,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&lockedCycle).Updates(map[string]interface{}{
			"tier_rank":            newTier,
			"total_points":         finalPoints,
			"completed_challenges": 0,
			"last_challenge_date":  now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if result.Closed {
		msg := fmt.Sprintf(
			"Your cycle has been renewed. You earned %d points, your previous tier was %s and your new tier is %s.",
			result.PreviousPoints, result.PreviousTier, result.NewTier,
		)
		if err := s.Notifier.Notify(ctx, &userID, msg); err != nil {
			// The close itself committed; a lost notification is not worth a rollback.
			log.Printf("[TIER] failed to notify user %s of cycle close: %v", userID, err)
		}
	}
	return result, nil
}
