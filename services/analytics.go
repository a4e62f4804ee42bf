package services

import (
	"context"
	"fmt"
	"math"

	"remote-viewing-system/models"

	"gorm.io/gorm"
)

// erf implements the Abramowitz–Stegun approximation (formula 7.1.26,
// max error ~1.5e-7). Kept hand-rolled so the analytics path carries no
// statistics dependency.
func erf(x float64) float64 {
	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x)

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)

	return sign * y
}

// cumulativeStdNormal is the standard normal CDF Φ(z).
func cumulativeStdNormal(z float64) float64 {
	return 0.5 * (1 + erf(z/math.Sqrt2))
}

// PValue runs a two-tailed test of the observed success count against a 50%
// null hypothesis using the normal approximation to the binomial. Boundary
// cases are clamped: no data or no successes means chance cannot be excluded
// (p = 1); a perfect record is reported as 0.0001 rather than exactly zero.
// Below-chance records also report 1, consistent with the no-successes clamp.
func PValue(successes, total int) float64 {
	if total == 0 || successes == 0 {
		return 1
	}
	if successes == total {
		return 0.0001
	}

	const p0 = 0.5
	pHat := float64(successes) / float64(total)
	se := math.Sqrt(p0 * (1 - p0) / float64(total))
	z := (pHat - p0) / se

	p := 2 * (1 - cumulativeStdNormal(z))
	if p > 1 {
		p = 1
	}
	return p
}

// SuccessRate is the share of scored attempts with a positive award, as a
// percentage.
func SuccessRate(successes, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(successes) / float64(total) * 100
}

// AnalyticsService computes per-user performance statistics from the
// submission history.
type AnalyticsService struct {
	DB *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{DB: db}
}

// AnalyticsResult reports whether a user's record is distinguishable from
// chance for one variant.
type AnalyticsResult struct {
	Variant         string  `json:"variant"`
	TotalAttempts   int     `json:"total_attempts"`
	SuccessfulCount int     `json:"successful_count"`
	SuccessRate     float64 `json:"success_rate"`
	PValue          float64 `json:"p_value"`
}

// Analyze computes the success rate and p-value over a user's scored attempts
// of one variant and caches the figures on the user's game-state row.
func (s *AnalyticsService) Analyze(ctx context.Context, userID, variant string) (*AnalyticsResult, error) {
	if variant != models.VariantARV && variant != models.VariantTMC {
		return nil, fmt.Errorf("unknown variant %q: %w", variant, ErrValidation)
	}

	var total, successes int64
	if err := s.DB.WithContext(ctx).
		Model(&models.Submission{}).
		Where("user_id = ? AND variant = ? AND scored = ?", userID, variant, true).
		Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).
		Model(&models.Submission{}).
		Where("user_id = ? AND variant = ? AND scored = ? AND points > 0", userID, variant, true).
		Count(&successes).Error; err != nil {
		return nil, err
	}

	result := &AnalyticsResult{
		Variant:         variant,
		TotalAttempts:   int(total),
		SuccessfulCount: int(successes),
		SuccessRate:     SuccessRate(int(successes), int(total)),
		PValue:          PValue(int(successes), int(total)),
	}

	updates := map[string]interface{}{
		"tmc_success_rate": result.SuccessRate,
		"tmc_p_value":      result.PValue,
	}
	if variant == models.VariantARV {
		updates = map[string]interface{}{
			"arv_success_rate": result.SuccessRate,
			"arv_p_value":      result.PValue,
		}
	}
	if err := s.DB.WithContext(ctx).
		Model(&models.GameUser{}).
		Where("external_user_id = ?", userID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	return result, nil
}
