package services

import (
	"errors"
	"testing"
	"time"

	"remote-viewing-system/models"
)

func arvInput(game, reveal, outcome, buffer time.Time) CreateTargetInput {
	return CreateTargetInput{
		Variant:     models.VariantARV,
		EventName:   "test event",
		GameTime:    game,
		RevealTime:  reveal,
		OutcomeTime: &outcome,
		BufferTime:  &buffer,
	}
}

func TestValidateWindow(t *testing.T) {
	base := time.Now().Add(time.Hour)

	t.Run("tmc valid ordering", func(t *testing.T) {
		in := CreateTargetInput{
			Variant:    models.VariantTMC,
			GameTime:   base,
			RevealTime: base.Add(time.Hour),
		}
		if err := ValidateWindow(in); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("tmc reveal equals game time", func(t *testing.T) {
		in := CreateTargetInput{
			Variant:    models.VariantTMC,
			GameTime:   base,
			RevealTime: base,
		}
		if err := ValidateWindow(in); err != nil {
			t.Errorf("reveal at game time should be allowed, got %v", err)
		}
	})

	t.Run("reveal before game time", func(t *testing.T) {
		in := CreateTargetInput{
			Variant:    models.VariantTMC,
			GameTime:   base,
			RevealTime: base.Add(-time.Minute),
		}
		if err := ValidateWindow(in); !errors.Is(err, ErrValidation) {
			t.Errorf("want ErrValidation, got %v", err)
		}
	})

	t.Run("arv valid ordering", func(t *testing.T) {
		in := arvInput(base, base.Add(time.Hour), base.Add(2*time.Hour), base.Add(3*time.Hour))
		if err := ValidateWindow(in); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("arv buffer may equal outcome", func(t *testing.T) {
		in := arvInput(base, base.Add(time.Hour), base.Add(2*time.Hour), base.Add(2*time.Hour))
		if err := ValidateWindow(in); err != nil {
			t.Errorf("buffer at outcome time should be allowed, got %v", err)
		}
	})

	t.Run("arv outcome must follow reveal", func(t *testing.T) {
		in := arvInput(base, base.Add(time.Hour), base.Add(time.Hour), base.Add(2*time.Hour))
		if err := ValidateWindow(in); !errors.Is(err, ErrValidation) {
			t.Errorf("want ErrValidation, got %v", err)
		}
	})

	t.Run("arv missing outcome and buffer", func(t *testing.T) {
		in := CreateTargetInput{
			Variant:    models.VariantARV,
			GameTime:   base,
			RevealTime: base.Add(time.Hour),
		}
		if err := ValidateWindow(in); !errors.Is(err, ErrValidation) {
			t.Errorf("want ErrValidation, got %v", err)
		}
	})

	t.Run("unknown variant", func(t *testing.T) {
		in := CreateTargetInput{
			Variant:    "precog",
			GameTime:   base,
			RevealTime: base.Add(time.Hour),
		}
		if err := ValidateWindow(in); !errors.Is(err, ErrValidation) {
			t.Errorf("want ErrValidation, got %v", err)
		}
	})

	t.Run("missing times", func(t *testing.T) {
		if err := ValidateWindow(CreateTargetInput{Variant: models.VariantTMC}); !errors.Is(err, ErrValidation) {
			t.Errorf("want ErrValidation, got %v", err)
		}
	})
}
