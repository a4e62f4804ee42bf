package utils

import (
	"strings"
	"testing"
)

func TestNewTargetCode(t *testing.T) {
	code := NewTargetCode("Solar Eclipse Over Berlin")
	if !strings.HasPrefix(code, "solar-eclipse-over-berli") {
		t.Errorf("unexpected code prefix: %q", code)
	}
	if strings.ToLower(code) != code {
		t.Errorf("code should be lowercase: %q", code)
	}
	if strings.Contains(code, " ") {
		t.Errorf("code should not contain spaces: %q", code)
	}
}

func TestNewTargetCodeEmptyName(t *testing.T) {
	code := NewTargetCode("")
	if !strings.HasPrefix(code, "target-") {
		t.Errorf("empty name should fall back to target-, got %q", code)
	}
}

func TestNewTargetCodeUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := NewTargetCode("repeat event")
		if seen[code] {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = true
	}
}
