package utils

import (
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// NewTargetCode builds a human-shareable target code from the event name plus
// a short random suffix, e.g. "solar-eclipse-3f2a91". Codes are unique by
// suffix even when event names repeat.
func NewTargetCode(eventName string) string {
	base := slug.Make(eventName)
	if base == "" {
		base = "target"
	}
	if len(base) > 24 {
		base = strings.TrimRight(base[:24], "-")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return base + "-" + suffix
}
