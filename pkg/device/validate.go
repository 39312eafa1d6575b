package device

import (
	"slices"
	"time"

	"github.com/halo-device/halo-go/pkg/fault"
)

// Parameter limits.
const (
	MinBrightness = 10
	MaxBrightness = 100

	// SleepNever disables the sleep timer.
	SleepNever      = 0
	MinSleepTimeout = 30
	MaxSleepTimeout = 3600

	// MaxTagContent is the usable payload of an NTAG215 token in bytes.
	MaxTagContent = 504
)

// ValidateBrightness checks a brightness percentage.
func ValidateBrightness(percent int) error {
	if percent < MinBrightness || percent > MaxBrightness {
		return fault.Validation("brightness", "brightness %d%% outside %d-%d", percent, MinBrightness, MaxBrightness)
	}
	return nil
}

// ValidateSleepTimeout checks a sleep timeout in seconds. Zero means never.
func ValidateSleepTimeout(seconds int) error {
	if seconds == SleepNever {
		return nil
	}
	if seconds < MinSleepTimeout || seconds > MaxSleepTimeout {
		return fault.Validation("sleep timeout", "sleep timeout %ds outside %d-%d (or 0 for never)",
			seconds, MinSleepTimeout, MaxSleepTimeout)
	}
	return nil
}

// ValidateSleepDuration is ValidateSleepTimeout for a duration. Fractional
// seconds are rejected.
func ValidateSleepDuration(d time.Duration) (int, error) {
	if d%time.Second != 0 {
		return 0, fault.Validation("sleep timeout", "sleep timeout %s is not whole seconds", d)
	}
	s := int(d / time.Second)
	return s, ValidateSleepTimeout(s)
}

// ValidateColor checks a #RRGGBB color string.
func ValidateColor(hex string) error {
	if len(hex) != 7 || hex[0] != '#' {
		return fault.Validation("color", "color %q is not #RRGGBB", hex)
	}
	for _, c := range hex[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return fault.Validation("color", "color %q is not #RRGGBB", hex)
		}
	}
	return nil
}

// ValidateEffect checks that name is one of effects.
func ValidateEffect(name string, effects []string) error {
	if !slices.Contains(effects, name) {
		return fault.Validation("effect", "effect %q not supported (have %v)", name, effects)
	}
	return nil
}

// ValidateTagContent checks a tag payload.
func ValidateTagContent(content string) error {
	if content == "" {
		return fault.Validation("tag write", "tag content is empty")
	}
	if len(content) > MaxTagContent {
		return fault.Validation("tag write", "tag content is %d bytes, max %d", len(content), MaxTagContent)
	}
	return nil
}
