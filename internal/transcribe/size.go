package transcribe

import (
	"fmt"
	"strings"
)

// Size selects a pre-trained model: larger is slower and more accurate.
type Size string

// Supported model sizes.
const (
	SizeTiny   Size = "tiny"
	SizeBase   Size = "base"
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// DefaultSize is used when no size is selected.
const DefaultSize = SizeBase

// Sizes returns every supported size, smallest first.
func Sizes() []Size {
	return []Size{SizeTiny, SizeBase, SizeSmall, SizeMedium, SizeLarge}
}

// ParseSize validates s. An empty string yields DefaultSize.
func ParseSize(s string) (Size, error) {
	normalized := Size(strings.ToLower(strings.TrimSpace(s)))
	if normalized == "" {
		return DefaultSize, nil
	}
	if normalized.Valid() {
		return normalized, nil
	}
	return "", fmt.Errorf("%w: %q (use tiny, base, small, medium or large)", ErrUnsupportedSize, s)
}

// Valid reports whether s is one of Sizes.
func (s Size) Valid() bool {
	switch s {
	case SizeTiny, SizeBase, SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (s Size) String() string {
	return string(s)
}
