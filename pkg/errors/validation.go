package errors

import (
	"math"
	"unicode"
)

// MaxIdentifierLength bounds schema identifiers accepted from outside the
// process (HTTP bodies, introspected databases).
const MaxIdentifierLength = 256

// ValidateIdentifier checks a schema or diagram identifier received from an
// untrusted source. kind names the identifier in the error message.
//
// The rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of MaxIdentifierLength bytes
//
// Separator characters such as '-' are allowed; diagram ids escape them.
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}
	if len(id) > MaxIdentifierLength {
		return New(ErrCodeInvalidInput, "%s too long (max %d characters)", kind, MaxIdentifierLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", kind)
		}
	}
	return nil
}

// ValidateSize checks a measured node size. Both extents must be finite and
// strictly positive.
func ValidateSize(width, height float64) error {
	if !positive(width) {
		return New(ErrCodeInvalidSize, "width must be a positive number, got %v", width)
	}
	if !positive(height) {
		return New(ErrCodeInvalidSize, "height must be a positive number, got %v", height)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
