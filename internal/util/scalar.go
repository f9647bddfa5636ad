package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrNonScalar is returned when a value cannot be rendered as a single
// form-field string.
var ErrNonScalar = errors.New("value is not a scalar")

// ScalarString renders a scalar value (string, boolean or number) as the
// string the downstream form encoding expects. Integral floats are rendered
// without a decimal point so JSON-decoded numbers round-trip cleanly.
func ScalarString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrNonScalar, value)
	}
}

// IsScalar reports whether ScalarString can render the value.
func IsScalar(value any) bool {
	_, err := ScalarString(value)
	return err == nil
}

// FirstNonBlank returns the first candidate that is non-empty after
// trimming, with the surrounding whitespace removed. It returns the empty
// string when every candidate is blank.
func FirstNonBlank(candidates ...string) string {
	for _, c := range candidates {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// Truncate trims the supplied string to at most limit runes. If limit is
// zero or negative it returns an empty string.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
