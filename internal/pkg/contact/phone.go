package contact

import (
	"strings"
	"unicode"
)

const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

// NormalizePhone keeps the digits of s and a leading '+'. It reports false when the
// result is not a plausible phone number.
func NormalizePhone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	var b strings.Builder
	digits := 0
	for i, r := range s {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
			digits++
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", false
		}
	}
	if digits < minPhoneDigits || digits > maxPhoneDigits {
		return "", false
	}
	return b.String(), true
}
