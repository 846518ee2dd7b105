package builtin

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reLeadingZeros = regexp.MustCompile(`^([A-Z0-9]{2}[A-Z]?)0+([0-9]+)$`)
	reAllZeroNum   = regexp.MustCompile(`^([A-Z0-9]{2}[A-Z]?)0+$`)
	reLettersOnly  = regexp.MustCompile(`^[A-Z]{1,3}$`)
	reCanonical    = regexp.MustCompile(`^[A-Z0-9]{2,3}[0-9]+$`)
)

// corruptDigits is the length above which an all-digit value is treated as a
// spilled numeric column (ticket or phone number) rather than a flight.
const corruptDigits = 10

// NormalizeFlightNumber canonicalizes a raw flight designator:
//
//	" tk 0012 " -> "TK12"
//	"RNK0"      -> ErrPlaceholderFlight
//	"9876543210123" -> ErrCorruptFlight
//
// The result always matches ^[A-Z0-9]{2,3}[0-9]+$.
func NormalizeFlightNumber(raw string) (string, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if s == "" {
		return "", ErrEmptyFlight
	}
	if isDigits(s) {
		if len(s) > corruptDigits {
			return "", fmt.Errorf("%w: %q", ErrCorruptFlight, s)
		}
		if strings.Trim(s, "0") == "" {
			return "", fmt.Errorf("%w: %q", ErrPlaceholderFlight, s)
		}
	}
	if reLettersOnly.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrPlaceholderFlight, s)
	}
	if m := reAllZeroNum.FindStringSubmatch(s); m != nil && hasLetter(m[1]) {
		return "", fmt.Errorf("%w: %q", ErrPlaceholderFlight, s)
	}
	if m := reLeadingZeros.FindStringSubmatch(s); m != nil && hasLetter(m[1]) {
		s = m[1] + m[2]
	}
	if !reCanonical.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFlight, s)
	}
	return s, nil
}

// IsCorruptFlight reports whether raw would poison the whole row.
func IsCorruptFlight(raw string) bool {
	s := strings.Join(strings.Fields(raw), "")
	return len(s) > corruptDigits && isDigits(s)
}

// NormalizePaxName trims, collapses inner whitespace, strips diacritics and
// upper-cases a passenger name ("  José  da Silva" -> "JOSE DA SILVA").
func NormalizePaxName(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return ""
	}
	if !isASCII(s) {
		// Decompose, drop nonspacing marks, recompose. Chains are stateful.
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if out, _, err := transform.String(t, s); err == nil {
			s = out
		}
	}
	return strings.ToUpper(s)
}

// NormalizeCode trims and upper-cases booking refs, ticket numbers and
// airport codes.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func hasLetter(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
