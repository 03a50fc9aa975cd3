// Package phone turns free-typed phone input into a canonical digit string and
// the masked display used by the landing page forms.
//
// Two shapes are supported:
//
//	domestic       (AA) BBBBB-CCCC   stored as 10-11 digits
//	international  +CC (AA) BBBBB-CCCC
//
// Normalize never fails and is meant for keystrokes: it drops stray characters
// and extra digits. Canonical is the strict variant for submitted values.
package phone

import (
	"strings"
)

const (
	// AutoCountryCode enables country code detection for international input
	AutoCountryCode = "auto"

	// DefaultCountryCode is prepended to international input typed without "+"
	DefaultCountryCode = "55"

	areaCodeLen     = 2
	lastBlockLen    = 4
	maxNationalLen  = 11
	minNationalLen  = 10
	maxCountryCodes = 3
)

// Format selects the display shape. An empty CountryCode means domestic
// numbers only; AutoCountryCode or a digit string means international.
type Format struct {
	CountryCode string
}

// Domestic is the (AA) BBBBB-CCCC format
var Domestic = Format{}

// International is the +CC (AA) BBBBB-CCCC format with country code detection
var International = Format{CountryCode: AutoCountryCode}

// IsInternational reports whether the format carries a country code
func (f Format) IsInternational() bool {
	return f.CountryCode != ""
}

func (f Format) defaultCountryCode() string {
	if f.CountryCode == "" || f.CountryCode == AutoCountryCode {
		return DefaultCountryCode
	}
	return f.CountryCode
}

// Result is the outcome of normalizing one raw input
type Result struct {
	// Digits is the canonical digit-only value, country code included for
	// international formats
	Digits string
	// Display is the masked string shown in the input
	Display string

	international bool
	countryCode   string
}

// Value returns the canonical value sent to the server: digits for domestic
// formats, the masked string for international ones.
func (r Result) Value() string {
	if r.international {
		return r.Display
	}
	return r.Digits
}

// CountryCode returns the detected country code (international formats only)
func (r Result) CountryCode() string {
	return r.countryCode
}

// National returns the area code and subscriber number without the country code
func (r Result) National() string {
	return strings.TrimPrefix(r.Digits, r.countryCode)
}

// Digits strips every non-digit character
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Normalize converts raw keystrokes into canonical digits and the masked display
func (f Format) Normalize(raw string) Result {
	if f.IsInternational() {
		return f.normalizeInternational(raw)
	}

	digits := Digits(raw)
	if len(digits) > maxNationalLen {
		digits = digits[:maxNationalLen]
	}
	return Result{Digits: digits, Display: maskNational(digits)}
}

// Canonical normalizes a submitted value only when Normalize would keep every
// digit and the input holds nothing but digits, spaces and "+()-" with "+"
// leading. Otherwise ok is false and the caller should judge raw as sent.
func (f Format) Canonical(raw string) (value string, ok bool) {
	trimmed := strings.TrimSpace(raw)
	for i := 0; i < len(trimmed); i++ {
		switch c := trimmed[i]; {
		case c >= '0' && c <= '9', c == ' ', c == '(', c == ')', c == '-':
		case c == '+' && i == 0:
		default:
			return "", false
		}
	}

	digits := Digits(trimmed)
	limit := maxNationalLen
	if f.IsInternational() && strings.HasPrefix(trimmed, "+") && digits != "" {
		limit += len(detectCountryCode(digits))
	}
	if len(digits) > limit {
		return "", false
	}
	return f.Normalize(trimmed).Value(), true
}

func (f Format) normalizeInternational(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	digits := Digits(trimmed)

	if digits == "" {
		if strings.HasPrefix(trimmed, "+") {
			return Result{Display: "+", international: true}
		}
		return Result{international: true}
	}

	if !strings.HasPrefix(trimmed, "+") {
		digits = f.defaultCountryCode() + digits
	}

	cc := detectCountryCode(digits)
	if limit := len(cc) + maxNationalLen; len(digits) > limit {
		digits = digits[:limit]
	}

	display := "+" + cc
	if national := digits[len(cc):]; national != "" {
		display += " " + maskNational(national)
	}

	return Result{
		Digits:        digits,
		Display:       display,
		international: true,
		countryCode:   cc,
	}
}

// detectCountryCode matches well-known prefixes first, then falls back to up
// to three leading digits.
func detectCountryCode(digits string) string {
	switch {
	case strings.HasPrefix(digits, "55"):
		return digits[:2]
	case strings.HasPrefix(digits, "1"):
		return digits[:1]
	case len(digits) <= maxCountryCodes:
		return digits
	default:
		return digits[:maxCountryCodes]
	}
}

// maskNational renders area code and subscriber number. Segments appear only
// once they have digits; the "-" separator appears only once the number is
// long enough to be valid.
func maskNational(digits string) string {
	n := len(digits)
	switch {
	case n == 0:
		return ""
	case n <= areaCodeLen:
		return "(" + digits
	case n < minNationalLen:
		return "(" + digits[:areaCodeLen] + ") " + digits[areaCodeLen:]
	default:
		split := n - lastBlockLen
		return "(" + digits[:areaCodeLen] + ") " + digits[areaCodeLen:split] + "-" + digits[split:]
	}
}

// E164 builds a +<country><national> number for storage. Domestic digits get
// defaultCountry prepended; international display values are already prefixed.
func E164(value string, f Format, defaultCountry string) string {
	if value == "" || value == "+" {
		return ""
	}
	if f.IsInternational() {
		r := f.Normalize(value)
		if r.Digits == "" {
			return ""
		}
		return "+" + r.Digits
	}
	digits := Digits(value)
	if digits == "" {
		return ""
	}
	if defaultCountry == "" {
		defaultCountry = DefaultCountryCode
	}
	return "+" + defaultCountry + digits
}
