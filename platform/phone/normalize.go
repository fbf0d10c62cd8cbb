// Package phone normalizes customer phone numbers so they can be compared.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// NormalizeE164 formats a phone number to E.164, parsing national numbers in
// defaultRegion (ISO 3166 alpha-2). Unparseable or invalid input is returned
// with surrounding whitespace removed.
func NormalizeE164(input, defaultRegion string) string {
	trimmed := strings.TrimSpace(input)
	if e164, ok := parseValid(trimmed, defaultRegion); ok {
		return e164
	}
	return trimmed
}

// SearchKey turns typed phone text into a fragment that can be substring
// matched against stored E.164 numbers. A complete valid number becomes its
// E.164 form. A partial one keeps only its digits, minus the region's trunk
// prefix when it was written in national form.
func SearchKey(input, defaultRegion string) string {
	trimmed := strings.TrimSpace(input)
	if e164, ok := parseValid(trimmed, defaultRegion); ok {
		return e164
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, trimmed)
	if !strings.HasPrefix(trimmed, "+") {
		if trunk := phonenumbers.GetNddPrefixForRegion(strings.ToUpper(defaultRegion), true); trunk != "" {
			digits = strings.TrimPrefix(digits, trunk)
		}
	}
	if digits == "" {
		return trimmed
	}
	return digits
}

func parseValid(trimmed, defaultRegion string) (string, bool) {
	if trimmed == "" {
		return "", false
	}
	number, err := phonenumbers.Parse(trimmed, strings.ToUpper(defaultRegion))
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "", false
	}
	return phonenumbers.Format(number, phonenumbers.E164), true
}
