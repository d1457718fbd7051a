// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "ID"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
// Numbers without a country code are parsed as Indonesian (e.g. 0812... -> +62812...).
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// WhatsAppID returns the number in the digits-only form the WhatsApp
// gateway expects (no leading +).
func WhatsAppID(input string) string {
	return strings.TrimPrefix(NormalizeE164(input), "+")
}
