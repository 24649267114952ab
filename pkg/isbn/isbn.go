// Package isbn normalizes and validates ISBN-10/ISBN-13 identifiers. The
// reconciler's soft join between volumes and owned items keys on the
// normalized form, so every ISBN comparison in the codebase must go through
// Normalize.
package isbn

import (
	"strings"
	"unicode"
)

// Normalize removes hyphens, spaces, and common prefixes from an ISBN.
func Normalize(value string) string {
	value = strings.TrimPrefix(strings.ToUpper(value), "ISBN:")
	value = strings.TrimPrefix(value, "ISBN")
	value = strings.TrimSpace(value)

	// Keep only digits and X (the ISBN-10 checksum character)
	var result strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) || r == 'X' || r == 'x' {
			result.WriteRune(r)
		}
	}
	return strings.ToUpper(result.String())
}

// Valid reports whether the value normalizes to a checksum-valid ISBN-10 or
// ISBN-13.
func Valid(value string) bool {
	n := Normalize(value)
	switch len(n) {
	case 10:
		return Valid10(n)
	case 13:
		return Valid13(n)
	}
	return false
}

// Valid10 validates an ISBN-10 checksum.
// ISBN-10 uses modulo 11 with weights 10,9,8,7,6,5,4,3,2,1.
func Valid10(isbn string) bool {
	if len(isbn) != 10 {
		return false
	}

	var sum int
	for i, r := range isbn {
		var digit int
		switch {
		case r == 'X' || r == 'x':
			if i != 9 {
				return false // X only valid as last digit
			}
			digit = 10
		case unicode.IsDigit(r):
			digit = int(r - '0')
		default:
			return false
		}
		sum += digit * (10 - i)
	}
	return sum%11 == 0
}

// Valid13 validates an ISBN-13 checksum.
// ISBN-13 uses alternating weights of 1 and 3.
func Valid13(isbn string) bool {
	if len(isbn) != 13 {
		return false
	}

	var sum int
	for i, r := range isbn {
		if !unicode.IsDigit(r) {
			return false
		}
		digit := int(r - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	return sum%10 == 0
}

// To13 converts a normalized ISBN-10 to its ISBN-13 form by applying the 978
// prefix and recomputing the check digit. Values that are already 13 digits
// are returned unchanged; anything else returns the empty string.
func To13(value string) string {
	n := Normalize(value)
	if len(n) == 13 {
		return n
	}
	if len(n) != 10 {
		return ""
	}

	body := "978" + n[:9]
	var sum int
	for i, r := range body {
		digit := int(r - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	check := (10 - sum%10) % 10
	return body + string(rune('0'+check))
}
