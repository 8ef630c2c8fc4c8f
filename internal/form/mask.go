package form

import (
	"strings"
	"unicode"
)

const (
	PhoneTemplate = "+7 (___) ___-__-__"
	PhonePrefix   = "+7"

	// Edits starting before this position would change "+7 ".
	phoneLockedPrefix = 3
	// A value cut before this position collapses to the locked prefix.
	phoneMinMasked = 5
)

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// MaskPhone rebuilds the displayed phone value from the digits of value.
// Digit slots of PhoneTemplate (the leading 7 included) are filled in order
// and the result is cut at the first empty slot, so a partial number never
// shows placeholders.
func MaskPhone(value string) string {
	digits := onlyDigits(value)
	buf := []byte(PhoneTemplate)

	i := 0
	for k, ch := range buf {
		if ch != '_' && !(ch >= '0' && ch <= '9') {
			continue
		}
		if i < len(digits) {
			buf[k] = digits[i]
			i++
		}
	}

	cut := strings.IndexByte(string(buf), '_')
	if cut == -1 {
		return string(buf)
	}
	if cut < phoneMinMasked {
		cut = phoneLockedPrefix
	}
	return string(buf[:cut])
}

// isPartialPhone reports whether value is a prefix of a filled template:
// literals in place and digits in every slot.
func isPartialPhone(value string) bool {
	if len(value) > len(PhoneTemplate) {
		return false
	}
	for i := 0; i < len(value); i++ {
		ch, slot := value[i], PhoneTemplate[i]
		if slot == '_' {
			if ch < '0' || ch > '9' {
				return false
			}
			continue
		}
		if ch != slot {
			return false
		}
	}
	return true
}

// ApplyPhoneInput returns the value the phone input shows after an edit.
// caret is the cursor position of the edit, or -1 when unknown. Edits inside
// the locked "+7 " prefix are rejected and prev is kept. A value that still
// fits the template is kept as typed so separators can be deleted; anything
// else is rebuilt from its digits.
func ApplyPhoneInput(prev, value string, caret int) (string, bool) {
	if caret >= 0 && caret < phoneLockedPrefix {
		return prev, false
	}
	if len(value) >= phoneMinMasked && isPartialPhone(value) {
		return value, true
	}
	return MaskPhone(value), true
}

// NormalizePhoneNumber turns a free-form Russian number ("8 916 123-45-67",
// "9161234567", "+7 916 ...") into "+7XXXXXXXXXX". Other input is returned
// as digits with a leading "+" when one was present.
func NormalizePhoneNumber(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)

	switch {
	case strings.HasPrefix(cleaned, "7") && len(cleaned) == 11:
		return "+" + cleaned
	case strings.HasPrefix(cleaned, "8") && len(cleaned) == 11:
		return "+7" + cleaned[1:]
	case strings.HasPrefix(cleaned, "9") && len(cleaned) == 10:
		return "+7" + cleaned
	}

	if strings.HasPrefix(strings.TrimSpace(phone), "+") {
		return "+" + cleaned
	}
	return cleaned
}

// PhoneFromText turns a number sent as a whole message into the input value
// it stands for. Numbers without a country code are taken as Russian, so
// "4951234567" and "999" keep their digits after the "+7".
func PhoneFromText(raw string) string {
	normalized := NormalizePhoneNumber(raw)
	if strings.HasPrefix(normalized, "+") {
		return normalized
	}
	return PhonePrefix + normalized
}
