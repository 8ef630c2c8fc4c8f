// Package validation holds the pure order form checks.
package validation

import (
	"regexp"
	"strings"

	"web-larek/internal/events"
)

// Error texts shown next to the fields.
const (
	EmptyAddress   = "Введите адрес доставки"
	InvalidAddress = "Некорректный формат адреса"
	EmptyEmail     = "Введите e-mail"
	InvalidEmail   = "Некорректный формат e-mail"
	EmptyPhone     = "Введите телефон"
	InvalidPhone   = "Неверный формат номера телефона"
)

var (
	addressRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N}\s.,-]{8,}[\p{L}\p{N}]$`)
	emailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex   = regexp.MustCompile(`^\+7 \(\d{3}\) \d{3}-\d{2}-\d{2}$`)
)

// Errors maps a field to its message. A missing key means the field is valid.
type Errors map[events.Field]string

func (e Errors) Valid() bool { return len(e) == 0 }

// Result is the payload of events.FormErrors.
type Result struct {
	Form   events.Namespace
	Errors Errors
}

// Fields lists the inputs each form validates, in display order.
var Fields = map[events.Namespace][]events.Field{
	events.FormOrder:    {events.FieldAddress},
	events.FormContacts: {events.FieldPhone, events.FieldEmail},
}

// Address runs the delivery form pass.
func Address(address string) Errors {
	errs := Errors{}

	switch {
	case strings.TrimSpace(address) == "":
		errs[events.FieldAddress] = EmptyAddress
	case !addressRegex.MatchString(address):
		errs[events.FieldAddress] = InvalidAddress
	}

	return errs
}

// Contacts runs the contact form pass. Email and phone are checked
// independently.
func Contacts(email, phone string) Errors {
	errs := Errors{}

	switch {
	case email == "":
		errs[events.FieldEmail] = EmptyEmail
	case !emailRegex.MatchString(email):
		errs[events.FieldEmail] = InvalidEmail
	}

	switch {
	case phone == "":
		errs[events.FieldPhone] = EmptyPhone
	case !phoneRegex.MatchString(phone):
		errs[events.FieldPhone] = InvalidPhone
	}

	return errs
}
