package events

import "strings"

// Name identifies an event on the bus.
type Name string

// Catalog
const (
	CatalogUpdate Name = "card:catalog:update"
	CardSelect    Name = "card:select"
)

// Basket
const (
	BasketOpen   Name = "basket:open"
	BasketAdd    Name = "basket:product:add"
	BasketRemove Name = "basket:remove"
	BasketUpdate Name = "basket:update"
)

// Checkout flow
const (
	OrderInfo     Name = "order:info:change"
	OrderContacts Name = "order:contact:change"
	OrderSend     Name = "order:send"
	OrderComplete Name = "order:complete"
	OrderPrepare  Name = "order:prepare"
	OrderFailed   Name = "order:failed"
)

// Field level
const (
	AddressChange Name = "order.address:change"
	PaymentChange Name = "order.payment:change"
	EmailChange   Name = "contacts.email:change"
	PhoneChange   Name = "contacts.phone:change"
)

const (
	FormErrors Name = "formErrors:change"
	ModalOpen  Name = "modal:open"
	ModalClose Name = "modal:close"
)

// Namespace is the name of a rendered form.
type Namespace string

const (
	FormOrder    Namespace = "order"
	FormContacts Namespace = "contacts"
)

// Field is the name of a single form input.
type Field string

const (
	FieldPayment Field = "payment"
	FieldAddress Field = "address"
	FieldEmail   Field = "email"
	FieldPhone   Field = "phone"
)

const changeSuffix = ":change"

// FieldChange is the payload of every field-level event.
type FieldChange struct {
	Form  Namespace
	Field Field
	Value string
}

// Name returns "<form>.<field>:change".
func (c FieldChange) Name() Name {
	return FieldChangeName(c.Form, c.Field)
}

func FieldChangeName(form Namespace, field Field) Name {
	return Name(string(form) + "." + string(field) + changeSuffix)
}

// FieldChange splits a field-level event name into its form and field.
// ok is false for any other event.
func (n Name) FieldChange() (form Namespace, field Field, ok bool) {
	s, found := strings.CutSuffix(string(n), changeSuffix)
	if !found || strings.Contains(s, ":") {
		return "", "", false
	}

	f, fld, found := strings.Cut(s, ".")
	if !found || f == "" || fld == "" || strings.Contains(fld, ".") {
		return "", "", false
	}

	return Namespace(f), Field(fld), true
}
