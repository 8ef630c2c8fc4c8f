package form

import "web-larek/internal/events"

// ContactsSubmitted is the payload of events.OrderSend.
type ContactsSubmitted struct {
	Email string
	Phone string
}

// ContactForm binds the email and phone step.
type ContactForm struct {
	*Form
}

func NewContactForm(bus *events.Bus, view Controls) *ContactForm {
	c := &ContactForm{Form: newForm(events.FormContacts, bus, view)}
	c.Reset()
	return c
}

func (c *ContactForm) Email() string { return c.Value(events.FieldEmail) }

func (c *ContactForm) Phone() string { return c.Value(events.FieldPhone) }

// InputPhone masks a raw phone edit before publishing it. caret is the edit
// position, -1 when the renderer cannot tell.
func (c *ContactForm) InputPhone(value string, caret int) {
	masked, ok := ApplyPhoneInput(c.Phone(), value, caret)
	c.view.SetValue(events.FieldPhone, masked)
	if !ok {
		return
	}
	c.Input(events.FieldPhone, masked)
}

// Submit publishes events.OrderSend with the held values.
func (c *ContactForm) Submit() error {
	if err := c.submit(); err != nil {
		return err
	}

	c.bus.Publish(events.OrderSend, ContactsSubmitted{
		Email: c.Email(),
		Phone: c.Phone(),
	})
	return nil
}

// Reset restores the "+7" phone prefix and clears the email.
func (c *ContactForm) Reset() {
	c.reset(map[events.Field]string{
		events.FieldEmail: "",
		events.FieldPhone: PhonePrefix,
	})
}
