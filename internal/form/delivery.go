package form

import (
	"web-larek/internal/events"
	"web-larek/internal/state"
)

// PaymentControls renders the delivery form with its payment toggle.
type PaymentControls interface {
	Controls
	SetPaymentActive(method state.PaymentMethod)
}

// DeliverySubmitted is the payload of events.OrderContacts.
type DeliverySubmitted struct {
	Payment state.PaymentMethod
	Address string
}

// DeliveryForm binds the payment method and address step.
type DeliveryForm struct {
	*Form

	view    PaymentControls
	payment state.PaymentMethod
}

func NewDeliveryForm(bus *events.Bus, view PaymentControls) *DeliveryForm {
	d := &DeliveryForm{
		Form: newForm(events.FormOrder, bus, view),
		view: view,
	}
	d.setPayment(state.PaymentOnline)
	return d
}

func (d *DeliveryForm) Payment() state.PaymentMethod { return d.payment }

func (d *DeliveryForm) Address() string { return d.Value(events.FieldAddress) }

// SelectPayment activates one payment control and publishes
// "order.payment:change".
func (d *DeliveryForm) SelectPayment(method state.PaymentMethod) {
	d.setPayment(method)
	d.Input(events.FieldPayment, string(method))
}

func (d *DeliveryForm) setPayment(method state.PaymentMethod) {
	d.payment = method
	d.view.SetPaymentActive(method)
}

// Submit publishes events.OrderContacts with the held values.
func (d *DeliveryForm) Submit() error {
	if err := d.submit(); err != nil {
		return err
	}

	d.bus.Publish(events.OrderContacts, DeliverySubmitted{
		Payment: d.payment,
		Address: d.Address(),
	})
	return nil
}

// Reset clears the address and selects the online payment again.
func (d *DeliveryForm) Reset() {
	d.reset(map[events.Field]string{events.FieldAddress: ""})
	d.setPayment(state.PaymentOnline)
}
