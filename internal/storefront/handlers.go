package storefront

import (
	"go.uber.org/zap"

	"web-larek/internal/events"
	"web-larek/internal/form"
	"web-larek/internal/state"
)

func (s *Session) registerHandlers() {
	b := s.bus

	b.On(events.CatalogUpdate, s.onCatalogUpdate)
	b.On(events.CardSelect, s.onCardSelect)
	b.On(events.BasketOpen, s.onBasketOpen)
	b.On(events.BasketAdd, s.onBasketAdd)
	b.On(events.BasketRemove, s.onBasketRemove)
	b.On(events.BasketUpdate, s.onBasketUpdate)

	b.On(events.OrderInfo, s.onOrderInfo)
	b.On(events.OrderContacts, s.onOrderContacts)
	b.Subscribe(events.FieldChanges(events.FormOrder, events.FormContacts), s.onFieldChange)
	b.On(events.AddressChange, func(any) { s.state.ValidateAddress() })
	b.On(events.EmailChange, func(any) { s.state.ValidateContacts() })
	b.On(events.PhoneChange, func(any) { s.state.ValidateContacts() })

	b.On(events.OrderSend, s.onOrderSend)
	// The receipt is written before the draft is cleared.
	b.On(events.OrderComplete, s.onOrderReceipt)
	b.On(events.OrderComplete, s.onOrderComplete)
	b.On(events.OrderFailed, s.onOrderFailed)
	b.On(events.OrderPrepare, func(any) { s.modal.Close() })

	b.On(events.ModalOpen, func(any) { s.view.SetLocked(true) })
	b.On(events.ModalClose, func(any) {
		s.preview = nil
		s.view.CloseModal()
		s.view.SetLocked(false)
	})
}

func (s *Session) onCatalogUpdate(payload any) {
	changed, ok := payload.(state.CatalogChanged)
	if !ok {
		return
	}
	s.view.RenderCatalog(changed.Catalog)
}

func (s *Session) onCardSelect(payload any) {
	p, ok := payload.(state.Product)
	if !ok {
		return
	}

	s.modal.Open(ContentProduct)
	s.preview = &p
	s.view.RenderProduct(p, buyButton(p, s.state.InBasket(p)))
}

func (s *Session) onBasketOpen(any) {
	s.modal.Open(ContentBasket)
	s.view.RenderBasket(newBasketView(s.state.Basket()))
}

func (s *Session) onBasketAdd(payload any) {
	p, ok := payload.(state.Product)
	if !ok {
		return
	}

	if err := s.state.AddToBasket(p); err != nil {
		s.logger.Warn("Product not added to basket",
			zap.String("product_id", p.ID),
			zap.Error(err))
	}
	s.modal.Close()
}

func (s *Session) onBasketRemove(payload any) {
	p, ok := payload.(state.Product)
	if !ok {
		return
	}
	s.state.RemoveFromBasket(p)
}

func (s *Session) onBasketUpdate(payload any) {
	s.view.RenderCounter(s.state.BasketCount())

	if s.modal.Content() == ContentBasket {
		s.view.RenderBasket(newBasketView(s.state.Basket()))
	}
}

func (s *Session) onOrderInfo(any) {
	if s.checkoutKey == "" {
		s.checkoutKey = newCheckoutKey()
	}

	s.modal.Open(ContentDelivery)
	s.state.SetPayment(s.delivery.Payment())
	s.delivery.Show(s.state.ValidateAddress())
	s.view.RenderDeliveryForm()
}

func (s *Session) onOrderContacts(payload any) {
	submitted, ok := payload.(form.DeliverySubmitted)
	if !ok {
		return
	}

	s.state.SetOrderDraft(state.OrderPatch{
		Payment: &submitted.Payment,
		Address: &submitted.Address,
	})

	s.modal.Open(ContentContacts)
	s.contacts.Show(s.state.ValidateContacts())
	s.view.RenderContactForm()
}

func (s *Session) onFieldChange(payload any) {
	change, ok := payload.(events.FieldChange)
	if !ok {
		return
	}

	switch change.Field {
	case events.FieldAddress:
		s.state.SetAddress(change.Value)
	case events.FieldPayment:
		method, ok := state.ParsePaymentMethod(change.Value)
		if !ok {
			s.logger.Warn("Unknown payment method", zap.String("value", change.Value))
			return
		}
		s.state.SetPayment(method)
	case events.FieldEmail:
		s.state.SetEmail(change.Value)
	case events.FieldPhone:
		s.state.SetPhone(change.Value)
	}
}
