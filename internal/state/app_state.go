// Package state holds the storefront application state: catalog, basket,
// order draft and the latest validation result of each checkout form.
package state

import (
	"errors"

	"web-larek/internal/events"
	"web-larek/internal/validation"
)

var ErrNotPurchasable = errors.New("product is not purchasable")

type PaymentMethod string

const (
	PaymentOnline      PaymentMethod = "online"
	PaymentUponReceipt PaymentMethod = "upon-receipt"
)

// ParsePaymentMethod accepts both the API values and the button names of the
// delivery form ("card", "cash").
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch s {
	case string(PaymentOnline), "card":
		return PaymentOnline, true
	case string(PaymentUponReceipt), "cash":
		return PaymentUponReceipt, true
	}
	return "", false
}

type BasketState struct {
	Items []Product
	Total int64
}

type DeliveryInfo struct {
	Payment PaymentMethod
	Address string
}

type ContactInfo struct {
	Email string
	Phone string
}

type OrderDraft struct {
	Delivery DeliveryInfo
	Contacts ContactInfo
}

// OrderPatch is a partial draft update. Nil fields are left untouched.
type OrderPatch struct {
	Payment *PaymentMethod
	Address *string
	Email   *string
	Phone   *string
}

// CatalogChanged is the payload of events.CatalogUpdate.
type CatalogChanged struct {
	Catalog []Product
}

// BasketChanged is the payload of events.BasketUpdate.
type BasketChanged struct {
	Basket *BasketState
}

func defaultOrder() OrderDraft {
	return OrderDraft{
		Delivery: DeliveryInfo{Payment: PaymentOnline},
	}
}

type AppState struct {
	Model

	catalog    []Product
	basket     BasketState
	order      OrderDraft
	formErrors map[events.Namespace]validation.Errors
}

func New(bus *events.Bus) *AppState {
	return &AppState{
		Model:      NewModel(bus),
		order:      defaultOrder(),
		formErrors: make(map[events.Namespace]validation.Errors),
	}
}

func (s *AppState) Catalog() []Product {
	return s.catalog
}

// Product looks up a catalog item by id.
func (s *AppState) Product(id string) (Product, bool) {
	for _, p := range s.catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (s *AppState) SetCatalog(records []ProductData) {
	catalog := make([]Product, 0, len(records))
	for _, r := range records {
		catalog = append(catalog, NewProduct(r))
	}
	s.catalog = catalog
	s.EmitChanges(events.CatalogUpdate, CatalogChanged{Catalog: s.catalog})
}

func (s *AppState) Basket() *BasketState {
	return &s.basket
}

func (s *AppState) AddToBasket(p Product) error {
	if !p.Price.Purchasable() {
		return ErrNotPurchasable
	}

	s.basket.Items = append(s.basket.Items, p)
	s.basket.Total += int64(p.Price)
	s.emitBasket()
	return nil
}

// RemoveFromBasket drops every item with p's id and subtracts their prices.
func (s *AppState) RemoveFromBasket(p Product) {
	kept := s.basket.Items[:0:0]
	for _, item := range s.basket.Items {
		if item.ID == p.ID {
			s.basket.Total -= int64(item.Price)
			continue
		}
		kept = append(kept, item)
	}
	s.basket.Items = kept
	s.emitBasket()
}

func (s *AppState) ClearBasket() {
	s.basket.Items = nil
	s.basket.Total = 0
	s.emitBasket()
}

func (s *AppState) emitBasket() {
	s.EmitChanges(events.BasketUpdate, BasketChanged{Basket: &s.basket})
}

func (s *AppState) InBasket(p Product) bool {
	return s.Quantity(p.ID) > 0
}

// Quantity returns how many copies of the product the basket holds.
func (s *AppState) Quantity(id string) int {
	n := 0
	for _, item := range s.basket.Items {
		if item.ID == id {
			n++
		}
	}
	return n
}

func (s *AppState) BasketCount() int {
	return len(s.basket.Items)
}

func (s *AppState) BasketTotal() int64 {
	return s.basket.Total
}

// ItemIDs lists basket product ids in display order.
func (s *AppState) ItemIDs() []string {
	ids := make([]string, 0, len(s.basket.Items))
	for _, item := range s.basket.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (s *AppState) Order() OrderDraft {
	return s.order
}

// SetOrderDraft merges patch into the draft field by field. It emits nothing.
func (s *AppState) SetOrderDraft(patch OrderPatch) {
	if patch.Payment != nil {
		s.SetPayment(*patch.Payment)
	}
	if patch.Address != nil {
		s.SetAddress(*patch.Address)
	}
	if patch.Email != nil {
		s.SetEmail(*patch.Email)
	}
	if patch.Phone != nil {
		s.SetPhone(*patch.Phone)
	}
}

func (s *AppState) SetPayment(method PaymentMethod) { s.order.Delivery.Payment = method }

func (s *AppState) SetAddress(address string) { s.order.Delivery.Address = address }

func (s *AppState) SetEmail(email string) { s.order.Contacts.Email = email }

func (s *AppState) SetPhone(phone string) { s.order.Contacts.Phone = phone }

// ClearOrderDraft resets the draft to its defaults and empties the basket.
func (s *AppState) ClearOrderDraft() {
	s.order = defaultOrder()
	s.formErrors = make(map[events.Namespace]validation.Errors)
	s.ClearBasket()
}

// FormErrors returns the latest error map of a form.
func (s *AppState) FormErrors(form events.Namespace) validation.Errors {
	return s.formErrors[form]
}

// ValidateAddress runs the delivery pass, stores and publishes its result.
func (s *AppState) ValidateAddress() bool {
	return s.publishErrors(events.FormOrder, validation.Address(s.order.Delivery.Address))
}

// ValidateContacts runs the contact pass, stores and publishes its result.
func (s *AppState) ValidateContacts() bool {
	return s.publishErrors(events.FormContacts, validation.Contacts(s.order.Contacts.Email, s.order.Contacts.Phone))
}

func (s *AppState) publishErrors(form events.Namespace, errs validation.Errors) bool {
	s.formErrors[form] = errs
	s.EmitChanges(events.FormErrors, validation.Result{Form: form, Errors: errs})
	return errs.Valid()
}
