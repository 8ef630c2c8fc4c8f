package storefront

import (
	"context"

	"go.uber.org/zap"

	"web-larek/internal/events"
	"web-larek/internal/form"
	"web-larek/internal/state"
	"web-larek/internal/storage/receipts"
	"web-larek/pkg/api"
)

// OrderResult is the payload of events.OrderComplete.
type OrderResult struct {
	ID    string
	Total int64
}

// OrderFailure is the payload of events.OrderFailed.
type OrderFailure struct {
	Err     error
	Message string
}

func (s *Session) onOrderSend(payload any) {
	submitted, ok := payload.(form.ContactsSubmitted)
	if !ok {
		return
	}
	if s.pending {
		return
	}

	s.pending = true
	defer func() { s.pending = false }()

	ctx := s.turnContext()
	if !s.allowOrder(ctx) {
		s.bus.Publish(events.OrderFailed, OrderFailure{Message: rateLimitedText})
		return
	}

	s.state.SetOrderDraft(state.OrderPatch{
		Email: &submitted.Email,
		Phone: &submitted.Phone,
	})
	order := s.state.Order()

	req := api.OrderRequest{
		Payment:        string(order.Delivery.Payment),
		Email:          order.Contacts.Email,
		Phone:          order.Contacts.Phone,
		Address:        order.Delivery.Address,
		Total:          s.state.BasketTotal(),
		Items:          s.state.ItemIDs(),
		IdempotencyKey: s.checkoutKey,
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	resp, err := s.opts.Orders.SendOrder(sendCtx, req)
	if err != nil {
		s.logger.Error("Failed to send order",
			zap.Int64("total", req.Total),
			zap.Int("items", len(req.Items)),
			zap.Error(err))
		s.bus.Publish(events.OrderFailed, OrderFailure{Err: err, Message: orderFailedText})
		return
	}

	s.logger.Info("Order completed",
		zap.String("order_id", resp.ID),
		zap.Int64("total", resp.Total))

	s.bus.Publish(events.OrderComplete, OrderResult{ID: resp.ID, Total: resp.Total})
	s.modal.Open(ContentSuccess)
	s.view.RenderSuccess(resp.Total)
}

// allowOrder consults the rate limiter. Limiter failures let the order
// through.
func (s *Session) allowOrder(ctx context.Context) bool {
	if s.opts.Limiter == nil {
		return true
	}

	ok, err := s.opts.Limiter.Allow(ctx, s.chatID)
	if err != nil {
		s.logger.Warn("Order rate limiter unavailable", zap.Error(err))
		return true
	}
	if !ok {
		s.logger.Warn("Order rate limit exceeded")
	}
	return ok
}

func (s *Session) onOrderReceipt(payload any) {
	result, ok := payload.(OrderResult)
	if !ok || s.opts.Receipts == nil {
		return
	}

	order := s.state.Order()
	r := receipts.Receipt{
		OrderID:   result.ID,
		ChatID:    s.chatID,
		CreatedAt: s.opts.Now(),
		Payment:   string(order.Delivery.Payment),
		Address:   order.Delivery.Address,
		Email:     order.Contacts.Email,
		Phone:     order.Contacts.Phone,
		Total:     result.Total,
	}
	for _, item := range s.state.Basket().Items {
		r.Lines = append(r.Lines, receipts.Line{Title: item.Title, Price: int64(item.Price)})
	}

	path, err := s.opts.Receipts.Export(r)
	if err != nil {
		s.logger.Error("Failed to export receipt",
			zap.String("order_id", result.ID),
			zap.Error(err))
		return
	}
	s.view.SendReceipt(path)
}

func (s *Session) onOrderComplete(any) {
	s.state.ClearOrderDraft()
	s.delivery.Reset()
	s.contacts.Reset()
	s.checkoutKey = ""
}

func (s *Session) onOrderFailed(payload any) {
	failure, ok := payload.(OrderFailure)
	if !ok {
		return
	}
	s.contacts.Fail(failure.Message)
}
