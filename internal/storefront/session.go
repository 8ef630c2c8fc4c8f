// Package storefront wires the application state, the checkout forms and a
// renderer into one shopping session.
//
// A Session is the context object of a single chat: it owns one event bus and
// one AppState and is never shared between chats. All work on a session runs
// inside Turn, one turn at a time.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"web-larek/internal/events"
	"web-larek/internal/form"
	"web-larek/internal/state"
	"web-larek/internal/storage/receipts"
	"web-larek/pkg/api"
)

var (
	ErrSubmitPending = errors.New("order submission is pending")
	ErrUnknownItem   = errors.New("unknown product")
	ErrEmptyBasket   = errors.New("basket is empty")
)

const (
	catalogErrorText   = "Не удалось загрузить каталог"
	orderFailedText    = "Не удалось оформить заказ, попробуйте ещё раз"
	rateLimitedText    = "Слишком много заказов, попробуйте позже"
	defaultSendTimeout = 30 * time.Second
)

type CatalogSource interface {
	GetProductList(ctx context.Context) ([]api.Product, error)
}

// CatalogRefresher is a catalog source holding a cached copy.
type CatalogRefresher interface {
	Invalidate(ctx context.Context) error
}

type ItemSource interface {
	GetProductItem(ctx context.Context, id string) (api.Product, error)
}

type OrderAPI interface {
	SendOrder(ctx context.Context, req api.OrderRequest) (api.OrderResponse, error)
}

type OrderLimiter interface {
	Allow(ctx context.Context, chatID int64) (bool, error)
}

type ReceiptExporter interface {
	Export(r receipts.Receipt) (string, error)
}

type Options struct {
	ChatID  int64
	Catalog CatalogSource
	Orders  OrderAPI

	// Optional collaborators.
	Items    ItemSource
	Limiter  OrderLimiter
	Receipts ReceiptExporter

	RequestTimeout time.Duration
	DebugEvents    bool
	Logger         *zap.Logger
	Now            func() time.Time
}

type Session struct {
	chatID int64
	opts   Options
	logger *zap.Logger

	mu sync.Mutex
	// ctx is the context of the running turn, nil outside Turn.
	ctx context.Context

	bus      *events.Bus
	state    *state.AppState
	delivery *form.DeliveryForm
	contacts *form.ContactForm
	modal    *Modal
	view     View

	preview     *state.Product
	checkoutKey string
	pending     bool
}

func NewSession(view View, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultSendTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	bus := events.NewBus()
	s := &Session{
		chatID: opts.ChatID,
		opts:   opts,
		logger: opts.Logger.With(zap.Int64("chat_id", opts.ChatID)),
		bus:    bus,
		state:  state.New(bus),
		modal:  newModal(bus),
		view:   view,
	}

	if opts.DebugEvents {
		bus.SubscribeAll(s.logEvent)
	}

	s.delivery = form.NewDeliveryForm(bus, view.DeliveryControls())
	s.contacts = form.NewContactForm(bus, view.ContactControls())
	s.registerHandlers()

	return s
}

// Turn runs fn with exclusive access to the session. Every method below
// except Turn itself must be called from inside fn.
func (s *Session) Turn(ctx context.Context, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx = ctx
	defer func() { s.ctx = nil }()

	fn()
}

func (s *Session) ChatID() int64 { return s.chatID }

func (s *Session) Bus() *events.Bus { return s.bus }

func (s *Session) State() *state.AppState { return s.state }

func (s *Session) Delivery() *form.DeliveryForm { return s.delivery }

func (s *Session) Contacts() *form.ContactForm { return s.contacts }

func (s *Session) Modal() *Modal { return s.modal }

func (s *Session) Pending() bool { return s.pending }

func (s *Session) turnContext() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// LoadCatalog fetches the catalog and replaces the session's copy.
func (s *Session) LoadCatalog() error {
	const operation = "storefront.LoadCatalog"

	products, err := s.opts.Catalog.GetProductList(s.turnContext())
	if err != nil {
		s.logger.Error("Failed to load catalog", zap.Error(err))
		s.view.ShowError(catalogErrorText)
		return fmt.Errorf("%s: %w", operation, err)
	}

	records := make([]state.ProductData, 0, len(products))
	for _, p := range products {
		records = append(records, productData(p))
	}
	s.state.SetCatalog(records)
	return nil
}

// RefreshCatalog drops the cached catalog, when the source keeps one, and
// loads it again.
func (s *Session) RefreshCatalog() error {
	if refresher, ok := s.opts.Catalog.(CatalogRefresher); ok {
		if err := refresher.Invalidate(s.turnContext()); err != nil {
			s.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
		}
	}
	return s.LoadCatalog()
}

// SelectProduct opens the preview of a product. Ids missing from the
// session's catalog are looked up through the item source when one is set.
func (s *Session) SelectProduct(id string) error {
	p, ok := s.state.Product(id)
	if !ok {
		if s.opts.Items == nil {
			return fmt.Errorf("select %q: %w", id, ErrUnknownItem)
		}
		item, err := s.opts.Items.GetProductItem(s.turnContext(), id)
		if err != nil {
			s.logger.Warn("Failed to fetch product", zap.String("product_id", id), zap.Error(err))
			return fmt.Errorf("select %q: %w", id, ErrUnknownItem)
		}
		p = state.NewProduct(productData(item))
	}

	s.bus.Publish(events.CardSelect, p)
	return nil
}

// Buy adds the previewed product to the basket.
func (s *Session) Buy() {
	if s.preview == nil || s.modal.Content() != ContentProduct {
		return
	}
	if !buyButton(*s.preview, s.state.InBasket(*s.preview)).Enabled {
		return
	}
	s.bus.Publish(events.BasketAdd, *s.preview)
}

func (s *Session) OpenBasket() {
	s.bus.Publish(events.BasketOpen, nil)
}

func (s *Session) RemoveFromBasket(id string) {
	for _, item := range s.state.Basket().Items {
		if item.ID == id {
			s.bus.Publish(events.BasketRemove, item)
			return
		}
	}
}

// StartCheckout opens the delivery step.
func (s *Session) StartCheckout() error {
	if s.state.BasketCount() == 0 {
		return ErrEmptyBasket
	}
	s.bus.Publish(events.OrderInfo, nil)
	return nil
}

// SubmitDelivery submits the delivery step.
func (s *Session) SubmitDelivery() error {
	return s.delivery.Submit()
}

// SubmitOrder submits the contact step, which places the order.
func (s *Session) SubmitOrder() error {
	if s.pending {
		return ErrSubmitPending
	}
	return s.contacts.Submit()
}

// CloseModal closes whatever the modal shows. Closing the success view
// starts a new purchase cycle.
func (s *Session) CloseModal() {
	if s.modal.Content() == ContentSuccess {
		s.bus.Publish(events.OrderPrepare, nil)
		return
	}
	s.modal.Close()
}

func (s *Session) logEvent(name events.Name, payload any) {
	s.logger.Debug("Event published",
		zap.String("event", string(name)),
		zap.Int("handlers", s.bus.HandlerCount(name)),
		zap.Any("payload", payload))
}

func productData(p api.Product) state.ProductData {
	price := state.Priceless
	if p.Price != nil {
		price = state.Price(*p.Price)
	}
	return state.ProductData{
		ID:          p.ID,
		Category:    p.Category,
		Title:       p.Title,
		Image:       p.Image,
		Price:       price,
		Description: p.Description,
	}
}

func newCheckoutKey() string {
	return uuid.NewString()
}
