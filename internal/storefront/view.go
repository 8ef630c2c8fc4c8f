package storefront

import (
	"web-larek/internal/form"
	"web-larek/internal/state"
)

// View renders one session. Every method is called from inside a turn.
type View interface {
	RenderCatalog(items []state.Product)
	RenderCounter(count int)
	RenderProduct(p state.Product, buy BuyButton)
	RenderBasket(b BasketView)
	RenderDeliveryForm()
	RenderContactForm()
	RenderSuccess(total int64)
	CloseModal()
	SetLocked(locked bool)
	ShowError(text string)
	SendReceipt(path string)

	DeliveryControls() form.PaymentControls
	ContactControls() form.Controls
}

// Content is what the modal currently shows.
type Content int

const (
	ContentNone Content = iota
	ContentProduct
	ContentBasket
	ContentDelivery
	ContentContacts
	ContentSuccess
)

func (c Content) String() string {
	switch c {
	case ContentProduct:
		return "product"
	case ContentBasket:
		return "basket"
	case ContentDelivery:
		return "delivery"
	case ContentContacts:
		return "contacts"
	case ContentSuccess:
		return "success"
	default:
		return "none"
	}
}

const (
	buyLabel        = "В корзину"
	cannotBuyLabel  = "Нельзя купить"
	inBasketLabel   = "Уже в корзине"
	emptyBasketText = "Корзина пуста"
)

type BuyButton struct {
	Label   string
	Enabled bool
}

func buyButton(p state.Product, inBasket bool) BuyButton {
	switch {
	case !p.Price.Purchasable():
		return BuyButton{Label: cannotBuyLabel}
	case inBasket:
		return BuyButton{Label: inBasketLabel}
	default:
		return BuyButton{Label: buyLabel, Enabled: true}
	}
}

type BasketLine struct {
	Index int
	ID    string
	Title string
	Price state.Price
}

type BasketView struct {
	Lines []BasketLine
	Total state.Price
	// Empty is the placeholder text of an empty basket.
	Empty    string
	CanOrder bool
}

func newBasketView(b *state.BasketState) BasketView {
	v := BasketView{
		Lines:    make([]BasketLine, 0, len(b.Items)),
		Total:    state.Price(b.Total),
		CanOrder: len(b.Items) > 0,
	}
	for i, item := range b.Items {
		v.Lines = append(v.Lines, BasketLine{
			Index: i + 1,
			ID:    item.ID,
			Title: item.Title,
			Price: item.Price,
		})
	}
	if !v.CanOrder {
		v.Empty = emptyBasketText
	}
	return v
}
