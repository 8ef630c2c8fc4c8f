package bot

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"web-larek/internal/events"
	"web-larek/internal/form"
	"web-larek/internal/state"
	"web-larek/internal/storefront"
)

// Sender is the part of tgbotapi.BotAPI the renderer uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// formControls keeps the rendered state of one checkout form. The form
// message is edited after the turn when something changed.
type formControls struct {
	values  map[events.Field]string
	valid   bool
	errors  string
	payment state.PaymentMethod
	dirty   bool
}

func newFormControls() *formControls {
	return &formControls{values: make(map[events.Field]string)}
}

func (f *formControls) SetValue(field events.Field, value string) {
	f.values[field] = value
	f.dirty = true
}

func (f *formControls) SetValid(valid bool) {
	f.valid = valid
	f.dirty = true
}

func (f *formControls) SetErrors(text string) {
	f.errors = text
	f.dirty = true
}

func (f *formControls) SetPaymentActive(method state.PaymentMethod) {
	f.payment = method
	f.dirty = true
}

// chatView renders a storefront session into one Telegram chat. The catalog
// is a persistent message; the modal is a single message that is deleted on
// close.
type chatView struct {
	chatID int64
	sender Sender
	logger *zap.Logger

	catalog      []state.Product
	catalogMsgID int
	counter      int

	modalMsgID int
	form       storefront.Content
	locked     bool

	delivery *formControls
	contacts *formControls
}

func newChatView(chatID int64, sender Sender, logger *zap.Logger) *chatView {
	return &chatView{
		chatID:   chatID,
		sender:   sender,
		logger:   logger,
		delivery: newFormControls(),
		contacts: newFormControls(),
	}
}

func (v *chatView) DeliveryControls() form.PaymentControls { return v.delivery }

func (v *chatView) ContactControls() form.Controls { return v.contacts }

func (v *chatView) RenderCatalog(items []state.Product) {
	v.catalog = items

	msg := tgbotapi.NewMessage(v.chatID, catalogText(items))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = catalogKeyboard(items, v.counter)

	if sent, ok := v.send(msg); ok {
		v.catalogMsgID = sent.MessageID
	}
}

func (v *chatView) RenderCounter(count int) {
	if count == v.counter {
		return
	}
	v.counter = count
	if v.catalogMsgID == 0 {
		return
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(v.chatID, v.catalogMsgID, catalogKeyboard(v.catalog, count))
	v.request(edit)
}

func (v *chatView) RenderProduct(p state.Product, buy storefront.BuyButton) {
	text := fmt.Sprintf("<i>%s</i>\n<b>%s</b>\n\n%s\n\n%s",
		html.EscapeString(p.Category.Label()),
		html.EscapeString(p.Title),
		html.EscapeString(p.Description),
		p.Price)
	if p.Image != "" {
		text += fmt.Sprintf("\n<a href=\"%s\">&#8203;</a>", html.EscapeString(p.Image))
	}

	v.openModal(text, productKeyboard(buy))
}

func (v *chatView) RenderBasket(b storefront.BasketView) {
	var sb strings.Builder
	sb.WriteString("<b>Корзина</b>\n\n")
	if len(b.Lines) == 0 {
		sb.WriteString(b.Empty)
		sb.WriteString("\n")
	}
	for _, line := range b.Lines {
		fmt.Fprintf(&sb, "%d. %s — %s\n", line.Index, html.EscapeString(line.Title), line.Price)
	}
	fmt.Fprintf(&sb, "\nИтого: %s", b.Total)

	if v.form == storefront.ContentBasket && v.modalMsgID != 0 {
		v.editModal(sb.String(), basketKeyboard(b))
		return
	}
	v.form = storefront.ContentBasket
	v.openModal(sb.String(), basketKeyboard(b))
}

func (v *chatView) RenderDeliveryForm() {
	v.form = storefront.ContentDelivery
	v.delivery.dirty = false
	v.openModal(deliveryText(v.delivery), deliveryKeyboard(v.delivery))
}

func (v *chatView) RenderContactForm() {
	prompt := tgbotapi.NewMessage(v.chatID, "Отправьте e-mail и телефон сообщениями или поделитесь контактом")
	prompt.ReplyMarkup = contactRequestKeyboard()
	v.send(prompt)

	v.form = storefront.ContentContacts
	v.contacts.dirty = false
	v.openModal(contactText(v.contacts), contactKeyboard(v.contacts))
}

func (v *chatView) RenderSuccess(total int64) {
	text := fmt.Sprintf("✅ <b>Заказ оформлен</b>\n\nСписано %d синапсов", total)
	v.openModal(text, successKeyboard())
}

func (v *chatView) CloseModal() {
	if v.modalMsgID != 0 {
		v.request(tgbotapi.NewDeleteMessage(v.chatID, v.modalMsgID))
	}
	v.modalMsgID = 0
	v.form = storefront.ContentNone
}

func (v *chatView) SetLocked(locked bool) {
	v.locked = locked
}

func (v *chatView) ShowError(text string) {
	v.send(tgbotapi.NewMessage(v.chatID, "❌ "+text))
}

func (v *chatView) SendReceipt(path string) {
	doc := tgbotapi.NewDocument(v.chatID, tgbotapi.FilePath(path))
	doc.Caption = "Чек по заказу"
	v.send(doc)
}

// flush edits the open form message if its controls changed during the turn.
func (v *chatView) flush() {
	if v.modalMsgID == 0 {
		return
	}

	switch v.form {
	case storefront.ContentDelivery:
		if v.delivery.dirty {
			v.delivery.dirty = false
			v.editModal(deliveryText(v.delivery), deliveryKeyboard(v.delivery))
		}
	case storefront.ContentContacts:
		if v.contacts.dirty {
			v.contacts.dirty = false
			v.editModal(contactText(v.contacts), contactKeyboard(v.contacts))
		}
	}
}

func (v *chatView) openModal(text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(v.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup

	if sent, ok := v.send(msg); ok {
		v.modalMsgID = sent.MessageID
	}
}

func (v *chatView) editModal(text string, markup tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(v.chatID, v.modalMsgID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	v.request(edit)
}

func (v *chatView) send(c tgbotapi.Chattable) (tgbotapi.Message, bool) {
	sent, err := v.sender.Send(c)
	if err != nil {
		v.logger.Error("Failed to send message",
			zap.Int64("chat_id", v.chatID),
			zap.Error(err))
		return tgbotapi.Message{}, false
	}
	return sent, true
}

func (v *chatView) request(c tgbotapi.Chattable) {
	if _, err := v.sender.Request(c); err != nil {
		v.logger.Warn("Telegram request failed",
			zap.Int64("chat_id", v.chatID),
			zap.Error(err))
	}
}

func catalogText(items []state.Product) string {
	if len(items) == 0 {
		return "Каталог пуст"
	}

	var sb strings.Builder
	sb.WriteString("<b>Каталог</b>\n\n")
	for _, p := range items {
		fmt.Fprintf(&sb, "• %s — %s\n", html.EscapeString(p.Title), p.Price)
	}
	return sb.String()
}

func deliveryText(c *formControls) string {
	address := c.values[events.FieldAddress]
	if address == "" {
		address = "—"
	}

	var sb strings.Builder
	sb.WriteString("<b>Способ оплаты</b>\n")
	fmt.Fprintf(&sb, "%s\n\n", paymentLabel(c.payment))
	sb.WriteString("<b>Адрес доставки</b>\n")
	fmt.Fprintf(&sb, "%s\n", html.EscapeString(address))
	sb.WriteString("\nОтправьте адрес сообщением")
	writeErrors(&sb, c.errors)
	return sb.String()
}

func contactText(c *formControls) string {
	email := c.values[events.FieldEmail]
	if email == "" {
		email = "—"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Email</b>\n%s\n\n", html.EscapeString(email))
	fmt.Fprintf(&sb, "<b>Телефон</b>\n%s\n", html.EscapeString(c.values[events.FieldPhone]))
	writeErrors(&sb, c.errors)
	return sb.String()
}

func writeErrors(sb *strings.Builder, errText string) {
	if errText == "" {
		return
	}
	fmt.Fprintf(sb, "\n\n⚠️ %s", html.EscapeString(errText))
}

func paymentLabel(method state.PaymentMethod) string {
	switch method {
	case state.PaymentUponReceipt:
		return "При получении"
	default:
		return "Онлайн"
	}
}
