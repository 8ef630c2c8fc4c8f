package bot

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"web-larek/internal/events"
	"web-larek/internal/form"
	"web-larek/internal/state"
	"web-larek/internal/storefront"
)

const (
	helpText        = "Выберите товар в каталоге. /start — каталог, /catalog — обновить каталог, /basket — корзина"
	formInvalidText = "Заполните форму без ошибок"
	emptyBasketText = "Корзина пуста"
	pendingText     = "Заказ уже отправляется"
	unknownItemText = "Товар не найден"
	noFormText      = "Сейчас нечего заполнять. " + helpText
)

func (b *Bot) registerHandlers() {
	b.textHandlers = map[storefront.Content]func(*chat, string){
		storefront.ContentDelivery: b.handleAddressInput,
		storefront.ContentContacts: b.handleContactInput,
	}

	b.callbackHandlers = map[string]func(*chat, string) error{
		cbCard:   func(c *chat, id string) error { return c.session.SelectProduct(id) },
		cbAdd:    func(c *chat, _ string) error { c.session.Buy(); return nil },
		cbRemove: func(c *chat, id string) error { c.session.RemoveFromBasket(id); return nil },
		cbBasket: func(c *chat, _ string) error { c.session.OpenBasket(); return nil },
		cbOrder:  func(c *chat, _ string) error { return c.session.StartCheckout() },
		cbPay:    b.handlePaymentSelection,
		cbNext:   func(c *chat, _ string) error { return c.session.SubmitDelivery() },
		cbSend:   func(c *chat, _ string) error { return c.session.SubmitOrder() },
		cbDone:   func(c *chat, _ string) error { c.session.CloseModal(); return nil },
		cbClose:  func(c *chat, _ string) error { c.session.CloseModal(); return nil },
		cbNoop:   func(*chat, string) error { return nil },
	}
}

func (b *Bot) processMessage(c *chat, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	b.logger.Debug("Processing message",
		zap.Int64("chat_id", chatID),
		zap.String("text", msg.Text))

	if msg.IsCommand() {
		b.handleCommand(c, msg.Command())
		return
	}

	content := c.session.Modal().Content()
	if msg.Contact != nil && content == storefront.ContentContacts {
		b.handlePhoneInput(c, msg.Contact.PhoneNumber)
		return
	}

	if handler, exists := b.textHandlers[content]; exists && c.view.locked {
		handler(c, strings.TrimSpace(msg.Text))
		return
	}
	b.sendMessage(tgbotapi.NewMessage(chatID, noFormText))
}

func (b *Bot) handleCommand(c *chat, command string) {
	switch command {
	case "start":
		c.session.CloseModal()
		b.loadCatalog(c)
	case "catalog":
		c.session.CloseModal()
		b.refreshCatalog(c)
	case "basket":
		c.session.OpenBasket()
	default:
		b.sendMessage(tgbotapi.NewMessage(c.session.ChatID(), helpText))
	}
}

func (b *Bot) processCallback(c *chat, callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	data := callback.Data

	b.logger.Debug("Processing callback",
		zap.Int64("chat_id", chatID),
		zap.String("data", data))

	action, arg, _ := strings.Cut(data, cbSep)

	answer := ""
	if handler, exists := b.callbackHandlers[action]; exists {
		if err := handler(c, arg); err != nil {
			answer = callbackErrorText(err)
			b.logger.Debug("Callback refused",
				zap.Int64("chat_id", chatID),
				zap.String("data", data),
				zap.Error(err))
		}
	} else {
		b.logger.Warn("Unknown callback", zap.Int64("chat_id", chatID), zap.String("data", data))
	}

	if _, err := b.sender.Request(tgbotapi.NewCallback(callback.ID, answer)); err != nil {
		b.logger.Warn("Failed to answer callback",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

func (b *Bot) handlePaymentSelection(c *chat, arg string) error {
	method, ok := state.ParsePaymentMethod(arg)
	if !ok {
		return errors.New("unknown payment method " + arg)
	}
	c.session.Delivery().SelectPayment(method)
	return nil
}

func (b *Bot) handleAddressInput(c *chat, text string) {
	c.session.Delivery().Input(events.FieldAddress, text)
}

// handleContactInput routes free text of the contact step: anything with an
// "@" is an email, the rest is a phone number.
func (b *Bot) handleContactInput(c *chat, text string) {
	if strings.Contains(text, "@") {
		c.session.Contacts().Input(events.FieldEmail, text)
		return
	}
	b.handlePhoneInput(c, text)
}

func (b *Bot) handlePhoneInput(c *chat, raw string) {
	c.session.Contacts().InputPhone(form.PhoneFromText(raw), -1)
}

func callbackErrorText(err error) string {
	switch {
	case errors.Is(err, form.ErrNotValid):
		return formInvalidText
	case errors.Is(err, form.ErrAlreadySubmitted), errors.Is(err, storefront.ErrSubmitPending):
		return pendingText
	case errors.Is(err, storefront.ErrEmptyBasket):
		return emptyBasketText
	case errors.Is(err, storefront.ErrUnknownItem):
		return unknownItemText
	default:
		return "Ошибка при обработке запроса"
	}
}
