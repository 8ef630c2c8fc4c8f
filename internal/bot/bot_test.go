package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"web-larek/internal/storefront"
	"web-larek/pkg/api"
)

type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) messages() []string {
	var texts []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func (f *fakeSender) sentContaining(s string) bool {
	for _, text := range f.messages() {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

func (f *fakeSender) editContaining(s string) bool {
	for _, c := range f.requests {
		if edit, ok := c.(tgbotapi.EditMessageTextConfig); ok && strings.Contains(edit.Text, s) {
			return true
		}
	}
	return false
}

func (f *fakeSender) lastAnswer() (tgbotapi.CallbackConfig, bool) {
	for i := len(f.requests) - 1; i >= 0; i-- {
		if cb, ok := f.requests[i].(tgbotapi.CallbackConfig); ok {
			return cb, true
		}
	}
	return tgbotapi.CallbackConfig{}, false
}

type fakeCatalog struct{}

func (fakeCatalog) GetProductList(context.Context) ([]api.Product, error) {
	price := int64(750)
	return []api.Product{
		{ID: "hour", Category: "софт-скил", Title: "+1 час в сутках", Price: &price},
		{ID: "timer", Category: "другое", Title: "Мамка-таймер"},
	}, nil
}

type fakeOrders struct {
	requests []api.OrderRequest
	sent     chan struct{}
}

func (f *fakeOrders) SendOrder(_ context.Context, req api.OrderRequest) (api.OrderResponse, error) {
	f.requests = append(f.requests, req)
	if f.sent != nil {
		f.sent <- struct{}{}
	}
	return api.OrderResponse{ID: "order-1", Total: req.Total}, nil
}

const testChatID = 100

func newTestBot() (*Bot, *fakeSender, *fakeOrders) {
	sender := &fakeSender{}
	orders := &fakeOrders{}
	factory := func(chatID int64, view storefront.View) *storefront.Session {
		return storefront.NewSession(view, storefront.Options{
			ChatID:  chatID,
			Catalog: fakeCatalog{},
			Orders:  orders,
		})
	}
	return newBot(sender, factory, zap.NewNop()), sender, orders
}

func textUpdate(text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return tgbotapi.Update{Message: msg}
}

func contactUpdate(phone string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Contact:   &tgbotapi.Contact{PhoneNumber: phone},
	}}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-" + data,
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 1,
			Chat:      &tgbotapi.Chat{ID: testChatID},
		},
	}}
}

func TestBot_StartShowsCatalog(t *testing.T) {
	b, sender, _ := newTestBot()

	b.handleUpdate(context.Background(), textUpdate("/start"))

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T", sender.sent[0])
	}
	if !strings.Contains(msg.Text, "+1 час в сутках — 750 синапсов") || !strings.Contains(msg.Text, "Мамка-таймер — Бесценно") {
		t.Errorf("catalog text = %q", msg.Text)
	}

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("reply markup %T", msg.ReplyMarkup)
	}
	first := markup.InlineKeyboard[0][0]
	if first.CallbackData == nil || *first.CallbackData != "card:hour" {
		t.Errorf("first button = %+v", first)
	}
}

func TestBot_CheckoutFlow(t *testing.T) {
	b, sender, orders := newTestBot()
	ctx := context.Background()

	steps := []tgbotapi.Update{
		textUpdate("/start"),
		callbackUpdate("card:hour"),
		callbackUpdate("add"),
		callbackUpdate("basket"),
		callbackUpdate("order"),
		callbackUpdate("pay:upon-receipt"),
		textUpdate("ул Ленина 15"),
		callbackUpdate("next"),
		textUpdate("a@b.com"),
		contactUpdate("89161234567"),
		callbackUpdate("send"),
	}
	for _, u := range steps {
		b.handleUpdate(ctx, u)
	}

	if len(orders.requests) != 1 {
		t.Fatalf("sent %d orders", len(orders.requests))
	}
	req := orders.requests[0]
	if req.Payment != "upon-receipt" || req.Address != "ул Ленина 15" || req.Email != "a@b.com" ||
		req.Phone != "+7 (916) 123-45-67" || req.Total != 750 {
		t.Errorf("order = %+v", req)
	}

	if !sender.sentContaining("Списано 750 синапсов") {
		t.Errorf("success message not sent, messages: %q", sender.messages())
	}
	if !sender.editContaining("ул Ленина 15") {
		t.Error("delivery form was not updated with the address")
	}

	b.handleUpdate(ctx, callbackUpdate("done"))

	c, _ := b.chatFor(testChatID)
	if c.session.Modal().IsOpen() || c.session.State().BasketCount() != 0 {
		t.Error("session not ready for new purchases")
	}
}

func TestBot_InvalidFormCallbackAnswered(t *testing.T) {
	b, sender, _ := newTestBot()
	ctx := context.Background()

	for _, u := range []tgbotapi.Update{
		callbackUpdate("card:hour"),
		callbackUpdate("add"),
		callbackUpdate("order"),
		textUpdate("Ленина"),
		callbackUpdate("next"),
	} {
		b.handleUpdate(ctx, u)
	}

	answer, ok := sender.lastAnswer()
	if !ok || answer.Text != formInvalidText {
		t.Errorf("answer = %+v", answer)
	}
	if !sender.editContaining("Некорректный формат адреса") {
		t.Error("address error not shown")
	}
}

func TestBot_EmptyBasketCheckout(t *testing.T) {
	b, sender, _ := newTestBot()

	b.handleUpdate(context.Background(), callbackUpdate("order"))

	answer, ok := sender.lastAnswer()
	if !ok || answer.Text != emptyBasketText {
		t.Errorf("answer = %+v", answer)
	}
}

func TestBot_TextOutsideForm(t *testing.T) {
	b, sender, _ := newTestBot()

	b.handleUpdate(context.Background(), textUpdate("привет"))

	if !sender.sentContaining(noFormText) {
		t.Errorf("messages = %q", sender.messages())
	}
}

func TestBot_PricelessProductButton(t *testing.T) {
	b, sender, _ := newTestBot()

	b.handleUpdate(context.Background(), callbackUpdate("card:timer"))

	last, ok := sender.sent[len(sender.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("last sent %T", sender.sent[len(sender.sent)-1])
	}
	markup := last.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	button := markup.InlineKeyboard[0][0]
	if button.Text != "🚫 Нельзя купить" || *button.CallbackData != cbNoop {
		t.Errorf("button = %q / %q", button.Text, *button.CallbackData)
	}
}

func TestBot_PhoneTextWithoutCountryCode(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"4951234567", "+7 (495) 123-45-67"},
		{"8 916 123-45-67", "+7 (916) 123-45-67"},
		{"999", "+7 (999) "},
	}

	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			b, _, _ := newTestBot()
			ctx := context.Background()

			for _, u := range []tgbotapi.Update{
				callbackUpdate("card:hour"),
				callbackUpdate("add"),
				callbackUpdate("order"),
				textUpdate("ул Ленина 15"),
				callbackUpdate("next"),
				textUpdate(test.text),
			} {
				b.handleUpdate(ctx, u)
			}

			c, _ := b.chatFor(testChatID)
			if got := c.session.Contacts().Phone(); got != test.want {
				t.Errorf("phone = %q, want %q", got, test.want)
			}
		})
	}
}

func TestBot_DispatchKeepsChatOrder(t *testing.T) {
	sender := &fakeSender{}
	orders := &fakeOrders{sent: make(chan struct{}, 1)}
	factory := func(chatID int64, view storefront.View) *storefront.Session {
		return storefront.NewSession(view, storefront.Options{
			ChatID:  chatID,
			Catalog: fakeCatalog{},
			Orders:  orders,
		})
	}
	b := newBot(sender, factory, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	// Every update depends on the one before it; out of order the send
	// callback finds an invalid form.
	for _, u := range []tgbotapi.Update{
		callbackUpdate("card:hour"),
		callbackUpdate("add"),
		callbackUpdate("order"),
		textUpdate("ул Ленина 15"),
		callbackUpdate("next"),
		textUpdate("a@b.com"),
		textUpdate("9161234567"),
		callbackUpdate("send"),
	} {
		b.dispatch(ctx, u)
	}

	select {
	case <-orders.sent:
	case <-time.After(5 * time.Second):
		cancel()
		b.wg.Wait()
		t.Fatal("order was not sent")
	}
	cancel()
	b.wg.Wait()

	if len(orders.requests) != 1 {
		t.Fatalf("sent %d orders", len(orders.requests))
	}
	req := orders.requests[0]
	if req.Email != "a@b.com" || req.Phone != "+7 (916) 123-45-67" || req.Address != "ул Ленина 15" {
		t.Errorf("order = %+v", req)
	}
}
