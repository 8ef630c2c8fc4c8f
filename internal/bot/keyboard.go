package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"web-larek/internal/state"
	"web-larek/internal/storefront"
)

// BOT KEYBOARDS

const (
	cbCard   = "card"
	cbAdd    = "add"
	cbRemove = "remove"
	cbBasket = "basket"
	cbOrder  = "order"
	cbPay    = "pay"
	cbNext   = "next"
	cbSend   = "send"
	cbDone   = "done"
	cbClose  = "close"
	cbNoop   = "noop"
	cbSep    = ":"
)

func callbackData(action string, arg ...string) string {
	if len(arg) == 0 {
		return action
	}
	return action + cbSep + arg[0]
}

func catalogKeyboard(items []state.Product, counter int) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items)+1)
	for _, p := range items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(p.Title, callbackData(cbCard, p.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🛒 Корзина (%d)", counter), cbBasket),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func productKeyboard(buy storefront.BuyButton) tgbotapi.InlineKeyboardMarkup {
	action := cbAdd
	label := buy.Label
	if !buy.Enabled {
		action = cbNoop
		label = "🚫 " + label
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, action),
		),
		closeRow(),
	)
}

func basketKeyboard(b storefront.BasketView) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(b.Lines)+2)
	for _, line := range b.Lines {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🗑 %d. %s", line.Index, line.Title), callbackData(cbRemove, line.ID)),
		))
	}
	if b.CanOrder {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Оформить", cbOrder),
		))
	}
	rows = append(rows, closeRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func deliveryKeyboard(c *formControls) tgbotapi.InlineKeyboardMarkup {
	online, cash := "Онлайн", "При получении"
	if c.payment == state.PaymentUponReceipt {
		cash = "✅ " + cash
	} else {
		online = "✅ " + online
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(online, callbackData(cbPay, string(state.PaymentOnline))),
			tgbotapi.NewInlineKeyboardButtonData(cash, callbackData(cbPay, string(state.PaymentUponReceipt))),
		),
	}
	if c.valid {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Далее", cbNext),
		))
	}
	rows = append(rows, closeRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func contactKeyboard(c *formControls) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 2)
	if c.valid {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Оплатить", cbSend),
		))
	}
	rows = append(rows, closeRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func successKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("За новыми покупками!", cbDone),
		),
	)
}

func closeRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✖ Закрыть", cbClose),
	)
}

func contactRequestKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📱 Отправить контакт"),
		),
	)
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	return keyboard
}
