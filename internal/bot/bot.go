package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"web-larek/internal/storefront"
)

// SessionFactory builds the storefront session of a new chat.
type SessionFactory func(chatID int64, view storefront.View) *storefront.Session

const chatQueueSize = 32

type chat struct {
	session *storefront.Session
	view    *chatView
	updates chan tgbotapi.Update
	started bool
}

// firstTurn reports whether the chat runs its first turn. Call it inside a
// turn only.
func (c *chat) firstTurn() bool {
	if c.started {
		return false
	}
	c.started = true
	return true
}

type Bot struct {
	bot        *tgbotapi.BotAPI
	sender     Sender
	logger     *zap.Logger
	newSession SessionFactory

	mu    sync.Mutex
	chats map[int64]*chat
	wg    sync.WaitGroup

	textHandlers     map[storefront.Content]func(*chat, string)
	callbackHandlers map[string]func(*chat, string) error
}

// New authorises the bot, retrying transient failures with exponential
// backoff.
func New(token string, newSession SessionFactory, logger *zap.Logger) (*Bot, error) {
	const operation = "bot.New"

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	var botAPI *tgbotapi.BotAPI
	err := backoff.RetryNotify(
		func() error {
			var err error
			botAPI, err = tgbotapi.NewBotAPI(token)
			if err == nil {
				return nil
			}
			var tgErr *tgbotapi.Error
			if errors.As(err, &tgErr) && tgErr.Code == http.StatusUnauthorized {
				return backoff.Permanent(fmt.Errorf("create bot API: %w", err))
			}
			return fmt.Errorf("create bot API: %w", err)
		},
		retryPolicy,
		func(err error, duration time.Duration) {
			logger.Warn("Telegram authorisation failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	logger.Info("Bot authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))

	b := newBot(botAPI, newSession, logger)
	b.bot = botAPI
	return b, nil
}

func newBot(sender Sender, newSession SessionFactory, logger *zap.Logger) *Bot {
	b := &Bot{
		sender:     sender,
		logger:     logger,
		newSession: newSession,
		chats:      make(map[int64]*chat),
	}
	b.registerHandlers()
	return b
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			b.bot.StopReceivingUpdates()
			b.wg.Wait()
			return nil

		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch queues update on its chat. Chats run in parallel; updates of one
// chat are handled one at a time in arrival order.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	chatID, ok := updateChatID(update)
	if !ok {
		return
	}

	c, created := b.chatFor(chatID)
	if created {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.runChat(ctx, c)
		}()
	}

	select {
	case c.updates <- update:
	case <-ctx.Done():
	}
}

func (b *Bot) runChat(ctx context.Context, c *chat) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-c.updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		c, _ := b.chatFor(update.Message.Chat.ID)
		c.session.Turn(ctx, func() {
			if c.firstTurn() && !isCatalogCommand(update.Message) {
				b.loadCatalog(c)
			}
			b.processMessage(c, update.Message)
			c.view.flush()
		})

	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		c, _ := b.chatFor(update.CallbackQuery.Message.Chat.ID)
		c.session.Turn(ctx, func() {
			if c.firstTurn() {
				b.loadCatalog(c)
			}
			b.processCallback(c, update.CallbackQuery)
			c.view.flush()
		})
	}
}

// chatFor returns the chat of chatID, creating it on first contact.
func (b *Bot) chatFor(chatID int64) (*chat, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.chats[chatID]; ok {
		return c, false
	}

	view := newChatView(chatID, b.sender, b.logger)
	c := &chat{
		session: b.newSession(chatID, view),
		view:    view,
		updates: make(chan tgbotapi.Update, chatQueueSize),
	}
	b.chats[chatID] = c

	b.logger.Info("New chat session", zap.Int64("chat_id", chatID))
	return c, true
}

func (b *Bot) loadCatalog(c *chat) {
	if err := c.session.LoadCatalog(); err != nil {
		b.logger.Error("Failed to load catalog",
			zap.Int64("chat_id", c.session.ChatID()),
			zap.Error(err))
	}
}

func (b *Bot) refreshCatalog(c *chat) {
	if err := c.session.RefreshCatalog(); err != nil {
		b.logger.Error("Failed to refresh catalog",
			zap.Int64("chat_id", c.session.ChatID()),
			zap.Error(err))
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.String("text", msg.Text),
			zap.Error(err))
	}
}

func updateChatID(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}

func isCatalogCommand(msg *tgbotapi.Message) bool {
	switch msg.Command() {
	case "start", "catalog":
		return true
	}
	return false
}
