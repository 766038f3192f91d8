// Package adminbot is a Telegram bot for the coach: it answers read-only
// questions about clients from the admin chat.
package adminbot

import (
	"context"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	clientService *service.ClientService,
	bookingService *service.BookingService,
	adminChatID int64,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: NewHandlers(clientService, bookingService, adminChatID, time.Now, logger),
		logger:   logger,
	}
}

// RegisterHandlers wires commands and page callbacks
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.wrap(c.handlers.HandleStart))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.wrap(c.handlers.HandleHelp))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/client", bot.MatchTypePrefix, c.wrap(c.handlers.HandleClient))
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, clientsPagePrefix, bot.MatchTypePrefix, c.wrap(c.handlers.HandleClientsPage))
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "noop", bot.MatchTypeExact, c.wrap(c.handlers.HandleNoop))

	return c.setCommands(ctx)
}

func (c *BotController) wrap(fn func(ctx context.Context, sender Sender, update *models.Update)) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		fn(ctx, b, update)
	}
}

// setCommands fills the bot command menu
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Check access"},
		{Command: "help", Description: "❓ Command reference"},
		{Command: "clients", Description: "👥 All clients and their sessions"},
		{Command: "client", Description: "🔎 One client: /client <email>"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start blocks until ctx is cancelled
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting admin bot...")
	c.bot.Start(ctx)
}
