package adminbot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/Freeeeeet/coach_portal/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Sender is the part of *bot.Bot the handlers use
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

type Handlers struct {
	clients     *service.ClientService
	bookings    *service.BookingService
	adminChatID int64
	now         func() time.Time
	logger      *zap.Logger
}

func NewHandlers(
	clients *service.ClientService,
	bookings *service.BookingService,
	adminChatID int64,
	now func() time.Time,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		clients:     clients,
		bookings:    bookings,
		adminChatID: adminChatID,
		now:         now,
		logger:      logger,
	}
}

// HandleStart handles /start
func (h *Handlers) HandleStart(ctx context.Context, b Sender, update *models.Update) {
	chatID, ok := h.requireAdmin(ctx, b, update)
	if !ok {
		return
	}

	h.sendMessage(ctx, b, chatID, "👋 Coach portal admin bot.\n\n"+
		"Purchase notifications arrive in this chat.\n"+
		"/help lists the commands.")
}

// HandleHelp handles /help
func (h *Handlers) HandleHelp(ctx context.Context, b Sender, update *models.Update) {
	chatID, ok := h.requireAdmin(ctx, b, update)
	if !ok {
		return
	}

	h.sendMessage(ctx, b, chatID, "📚 Commands:\n\n"+
		"/clients - all clients with remaining sessions\n"+
		"/client <email> - counters and bookings of one client\n"+
		"/help - this reference")
}

// HandleClients lists every client with counters
func (h *Handlers) HandleClients(ctx context.Context, b Sender, update *models.Update) {
	chatID, ok := h.requireAdmin(ctx, b, update)
	if !ok {
		return
	}

	clients, err := h.clients.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list clients", zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ "+model.ErrorMessage(err))
		return
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        FormatClientList(clients, 0, clientsPerPage),
		ReplyMarkup: pageKeyboard(clientsPagePrefix, 0, totalPages(len(clients), clientsPerPage)),
	})
	if err != nil {
		h.logger.Error("Failed to send client list", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// HandleClientsPage flips the /clients message to another page
func (h *Handlers) HandleClientsPage(ctx context.Context, b Sender, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	msg := cq.Message.Message
	if msg == nil || msg.Chat.ID != h.adminChatID {
		h.answer(ctx, b, cq.ID, "⛔")
		return
	}

	page, ok := parsePage(cq.Data, clientsPagePrefix)
	if !ok {
		h.answer(ctx, b, cq.ID, "❌ Bad page")
		return
	}

	clients, err := h.clients.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list clients", zap.Error(err))
		h.answer(ctx, b, cq.ID, "❌ "+model.ErrorMessage(err))
		return
	}

	pages := totalPages(len(clients), clientsPerPage)
	page = min(page, pages-1)

	_, err = b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        FormatClientList(clients, page, clientsPerPage),
		ReplyMarkup: pageKeyboard(clientsPagePrefix, page, pages),
	})
	if err != nil && !strings.Contains(err.Error(), "message is not modified") {
		h.logger.Error("Failed to edit client list",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Int("page", page),
			zap.Error(err),
		)
	}
	h.answer(ctx, b, cq.ID, "")
}

// HandleClient shows one client: /client <email>
func (h *Handlers) HandleClient(ctx context.Context, b Sender, update *models.Update) {
	chatID, ok := h.requireAdmin(ctx, b, update)
	if !ok {
		return
	}

	fields := strings.Fields(update.Message.Text)
	if len(fields) > 0 && fields[0] == "/clients" {
		// the "/client" prefix route also receives "/clients"
		h.HandleClients(ctx, b, update)
		return
	}
	if len(fields) != 2 {
		h.sendError(ctx, b, chatID, "Usage: /client <email>")
		return
	}
	email := fields[1]

	overview, err := h.bookings.Overview(ctx, email, h.now())
	if err != nil {
		if !errors.Is(err, model.ErrClientNotFound) {
			h.logger.Error("Failed to load client overview", zap.String("email", email), zap.Error(err))
		}
		h.sendError(ctx, b, chatID, "❌ "+model.ErrorMessage(err))
		return
	}

	h.sendMessage(ctx, b, chatID, FormatOverview(overview, h.bookings.Location()))
}

// requireAdmin lets through only messages from the admin chat
func (h *Handlers) requireAdmin(ctx context.Context, b Sender, update *models.Update) (int64, bool) {
	if update.Message == nil {
		return 0, false
	}

	chatID := update.Message.Chat.ID
	if chatID != h.adminChatID {
		h.logger.Warn("Admin command from foreign chat",
			zap.Int64("chat_id", chatID),
			zap.String("text", update.Message.Text),
		)
		h.sendError(ctx, b, chatID, "⛔ This bot only answers the coach.")
		return 0, false
	}
	return chatID, true
}

// HandleNoop answers taps on the page indicator
func (h *Handlers) HandleNoop(ctx context.Context, b Sender, update *models.Update) {
	if update.CallbackQuery != nil {
		h.answer(ctx, b, update.CallbackQuery.ID, "")
	}
}

// answer stops the loading spinner on the inline button
func (h *Handlers) answer(ctx context.Context, b Sender, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

// sendError sends an error text and logs when sending fails
func (h *Handlers) sendError(ctx context.Context, b Sender, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage sends text and logs when sending fails
func (h *Handlers) sendMessage(ctx context.Context, b Sender, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
