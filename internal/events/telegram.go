package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// MessageSender is the part of *bot.Bot the notifier needs
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier posts a short summary of every purchase change to the admin chat
type TelegramNotifier struct {
	sender MessageSender
	chatID int64
}

func NewTelegramNotifier(sender MessageSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		chatID: chatID,
	}
}

func (n *TelegramNotifier) Name() string {
	return "telegram"
}

func (n *TelegramNotifier) Publish(ctx context.Context, event model.PurchaseEvent) error {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      FormatEvent(event),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram notification: %v: %w", err, model.ErrNetwork)
	}
	return nil
}

// FormatEvent renders an event as an HTML chat message
func FormatEvent(event model.PurchaseEvent) string {
	p := event.Purchase

	var title string
	switch event.Type {
	case model.PurchaseEventRecorded:
		title = "💳 <b>New purchase</b>"
	case model.PurchaseEventUpdated:
		title = "✏️ <b>Purchase edited</b>"
	case model.PurchaseEventDeleted:
		title = "🗑 <b>Purchase deleted</b>"
	default:
		title = "<b>" + htmlEscape(string(event.Type)) + "</b>"
	}

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Client: %s\n", htmlEscape(event.ClientEmail))
	fmt.Fprintf(&sb, "Package: %s (%s)\n", htmlEscape(p.PackageType), p.SessionType)
	fmt.Fprintf(&sb, "Amount: $%s via %s, %s\n", p.AmountPaid, p.PaymentMethod, p.PaymentStatus)
	fmt.Fprintf(&sb, "Sessions: %s", formatDelta(event.SessionsDelta))
	return sb.String()
}

func formatDelta(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d %s", delta, pluralizeSessions(delta))
	case delta < 0:
		return fmt.Sprintf("%d %s", delta, pluralizeSessions(-delta))
	default:
		return "no change"
	}
}

func pluralizeSessions(count int) string {
	if count == 1 {
		return "session"
	}
	return "sessions"
}

var htmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func htmlEscape(s string) string {
	return htmlReplacer.Replace(s)
}
