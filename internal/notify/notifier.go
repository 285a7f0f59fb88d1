package notify

import (
	"context"
	"log"

	"github.com/tuandang99/newshop/internal/domain"
)

// Notifier delivers an operator-facing summary of a newly created order.
// Delivery is best-effort: implementations report failure through the
// error return and must never panic.
type Notifier interface {
	NotifyOrderCreated(ctx context.Context, order *domain.Order, items []domain.CartItem) error
}

// NoopNotifier is used when the Telegram channel is not configured.
// Every dispatch is a permanent no-op for the life of the process.
type NoopNotifier struct{}

func (NoopNotifier) NotifyOrderCreated(context.Context, *domain.Order, []domain.CartItem) error {
	return nil
}

// NewFromConfig picks the Telegram notifier when both the bot token and
// the chat id are present, and the no-op otherwise. A failed Telegram
// handshake also degrades to the no-op: order placement must not depend
// on the side channel.
func NewFromConfig(botToken, chatID string) Notifier {
	if botToken == "" || chatID == "" {
		log.Println("telegram notifications disabled: bot token or chat id not configured")
		return NoopNotifier{}
	}

	notifier, err := NewTelegramNotifier(botToken, chatID)
	if err != nil {
		log.Printf("telegram notifications disabled: %v", err)
		return NoopNotifier{}
	}

	log.Printf("telegram notifications enabled for chat %s", chatID)
	return notifier
}
