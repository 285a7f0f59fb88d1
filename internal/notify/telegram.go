package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker/v2"
	"github.com/tuandang99/newshop/internal/domain"
)

const noProductsLine = "Không có sản phẩm"

type TelegramNotifier struct {
	bot *tgbotapi.BotAPI

	// chatID is used when the configured destination parses as an
	// integer (negative ids address groups/channels); otherwise the
	// destination is sent verbatim as a channel username.
	chatID  int64
	channel string

	breaker *gobreaker.CircuitBreaker[tgbotapi.Message]
}

func NewTelegramNotifier(botToken, chatID string) (*TelegramNotifier, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram handshake failed: %w", err)
	}

	n := &TelegramNotifier{
		bot: bot,
		breaker: gobreaker.NewCircuitBreaker[tgbotapi.Message](gobreaker.Settings{
			Name:    "telegram",
			Timeout: 30 * time.Second,
		}),
	}

	n.chatID, n.channel = parseChatTarget(chatID)

	return n, nil
}

// parseChatTarget decides how the destination is addressed: numeric ids
// (including negative group/channel ids) go as int64, anything else is
// treated as a channel username.
func parseChatTarget(chatID string) (int64, string) {
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return id, ""
	}
	return 0, chatID
}

func (n *TelegramNotifier) NotifyOrderCreated(_ context.Context, order *domain.Order, items []domain.CartItem) error {
	resolved, itemsErr := resolveItems(order, items)
	text := formatOrderMessage(order, resolved)

	var msg tgbotapi.MessageConfig
	if n.channel != "" {
		msg = tgbotapi.NewMessageToChannel(n.channel, text)
	} else {
		msg = tgbotapi.NewMessage(n.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML

	_, err := n.breaker.Execute(func() (tgbotapi.Message, error) {
		return n.bot.Send(msg)
	})
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	// The placeholder message went out, but an unreadable snapshot is
	// still a degraded delivery the caller must see as a failure.
	if itemsErr != nil {
		return fmt.Errorf("order %d delivered without line items: %w", order.ID, itemsErr)
	}
	return nil
}

// resolveItems picks the line items to render: the caller's in-memory
// slice when it has entries, otherwise whatever can be salvaged from the
// order's stored snapshot. A snapshot that is valid JSON but full of
// malformed entries yields an empty list; one that cannot be parsed at
// all also returns the parse error.
func resolveItems(order *domain.Order, items []domain.CartItem) ([]domain.CartItem, error) {
	if len(items) > 0 {
		return items, nil
	}
	return parseStoredItems(order.Items)
}

func parseStoredItems(stored string) ([]domain.CartItem, error) {
	var raw []map[string]interface{}
	if err := json.Unmarshal([]byte(stored), &raw); err != nil {
		log.Printf("cannot parse stored items snapshot: %v", err)
		return nil, fmt.Errorf("parse stored items: %w", err)
	}

	parsed := make([]domain.CartItem, 0, len(raw))
	for _, entry := range raw {
		if entry == nil {
			continue
		}
		name, _ := entry["name"].(string)
		price, _ := entry["price"].(float64)
		quantity, okQty := entry["quantity"].(float64)
		if name == "" || !okQty || quantity <= 0 {
			continue
		}
		item := domain.CartItem{
			Name:     name,
			Price:    price,
			Quantity: int(quantity),
		}
		if id, ok := entry["id"].(string); ok {
			item.ID = id
		}
		parsed = append(parsed, item)
	}
	return parsed, nil
}

func formatOrderMessage(order *domain.Order, items []domain.CartItem) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🛒 <b>Đơn hàng mới #%d</b>\n\n", order.ID)
	fmt.Fprintf(&b, "👤 Khách hàng: %s\n", html.EscapeString(order.Name))
	fmt.Fprintf(&b, "📞 SĐT: %s\n", html.EscapeString(order.Phone))
	fmt.Fprintf(&b, "📍 Địa chỉ: %s\n\n", html.EscapeString(order.Address))

	if len(items) == 0 {
		b.WriteString(noProductsLine + "\n")
	} else {
		for _, item := range items {
			lineTotal := item.Price * float64(item.Quantity)
			fmt.Fprintf(&b, "%d × %s — %s₫\n",
				item.Quantity, html.EscapeString(item.Name), formatAmount(lineTotal))
		}
	}

	fmt.Fprintf(&b, "\n💰 Tổng cộng: %s₫\n", formatAmount(order.Total))
	fmt.Fprintf(&b, "Trạng thái: %s\n", html.EscapeString(order.Status))
	fmt.Fprintf(&b, "🕒 %s", order.CreatedAt.Format("02/01/2006 15:04"))

	return b.String()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
