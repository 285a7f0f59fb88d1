package notify

import (
	"context"
	"log"
	"time"

	"github.com/tuandang99/newshop/internal/domain"
)

type job struct {
	order *domain.Order
	items []domain.CartItem
}

// Dispatcher decouples order creation from notification delivery: the
// HTTP handler enqueues and returns, a background worker delivers.
// Delivery is try-once; a failure is logged and the message is dropped.
type Dispatcher struct {
	notifier Notifier
	queue    chan job
	timeout  time.Duration
}

func NewDispatcher(notifier Notifier) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		queue:    make(chan job, 64),
		timeout:  15 * time.Second,
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case j := <-d.queue:
			d.deliver(j)
		case <-ctx.Done():
			return
		}
	}
}

// Dispatch enqueues a notification without blocking the caller. It
// reports false when the queue is full; the order itself is unaffected.
func (d *Dispatcher) Dispatch(order *domain.Order, items []domain.CartItem) bool {
	select {
	case d.queue <- job{order: order, items: items}:
		return true
	default:
		log.Printf("notification queue full, dropping message for order %d", order.ID)
		return false
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.notifier.NotifyOrderCreated(ctx, j.order, j.items); err != nil {
		log.Printf("failed to notify order %d: %v", j.order.ID, err)
	}
}
