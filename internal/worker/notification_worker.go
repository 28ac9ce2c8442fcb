package worker

import (
	"context"
	"fmt"
	"log/slog"

	"plata/internal/amqp"
	"plata/internal/core"
	"plata/internal/format"
)

// NotificationKindGenerated marks notifications created from engine events.
const NotificationKindGenerated = "transaction.generated"

// NotificationStore is what the worker needs from persistence.
type NotificationStore interface {
	UserLocale(ctx context.Context, userID int64) (string, error)
	InsertNotification(ctx context.Context, n core.Notification) (int64, error)
}

// NotificationWorker turns generated-transaction events into user
// notifications in the user's locale.
type NotificationWorker struct {
	store   NotificationStore
	formats *format.Cache
}

func NewNotificationWorker(store NotificationStore, formats *format.Cache) *NotificationWorker {
	return &NotificationWorker{
		store:   store,
		formats: formats,
	}
}

// HandleGenerated processes one event. Errors are returned to the consumer
// so the delivery is requeued.
func (w *NotificationWorker) HandleGenerated(ctx context.Context, msg *amqp.TransactionGeneratedMessage) error {
	locale, err := w.store.UserLocale(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("resolve user locale: %w", err)
	}

	body := w.formats.TransactionNotice(locale, msg.Description, msg.Currency, msg.AmountCents, msg.Date)

	id, err := w.store.InsertNotification(ctx, core.Notification{
		UserID: msg.UserID,
		Kind:   NotificationKindGenerated,
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	slog.InfoContext(ctx, "Notification created",
		"notification_id", id,
		"user_id", msg.UserID,
		"rule_id", msg.RuleID)

	return nil
}
