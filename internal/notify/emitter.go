package notify

import (
	"context"
	"log/slog"

	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

// Emitter is the side-effect sink the engine calls after a transaction
// commits. Delivery is best-effort; a failed emit is logged and dropped,
// it never unwinds the committed state change.
type Emitter interface {
	Notify(ctx context.Context, n models.Notification) error
}

// StoreEmitter persists notifications so users can read them later.
type StoreEmitter struct {
	store repository.Notifications
}

func NewStoreEmitter(s repository.Notifications) *StoreEmitter {
	return &StoreEmitter{store: s}
}

func (e *StoreEmitter) Notify(ctx context.Context, n models.Notification) error {
	_, err := e.store.CreateNotification(ctx, n)
	return err
}

// LogEmitter just logs, for dev setups without a notification table.
type LogEmitter struct{}

func (LogEmitter) Notify(_ context.Context, n models.Notification) error {
	slog.Info("notify", "user_id", n.UserID, "kind", n.Kind, "title", n.Title)
	return nil
}
