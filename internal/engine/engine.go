package engine

import (
	"context"
	"log/slog"

	"github.com/rewearhq/rewear-backend/internal/config"
	"github.com/rewearhq/rewear-backend/internal/metrics"
	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/notify"
	"github.com/rewearhq/rewear-backend/internal/repository"
	"github.com/rewearhq/rewear-backend/internal/worker"
)

// Engine is the single entry point for every operation that touches
// items, swaps, redemptions or the points ledger. Each exported call is
// all-or-nothing: status changes and ledger appends commit as one unit,
// and notifications go out only after the commit.
type Engine struct {
	store   repository.Store
	emitter notify.Emitter
	pool    *worker.Pool
	cfg     config.Config
}

func New(store repository.Store, emitter notify.Emitter, pool *worker.Pool, cfg config.Config) *Engine {
	return &Engine{store: store, emitter: emitter, pool: pool, cfg: cfg}
}

// dispatch hands committed-state notifications to the worker pool.
// Failures are logged and counted, never propagated: the state change
// already happened.
func (e *Engine) dispatch(ns []models.Notification) {
	for _, n := range ns {
		n := n
		e.pool.Submit(func() {
			if err := e.emitter.Notify(context.Background(), n); err != nil {
				slog.Error("notification emit failed", "user_id", n.UserID, "kind", n.Kind, "err", err)
				metrics.NotificationsFailed.Inc()
				return
			}
			metrics.NotificationsSent.Inc()
		})
	}
}

// ---------- ledger queries ----------

func (e *Engine) GetBalance(ctx context.Context, userID string) (int64, error) {
	b, err := e.store.BalanceOf(ctx, userID)
	if err != nil {
		return 0, translate(err)
	}
	return b, nil
}

func (e *Engine) ListLedger(ctx context.Context, userID string, limit, offset int) ([]models.LedgerEntry, error) {
	out, err := e.store.ListLedgerByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// ---------- dashboard ----------

func (e *Engine) Dashboard(ctx context.Context, userID string) (models.DashboardStats, error) {
	st, err := e.store.DashboardStats(ctx, userID)
	if err != nil {
		return models.DashboardStats{}, translate(err)
	}
	return st, nil
}

// ---------- notifications ----------

func (e *Engine) Notifications(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	out, err := e.store.ListNotificationsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (e *Engine) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	n, err := e.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (e *Engine) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return translate(e.store.MarkNotificationRead(ctx, userID, id))
}

func (e *Engine) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	return translate(e.store.MarkAllNotificationsRead(ctx, userID))
}

// ---------- helpers ----------

func note(userID string, kind models.NotificationKind, title, msg string) models.Notification {
	return models.Notification{UserID: userID, Kind: kind, Title: title, Message: msg}
}

func withItem(n models.Notification, itemID string) models.Notification {
	n.ItemID = &itemID
	return n
}

func withSwap(n models.Notification, swapID string) models.Notification {
	n.SwapID = &swapID
	return n
}

func indexItems(items []models.Item) map[string]models.Item {
	m := make(map[string]models.Item, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}
