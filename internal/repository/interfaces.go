package repository

import (
	"context"
	"errors"

	"github.com/rewearhq/rewear-backend/internal/models"
)

// Storage-level sentinels. The engine translates these into its own
// error kinds; nothing above the engine should see them.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Store is the persistence boundary of the engine. Mutating operations
// happen inside WithinTx; everything the closure does either commits as
// a unit or not at all.
type Store interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error
	Queries
	Users
	Notifications
}

// Tx is the view of the store inside one transaction. Lock* methods
// take row locks in ascending id order with a bounded wait; a timed-out
// acquisition returns ErrConflict.
type Tx interface {
	// items
	LockItems(ctx context.Context, ids ...string) ([]models.Item, error)
	CreateItem(ctx context.Context, it models.Item) (models.Item, error)
	SetItemStatus(ctx context.Context, id string, st models.ItemStatus) error
	SetItemApproved(ctx context.Context, id, approvedBy string) error

	// ledger
	LockBalances(ctx context.Context, userIDs ...string) error
	// AppendEntry inserts the entry and moves the materialized balance
	// in one shot. A debit that would take the balance below zero fails
	// with ErrInsufficientFunds and leaves no trace.
	AppendEntry(ctx context.Context, e models.LedgerEntry) (models.LedgerEntry, error)

	// swaps
	CreateSwap(ctx context.Context, sr models.SwapRequest) (models.SwapRequest, error)
	GetSwapForUpdate(ctx context.Context, id string) (models.SwapRequest, error)
	SetSwapStatus(ctx context.Context, id string, st models.SwapStatus, response string) error
	SetSwapCompleted(ctx context.Context, id string) error
	HasPendingSwapForPair(ctx context.Context, requesterItemID, requestedItemID string) (bool, error)
	// PendingSwapsTouching returns pending swaps referencing any of the
	// items on either side, excluding the given swap id.
	PendingSwapsTouching(ctx context.Context, itemIDs []string, exceptSwapID string) ([]models.SwapRequest, error)

	// redemptions
	CreateRedemption(ctx context.Context, rd models.Redemption) (models.Redemption, error)
	GetRedemptionForUpdate(ctx context.Context, id string) (models.Redemption, error)
	SetRedemptionStatus(ctx context.Context, id string, st models.RedemptionStatus) error
	SetRedemptionCompleted(ctx context.Context, id string) error
	HasPendingRedemption(ctx context.Context, userID, itemID string) (bool, error)

	// users (read side, for authorization checks inside a tx)
	GetUser(ctx context.Context, id string) (models.User, error)
}

// ItemFilter narrows listing queries. Zero values mean "no constraint".
type ItemFilter struct {
	Category  string
	Size      string
	Condition string
	MinPoints int64
	MaxPoints int64
	SwapOnly  bool
	PointsOnly bool
	Limit     int
	Offset    int
}

// Queries are snapshot reads served outside any transaction.
type Queries interface {
	GetItem(ctx context.Context, id string) (models.Item, error)
	ListAvailableItems(ctx context.Context, f ItemFilter) ([]models.Item, error)
	ListItemsByOwner(ctx context.Context, ownerID string) ([]models.Item, error)
	ListPendingItems(ctx context.Context, limit, offset int) ([]models.Item, error)

	GetSwap(ctx context.Context, id string) (models.SwapRequest, error)
	ListSwapsByUser(ctx context.Context, userID, side string, limit, offset int) ([]models.SwapRequest, error)

	GetRedemption(ctx context.Context, id string) (models.Redemption, error)
	ListRedemptionsByUser(ctx context.Context, userID string, limit, offset int) ([]models.Redemption, error)

	// BalanceOf returns 0 for a user with no ledger activity.
	BalanceOf(ctx context.Context, userID string) (int64, error)
	ListLedgerByUser(ctx context.Context, userID string, limit, offset int) ([]models.LedgerEntry, error)

	DashboardStats(ctx context.Context, userID string) (models.DashboardStats, error)
}

type Users interface {
	CreateUser(ctx context.Context, username, email, passwordHash, role string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

type Notifications interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListNotificationsByUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
}
