package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

func seedAvailableItem(t *testing.T, s *Store, ownerID string, points int64) models.Item {
	t.Helper()
	var out models.Item
	err := s.WithinTx(context.Background(), func(tx repository.Tx) error {
		var err error
		out, err = tx.CreateItem(context.Background(), models.Item{
			OwnerID:     ownerID,
			Title:       "Wool Sweater",
			Status:      models.ItemAvailable,
			PointsValue: points,
		})
		return err
	})
	require.NoError(t, err)
	return out
}

func TestAppendEntryMovesBalance(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.LockBalances(ctx, "u1"); err != nil {
			return err
		}
		if _, err := tx.AppendEntry(ctx, models.LedgerEntry{UserID: "u1", Kind: models.EntryEarned, Amount: 25}); err != nil {
			return err
		}
		_, err := tx.AppendEntry(ctx, models.LedgerEntry{UserID: "u1", Kind: models.EntryRedeemed, Amount: -10})
		return err
	})
	require.NoError(t, err)

	bal, err := s.BalanceOf(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 15, bal)

	entries, err := s.ListLedgerByUser(ctx, "u1", 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}
	require.Equal(t, bal, sum, "materialized balance must equal the entry sum")
}

func TestAppendEntryInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.LockBalances(ctx, "u1"); err != nil {
			return err
		}
		if _, err := tx.AppendEntry(ctx, models.LedgerEntry{UserID: "u1", Kind: models.EntryEarned, Amount: 5}); err != nil {
			return err
		}
		_, err := tx.AppendEntry(ctx, models.LedgerEntry{UserID: "u1", Kind: models.EntryRedeemed, Amount: -6})
		return err
	})
	require.ErrorIs(t, err, repository.ErrInsufficientFunds)

	// The failed transaction must leave nothing behind, including the
	// earlier credit from the same transaction.
	bal, err := s.BalanceOf(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, bal)

	entries, err := s.ListLedgerByUser(ctx, "u1", 0, 0)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestAppendEntrySignMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.LockBalances(ctx, "u1"); err != nil {
			return err
		}
		_, err := tx.AppendEntry(ctx, models.LedgerEntry{UserID: "u1", Kind: models.EntryEarned, Amount: -3})
		return err
	})
	require.Error(t, err)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.CreateItem(ctx, models.Item{OwnerID: "u1", Title: "Scarf", Status: models.ItemPending, PointsValue: 10}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	items, err := s.ListItemsByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestStatusTransitionEnforced(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)
	it := seedAvailableItem(t, s, "u1", 10)

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.SetItemStatus(ctx, it.ID, models.ItemPending)
	})
	require.ErrorIs(t, err, repository.ErrConflict)

	got, err := s.GetItem(ctx, it.ID)
	require.NoError(t, err)
	require.Equal(t, models.ItemAvailable, got.Status)
}

func TestLockItemsUnknownID(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		_, err := tx.LockItems(ctx, "nope")
		return err
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBoundedLockWait(t *testing.T) {
	ctx := context.Background()
	s := NewStore(20 * time.Millisecond)

	hold := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = s.WithinTx(ctx, func(tx repository.Tx) error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	err := s.WithinTx(ctx, func(tx repository.Tx) error { return nil })
	require.ErrorIs(t, err, repository.ErrConflict)
	close(hold)
}

func TestListAvailableItemsFilter(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		items := []models.Item{
			{OwnerID: "u1", Title: "Jacket", Category: "outerwear", Size: "M", Status: models.ItemAvailable, PointsValue: 40, SwapEligible: true},
			{OwnerID: "u1", Title: "Shirt", Category: "tops", Size: "M", Status: models.ItemAvailable, PointsValue: 10, PointsEligible: true},
			{OwnerID: "u2", Title: "Hidden", Category: "tops", Size: "M", Status: models.ItemPending, PointsValue: 10},
		}
		for _, it := range items {
			if _, err := tx.CreateItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	out, err := s.ListAvailableItems(ctx, repository.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, out, 2, "pending items must stay hidden")

	out, err = s.ListAvailableItems(ctx, repository.ItemFilter{Category: "outerwear"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Jacket", out[0].Title)

	out, err = s.ListAvailableItems(ctx, repository.ItemFilter{MaxPoints: 20})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Shirt", out[0].Title)

	out, err = s.ListAvailableItems(ctx, repository.ItemFilter{SwapOnly: true})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Jacket", out[0].Title)
}

func TestPendingSwapHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	var first, second models.SwapRequest
	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		first, err = tx.CreateSwap(ctx, models.SwapRequest{
			RequesterID: "u1", OwnerID: "u2",
			RequesterItemID: "i1", RequestedItemID: "i2",
			Status: models.SwapPending,
		})
		if err != nil {
			return err
		}
		second, err = tx.CreateSwap(ctx, models.SwapRequest{
			RequesterID: "u3", OwnerID: "u2",
			RequesterItemID: "i3", RequestedItemID: "i2",
			Status: models.SwapPending,
		})
		return err
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx repository.Tx) error {
		dup, err := tx.HasPendingSwapForPair(ctx, "i1", "i2")
		require.NoError(t, err)
		require.True(t, dup)

		dup, err = tx.HasPendingSwapForPair(ctx, "i2", "i1")
		require.NoError(t, err)
		require.False(t, dup, "pair check is directional")

		touching, err := tx.PendingSwapsTouching(ctx, []string{"i2"}, first.ID)
		require.NoError(t, err)
		require.Len(t, touching, 1)
		require.Equal(t, second.ID, touching[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestUserEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	_, err := s.CreateUser(ctx, "ayse", "ayse@example.com", "hash", models.RoleUser)
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, "other", "ayse@example.com", "hash", models.RoleUser)
	require.ErrorIs(t, err, repository.ErrConflict)

	u, err := s.GetUserByEmail(ctx, "ayse@example.com")
	require.NoError(t, err)
	require.Equal(t, "ayse", u.Username)
}

func TestNotificationsReadFlow(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	n1, err := s.CreateNotification(ctx, models.Notification{UserID: "u1", Kind: models.NotifyGeneral, Title: "a"})
	require.NoError(t, err)
	_, err = s.CreateNotification(ctx, models.Notification{UserID: "u1", Kind: models.NotifyGeneral, Title: "b"})
	require.NoError(t, err)

	count, err := s.CountUnreadNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, s.MarkNotificationRead(ctx, "u1", n1.ID))
	count, err = s.CountUnreadNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.ErrorIs(t, s.MarkNotificationRead(ctx, "u2", n1.ID), repository.ErrNotFound)

	require.NoError(t, s.MarkAllNotificationsRead(ctx, "u1"))
	count, err = s.CountUnreadNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, count)
}
