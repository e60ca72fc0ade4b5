package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/rewearhq/rewear-backend/internal/metrics"
	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

type SwapDecision string

const (
	SwapAccept SwapDecision = "accept"
	SwapReject SwapDecision = "reject"
)

// RequestSwap offers offeredItemID for wantedItemID. Creating the
// request does not change either item's status; an item can be the
// subject of several competing pending offers until one is accepted.
func (e *Engine) RequestSwap(ctx context.Context, requesterID, offeredItemID, wantedItemID, message string) (models.SwapRequest, error) {
	if offeredItemID == wantedItemID {
		return models.SwapRequest{}, validation("cannot swap an item for itself")
	}

	var out models.SwapRequest
	var pending []models.Notification
	err := e.store.WithinTx(ctx, func(tx repository.Tx) error {
		items, err := tx.LockItems(ctx, offeredItemID, wantedItemID)
		if err != nil {
			return err
		}
		byID := indexItems(items)
		offered, wanted := byID[offeredItemID], byID[wantedItemID]

		if offered.OwnerID != requesterID {
			return unauthorized("you do not own the offered item")
		}
		if wanted.OwnerID == requesterID {
			return validation("cannot swap with yourself")
		}
		if offered.Status != models.ItemAvailable {
			return conflict("your item is not available for swapping")
		}
		if wanted.Status != models.ItemAvailable {
			return conflict("requested item is not available")
		}
		if !offered.SwapEligible || !wanted.SwapEligible {
			return validation("item is not offered for swapping")
		}
		dup, err := tx.HasPendingSwapForPair(ctx, offeredItemID, wantedItemID)
		if err != nil {
			return err
		}
		if dup {
			return conflict("swap request already exists")
		}

		out, err = tx.CreateSwap(ctx, models.SwapRequest{
			RequesterID:     requesterID,
			OwnerID:         wanted.OwnerID,
			RequesterItemID: offeredItemID,
			RequestedItemID: wantedItemID,
			Status:          models.SwapPending,
			Message:         message,
		})
		if err != nil {
			return err
		}
		pending = append(pending, withSwap(note(wanted.OwnerID, models.NotifySwapRequest,
			"New Swap Request",
			fmt.Sprintf("%s is offered for your item %q", offered.Title, wanted.Title)), out.ID))
		return nil
	})
	if err != nil {
		return models.SwapRequest{}, translate(err)
	}
	metrics.SwapsTotal.WithLabelValues("request").Inc()
	e.dispatch(pending)
	return out, nil
}

// RespondToSwap lets the owner of the requested item accept or reject a
// pending request. Accepting moves both items to in_swap and
// auto-rejects every other pending request touching either item.
func (e *Engine) RespondToSwap(ctx context.Context, swapID, actorID string, decision SwapDecision, response string) (models.SwapRequest, error) {
	if decision != SwapAccept && decision != SwapReject {
		return models.SwapRequest{}, validation("decision must be accept or reject")
	}

	var out models.SwapRequest
	var pending []models.Notification
	err := e.store.WithinTx(ctx, func(tx repository.Tx) error {
		sr, err := tx.GetSwapForUpdate(ctx, swapID)
		if err != nil {
			return err
		}
		if sr.OwnerID != actorID {
			return unauthorized("only the item owner can respond")
		}
		if sr.Status != models.SwapPending {
			return conflict(fmt.Sprintf("swap request is already %s", sr.Status))
		}

		if decision == SwapReject {
			if err := tx.SetSwapStatus(ctx, sr.ID, models.SwapRejected, response); err != nil {
				return err
			}
			sr.Status = models.SwapRejected
			out = sr
			pending = append(pending, withSwap(note(sr.RequesterID, models.NotifySwapRejected,
				"Swap Request Rejected",
				"Your swap request has been rejected."), sr.ID))
			return nil
		}

		items, err := tx.LockItems(ctx, sr.RequesterItemID, sr.RequestedItemID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.Status != models.ItemAvailable {
				return conflict(fmt.Sprintf("item %q is no longer available", it.Title))
			}
		}
		for _, it := range items {
			if err := tx.SetItemStatus(ctx, it.ID, models.ItemInSwap); err != nil {
				return err
			}
		}
		if err := tx.SetSwapStatus(ctx, sr.ID, models.SwapAccepted, response); err != nil {
			return err
		}
		sr.Status = models.SwapAccepted
		out = sr

		// Both items left the market, so every other pending request on
		// them can never be accepted. Reject them now and tell their
		// requesters, instead of leaving them pending forever.
		competitors, err := tx.PendingSwapsTouching(ctx, []string{sr.RequesterItemID, sr.RequestedItemID}, sr.ID)
		if err != nil {
			return err
		}
		for _, c := range competitors {
			if err := tx.SetSwapStatus(ctx, c.ID, models.SwapRejected, "item no longer available"); err != nil {
				return err
			}
			pending = append(pending, withSwap(note(c.RequesterID, models.NotifySwapRejected,
				"Swap Request Rejected",
				"An item in your swap request was accepted into another swap."), c.ID))
		}

		byID := indexItems(items)
		pending = append(pending, withSwap(note(sr.RequesterID, models.NotifySwapAccepted,
			"Swap Request Accepted",
			fmt.Sprintf("Your swap request for %q has been accepted!", byID[sr.RequestedItemID].Title)), sr.ID))
		return nil
	})
	if err != nil {
		return models.SwapRequest{}, translate(err)
	}
	metrics.SwapsTotal.WithLabelValues(string(decision)).Inc()
	e.dispatch(pending)
	return out, nil
}

// CompleteSwap finishes an accepted swap: both items become swapped and
// each party earns the completion reward against their own item.
func (e *Engine) CompleteSwap(ctx context.Context, swapID, actorID string) (models.SwapRequest, error) {
	var out models.SwapRequest
	var pending []models.Notification
	err := e.store.WithinTx(ctx, func(tx repository.Tx) error {
		sr, err := tx.GetSwapForUpdate(ctx, swapID)
		if err != nil {
			return err
		}
		if !sr.Party(actorID) {
			return unauthorized("only a swap participant can complete it")
		}
		if sr.Status != models.SwapAccepted {
			return conflict(fmt.Sprintf("swap request is %s, not accepted", sr.Status))
		}

		items, err := tx.LockItems(ctx, sr.RequesterItemID, sr.RequestedItemID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if !it.Status.CanTransitionTo(models.ItemSwapped) {
				return conflict(fmt.Sprintf("item %q cannot be marked swapped", it.Title))
			}
		}
		for _, it := range items {
			if err := tx.SetItemStatus(ctx, it.ID, models.ItemSwapped); err != nil {
				return err
			}
		}
		if err := tx.SetSwapCompleted(ctx, sr.ID); err != nil {
			return err
		}
		sr.Status = models.SwapCompleted
		out = sr

		// Reward both parties. Balance rows are locked in ascending user
		// id order, after the item locks, to keep the global lock order.
		users := []string{sr.RequesterID, sr.OwnerID}
		sort.Strings(users)
		if err := tx.LockBalances(ctx, users...); err != nil {
			return err
		}
		ownItem := map[string]string{
			sr.RequesterID: sr.RequesterItemID,
			sr.OwnerID:     sr.RequestedItemID,
		}
		for _, uid := range users {
			itemID := ownItem[uid]
			if _, err := tx.AppendEntry(ctx, models.LedgerEntry{
				UserID: uid,
				Kind:   models.EntryEarned,
				Amount: e.cfg.SwapReward,
				Reason: "Points earned for completing a swap",
				ItemID: &itemID,
			}); err != nil {
				return err
			}
			pending = append(pending, withSwap(note(uid, models.NotifySwapCompleted,
				"Swap Completed",
				fmt.Sprintf("Your swap is complete. You earned %d points.", e.cfg.SwapReward)), sr.ID))
		}
		return nil
	})
	if err != nil {
		return models.SwapRequest{}, translate(err)
	}
	metrics.SwapsTotal.WithLabelValues("complete").Inc()
	metrics.LedgerEntriesTotal.WithLabelValues(string(models.EntryEarned)).Add(2)
	e.dispatch(pending)
	return out, nil
}

// CancelSwap terminates a pending or accepted swap. Items that had
// entered in_swap go back to available; balances are untouched.
func (e *Engine) CancelSwap(ctx context.Context, swapID, actorID string) (models.SwapRequest, error) {
	var out models.SwapRequest
	var pending []models.Notification
	err := e.store.WithinTx(ctx, func(tx repository.Tx) error {
		sr, err := tx.GetSwapForUpdate(ctx, swapID)
		if err != nil {
			return err
		}
		if !sr.Party(actorID) {
			return unauthorized("only a swap participant can cancel it")
		}
		if !sr.Status.CanTransitionTo(models.SwapCancelled) {
			return conflict(fmt.Sprintf("swap request is already %s", sr.Status))
		}

		if sr.Status == models.SwapAccepted {
			items, err := tx.LockItems(ctx, sr.RequesterItemID, sr.RequestedItemID)
			if err != nil {
				return err
			}
			for _, it := range items {
				if it.Status == models.ItemInSwap {
					if err := tx.SetItemStatus(ctx, it.ID, models.ItemAvailable); err != nil {
						return err
					}
				}
			}
		}
		if err := tx.SetSwapStatus(ctx, sr.ID, models.SwapCancelled, ""); err != nil {
			return err
		}
		sr.Status = models.SwapCancelled
		out = sr

		counterpart := sr.RequesterID
		if actorID == sr.RequesterID {
			counterpart = sr.OwnerID
		}
		pending = append(pending, withSwap(note(counterpart, models.NotifyGeneral,
			"Swap Cancelled",
			"A swap request involving your item was cancelled."), sr.ID))
		return nil
	})
	if err != nil {
		return models.SwapRequest{}, translate(err)
	}
	metrics.SwapsTotal.WithLabelValues("cancel").Inc()
	e.dispatch(pending)
	return out, nil
}

// ---------- swap queries ----------

func (e *Engine) GetSwap(ctx context.Context, id, userID string) (models.SwapRequest, error) {
	sr, err := e.store.GetSwap(ctx, id)
	if err != nil {
		return models.SwapRequest{}, translate(err)
	}
	if !sr.Party(userID) {
		return models.SwapRequest{}, unauthorized("not a participant of this swap")
	}
	return sr, nil
}

func (e *Engine) ListSwaps(ctx context.Context, userID, side string, limit, offset int) ([]models.SwapRequest, error) {
	out, err := e.store.ListSwapsByUser(ctx, userID, side, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
