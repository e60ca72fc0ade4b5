package engine

import (
	"context"
	"fmt"

	"github.com/rewearhq/rewear-backend/internal/metrics"
	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

type RedemptionDecision string

const (
	RedemptionApprove  RedemptionDecision = "approve"
	RedemptionReject   RedemptionDecision = "reject"
	RedemptionComplete RedemptionDecision = "complete"
)

// RequestRedemption reserves the item's point price from the requester
// immediately. If the debit would push the balance below zero the whole
// call fails and nothing is recorded. The item keeps its available
// status until the redemption completes.
func (e *Engine) RequestRedemption(ctx context.Context, userID, itemID, message string) (models.Redemption, error) {
	var out models.Redemption
	var pending []models.Notification
	err := e.store.WithinTx(ctx, func(tx repository.Tx) error {
		items, err := tx.LockItems(ctx, itemID)
		if err != nil {
			return err
		}
		it := items[0]
		if it.OwnerID == userID {
			return validation("cannot redeem your own item")
		}
		if it.Status != models.ItemAvailable {
			return conflict("item is not available")
		}
		if !it.PointsEligible {
			return validation("item is not available for points redemption")
		}
		dup, err := tx.HasPendingRedemption(ctx, userID, itemID)
		if err != nil {
			return err
		}
		if dup {
			return conflict("redemption request already exists")
		}

		if err := tx.LockBalances(ctx, userID); err != nil {
			return err
		}
		// Pessimistic reservation: the debit and the redemption row
		// commit together or not at all.
		if _, err := tx.AppendEntry(ctx, models.LedgerEntry{
			UserID: userID,
			Kind:   models.EntryRedeemed,
			Amount: -it.PointsValue,
			Reason: fmt.Sprintf("Points redeemed for %s", it.Title),
			ItemID: &itemID,
		}); err != nil {
			return err
		}
		out, err = tx.CreateRedemption(ctx, models.Redemption{
			UserID:     userID,
			ItemID:     itemID,
			PointsUsed: it.PointsValue,
			Status:     models.RedemptionPending,
			Message:    message,
		})
		if err != nil {
			return err
		}
		pending = append(pending, withItem(note(it.OwnerID, models.NotifyPointsRedeemed,
			"Item Redeemed with Points",
			fmt.Sprintf("Someone wants to redeem your item %q for %d points", it.Title, it.PointsValue)), itemID))
		return nil
	})
	if err != nil {
		return models.Redemption{}, translate(err)
	}
	metrics.RedemptionsTotal.WithLabelValues("request").Inc()
	metrics.LedgerEntriesTotal.WithLabelValues(string(models.EntryRedeemed)).Inc()
	e.dispatch(pending)
	return out, nil
}

// RespondToRedemption lets the item owner move a redemption along:
// approve or reject a pending one, complete an approved one. Rejection
// refunds the reserved points with a compensating bonus entry; the
// original debit stays in the ledger for the audit trail.
func (e *Engine) RespondToRedemption(ctx context.Context, redemptionID, actorID string, decision RedemptionDecision) (models.Redemption, error) {
	var out models.Redemption
	var pending []models.Notification
	var refunded bool
	err := e.store.WithinTx(ctx, func(tx repository.Tx) error {
		rd, err := tx.GetRedemptionForUpdate(ctx, redemptionID)
		if err != nil {
			return err
		}
		items, err := tx.LockItems(ctx, rd.ItemID)
		if err != nil {
			return err
		}
		it := items[0]
		if it.OwnerID != actorID {
			return unauthorized("only the item owner can respond")
		}

		switch decision {
		case RedemptionApprove:
			if !rd.Status.CanTransitionTo(models.RedemptionApproved) {
				return conflict(fmt.Sprintf("redemption is already %s", rd.Status))
			}
			if err := tx.SetRedemptionStatus(ctx, rd.ID, models.RedemptionApproved); err != nil {
				return err
			}
			rd.Status = models.RedemptionApproved
			pending = append(pending, withItem(note(rd.UserID, models.NotifyGeneral,
				"Redemption Approved",
				fmt.Sprintf("Your redemption of %q was approved", it.Title)), it.ID))

		case RedemptionReject:
			if !rd.Status.CanTransitionTo(models.RedemptionRejected) {
				return conflict(fmt.Sprintf("redemption is already %s", rd.Status))
			}
			if err := tx.SetRedemptionStatus(ctx, rd.ID, models.RedemptionRejected); err != nil {
				return err
			}
			rd.Status = models.RedemptionRejected
			if err := tx.LockBalances(ctx, rd.UserID); err != nil {
				return err
			}
			if _, err := tx.AppendEntry(ctx, models.LedgerEntry{
				UserID: rd.UserID,
				Kind:   models.EntryBonus,
				Amount: rd.PointsUsed,
				Reason: fmt.Sprintf("Redemption refund for %s", it.Title),
				ItemID: &rd.ItemID,
			}); err != nil {
				return err
			}
			refunded = true
			pending = append(pending, withItem(note(rd.UserID, models.NotifyPointsEarned,
				"Redemption Rejected",
				fmt.Sprintf("Your redemption of %q was rejected, %d points refunded", it.Title, rd.PointsUsed)), it.ID))

		case RedemptionComplete:
			if !rd.Status.CanTransitionTo(models.RedemptionCompleted) {
				return conflict(fmt.Sprintf("redemption is %s, not approved", rd.Status))
			}
			// The item stayed on the market during negotiation; it may
			// have been accepted into a swap meanwhile.
			if !it.Status.CanTransitionTo(models.ItemSwapped) {
				return conflict(fmt.Sprintf("item %q is no longer available", it.Title))
			}
			if err := tx.SetItemStatus(ctx, it.ID, models.ItemSwapped); err != nil {
				return err
			}
			if err := tx.SetRedemptionCompleted(ctx, rd.ID); err != nil {
				return err
			}
			rd.Status = models.RedemptionCompleted
			pending = append(pending, withItem(note(rd.UserID, models.NotifyGeneral,
				"Redemption Completed",
				fmt.Sprintf("%q is yours. Enjoy!", it.Title)), it.ID))

		default:
			return validation("decision must be approve, reject or complete")
		}
		out = rd
		return nil
	})
	if err != nil {
		return models.Redemption{}, translate(err)
	}
	metrics.RedemptionsTotal.WithLabelValues(string(decision)).Inc()
	if refunded {
		metrics.LedgerEntriesTotal.WithLabelValues(string(models.EntryBonus)).Inc()
	}
	e.dispatch(pending)
	return out, nil
}

// ---------- redemption queries ----------

// GetRedemption is visible to the requester and the item owner only.
func (e *Engine) GetRedemption(ctx context.Context, id, userID string) (models.Redemption, error) {
	rd, err := e.store.GetRedemption(ctx, id)
	if err != nil {
		return models.Redemption{}, translate(err)
	}
	if rd.UserID != userID {
		it, err := e.store.GetItem(ctx, rd.ItemID)
		if err != nil {
			return models.Redemption{}, translate(err)
		}
		if it.OwnerID != userID {
			return models.Redemption{}, unauthorized("not a participant of this redemption")
		}
	}
	return rd, nil
}

func (e *Engine) ListRedemptions(ctx context.Context, userID string, limit, offset int) ([]models.Redemption, error) {
	out, err := e.store.ListRedemptionsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
