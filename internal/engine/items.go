package engine

import (
	"context"
	"fmt"

	"github.com/rewearhq/rewear-backend/internal/metrics"
	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

// ItemInput carries the listable fields of a new item.
type ItemInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	Size           string `json:"size"`
	Condition      string `json:"condition"`
	Tags           string `json:"tags"`
	PointsValue    int64  `json:"points_value"`
	SwapEligible   bool   `json:"swap_eligible"`
	PointsEligible bool   `json:"points_eligible"`
}

// ListItem creates a pending listing and credits the listing reward.
// The item stays invisible to other users until moderation approves it.
func (e *Engine) ListItem(ctx context.Context, ownerID string, in ItemInput) (models.Item, error) {
	it := models.Item{
		OwnerID:        ownerID,
		Title:          in.Title,
		Description:    in.Description,
		Category:       in.Category,
		Size:           in.Size,
		Condition:      in.Condition,
		Tags:           in.Tags,
		Status:         models.ItemPending,
		PointsValue:    in.PointsValue,
		SwapEligible:   in.SwapEligible,
		PointsEligible: in.PointsEligible,
	}
	if it.PointsValue == 0 {
		it.PointsValue = 10
	}
	if err := it.Validate(); err != nil {
		return models.Item{}, validation(err.Error())
	}

	var out models.Item
	err := e.store.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetUser(ctx, ownerID); err != nil {
			return err
		}
		var err error
		out, err = tx.CreateItem(ctx, it)
		if err != nil {
			return err
		}
		if err := tx.LockBalances(ctx, ownerID); err != nil {
			return err
		}
		_, err = tx.AppendEntry(ctx, models.LedgerEntry{
			UserID: ownerID,
			Kind:   models.EntryEarned,
			Amount: e.cfg.ListingReward,
			Reason: "Points earned for listing an item",
			ItemID: &out.ID,
		})
		return err
	})
	if err != nil {
		return models.Item{}, translate(err)
	}
	metrics.LedgerEntriesTotal.WithLabelValues(string(models.EntryEarned)).Inc()
	return out, nil
}

// ModerateItem approves or rejects a pending listing. Admin only.
func (e *Engine) ModerateItem(ctx context.Context, adminID, itemID string, approve bool, message string) (models.Item, error) {
	var out models.Item
	var pending []models.Notification
	err := e.store.WithinTx(ctx, func(tx repository.Tx) error {
		admin, err := tx.GetUser(ctx, adminID)
		if err != nil {
			return err
		}
		if admin.Role != models.RoleAdmin {
			return unauthorized("moderation requires admin role")
		}
		items, err := tx.LockItems(ctx, itemID)
		if err != nil {
			return err
		}
		it := items[0]
		if it.Status != models.ItemPending {
			return conflict(fmt.Sprintf("item is %s, not pending", it.Status))
		}
		if approve {
			if err := tx.SetItemStatus(ctx, it.ID, models.ItemAvailable); err != nil {
				return err
			}
			if err := tx.SetItemApproved(ctx, it.ID, adminID); err != nil {
				return err
			}
			it.Status = models.ItemAvailable
			pending = append(pending, withItem(note(it.OwnerID, models.NotifyItemApproved,
				"Item Approved",
				fmt.Sprintf("Your item %q has been approved and is now available for swapping!", it.Title)), it.ID))
		} else {
			if err := tx.SetItemStatus(ctx, it.ID, models.ItemRejected); err != nil {
				return err
			}
			it.Status = models.ItemRejected
			pending = append(pending, withItem(note(it.OwnerID, models.NotifyItemRejected,
				"Item Rejected",
				fmt.Sprintf("Your item %q has been rejected. Reason: %s", it.Title, message)), it.ID))
		}
		out = it
		return nil
	})
	if err != nil {
		return models.Item{}, translate(err)
	}
	e.dispatch(pending)
	return out, nil
}

// ---------- item queries ----------

func (e *Engine) GetItem(ctx context.Context, id string) (models.Item, error) {
	it, err := e.store.GetItem(ctx, id)
	if err != nil {
		return models.Item{}, translate(err)
	}
	return it, nil
}

func (e *Engine) ListAvailableItems(ctx context.Context, f repository.ItemFilter) ([]models.Item, error) {
	out, err := e.store.ListAvailableItems(ctx, f)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (e *Engine) MyItems(ctx context.Context, ownerID string) ([]models.Item, error) {
	out, err := e.store.ListItemsByOwner(ctx, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (e *Engine) PendingItems(ctx context.Context, limit, offset int) ([]models.Item, error) {
	out, err := e.store.ListPendingItems(ctx, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
