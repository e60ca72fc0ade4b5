package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

// memTx operates on the working copy of the state. Writers are already
// serialized by the store, so Lock* calls here only validate existence
// and materialize balance rows; the isolation comes from copy-on-commit.
type memTx struct {
	st *state
}

var _ repository.Tx = (*memTx)(nil)

// ---------- items ----------

func (t *memTx) LockItems(_ context.Context, ids ...string) ([]models.Item, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	out := make([]models.Item, 0, len(sorted))
	for _, id := range sorted {
		it, ok := t.st.items[id]
		if !ok {
			return nil, repository.ErrNotFound
		}
		out = append(out, it)
	}
	return out, nil
}

func (t *memTx) CreateItem(_ context.Context, it models.Item) (models.Item, error) {
	now := time.Now()
	it.ID = uuid.NewString()
	it.CreatedAt = now
	it.UpdatedAt = now
	t.st.items[it.ID] = it
	t.st.stamp(it.ID)
	return it, nil
}

func (t *memTx) SetItemStatus(_ context.Context, id string, st models.ItemStatus) error {
	it, ok := t.st.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !it.Status.CanTransitionTo(st) {
		return fmt.Errorf("%w: item %s -> %s", repository.ErrConflict, it.Status, st)
	}
	it.Status = st
	it.UpdatedAt = time.Now()
	t.st.items[id] = it
	return nil
}

func (t *memTx) SetItemApproved(_ context.Context, id, approvedBy string) error {
	it, ok := t.st.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	it.ApprovedAt = &now
	it.ApprovedBy = &approvedBy
	it.UpdatedAt = now
	t.st.items[id] = it
	return nil
}

// ---------- ledger ----------

func (t *memTx) LockBalances(_ context.Context, userIDs ...string) error {
	for _, uid := range userIDs {
		if _, ok := t.st.balances[uid]; !ok {
			t.st.balances[uid] = 0
		}
	}
	return nil
}

func (t *memTx) AppendEntry(_ context.Context, e models.LedgerEntry) (models.LedgerEntry, error) {
	if !e.Kind.SignOK(e.Amount) {
		return models.LedgerEntry{}, fmt.Errorf("amount sign does not match kind %s", e.Kind)
	}
	next := t.st.balances[e.UserID] + e.Amount
	if next < 0 {
		return models.LedgerEntry{}, repository.ErrInsufficientFunds
	}
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	t.st.entries = append(t.st.entries, e)
	t.st.balances[e.UserID] = next
	t.st.balanceTimes[e.UserID] = e.CreatedAt
	return e, nil
}

// ---------- swaps ----------

func (t *memTx) CreateSwap(_ context.Context, sr models.SwapRequest) (models.SwapRequest, error) {
	now := time.Now()
	sr.ID = uuid.NewString()
	sr.CreatedAt = now
	sr.UpdatedAt = now
	t.st.swaps[sr.ID] = sr
	t.st.stamp(sr.ID)
	return sr, nil
}

func (t *memTx) GetSwapForUpdate(_ context.Context, id string) (models.SwapRequest, error) {
	sr, ok := t.st.swaps[id]
	if !ok {
		return models.SwapRequest{}, repository.ErrNotFound
	}
	return sr, nil
}

func (t *memTx) SetSwapStatus(_ context.Context, id string, st models.SwapStatus, response string) error {
	sr, ok := t.st.swaps[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !sr.Status.CanTransitionTo(st) {
		return fmt.Errorf("%w: swap %s -> %s", repository.ErrConflict, sr.Status, st)
	}
	sr.Status = st
	if response != "" {
		sr.ResponseMessage = response
	}
	sr.UpdatedAt = time.Now()
	t.st.swaps[id] = sr
	return nil
}

func (t *memTx) SetSwapCompleted(_ context.Context, id string) error {
	sr, ok := t.st.swaps[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !sr.Status.CanTransitionTo(models.SwapCompleted) {
		return fmt.Errorf("%w: swap %s -> completed", repository.ErrConflict, sr.Status)
	}
	now := time.Now()
	sr.Status = models.SwapCompleted
	sr.CompletedAt = &now
	sr.UpdatedAt = now
	t.st.swaps[id] = sr
	return nil
}

func (t *memTx) HasPendingSwapForPair(_ context.Context, requesterItemID, requestedItemID string) (bool, error) {
	for _, sr := range t.st.swaps {
		if sr.Status == models.SwapPending &&
			sr.RequesterItemID == requesterItemID &&
			sr.RequestedItemID == requestedItemID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) PendingSwapsTouching(_ context.Context, itemIDs []string, exceptSwapID string) ([]models.SwapRequest, error) {
	var out []models.SwapRequest
	for _, sr := range t.st.swaps {
		if sr.ID == exceptSwapID || sr.Status != models.SwapPending {
			continue
		}
		for _, id := range itemIDs {
			if sr.Touches(id) {
				out = append(out, sr)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return t.st.seq[out[i].ID] < t.st.seq[out[j].ID] })
	return out, nil
}

// ---------- redemptions ----------

func (t *memTx) CreateRedemption(_ context.Context, rd models.Redemption) (models.Redemption, error) {
	now := time.Now()
	rd.ID = uuid.NewString()
	rd.CreatedAt = now
	rd.UpdatedAt = now
	t.st.redemptions[rd.ID] = rd
	t.st.stamp(rd.ID)
	return rd, nil
}

func (t *memTx) GetRedemptionForUpdate(_ context.Context, id string) (models.Redemption, error) {
	rd, ok := t.st.redemptions[id]
	if !ok {
		return models.Redemption{}, repository.ErrNotFound
	}
	return rd, nil
}

func (t *memTx) SetRedemptionStatus(_ context.Context, id string, st models.RedemptionStatus) error {
	rd, ok := t.st.redemptions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !rd.Status.CanTransitionTo(st) {
		return fmt.Errorf("%w: redemption %s -> %s", repository.ErrConflict, rd.Status, st)
	}
	rd.Status = st
	rd.UpdatedAt = time.Now()
	t.st.redemptions[id] = rd
	return nil
}

func (t *memTx) SetRedemptionCompleted(_ context.Context, id string) error {
	rd, ok := t.st.redemptions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !rd.Status.CanTransitionTo(models.RedemptionCompleted) {
		return fmt.Errorf("%w: redemption %s -> completed", repository.ErrConflict, rd.Status)
	}
	now := time.Now()
	rd.Status = models.RedemptionCompleted
	rd.CompletedAt = &now
	rd.UpdatedAt = now
	t.st.redemptions[id] = rd
	return nil
}

func (t *memTx) HasPendingRedemption(_ context.Context, userID, itemID string) (bool, error) {
	for _, rd := range t.st.redemptions {
		if rd.Status == models.RedemptionPending && rd.UserID == userID && rd.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

// ---------- users ----------

func (t *memTx) GetUser(_ context.Context, id string) (models.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return u, nil
}
