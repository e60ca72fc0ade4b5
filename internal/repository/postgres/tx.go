package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

type pgTx struct {
	tx pgx.Tx
}

var _ repository.Tx = (*pgTx)(nil)

// ---------- items ----------

// LockItems takes FOR UPDATE row locks in ascending id order. Two
// transactions locking overlapping item sets always queue in the same
// order, so they cannot deadlock against each other.
func (t *pgTx) LockItems(ctx context.Context, ids ...string) ([]models.Item, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	rows, err := t.tx.Query(ctx,
		`SELECT `+itemCols+` FROM items WHERE id = ANY($1) ORDER BY id FOR UPDATE`, sorted)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := collectItems(rows)
	if err != nil {
		return nil, err
	}
	if len(out) != len(sorted) {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (t *pgTx) CreateItem(ctx context.Context, it models.Item) (models.Item, error) {
	it.ID = uuid.NewString()
	err := t.tx.QueryRow(ctx,
		`INSERT INTO items(id, owner_id, title, description, category, size, condition, tags,
		                   status, points_value, swap_eligible, points_eligible)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 RETURNING created_at, updated_at`,
		it.ID, it.OwnerID, it.Title, it.Description, it.Category, it.Size, it.Condition, it.Tags,
		it.Status, it.PointsValue, it.SwapEligible, it.PointsEligible,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	return it, mapErr(err)
}

// SetItemStatus applies only transitions the item table allows; the
// WHERE clause re-checks the current status so a stale caller gets a
// conflict, not a silent overwrite.
func (t *pgTx) SetItemStatus(ctx context.Context, id string, st models.ItemStatus) error {
	var current models.ItemStatus
	if err := t.tx.QueryRow(ctx, `SELECT status FROM items WHERE id=$1`, id).Scan(&current); err != nil {
		return mapErr(err)
	}
	if !current.CanTransitionTo(st) {
		return fmt.Errorf("%w: item %s -> %s", repository.ErrConflict, current, st)
	}
	ct, err := t.tx.Exec(ctx,
		`UPDATE items SET status=$2, updated_at=now() WHERE id=$1 AND status=$3`, id, st, current)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (t *pgTx) SetItemApproved(ctx context.Context, id, approvedBy string) error {
	ct, err := t.tx.Exec(ctx,
		`UPDATE items SET approved_at=now(), approved_by=$2, updated_at=now() WHERE id=$1`, id, approvedBy)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ---------- ledger ----------

func (t *pgTx) LockBalances(ctx context.Context, userIDs ...string) error {
	sorted := append([]string(nil), userIDs...)
	sort.Strings(sorted)
	for _, uid := range sorted {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO balances(user_id, amount, last_updated_at) VALUES($1, 0, now())
			 ON CONFLICT (user_id) DO NOTHING`, uid); err != nil {
			return mapErr(err)
		}
	}
	rows, err := t.tx.Query(ctx,
		`SELECT user_id FROM balances WHERE user_id = ANY($1) ORDER BY user_id FOR UPDATE`, sorted)
	if err != nil {
		return mapErr(err)
	}
	rows.Close()
	return mapErr(rows.Err())
}

// AppendEntry moves the materialized counter and inserts the entry in
// one transaction step. The guarded UPDATE is the non-negative-balance
// invariant: if it matches no row, the debit would overdraw and nothing
// is written.
func (t *pgTx) AppendEntry(ctx context.Context, e models.LedgerEntry) (models.LedgerEntry, error) {
	if !e.Kind.SignOK(e.Amount) {
		return models.LedgerEntry{}, fmt.Errorf("amount sign does not match kind %s", e.Kind)
	}
	ct, err := t.tx.Exec(ctx,
		`UPDATE balances
		    SET amount = amount + $2, last_updated_at = now()
		  WHERE user_id = $1 AND amount + $2 >= 0`,
		e.UserID, e.Amount)
	if err != nil {
		return models.LedgerEntry{}, mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return models.LedgerEntry{}, repository.ErrInsufficientFunds
	}
	e.ID = uuid.NewString()
	err = t.tx.QueryRow(ctx,
		`INSERT INTO ledger_entries(id, user_id, kind, amount, reason, item_id)
		 VALUES($1,$2,$3,$4,$5,$6)
		 RETURNING created_at`,
		e.ID, e.UserID, e.Kind, e.Amount, e.Reason, e.ItemID,
	).Scan(&e.CreatedAt)
	return e, mapErr(err)
}

// ---------- swaps ----------

func (t *pgTx) CreateSwap(ctx context.Context, sr models.SwapRequest) (models.SwapRequest, error) {
	sr.ID = uuid.NewString()
	err := t.tx.QueryRow(ctx,
		`INSERT INTO swap_requests(id, requester_id, owner_id, requester_item_id, requested_item_id, status, message)
		 VALUES($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at, updated_at`,
		sr.ID, sr.RequesterID, sr.OwnerID, sr.RequesterItemID, sr.RequestedItemID, sr.Status, sr.Message,
	).Scan(&sr.CreatedAt, &sr.UpdatedAt)
	return sr, mapErr(err)
}

func (t *pgTx) GetSwapForUpdate(ctx context.Context, id string) (models.SwapRequest, error) {
	return scanSwap(t.tx.QueryRow(ctx,
		`SELECT `+swapCols+` FROM swap_requests WHERE id=$1 FOR UPDATE`, id))
}

func (t *pgTx) SetSwapStatus(ctx context.Context, id string, st models.SwapStatus, response string) error {
	var current models.SwapStatus
	if err := t.tx.QueryRow(ctx, `SELECT status FROM swap_requests WHERE id=$1`, id).Scan(&current); err != nil {
		return mapErr(err)
	}
	if !current.CanTransitionTo(st) {
		return fmt.Errorf("%w: swap %s -> %s", repository.ErrConflict, current, st)
	}
	_, err := t.tx.Exec(ctx,
		`UPDATE swap_requests
		    SET status=$2,
		        response_message = CASE WHEN $3 <> '' THEN $3 ELSE response_message END,
		        updated_at=now()
		  WHERE id=$1`,
		id, st, response)
	return mapErr(err)
}

func (t *pgTx) SetSwapCompleted(ctx context.Context, id string) error {
	var current models.SwapStatus
	if err := t.tx.QueryRow(ctx, `SELECT status FROM swap_requests WHERE id=$1`, id).Scan(&current); err != nil {
		return mapErr(err)
	}
	if !current.CanTransitionTo(models.SwapCompleted) {
		return fmt.Errorf("%w: swap %s -> completed", repository.ErrConflict, current)
	}
	_, err := t.tx.Exec(ctx,
		`UPDATE swap_requests SET status='completed', completed_at=now(), updated_at=now() WHERE id=$1`, id)
	return mapErr(err)
}

func (t *pgTx) HasPendingSwapForPair(ctx context.Context, requesterItemID, requestedItemID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM swap_requests
		                WHERE requester_item_id=$1 AND requested_item_id=$2 AND status='pending')`,
		requesterItemID, requestedItemID).Scan(&exists)
	return exists, mapErr(err)
}

func (t *pgTx) PendingSwapsTouching(ctx context.Context, itemIDs []string, exceptSwapID string) ([]models.SwapRequest, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+swapCols+` FROM swap_requests
		  WHERE status='pending' AND id <> $2
		    AND (requester_item_id = ANY($1) OR requested_item_id = ANY($1))
		  ORDER BY created_at`,
		itemIDs, exceptSwapID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []models.SwapRequest
	for rows.Next() {
		sr, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, mapErr(rows.Err())
}

// ---------- redemptions ----------

func (t *pgTx) CreateRedemption(ctx context.Context, rd models.Redemption) (models.Redemption, error) {
	rd.ID = uuid.NewString()
	err := t.tx.QueryRow(ctx,
		`INSERT INTO redemptions(id, user_id, item_id, points_used, status, message)
		 VALUES($1,$2,$3,$4,$5,$6)
		 RETURNING created_at, updated_at`,
		rd.ID, rd.UserID, rd.ItemID, rd.PointsUsed, rd.Status, rd.Message,
	).Scan(&rd.CreatedAt, &rd.UpdatedAt)
	return rd, mapErr(err)
}

func (t *pgTx) GetRedemptionForUpdate(ctx context.Context, id string) (models.Redemption, error) {
	return scanRedemption(t.tx.QueryRow(ctx,
		`SELECT `+redemptionCols+` FROM redemptions WHERE id=$1 FOR UPDATE`, id))
}

func (t *pgTx) SetRedemptionStatus(ctx context.Context, id string, st models.RedemptionStatus) error {
	var current models.RedemptionStatus
	if err := t.tx.QueryRow(ctx, `SELECT status FROM redemptions WHERE id=$1`, id).Scan(&current); err != nil {
		return mapErr(err)
	}
	if !current.CanTransitionTo(st) {
		return fmt.Errorf("%w: redemption %s -> %s", repository.ErrConflict, current, st)
	}
	_, err := t.tx.Exec(ctx,
		`UPDATE redemptions SET status=$2, updated_at=now() WHERE id=$1`, id, st)
	return mapErr(err)
}

func (t *pgTx) SetRedemptionCompleted(ctx context.Context, id string) error {
	var current models.RedemptionStatus
	if err := t.tx.QueryRow(ctx, `SELECT status FROM redemptions WHERE id=$1`, id).Scan(&current); err != nil {
		return mapErr(err)
	}
	if !current.CanTransitionTo(models.RedemptionCompleted) {
		return fmt.Errorf("%w: redemption %s -> completed", repository.ErrConflict, current)
	}
	_, err := t.tx.Exec(ctx,
		`UPDATE redemptions SET status='completed', completed_at=now(), updated_at=now() WHERE id=$1`, id)
	return mapErr(err)
}

func (t *pgTx) HasPendingRedemption(ctx context.Context, userID, itemID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM redemptions WHERE user_id=$1 AND item_id=$2 AND status='pending')`,
		userID, itemID).Scan(&exists)
	return exists, mapErr(err)
}

// ---------- users ----------

func (t *pgTx) GetUser(ctx context.Context, id string) (models.User, error) {
	return scanUser(t.tx.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role, created_at, updated_at FROM users WHERE id=$1`, id))
}
