package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

const itemCols = `id, owner_id, title, description, category, size, condition, tags,
	status, points_value, swap_eligible, points_eligible, created_at, updated_at, approved_at, approved_by`

const swapCols = `id, requester_id, owner_id, requester_item_id, requested_item_id,
	status, message, response_message, created_at, updated_at, completed_at`

const redemptionCols = `id, user_id, item_id, points_used, status, message, created_at, updated_at, completed_at`

func scanItem(row pgx.Row) (models.Item, error) {
	var it models.Item
	err := row.Scan(&it.ID, &it.OwnerID, &it.Title, &it.Description, &it.Category, &it.Size,
		&it.Condition, &it.Tags, &it.Status, &it.PointsValue, &it.SwapEligible, &it.PointsEligible,
		&it.CreatedAt, &it.UpdatedAt, &it.ApprovedAt, &it.ApprovedBy)
	return it, mapErr(err)
}

func collectItems(rows pgx.Rows) ([]models.Item, error) {
	defer rows.Close()
	var out []models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, mapErr(rows.Err())
}

func scanSwap(row pgx.Row) (models.SwapRequest, error) {
	var sr models.SwapRequest
	err := row.Scan(&sr.ID, &sr.RequesterID, &sr.OwnerID, &sr.RequesterItemID, &sr.RequestedItemID,
		&sr.Status, &sr.Message, &sr.ResponseMessage, &sr.CreatedAt, &sr.UpdatedAt, &sr.CompletedAt)
	return sr, mapErr(err)
}

func scanRedemption(row pgx.Row) (models.Redemption, error) {
	var rd models.Redemption
	err := row.Scan(&rd.ID, &rd.UserID, &rd.ItemID, &rd.PointsUsed, &rd.Status, &rd.Message,
		&rd.CreatedAt, &rd.UpdatedAt, &rd.CompletedAt)
	return rd, mapErr(err)
}

func (s *Store) GetItem(ctx context.Context, id string) (models.Item, error) {
	return scanItem(s.pool.QueryRow(ctx, `SELECT `+itemCols+` FROM items WHERE id=$1`, id))
}

func (s *Store) ListAvailableItems(ctx context.Context, f repository.ItemFilter) ([]models.Item, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + itemCols + ` FROM items WHERE status='available'`)
	args := []any{}
	add := func(clause string, v any) {
		args = append(args, v)
		sb.WriteString(" AND " + clause + "$" + strconv.Itoa(len(args)))
	}
	if f.Category != "" {
		add("category=", f.Category)
	}
	if f.Size != "" {
		add("size=", f.Size)
	}
	if f.Condition != "" {
		add("condition=", f.Condition)
	}
	if f.MinPoints > 0 {
		add("points_value>=", f.MinPoints)
	}
	if f.MaxPoints > 0 {
		add("points_value<=", f.MaxPoints)
	}
	if f.SwapOnly {
		sb.WriteString(" AND swap_eligible")
	}
	if f.PointsOnly {
		sb.WriteString(" AND points_eligible")
	}
	args = append(args, limitOr(f.Limit, 20))
	sb.WriteString(" ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)))
	args = append(args, f.Offset)
	sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, mapErr(err)
	}
	return collectItems(rows)
}

func (s *Store) ListItemsByOwner(ctx context.Context, ownerID string) ([]models.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+itemCols+` FROM items WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, mapErr(err)
	}
	return collectItems(rows)
}

func (s *Store) ListPendingItems(ctx context.Context, limit, offset int) ([]models.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+itemCols+` FROM items WHERE status='pending' ORDER BY created_at LIMIT $1 OFFSET $2`,
		limitOr(limit, 50), offset)
	if err != nil {
		return nil, mapErr(err)
	}
	return collectItems(rows)
}

func (s *Store) GetSwap(ctx context.Context, id string) (models.SwapRequest, error) {
	return scanSwap(s.pool.QueryRow(ctx, `SELECT `+swapCols+` FROM swap_requests WHERE id=$1`, id))
}

func (s *Store) ListSwapsByUser(ctx context.Context, userID, side string, limit, offset int) ([]models.SwapRequest, error) {
	where := `(requester_id=$1 OR owner_id=$1)`
	switch side {
	case "sent":
		where = `requester_id=$1`
	case "received":
		where = `owner_id=$1`
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+swapCols+` FROM swap_requests WHERE `+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limitOr(limit, 50), offset)
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

func (s *Store) GetRedemption(ctx context.Context, id string) (models.Redemption, error) {
	return scanRedemption(s.pool.QueryRow(ctx, `SELECT `+redemptionCols+` FROM redemptions WHERE id=$1`, id))
}

func (s *Store) ListRedemptionsByUser(ctx context.Context, userID string, limit, offset int) ([]models.Redemption, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+redemptionCols+` FROM redemptions WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limitOr(limit, 50), offset)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []models.Redemption
	for rows.Next() {
		rd, err := scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) BalanceOf(ctx context.Context, userID string) (int64, error) {
	var amount int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE((SELECT amount FROM balances WHERE user_id=$1), 0)`, userID).Scan(&amount)
	return amount, mapErr(err)
}

func (s *Store) ListLedgerByUser(ctx context.Context, userID string, limit, offset int) ([]models.LedgerEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, kind, amount, reason, item_id, created_at
		   FROM ledger_entries
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limitOr(limit, 50), offset)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.Amount, &e.Reason, &e.ItemID, &e.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, e)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) DashboardStats(ctx context.Context, userID string) (models.DashboardStats, error) {
	var st models.DashboardStats
	err := s.pool.QueryRow(ctx, `
SELECT
  (SELECT count(*) FROM items WHERE owner_id=$1),
  (SELECT count(*) FROM items WHERE owner_id=$1 AND status='available'),
  (SELECT count(*) FROM items WHERE owner_id=$1 AND status='pending'),
  COALESCE((SELECT amount FROM balances WHERE user_id=$1), 0),
  (SELECT count(*) FROM swap_requests WHERE owner_id=$1 AND status='pending'),
  (SELECT count(*) FROM swap_requests WHERE (requester_id=$1 OR owner_id=$1) AND status='accepted'),
  (SELECT count(*) FROM swap_requests WHERE (requester_id=$1 OR owner_id=$1) AND status='completed'),
  (SELECT count(*) FROM notifications WHERE user_id=$1 AND is_read=false)`,
		userID,
	).Scan(&st.TotalItems, &st.AvailableItems, &st.PendingItems, &st.PointsBalance,
		&st.PendingSwapRequests, &st.OngoingSwaps, &st.CompletedSwaps, &st.UnreadNotifications)
	return st, mapErr(err)
}
