// Package postgres implements repository.Store on a pgx pool. Row locks
// are taken with SELECT ... FOR UPDATE in ascending id order under a
// per-transaction lock_timeout, so contention surfaces as a retryable
// conflict instead of an unbounded wait.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

type Store struct {
	pool     *pgxpool.Pool
	lockWait time.Duration
}

var _ repository.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, lockWait time.Duration) *Store {
	if lockWait <= 0 {
		lockWait = 500 * time.Millisecond
	}
	return &Store{pool: pool, lockWait: lockWait}
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return mapErr(err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockWait.Milliseconds())); err != nil {
		_ = tx.Rollback(ctx)
		return mapErr(err)
	}
	if err := fn(&pgTx{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return mapErr(err)
	}
	return mapErr(tx.Commit(ctx))
}

// mapErr folds pgx/postgres failures into the repository sentinels so
// nothing above this package depends on pg error codes.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", // lock_not_available
			"40001", // serialization_failure
			"40P01", // deadlock_detected
			"23505": // unique_violation (pending-pair / pending-redemption guards)
			return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.Code)
		}
	}
	return err
}

// ---------- users ----------

func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash, role string) (models.User, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users(id, username, email, password_hash, role) VALUES($1,$2,$3,$4,$5)`,
		id, username, email, passwordHash, role,
	)
	if err != nil {
		return models.User{}, mapErr(err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role, created_at, updated_at FROM users WHERE id=$1`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role, created_at, updated_at FROM users WHERE email=$1`, email))
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, mapErr(err)
}

// ---------- notifications ----------

func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.ID = uuid.NewString()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO notifications(id, user_id, kind, title, message, is_read, item_id, swap_id)
		 VALUES($1,$2,$3,$4,$5,false,$6,$7)
		 RETURNING created_at`,
		n.ID, n.UserID, n.Kind, n.Title, n.Message, n.ItemID, n.SwapID,
	).Scan(&n.CreatedAt)
	return n, mapErr(err)
}

func (s *Store) ListNotificationsByUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, kind, title, message, is_read, item_id, swap_id, created_at
		   FROM notifications
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limitOr(limit, 50), offset,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Message, &n.IsRead, &n.ItemID, &n.SwapID, &n.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, n)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read=true WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read=true WHERE user_id=$1 AND is_read=false`, userID)
	return mapErr(err)
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id=$1 AND is_read=false`, userID).Scan(&n)
	return n, mapErr(err)
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
