// Package memory implements repository.Store in process memory. It
// serializes writers: a transaction mutates a copy of the state and the
// copy replaces the original only on commit, so an aborted transaction
// leaves no trace. Intended for tests and single-node dev setups.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/repository"
)

type state struct {
	users         map[string]models.User
	emailIndex    map[string]string // email -> user id
	items         map[string]models.Item
	swaps         map[string]models.SwapRequest
	redemptions   map[string]models.Redemption
	entries       []models.LedgerEntry
	balances      map[string]int64
	balanceTimes  map[string]time.Time
	notifications map[string]models.Notification
	seq           map[string]int64 // creation order, for stable newest-first listings
	nextSeq       int64
}

func newState() *state {
	return &state{
		users:         map[string]models.User{},
		emailIndex:    map[string]string{},
		items:         map[string]models.Item{},
		swaps:         map[string]models.SwapRequest{},
		redemptions:   map[string]models.Redemption{},
		balances:      map[string]int64{},
		balanceTimes:  map[string]time.Time{},
		notifications: map[string]models.Notification{},
		seq:           map[string]int64{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.emailIndex {
		c.emailIndex[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.swaps {
		c.swaps[k] = v
	}
	for k, v := range s.redemptions {
		c.redemptions[k] = v
	}
	c.entries = append([]models.LedgerEntry(nil), s.entries...)
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.balanceTimes {
		c.balanceTimes[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	c.nextSeq = s.nextSeq
	return c
}

func (s *state) stamp(id string) {
	s.nextSeq++
	s.seq[id] = s.nextSeq
}

type Store struct {
	mu       sync.RWMutex
	lockWait time.Duration
	st       *state
}

var _ repository.Store = (*Store)(nil)

func NewStore(lockWait time.Duration) *Store {
	if lockWait <= 0 {
		lockWait = 500 * time.Millisecond
	}
	return &Store{lockWait: lockWait, st: newState()}
}

// WithinTx runs fn against a copy of the state under the single writer
// lock. Lock acquisition is bounded: contention past lockWait surfaces
// as a retryable conflict instead of blocking forever.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Tx) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&memTx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) acquire(ctx context.Context) error {
	deadline := time.Now().Add(s.lockWait)
	for {
		if s.mu.TryLock() {
			return nil
		}
		if time.Now().After(deadline) {
			return repository.ErrConflict
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

// ---------- users (auto-commit) ----------

func (s *Store) CreateUser(_ context.Context, username, email, passwordHash, role string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.st.emailIndex[email]; exists {
		return models.User{}, repository.ErrConflict
	}
	now := time.Now()
	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.st.users[u.ID] = u
	s.st.emailIndex[email] = u.ID
	return u, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.st.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.st.emailIndex[email]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return s.st.users[id], nil
}

// ---------- notifications (auto-commit) ----------

func (s *Store) CreateNotification(_ context.Context, n models.Notification) (models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	s.st.notifications[n.ID] = n
	s.st.stamp(n.ID)
	return n, nil
}

func (s *Store) ListNotificationsByUser(_ context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.st.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.st.seq[out[i].ID] > s.st.seq[out[j].ID] })
	return page(out, limit, offset), nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.st.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	n.IsRead = true
	s.st.notifications[id] = n
	return nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.st.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			s.st.notifications[id] = n
		}
	}
	return nil
}

func (s *Store) CountUnreadNotifications(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.st.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// ---------- snapshot queries ----------

func (s *Store) GetItem(_ context.Context, id string) (models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.st.items[id]
	if !ok {
		return models.Item{}, repository.ErrNotFound
	}
	return it, nil
}

func (s *Store) ListAvailableItems(_ context.Context, f repository.ItemFilter) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Item
	for _, it := range s.st.items {
		if it.Status != models.ItemAvailable {
			continue
		}
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		if f.Size != "" && it.Size != f.Size {
			continue
		}
		if f.Condition != "" && it.Condition != f.Condition {
			continue
		}
		if f.MinPoints > 0 && it.PointsValue < f.MinPoints {
			continue
		}
		if f.MaxPoints > 0 && it.PointsValue > f.MaxPoints {
			continue
		}
		if f.SwapOnly && !it.SwapEligible {
			continue
		}
		if f.PointsOnly && !it.PointsEligible {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return s.st.seq[out[i].ID] > s.st.seq[out[j].ID] })
	return page(out, f.Limit, f.Offset), nil
}

func (s *Store) ListItemsByOwner(_ context.Context, ownerID string) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Item
	for _, it := range s.st.items {
		if it.OwnerID == ownerID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.st.seq[out[i].ID] > s.st.seq[out[j].ID] })
	return out, nil
}

func (s *Store) ListPendingItems(_ context.Context, limit, offset int) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Item
	for _, it := range s.st.items {
		if it.Status == models.ItemPending {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.st.seq[out[i].ID] < s.st.seq[out[j].ID] })
	return page(out, limit, offset), nil
}

func (s *Store) GetSwap(_ context.Context, id string) (models.SwapRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, ok := s.st.swaps[id]
	if !ok {
		return models.SwapRequest{}, repository.ErrNotFound
	}
	return sr, nil
}

func (s *Store) ListSwapsByUser(_ context.Context, userID, side string, limit, offset int) ([]models.SwapRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.SwapRequest
	for _, sr := range s.st.swaps {
		switch side {
		case "sent":
			if sr.RequesterID != userID {
				continue
			}
		case "received":
			if sr.OwnerID != userID {
				continue
			}
		default:
			if !sr.Party(userID) {
				continue
			}
		}
		out = append(out, sr)
	}
	sort.Slice(out, func(i, j int) bool { return s.st.seq[out[i].ID] > s.st.seq[out[j].ID] })
	return page(out, limit, offset), nil
}

func (s *Store) GetRedemption(_ context.Context, id string) (models.Redemption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rd, ok := s.st.redemptions[id]
	if !ok {
		return models.Redemption{}, repository.ErrNotFound
	}
	return rd, nil
}

func (s *Store) ListRedemptionsByUser(_ context.Context, userID string, limit, offset int) ([]models.Redemption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Redemption
	for _, rd := range s.st.redemptions {
		if rd.UserID == userID {
			out = append(out, rd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.st.seq[out[i].ID] > s.st.seq[out[j].ID] })
	return page(out, limit, offset), nil
}

func (s *Store) BalanceOf(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.balances[userID], nil
}

func (s *Store) ListLedgerByUser(_ context.Context, userID string, limit, offset int) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.LedgerEntry
	for i := len(s.st.entries) - 1; i >= 0; i-- {
		if s.st.entries[i].UserID == userID {
			out = append(out, s.st.entries[i])
		}
	}
	return page(out, limit, offset), nil
}

func (s *Store) DashboardStats(ctx context.Context, userID string) (models.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st models.DashboardStats
	st.PointsBalance = s.st.balances[userID]
	for _, it := range s.st.items {
		if it.OwnerID != userID {
			continue
		}
		st.TotalItems++
		switch it.Status {
		case models.ItemAvailable:
			st.AvailableItems++
		case models.ItemPending:
			st.PendingItems++
		}
	}
	for _, sr := range s.st.swaps {
		switch {
		case sr.Status == models.SwapPending && sr.OwnerID == userID:
			st.PendingSwapRequests++
		case sr.Status == models.SwapAccepted && sr.Party(userID):
			st.OngoingSwaps++
		case sr.Status == models.SwapCompleted && sr.Party(userID):
			st.CompletedSwaps++
		}
	}
	for _, n := range s.st.notifications {
		if n.UserID == userID && !n.IsRead {
			st.UnreadNotifications++
		}
	}
	return st, nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
