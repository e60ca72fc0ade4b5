package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rewearhq/rewear-backend/internal/config"
	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/notify"
	"github.com/rewearhq/rewear-backend/internal/repository"
	"github.com/rewearhq/rewear-backend/internal/repository/memory"
	"github.com/rewearhq/rewear-backend/internal/worker"
)

type testEnv struct {
	eng   *Engine
	store *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.NewStore(200 * time.Millisecond)
	pool := worker.NewPool(2)
	t.Cleanup(pool.Stop)
	cfg := config.Config{ListingReward: 5, SwapReward: 10, LockWait: 200 * time.Millisecond}
	return &testEnv{eng: New(st, notify.NewStoreEmitter(st), pool, cfg), store: st}
}

func (env *testEnv) user(t *testing.T, name, role string) models.User {
	t.Helper()
	u, err := env.store.CreateUser(context.Background(), name, name+"@example.com", "hash", role)
	require.NoError(t, err)
	return u
}

// availableItem puts an approved listing straight into the store, so
// tests do not depend on the moderation flow.
func (env *testEnv) availableItem(t *testing.T, ownerID string, points int64) models.Item {
	t.Helper()
	var out models.Item
	err := env.store.WithinTx(context.Background(), func(tx repository.Tx) error {
		var err error
		out, err = tx.CreateItem(context.Background(), models.Item{
			OwnerID:        ownerID,
			Title:          "Linen Shirt",
			Status:         models.ItemAvailable,
			PointsValue:    points,
			SwapEligible:   true,
			PointsEligible: true,
		})
		return err
	})
	require.NoError(t, err)
	return out
}

func (env *testEnv) grantPoints(t *testing.T, userID string, amount int64) {
	t.Helper()
	err := env.store.WithinTx(context.Background(), func(tx repository.Tx) error {
		if err := tx.LockBalances(context.Background(), userID); err != nil {
			return err
		}
		_, err := tx.AppendEntry(context.Background(), models.LedgerEntry{
			UserID: userID, Kind: models.EntryBonus, Amount: amount, Reason: "test grant",
		})
		return err
	})
	require.NoError(t, err)
}

func (env *testEnv) balance(t *testing.T, userID string) int64 {
	t.Helper()
	b, err := env.eng.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

// waitForNotification polls until the user has a notification of the
// given kind; dispatch runs on the worker pool after commit.
func (env *testEnv) waitForNotification(t *testing.T, userID string, kind models.NotificationKind) models.Notification {
	t.Helper()
	var found models.Notification
	require.Eventually(t, func() bool {
		ns, err := env.eng.Notifications(context.Background(), userID, 0, 0)
		if err != nil {
			return false
		}
		for _, n := range ns {
			if n.Kind == kind {
				found = n
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "no %s notification for %s", kind, userID)
	return found
}

func TestListItemCreditsListingReward(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "pelin", models.RoleUser)

	it, err := env.eng.ListItem(ctx, owner.ID, ItemInput{Title: "Denim Jacket", PointsValue: 40})
	require.NoError(t, err)
	require.Equal(t, models.ItemPending, it.Status)
	require.EqualValues(t, 40, it.PointsValue)

	require.EqualValues(t, 5, env.balance(t, owner.ID))

	entries, err := env.eng.ListLedger(ctx, owner.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.EntryEarned, entries[0].Kind)
	require.NotNil(t, entries[0].ItemID)
	require.Equal(t, it.ID, *entries[0].ItemID)
}

func TestListItemDefaultsPointsValue(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "pelin", models.RoleUser)

	it, err := env.eng.ListItem(context.Background(), owner.ID, ItemInput{Title: "Plain Tee"})
	require.NoError(t, err)
	require.EqualValues(t, 10, it.PointsValue)
}

func TestListItemValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "pelin", models.RoleUser)

	_, err := env.eng.ListItem(ctx, owner.ID, ItemInput{Title: "  ", PointsValue: 10})
	require.Equal(t, KindValidation, KindOf(err))

	_, err = env.eng.ListItem(ctx, owner.ID, ItemInput{Title: "Coat", PointsValue: 500})
	require.Equal(t, KindValidation, KindOf(err))

	// validation failures must not credit anything
	require.Zero(t, env.balance(t, owner.ID))
}

func TestListItemUnknownOwner(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.eng.ListItem(context.Background(), "ghost", ItemInput{Title: "Coat", PointsValue: 10})
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestModerateItemApprove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "pelin", models.RoleUser)
	admin := env.user(t, "deniz", models.RoleAdmin)

	it, err := env.eng.ListItem(ctx, owner.ID, ItemInput{Title: "Coat", PointsValue: 30})
	require.NoError(t, err)

	out, err := env.eng.ModerateItem(ctx, admin.ID, it.ID, true, "")
	require.NoError(t, err)
	require.Equal(t, models.ItemAvailable, out.Status)

	got, err := env.eng.GetItem(ctx, it.ID)
	require.NoError(t, err)
	require.Equal(t, models.ItemAvailable, got.Status)
	require.NotNil(t, got.ApprovedBy)
	require.Equal(t, admin.ID, *got.ApprovedBy)

	env.waitForNotification(t, owner.ID, models.NotifyItemApproved)
}

func TestModerateItemReject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "pelin", models.RoleUser)
	admin := env.user(t, "deniz", models.RoleAdmin)

	it, err := env.eng.ListItem(ctx, owner.ID, ItemInput{Title: "Coat", PointsValue: 30})
	require.NoError(t, err)

	out, err := env.eng.ModerateItem(ctx, admin.ID, it.ID, false, "photos too dark")
	require.NoError(t, err)
	require.Equal(t, models.ItemRejected, out.Status)

	// a second decision on the same item is refused
	_, err = env.eng.ModerateItem(ctx, admin.ID, it.ID, true, "")
	require.Equal(t, KindConflict, KindOf(err))
}

func TestModerateItemRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "pelin", models.RoleUser)

	it, err := env.eng.ListItem(ctx, owner.ID, ItemInput{Title: "Coat", PointsValue: 30})
	require.NoError(t, err)

	_, err = env.eng.ModerateItem(ctx, owner.ID, it.ID, true, "")
	require.Equal(t, KindUnauthorized, KindOf(err))
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	u, err := env.eng.Register(ctx, "pelin", "pelin@example.com", "s3cret-password")
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, u.Role)
	require.Zero(t, env.balance(t, u.ID))

	_, err = env.eng.Register(ctx, "other", "pelin@example.com", "s3cret-password")
	require.Equal(t, KindConflict, KindOf(err))

	_, err = env.eng.Register(ctx, "ab", "ab@example.com", "s3cret-password")
	require.Equal(t, KindValidation, KindOf(err))

	_, err = env.eng.Register(ctx, "name", "name@example.com", "short")
	require.Equal(t, KindValidation, KindOf(err))

	got, err := env.eng.Authenticate(ctx, "pelin@example.com", "s3cret-password")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = env.eng.Authenticate(ctx, "pelin@example.com", "wrong")
	require.Equal(t, KindUnauthorized, KindOf(err))

	_, err = env.eng.Authenticate(ctx, "nobody@example.com", "whatever")
	require.Equal(t, KindUnauthorized, KindOf(err))
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "pelin", models.RoleUser)
	admin := env.user(t, "deniz", models.RoleAdmin)

	it, err := env.eng.ListItem(ctx, owner.ID, ItemInput{Title: "Coat", PointsValue: 30})
	require.NoError(t, err)
	_, err = env.eng.ListItem(ctx, owner.ID, ItemInput{Title: "Hat", PointsValue: 15})
	require.NoError(t, err)
	_, err = env.eng.ModerateItem(ctx, admin.ID, it.ID, true, "")
	require.NoError(t, err)

	st, err := env.eng.Dashboard(ctx, owner.ID)
	require.NoError(t, err)
	require.EqualValues(t, 10, st.PointsBalance) // two listing rewards
	require.Equal(t, 2, st.TotalItems)
	require.Equal(t, 1, st.AvailableItems)
	require.Equal(t, 1, st.PendingItems)
}
