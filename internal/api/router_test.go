package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rewearhq/rewear-backend/internal/auth"
	"github.com/rewearhq/rewear-backend/internal/config"
	"github.com/rewearhq/rewear-backend/internal/engine"
	"github.com/rewearhq/rewear-backend/internal/models"
	"github.com/rewearhq/rewear-backend/internal/notify"
	"github.com/rewearhq/rewear-backend/internal/repository/memory"
	"github.com/rewearhq/rewear-backend/internal/worker"
)

type apiEnv struct {
	srv   *httptest.Server
	store *memory.Store
	tm    *auth.TokenManager
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	cfg := config.Config{
		Env: "test", RateRPS: 1000,
		ListingReward: 5, SwapReward: 10,
		AccessTTL: time.Minute, RefreshTTL: time.Hour,
	}
	st := memory.NewStore(200 * time.Millisecond)
	pool := worker.NewPool(2)
	t.Cleanup(pool.Stop)
	tm := auth.NewTokenManager("test-access", "test-refresh", "rewear-test", cfg.AccessTTL, cfg.RefreshTTL)
	eng := engine.New(st, notify.NewStoreEmitter(st), pool, cfg)

	srv := httptest.NewServer(NewRouter(cfg, eng, tm))
	t.Cleanup(srv.Close)
	return &apiEnv{srv: srv, store: st, tm: tm}
}

func (env *apiEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, env.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (env *apiEnv) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "s3cret-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    username + "@example.com",
		"password": "s3cret-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok := decode[map[string]any](t, resp)
	return tok["access_token"].(string)
}

func (env *apiEnv) adminToken(t *testing.T) string {
	t.Helper()
	u, err := env.store.CreateUser(context.Background(), "admin", "admin@example.com", "hash", models.RoleAdmin)
	require.NoError(t, err)
	access, _, _, err := env.tm.GeneratePair(u.ID, u.Role)
	require.NoError(t, err)
	return access
}

func TestHealthAndMetrics(t *testing.T) {
	env := newAPIEnv(t)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	env := newAPIEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/items", "", map[string]any{"title": "Coat"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/items", "garbage-token", map[string]any{"title": "Coat"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestItemListingAndModerationFlow(t *testing.T) {
	env := newAPIEnv(t)
	userTok := env.registerAndLogin(t, "pelin")
	adminTok := env.adminToken(t)

	resp := env.do(t, http.MethodPost, "/api/v1/items", userTok, map[string]any{
		"title": "Denim Jacket", "points_value": 40, "category": "outerwear",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decode[models.Item](t, resp)
	require.Equal(t, models.ItemPending, item.Status)

	// pending listings are hidden from the public catalog
	resp = env.do(t, http.MethodGet, "/api/v1/items", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, decode[[]models.Item](t, resp))

	// moderation is admin-only
	resp = env.do(t, http.MethodPost, "/api/v1/admin/items/"+item.ID+"/moderate", userTok, map[string]string{"action": "approve"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/admin/items/"+item.ID+"/moderate", adminTok, map[string]string{"action": "approve"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/items", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decode[[]models.Item](t, resp)
	require.Len(t, listed, 1)
	require.Equal(t, models.ItemAvailable, listed[0].Status)

	// the listing reward landed
	resp = env.do(t, http.MethodGet, "/api/v1/points/balance", userTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bal := decode[map[string]int64](t, resp)
	require.EqualValues(t, 5, bal["balance"])
}

func TestSwapOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	pTok := env.registerAndLogin(t, "pelin")
	qTok := env.registerAndLogin(t, "deniz")
	adminTok := env.adminToken(t)

	listApproved := func(tok, title string) models.Item {
		resp := env.do(t, http.MethodPost, "/api/v1/items", tok, map[string]any{
			"title": title, "points_value": 20,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		it := decode[models.Item](t, resp)
		resp = env.do(t, http.MethodPost, "/api/v1/admin/items/"+it.ID+"/moderate", adminTok, map[string]string{"action": "approve"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return it
	}

	offered := listApproved(pTok, "Denim Jacket")
	wanted := listApproved(qTok, "Wool Sweater")

	resp := env.do(t, http.MethodPost, "/api/v1/swaps", pTok, map[string]string{
		"requester_item_id": offered.ID,
		"requested_item_id": wanted.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sr := decode[models.SwapRequest](t, resp)
	require.Equal(t, models.SwapPending, sr.Status)

	// only the owner may respond
	resp = env.do(t, http.MethodPost, "/api/v1/swaps/"+sr.ID+"/respond", pTok, map[string]string{"decision": "accept"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/swaps/"+sr.ID+"/respond", qTok, map[string]string{"decision": "accept"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/swaps/"+sr.ID+"/complete", pTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	done := decode[models.SwapRequest](t, resp)
	require.Equal(t, models.SwapCompleted, done.Status)

	// a second complete is a conflict
	resp = env.do(t, http.MethodPost, "/api/v1/swaps/"+sr.ID+"/complete", qTok, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// each party: 5 listing reward + 10 swap reward
	for _, tok := range []string{pTok, qTok} {
		resp = env.do(t, http.MethodGet, "/api/v1/points/balance", tok, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		bal := decode[map[string]int64](t, resp)
		require.EqualValues(t, 15, bal["balance"])
	}
}

func TestRedemptionInsufficientPointsOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	pTok := env.registerAndLogin(t, "pelin")
	qTok := env.registerAndLogin(t, "deniz")
	adminTok := env.adminToken(t)

	resp := env.do(t, http.MethodPost, "/api/v1/items", qTok, map[string]any{
		"title": "Silk Scarf", "points_value": 90,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	it := decode[models.Item](t, resp)
	resp = env.do(t, http.MethodPost, "/api/v1/admin/items/"+it.ID+"/moderate", adminTok, map[string]string{"action": "approve"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// pelin has no listings yet, so no points
	resp = env.do(t, http.MethodPost, "/api/v1/redemptions", pTok, map[string]string{"item_id": it.ID})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
