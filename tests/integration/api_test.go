package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "wallet-ledger/internal/adapter/http/handler"
	"wallet-ledger/internal/adapter/storage/memory"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	server *httptest.Server
	store  *memory.Store
	redis  *miniredis.Miniredis
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	receipts := redisStorage.NewReceiptCache(rdb)

	// In-memory ledger store backing both repositories and the transactor
	store := memory.NewStore()

	log := logger.New("debug", false)
	retry := service.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	walletSvc := service.NewWalletService(store, store, store, receipts, retry, log)
	transferSvc := service.NewTransferService(walletSvc, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:   walletSvc,
		TransferSvc: transferSvc,
		Logger:      log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server: server,
		store:  store,
		redis:  mr,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// createWallet provisions a wallet over the API and returns its id.
func (a *testApp) createWallet(t *testing.T) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"owner_id": uuid.New().String()})
	resp, err := http.Post(a.server.URL+"/api/v1/wallets", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.NotEmpty(t, result.Data.ID)
	return result.Data.ID
}

// mutate performs a withdraw or deposit and returns the HTTP status code.
func (a *testApp) mutate(t *testing.T, walletID, op, amount, referenceID string) int {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"amount": amount})
	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/api/v1/wallets/%s/%s", a.server.URL, walletID, op),
		bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpHandler.HeaderReferenceID, referenceID)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

// balance reads the wallet's current balance over the API.
func (a *testApp) balance(t *testing.T, walletID string) string {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/wallets/%s/balance", a.server.URL, walletID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Balance string `json:"balance"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result.Data.Balance
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_DepositThenWithdraw(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t)

	assert.Equal(t, http.StatusOK, app.mutate(t, walletID, "deposit", "100.00", "DEP-1"))
	assert.Equal(t, http.StatusOK, app.mutate(t, walletID, "withdraw", "30.00", "WD-1"))

	assert.Equal(t, "70.00", app.balance(t, walletID))
}

func TestIntegration_SecondWalletForOwnerRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	ownerID := uuid.New().String()
	body, _ := json.Marshal(map[string]string{"owner_id": ownerID})

	resp, err := http.Post(app.server.URL+"/api/v1/wallets", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(app.server.URL+"/api/v1/wallets", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestIntegration_DuplicateReferenceRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t)
	require.Equal(t, http.StatusOK, app.mutate(t, walletID, "deposit", "50.00", "DEP-DUP"))

	// Same reference id, same type: rejected, no side effect.
	assert.Equal(t, http.StatusConflict, app.mutate(t, walletID, "deposit", "50.00", "DEP-DUP"))
	assert.Equal(t, "50.00", app.balance(t, walletID))

	// Same reference id, other type: a distinct operation pair, accepted.
	assert.Equal(t, http.StatusOK, app.mutate(t, walletID, "withdraw", "10.00", "DEP-DUP"))
	assert.Equal(t, "40.00", app.balance(t, walletID))
}

func TestIntegration_InsufficientBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t)
	require.Equal(t, http.StatusOK, app.mutate(t, walletID, "deposit", "10.00", "DEP-2"))

	assert.Equal(t, http.StatusPaymentRequired, app.mutate(t, walletID, "withdraw", "10.01", "WD-2"))
	assert.Equal(t, "10.00", app.balance(t, walletID))
}

func TestIntegration_UnknownWallet(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	missing := uuid.New().String()
	assert.Equal(t, http.StatusNotFound, app.mutate(t, missing, "deposit", "10.00", "DEP-3"))

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/wallets/%s/balance", app.server.URL, missing))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_HistoricalBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t)
	require.Equal(t, http.StatusOK, app.mutate(t, walletID, "deposit", "100.00", "H-1"))
	require.Equal(t, http.StatusOK, app.mutate(t, walletID, "withdraw", "25.50", "H-2"))

	from := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	to := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/wallets/%s/historic-balance?from=%s&to=%s",
		app.server.URL, walletID, from, to))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Balance string `json:"balance"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "74.50", result.Data.Balance)
}

func TestIntegration_Transfer(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	source := app.createWallet(t)
	target := app.createWallet(t)
	require.Equal(t, http.StatusOK, app.mutate(t, source, "deposit", "100.00", "FUND-1"))

	body, _ := json.Marshal(map[string]string{
		"source_wallet_id": source,
		"target_wallet_id": target,
		"amount":           "40.00",
	})
	req, err := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/transfers", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpHandler.HeaderReferenceID, "TR-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "60.00", app.balance(t, source))
	assert.Equal(t, "40.00", app.balance(t, target))
}

func TestIntegration_TransferToMissingTarget_Compensates(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	source := app.createWallet(t)
	require.Equal(t, http.StatusOK, app.mutate(t, source, "deposit", "100.00", "FUND-2"))

	body, _ := json.Marshal(map[string]string{
		"source_wallet_id": source,
		"target_wallet_id": uuid.New().String(),
		"amount":           "40.00",
	})
	req, err := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/transfers", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpHandler.HeaderReferenceID, "TR-2")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errBody map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Contains(t, errBody["message"], "target wallet")

	// The compensating deposit restored the debited amount.
	assert.Equal(t, "100.00", app.balance(t, source))
}
