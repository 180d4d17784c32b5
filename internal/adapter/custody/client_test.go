package custody

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Pull_Success(t *testing.T) {
	account := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transfers/pull", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req transferRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "TokenX", req.Asset)
		assert.Equal(t, account.String(), req.Account)
		assert.Equal(t, int64(100), req.Amount)

		json.NewEncoder(w).Encode(transferResponse{OK: true}) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", nil, zerolog.Nop())
	err := c.Pull(context.Background(), "TokenX", account, 100)
	assert.NoError(t, err)
}

func TestClient_Pull_InsufficientBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(transferResponse{ //nolint:errcheck
			OK:        false,
			ErrorCode: apperror.CodeInsufficientBalance,
			Message:   "account balance too low",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", nil, zerolog.Nop())
	err := c.Pull(context.Background(), "TokenX", uuid.New(), 100)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientBalance))
}

func TestClient_Push_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transfers/push", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transferResponse{OK: false, ErrorCode: "GATEWAY_DOWN"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", nil, zerolog.Nop())
	err := c.Push(context.Background(), "TokenX", uuid.New(), 100)
	assert.Error(t, err)
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "test-key", nil, zerolog.Nop())
	err := c.Pull(context.Background(), "TokenX", uuid.New(), 100)
	assert.Error(t, err)
}

func TestMemoryBank(t *testing.T) {
	bank := NewMemoryBank()
	account := uuid.New()
	ctx := context.Background()

	err := bank.Pull(ctx, "TokenX", account, 50)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientBalance))

	bank.Deposit(account, "TokenX", 100)
	require.NoError(t, bank.Pull(ctx, "TokenX", account, 60))
	assert.Equal(t, int64(40), bank.BalanceOf(account, "TokenX"))

	require.NoError(t, bank.Push(ctx, "TokenX", account, 25))
	assert.Equal(t, int64(65), bank.BalanceOf(account, "TokenX"))
}
