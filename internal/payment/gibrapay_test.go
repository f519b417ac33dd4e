package payment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferSendsWalletAndAPIKey(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data":   map[string]string{"id": "tx-123"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wallet-1", "key-1")
	resp, err := c.Transfer("841234567", 350, "Acesso Premium - ana [ref]")
	require.NoError(t, err)

	assert.Equal(t, "/transfer/wallet-1", gotPath)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "841234567", gotBody["number_phone"])
	assert.Equal(t, float64(350), gotBody["amount"])
	assert.Equal(t, "tx-123", resp.Data.ID)
}

func TestTransferNonSuccessStatusIsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "insufficient wallet balance"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wallet-1", "key-1")
	_, err := c.Transfer("841234567", 350, "desc")

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Contains(t, gwErr.Message, "insufficient")
}

func TestTransferHTTPErrorIsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wallet-1", "bad-key")
	_, err := c.Transfer("841234567", 350, "desc")

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusForbidden, gwErr.StatusCode)
}

func TestTransactionsDecodesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/wallet-1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": []map[string]interface{}{
				{"id": "tx-2", "number_phone": "851234567", "amount": 350, "type": "transfer", "status": "complete"},
				{"id": "tx-1", "number_phone": "841111111", "amount": 350, "type": "transfer", "status": "pending"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wallet-1", "key-1")
	txs, err := c.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, StatusComplete, txs[0].Status)
	assert.Equal(t, TypeTransfer, txs[0].Type)
}
