package broadcaster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cfgTypes "github.com/mempush/mempush/config/types"
	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTxID = "d1ce88be9ed1e418ed2a499682a05b8d9f5d2ee2655ee1d77dbd7a9909e6b542"

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	registry, err := networks.NewRegistry(map[string]networks.Endpoints{
		"signet": {MempoolURL: srv.URL},
	})
	require.NoError(t, err)

	client := NewClient(Config{RequestTimeout: cfgTypes.NewDuration(5 * time.Second)}, registry)
	return client, srv
}

func TestGetTransactionStatusConfirmed(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tx/"+testTxID, r.URL.Path)
		w.Write([]byte(`{"txid":"` + testTxID + `","status":{"confirmed":true,"block_height":101}}`))
	}))

	status, err := client.GetTransactionStatus(context.Background(), networks.Signet, testTxID)
	require.NoError(t, err)
	assert.True(t, status.Confirmed)
	assert.Equal(t, testTxID, status.TxID)
}

func TestGetTransactionStatusInMempool(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"txid":"` + testTxID + `","status":{"confirmed":false}}`))
	}))

	status, err := client.GetTransactionStatus(context.Background(), networks.Signet, testTxID)
	require.NoError(t, err)
	assert.False(t, status.Confirmed)
}

func TestGetTransactionStatusNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Transaction not found", http.StatusNotFound)
	}))

	_, err := client.GetTransactionStatus(context.Background(), networks.Signet, testTxID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetTransactionStatusUnexpectedCode(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.GetTransactionStatus(context.Background(), networks.Signet, testTxID)
	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
	assert.NotErrorIs(t, err, types.ErrNotFound)
}

func TestGetTransactionStatusServiceDown(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := client.GetTransactionStatus(context.Background(), networks.Signet, testTxID)
	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
}

func TestGetRawTransaction(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tx/"+testTxID+"/hex", r.URL.Path)
		w.Write([]byte("0100beef\n"))
	}))

	rawTx, err := client.GetRawTransaction(context.Background(), networks.Signet, testTxID)
	require.NoError(t, err)
	assert.Equal(t, "0100beef", rawTx)
}

func TestGetRawTransactionNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Transaction not found", http.StatusNotFound)
	}))

	_, err := client.GetRawTransaction(context.Background(), networks.Signet, testTxID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBroadcastTransactionAccepted(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tx", r.URL.Path)
		w.Write([]byte(testTxID))
	}))

	response, err := client.BroadcastTransaction(context.Background(), networks.Signet, "0100beef")
	require.NoError(t, err)
	assert.Equal(t, testTxID, response)
}

func TestBroadcastTransactionRejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sendrawtransaction RPC error: min relay fee not met", http.StatusBadRequest)
	}))

	response, err := client.BroadcastTransaction(context.Background(), networks.Signet, "0100beef")
	assert.ErrorIs(t, err, types.ErrRejectedByNetwork)
	assert.Contains(t, response, "min relay fee not met")
}

func TestUnknownNetwork(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := client.GetTransactionStatus(context.Background(), networks.Network("regtest"), testTxID)
	assert.ErrorIs(t, err, networks.ErrUnknownNetwork)
}

func TestRequestTimeout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	client.httpClient.Timeout = 10 * time.Millisecond

	_, err := client.GetTransactionStatus(context.Background(), networks.Signet, testTxID)
	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
}
