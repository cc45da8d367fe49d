package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cfgTypes "github.com/mempush/mempush/config/types"
	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/reconciler"
	"github.com/mempush/mempush/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testTxID = "d1ce88be9ed1e418ed2a499682a05b8d9f5d2ee2655ee1d77dbd7a9909e6b542"

type txDBMock struct {
	mock.Mock
}

func (m *txDBMock) GetTransaction(ctx context.Context, txID string, network networks.Network) (*types.MempoolTransaction, error) {
	args := m.Called(ctx, txID, network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MempoolTransaction), args.Error(1)
}

func (m *txDBMock) GetTransactions(ctx context.Context, network *networks.Network) ([]*types.MempoolTransaction, error) {
	args := m.Called(ctx, network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.MempoolTransaction), args.Error(1)
}

func (m *txDBMock) DeleteTransaction(ctx context.Context, txID string, network networks.Network) error {
	args := m.Called(ctx, txID, network)
	return args.Error(0)
}

type submitterMock struct {
	mock.Mock
}

func (m *submitterMock) SubmitRawTransaction(ctx context.Context, network networks.Network, rawTx string, expectedTxID string) (*types.MempoolTransaction, error) {
	args := m.Called(ctx, network, rawTx, expectedTxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MempoolTransaction), args.Error(1)
}

func (m *submitterMock) SubmitByTxID(ctx context.Context, network networks.Network, txID string) (*types.MempoolTransaction, error) {
	args := m.Called(ctx, network, txID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MempoolTransaction), args.Error(1)
}

type reconcilerMock struct {
	mock.Mock
}

func (m *reconcilerMock) Reconcile(ctx context.Context, tx *types.MempoolTransaction) (*types.MempoolTransaction, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MempoolTransaction), args.Error(1)
}

func (m *reconcilerMock) Sweep(ctx context.Context, network *networks.Network) (*reconciler.SweepSummary, error) {
	args := m.Called(ctx, network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciler.SweepSummary), args.Error(1)
}

func NewMockConfig() Config {
	return Config{
		Host:                      "0.0.0.0",
		Port:                      8123,
		ReadTimeout:               cfgTypes.NewDuration(time.Second * 60),
		WriteTimeout:              cfgTypes.NewDuration(time.Second * 60),
		MaxRequestsPerIPAndSecond: 100,
	}
}

func newTestEndpoints(t *testing.T, txDB *txDBMock, sub *submitterMock, rec *reconcilerMock) *Endpoints {
	t.Helper()

	registry, err := networks.NewRegistry(nil)
	require.NoError(t, err)

	return NewEndpoints(NewMockConfig(), registry, txDB, sub, rec)
}

func newHTTPRequest() *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", nil)
}

func strPtr(s string) *string {
	return &s
}

func TestSubmitTransaction(t *testing.T) {
	mockTxDB := &txDBMock{}
	mockSubmitter := &submitterMock{}
	endpoints := newTestEndpoints(t, mockTxDB, mockSubmitter, &reconcilerMock{})

	errMismatch := errors.New("wrapped: " + types.ErrIdentifierMismatch.Error())

	type testCase struct {
		Name          string
		Network       string
		RawTx         string
		TxID          *string
		SetupMocks    func()
		ExpectedError Error
		Check         func(t *testing.T, result interface{})
	}

	testCases := []testCase{
		{
			Name:    "Submit raw tx successfully",
			Network: "testnetv3",
			RawTx:   "01000000beef",
			SetupMocks: func() {
				mockSubmitter.On("SubmitRawTransaction", mock.Anything, networks.TestnetV3, "01000000beef", "").
					Return(&types.MempoolTransaction{TxID: testTxID, Network: networks.TestnetV3, RawTx: "01000000beef", Status: types.TxStatusPending}, nil).Once()
			},
			Check: func(t *testing.T, result interface{}) {
				rpcTx, ok := result.(*RPCTransaction)
				require.True(t, ok)
				assert.Equal(t, testTxID, rpcTx.TxID)
				assert.Equal(t, types.TxStatusPending, rpcTx.Status)
				assert.Equal(t, "https://mempool.space/testnet/tx/"+testTxID, rpcTx.ExplorerURL)
			},
		},
		{
			Name:    "Submit by txid successfully",
			Network: "signet",
			RawTx:   "",
			TxID:    strPtr(testTxID),
			SetupMocks: func() {
				mockSubmitter.On("SubmitByTxID", mock.Anything, networks.Signet, testTxID).
					Return(&types.MempoolTransaction{TxID: testTxID, Network: networks.Signet, Status: types.TxStatusPending}, nil).Once()
			},
			Check: func(t *testing.T, result interface{}) {
				rpcTx, ok := result.(*RPCTransaction)
				require.True(t, ok)
				assert.Equal(t, "signet", rpcTx.Network)
			},
		},
		{
			Name:          "Submit with unknown network",
			Network:       "regtest",
			RawTx:         "01000000beef",
			SetupMocks:    func() {},
			ExpectedError: NewServerError(InvalidParamsErrorCode, "invalid network"),
		},
		{
			Name:          "Submit with neither raw tx nor txid",
			Network:       "mainchain",
			RawTx:         "",
			SetupMocks:    func() {},
			ExpectedError: NewServerError(InvalidParamsErrorCode, "raw transaction or txid is required"),
		},
		{
			Name:    "Submit with mismatching txid",
			Network: "testnetv3",
			RawTx:   "01000000beef",
			TxID:    strPtr(testTxID),
			SetupMocks: func() {
				mockSubmitter.On("SubmitRawTransaction", mock.Anything, networks.TestnetV3, "01000000beef", testTxID).
					Return(nil, errMismatch).Once()
			},
			ExpectedError: NewServerError(DefaultErrorCode, errMismatch.Error()),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			tc.SetupMocks()

			result, err := endpoints.SubmitTransaction(newHTTPRequest(), tc.Network, tc.RawTx, tc.TxID)
			if tc.ExpectedError != nil {
				require.NotNil(t, err)
				assert.Equal(t, tc.ExpectedError.ErrorCode(), err.ErrorCode())
				assert.Equal(t, tc.ExpectedError.Error(), err.Error())
			} else {
				require.Nil(t, err)
				tc.Check(t, result)
			}
		})
	}

	mockSubmitter.AssertExpectations(t)
}

func TestSubmitTransactionErrorCodes(t *testing.T) {
	mockSubmitter := &submitterMock{}
	endpoints := newTestEndpoints(t, &txDBMock{}, mockSubmitter, &reconcilerMock{})

	testCases := []struct {
		err  error
		code int
	}{
		{types.ErrInvalidEncoding, InvalidParamsErrorCode},
		{types.ErrMalformedTransaction, InvalidParamsErrorCode},
		{types.ErrIdentifierMismatch, InvalidParamsErrorCode},
		{types.ErrNotFound, NotFoundErrorCode},
		{errors.New("database unreachable"), DefaultErrorCode},
	}

	for _, tc := range testCases {
		mockSubmitter.On("SubmitRawTransaction", mock.Anything, networks.Mainchain, "00", "").
			Return(nil, tc.err).Once()

		_, err := endpoints.SubmitTransaction(newHTTPRequest(), "mainchain", "00", nil)
		require.NotNil(t, err)
		assert.Equal(t, tc.code, err.ErrorCode(), "error: %v", tc.err)
	}
}

func TestGetTransaction(t *testing.T) {
	mockTxDB := &txDBMock{}
	endpoints := newTestEndpoints(t, mockTxDB, &submitterMock{}, &reconcilerMock{})

	tx := &types.MempoolTransaction{TxID: testTxID, Network: networks.Mainchain, Status: types.TxStatusSuccess, PushAttempts: 1}
	mockTxDB.On("GetTransaction", mock.Anything, testTxID, networks.Mainchain).Return(tx, nil).Once()

	result, err := endpoints.GetTransaction(newHTTPRequest(), "mainchain", testTxID)
	require.Nil(t, err)
	rpcTx := result.(*RPCTransaction)
	assert.Equal(t, types.TxStatusSuccess, rpcTx.Status)
	assert.Equal(t, uint64(1), rpcTx.PushAttempts)

	mockTxDB.On("GetTransaction", mock.Anything, testTxID, networks.Signet).Return(nil, types.ErrNotFound).Once()

	_, rpcErr := endpoints.GetTransaction(newHTTPRequest(), "signet", testTxID)
	require.NotNil(t, rpcErr)
	assert.Equal(t, NotFoundErrorCode, rpcErr.ErrorCode())
}

func TestListTransactions(t *testing.T) {
	mockTxDB := &txDBMock{}
	endpoints := newTestEndpoints(t, mockTxDB, &submitterMock{}, &reconcilerMock{})

	network := networks.Signet
	txs := []*types.MempoolTransaction{
		{TxID: "aa01", Network: network, Status: types.TxStatusPending},
		{TxID: "aa02", Network: network, Status: types.TxStatusConfirmed},
	}
	mockTxDB.On("GetTransactions", mock.Anything, &network).Return(txs, nil).Once()

	result, err := endpoints.ListTransactions(newHTTPRequest(), strPtr("signet"))
	require.Nil(t, err)
	rpcTxs := result.([]*RPCTransaction)
	require.Len(t, rpcTxs, 2)
	assert.Equal(t, "aa01", rpcTxs[0].TxID)

	_, rpcErr := endpoints.ListTransactions(newHTTPRequest(), strPtr("regtest"))
	require.NotNil(t, rpcErr)
	assert.Equal(t, InvalidParamsErrorCode, rpcErr.ErrorCode())
}

func TestPushTransaction(t *testing.T) {
	mockTxDB := &txDBMock{}
	mockReconciler := &reconcilerMock{}
	endpoints := newTestEndpoints(t, mockTxDB, &submitterMock{}, mockReconciler)

	tx := &types.MempoolTransaction{TxID: testTxID, Network: networks.TestnetV3, Status: types.TxStatusPending}
	updated := &types.MempoolTransaction{TxID: testTxID, Network: networks.TestnetV3, Status: types.TxStatusSuccess, PushAttempts: 1, LastResult: testTxID}

	mockTxDB.On("GetTransaction", mock.Anything, testTxID, networks.TestnetV3).Return(tx, nil).Once()
	mockReconciler.On("Reconcile", mock.Anything, tx).Return(updated, nil).Once()

	result, err := endpoints.PushTransaction(newHTTPRequest(), "testnetv3", testTxID)
	require.Nil(t, err)
	push := result.(*PushResult)
	assert.Equal(t, types.TxStatusSuccess, push.Status)
	assert.Equal(t, uint64(1), push.PushAttempts)
}

func TestPushTransactionRecoverableFault(t *testing.T) {
	mockTxDB := &txDBMock{}
	mockReconciler := &reconcilerMock{}
	endpoints := newTestEndpoints(t, mockTxDB, &submitterMock{}, mockReconciler)

	tx := &types.MempoolTransaction{TxID: testTxID, Network: networks.TestnetV3, Status: types.TxStatusPending}
	faulted := &types.MempoolTransaction{TxID: testTxID, Network: networks.TestnetV3, Status: types.TxStatusError, PushAttempts: 1, LastResult: "service unavailable"}

	mockTxDB.On("GetTransaction", mock.Anything, testTxID, networks.TestnetV3).Return(tx, nil).Once()
	mockReconciler.On("Reconcile", mock.Anything, tx).Return(faulted, types.ErrServiceUnavailable).Once()

	// the transient fault is reported inside a success envelope
	result, err := endpoints.PushTransaction(newHTTPRequest(), "testnetv3", testTxID)
	require.Nil(t, err)
	push := result.(*PushResult)
	assert.Equal(t, types.TxStatusError, push.Status)
	assert.Equal(t, "service unavailable", push.LastResult)
}

func TestPushTransactionUnknownTx(t *testing.T) {
	mockTxDB := &txDBMock{}
	endpoints := newTestEndpoints(t, mockTxDB, &submitterMock{}, &reconcilerMock{})

	mockTxDB.On("GetTransaction", mock.Anything, testTxID, networks.TestnetV3).Return(nil, types.ErrNotFound).Once()

	_, err := endpoints.PushTransaction(newHTTPRequest(), "testnetv3", testTxID)
	require.NotNil(t, err)
	assert.Equal(t, NotFoundErrorCode, err.ErrorCode())
}

func TestDeleteTransaction(t *testing.T) {
	type testCase struct {
		Name         string
		Status       string
		ExpectDelete bool
	}

	testCases := []testCase{
		{"pending cannot be deleted", types.TxStatusPending, false},
		{"success cannot be deleted", types.TxStatusSuccess, false},
		{"error cannot be deleted", types.TxStatusError, false},
		{"confirmed can be deleted", types.TxStatusConfirmed, true},
		{"failed can be deleted", types.TxStatusFailed, true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			mockTxDB := &txDBMock{}
			endpoints := newTestEndpoints(t, mockTxDB, &submitterMock{}, &reconcilerMock{})

			tx := &types.MempoolTransaction{TxID: testTxID, Network: networks.Mainchain, Status: tc.Status}
			mockTxDB.On("GetTransaction", mock.Anything, testTxID, networks.Mainchain).Return(tx, nil).Once()
			if tc.ExpectDelete {
				mockTxDB.On("DeleteTransaction", mock.Anything, testTxID, networks.Mainchain).Return(nil).Once()
			}

			result, err := endpoints.DeleteTransaction(newHTTPRequest(), "mainchain", testTxID)
			if tc.ExpectDelete {
				require.Nil(t, err)
				assert.True(t, result.(*DeleteResult).Deleted)
			} else {
				require.NotNil(t, err)
				assert.Equal(t, InvalidRequestErrorCode, err.ErrorCode())
				mockTxDB.AssertNotCalled(t, "DeleteTransaction", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestSweepTransactions(t *testing.T) {
	mockReconciler := &reconcilerMock{}
	endpoints := newTestEndpoints(t, &txDBMock{}, &submitterMock{}, mockReconciler)

	summary := &reconciler.SweepSummary{Total: 3, Confirmed: 1, InMempool: 2}
	mockReconciler.On("Sweep", mock.Anything, (*networks.Network)(nil)).Return(summary, nil).Once()

	result, err := endpoints.SweepTransactions(newHTTPRequest(), nil)
	require.Nil(t, err)
	assert.Equal(t, summary, result)
}
