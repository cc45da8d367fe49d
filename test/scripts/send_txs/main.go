package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/mempush/mempush/hex"
	"github.com/mempush/mempush/log"
)

func main() {
	mempushURL := "http://localhost:8123"
	network := "signet"

	log.Infof("sending txs to %s", mempushURL)

	for i := 0; i < 1; i++ {
		rawTx, txID := dummyTx(uint32(i))

		log.Infof("submitting tx %s, raw: %s", txID, rawTx)
		result, err := rpcCall(mempushURL, "mempush_submitTransaction", []interface{}{network, rawTx, txID})
		chkErr(err)

		log.Infof("tx submitted: %s", string(result))

		result, err = rpcCall(mempushURL, "mempush_pushTransaction", []interface{}{network, txID})
		chkErr(err)

		log.Infof("tx pushed: %s", string(result))
	}
}

// dummyTx builds a serializable tx with a distinct txid per nonce. The mempool
// service will reject it, which is enough to exercise the full submit and push
// round trip against a local instance.
func dummyTx(nonce uint32) (string, string) {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, nonce), nil, nil))
	tx.AddTxOut(wire.NewTxOut(1000, []byte{0x6a}))

	var buf bytes.Buffer
	err := tx.Serialize(&buf)
	chkErr(err)

	return hex.EncodeToString(buf.Bytes()), tx.TxHash().String()
}

func rpcCall(url, method string, params []interface{}) (json.RawMessage, error) {
	request := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var response struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, err
	}
	if response.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", response.Error.Code, response.Error.Message)
	}

	return response.Result, nil
}

func chkErr(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
