// Package broadcaster implements the client for the mempool service used to
// broadcast raw transactions and query their pool/confirmation status.
package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mempush/mempush/log"
	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/types"
)

// TxStatus is the pool/confirmation status of a tx as reported by the mempool
// service
type TxStatus struct {
	TxID      string `json:"txid"`
	Confirmed bool   `json:"confirmed"`
}

// Client talks to the mempool service of each supported network
type Client struct {
	cfg        Config
	registry   *networks.Registry
	httpClient *http.Client
}

// NewClient returns a mempool service client that resolves per network base
// URLs through the given registry
func NewClient(cfg Config, registry *networks.Registry) *Client {
	return &Client{
		cfg:      cfg,
		registry: registry,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout.Duration,
		},
	}
}

// GetTransactionStatus queries the status endpoint for txid on the given
// network. It fails with types.ErrNotFound when the service does not know the
// tx and with types.ErrServiceUnavailable on any transport fault or
// unexpected status code.
func (c *Client) GetTransactionStatus(ctx context.Context, network networks.Network, txID string) (*TxStatus, error) {
	url, err := c.resolveURL(network, "/tx/"+txID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrServiceUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrServiceUnavailable, err)
	}

	switch res.StatusCode {
	case http.StatusOK:
		// the service reports the confirmation inside a nested status object
		var payload struct {
			TxID   string `json:"txid"`
			Status struct {
				Confirmed bool `json:"confirmed"`
			} `json:"status"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("%w: invalid status response: %v", types.ErrServiceUnavailable, err)
		}
		return &TxStatus{TxID: payload.TxID, Confirmed: payload.Status.Confirmed}, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, txID)
	default:
		log.Debugf("unexpected status code %d from %s, body: %s", res.StatusCode, url, string(body))
		return nil, fmt.Errorf("%w: unexpected status code %d", types.ErrServiceUnavailable, res.StatusCode)
	}
}

// GetRawTransaction fetches the hex encoding of txid from the mempool service
// of the given network. It fails with types.ErrNotFound when the service does
// not know the tx.
func (c *Client) GetRawTransaction(ctx context.Context, network networks.Network, txID string) (string, error) {
	url, err := c.resolveURL(network, "/tx/"+txID+"/hex")
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrServiceUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrServiceUnavailable, err)
	}

	switch res.StatusCode {
	case http.StatusOK:
		return strings.TrimSpace(string(body)), nil
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", types.ErrNotFound, txID)
	default:
		return "", fmt.Errorf("%w: unexpected status code %d", types.ErrServiceUnavailable, res.StatusCode)
	}
}

// BroadcastTransaction submits rawTx to the broadcast endpoint of the given
// network and returns the service response body. It fails with
// types.ErrRejectedByNetwork when the service explicitly refuses the tx and
// with types.ErrServiceUnavailable on transport faults.
func (c *Client) BroadcastTransaction(ctx context.Context, network networks.Network, rawTx string) (string, error) {
	url, err := c.resolveURL(network, "/tx")
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(rawTx))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrServiceUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrServiceUnavailable, err)
	}

	response := strings.TrimSpace(string(body))
	if res.StatusCode != http.StatusOK {
		return response, fmt.Errorf("%w: %s", types.ErrRejectedByNetwork, response)
	}

	return response, nil
}

func (c *Client) resolveURL(network networks.Network, path string) (string, error) {
	endpoints, err := c.registry.Resolve(network)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(endpoints.MempoolURL, "/") + path, nil
}
