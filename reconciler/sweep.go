package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/mempush/mempush/log"
	"github.com/mempush/mempush/metrics"
	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/types"
	"golang.org/x/sync/errgroup"
)

// SweepResult is the outcome of one tx reconciliation within a sweep
type SweepResult struct {
	TxID    string `json:"txid"`
	Network string `json:"network"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// SweepSummary aggregates the outcome of a batch reconciliation pass
type SweepSummary struct {
	Total     int           `json:"total"`
	Confirmed int           `json:"confirmed"`
	InMempool int           `json:"inMempool"`
	Failed    int           `json:"failed"`
	Errors    int           `json:"errors"`
	Results   []SweepResult `json:"results"`
}

// Sweep reconciles every tx that is not confirmed yet, optionally filtered to
// one network, with a bounded worker fan-out. A fault in one tx never aborts
// the sweep: per tx outcomes are collected into the returned summary.
func (r *Reconciler) Sweep(ctx context.Context, network *networks.Network) (*SweepSummary, error) {
	txs, err := r.txDB.GetTransactionsToReconcile(ctx, network)
	if err != nil {
		log.Errorf("error when getting txs to reconcile from the database, error: %v", err)
		return nil, err
	}

	metrics.SweepsTotal.Inc()

	summary := &SweepSummary{Total: len(txs), Results: []SweepResult{}}
	if len(txs) == 0 {
		return summary, nil
	}

	log.Infof("sweeping %d txs", len(txs))

	var mutex sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(int(r.cfg.Workers))

	for _, tx := range txs {
		// stop dispatching once the sweep is cancelled, txs already being
		// reconciled run to completion and persist their result
		if ctx.Err() != nil {
			break
		}

		tx := tx
		group.Go(func() error {
			updated, err := r.Reconcile(groupCtx, tx)

			result := SweepResult{TxID: tx.TxID, Network: tx.Network.String()}
			if updated != nil {
				result.Status = updated.Status
			}
			if err != nil {
				result.Error = err.Error()
				if result.Status == "" {
					result.Status = types.TxStatusError
				}
			}

			mutex.Lock()
			defer mutex.Unlock()
			summary.Results = append(summary.Results, result)
			switch result.Status {
			case types.TxStatusConfirmed:
				summary.Confirmed++
			case types.TxStatusSuccess:
				summary.InMempool++
			case types.TxStatusFailed:
				summary.Failed++
			case types.TxStatusError:
				summary.Errors++
			}

			// per tx faults are already aggregated, never abort the group
			return nil
		})
	}

	_ = group.Wait()

	log.Infof("sweep done, total: %d, confirmed: %d, in mempool: %d, failed: %d, errors: %d",
		summary.Total, summary.Confirmed, summary.InMempool, summary.Failed, summary.Errors)

	return summary, nil
}

// Start runs periodic sweeps over all networks until Stop is called
func (r *Reconciler) Start() {
	log.Infof("starting reconciler, sweep interval: %v, workers: %d", r.cfg.SweepInterval.Duration, r.cfg.Workers)

	ticker := time.NewTicker(r.cfg.SweepInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			log.Infof("reconciler stopped")
			return
		case <-ticker.C:
			if _, err := r.Sweep(context.Background(), nil); err != nil {
				log.Errorf("periodic sweep failed, error: %v", err)
			}
		}
	}
}

// Stop stops the periodic sweeps
func (r *Reconciler) Stop() {
	close(r.stopCh)
}
