package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/types"
)

const uniqueViolationCode = "23505"

const selectColumns = "id, txid, network, raw_tx, status, push_attempts, last_result, created_at, updated_at"

// TxDB represents a postgres database to store the submitted transactions
type TxDB struct {
	db *pgxpool.Pool
}

// NewTxDB creates and initializes an instance of TxDB
func NewTxDB(cfg Config) (*TxDB, error) {
	sqlDB, err := NewSQLDB(cfg)
	if err != nil {
		return nil, err
	}

	return &TxDB{db: sqlDB}, nil
}

// AddTransaction inserts a new tx in the database. It fails with
// types.ErrAlreadyExists when a record for the same (txid, network) pair is
// already present, the stored record is never overwritten.
func (p *TxDB) AddTransaction(ctx context.Context, tx *types.MempoolTransaction) (*types.MempoolTransaction, error) {
	const sql = `
		INSERT INTO mempush.transaction
		(txid, network, raw_tx, status, push_attempts, last_result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + selectColumns

	now := time.Now()
	row := p.db.QueryRow(ctx, sql, tx.TxID, tx.Network.String(), tx.RawTx, tx.Status, tx.PushAttempts, tx.LastResult, now)

	stored, err := scanTransaction(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, types.ErrAlreadyExists
		}
		return nil, err
	}

	return stored, nil
}

// GetTransaction returns the tx for the given (txid, network) pair, failing
// with types.ErrNotFound when there is no such record
func (p *TxDB) GetTransaction(ctx context.Context, txID string, network networks.Network) (*types.MempoolTransaction, error) {
	const sql = "SELECT " + selectColumns + " FROM mempush.transaction WHERE txid = $1 AND network = $2"

	row := p.db.QueryRow(ctx, sql, txID, network.String())

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}

	return tx, nil
}

// GetTransactions returns all the txs, optionally filtered by network,
// ordered by creation time descending
func (p *TxDB) GetTransactions(ctx context.Context, network *networks.Network) ([]*types.MempoolTransaction, error) {
	const sql = "SELECT " + selectColumns + " FROM mempush.transaction ORDER BY created_at DESC"
	const sqlByNetwork = "SELECT " + selectColumns + " FROM mempush.transaction WHERE network = $1 ORDER BY created_at DESC"

	var rows pgx.Rows
	var err error
	if network != nil {
		rows, err = p.db.Query(ctx, sqlByNetwork, network.String())
	} else {
		rows, err = p.db.Query(ctx, sql)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetTransactionsToReconcile returns the txs that a sweep still needs to
// visit (every status but confirmed), optionally filtered by network, ordered
// by creation time descending
func (p *TxDB) GetTransactionsToReconcile(ctx context.Context, network *networks.Network) ([]*types.MempoolTransaction, error) {
	const sql = "SELECT " + selectColumns + " FROM mempush.transaction WHERE status <> $1 ORDER BY created_at DESC"
	const sqlByNetwork = "SELECT " + selectColumns + " FROM mempush.transaction WHERE status <> $1 AND network = $2 ORDER BY created_at DESC"

	var rows pgx.Rows
	var err error
	if network != nil {
		rows, err = p.db.Query(ctx, sqlByNetwork, types.TxStatusConfirmed, network.String())
	} else {
		rows, err = p.db.Query(ctx, sql, types.TxStatusConfirmed)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// UpdateTransactionResult updates status and last_result for the given
// (txid, network) pair in a single atomic statement, refreshing updated_at
// and incrementing push_attempts in SQL when incrementAttempts is set, so
// concurrent reconciliations of the same tx cannot lose counter updates. It
// returns the updated record.
func (p *TxDB) UpdateTransactionResult(ctx context.Context, txID string, network networks.Network, newStatus string, lastResult string, incrementAttempts bool) (*types.MempoolTransaction, error) {
	const sql = `
		UPDATE mempush.transaction
		SET status = $3, last_result = $4, updated_at = $5,
		    push_attempts = push_attempts + CASE WHEN $6 THEN 1 ELSE 0 END
		WHERE txid = $1 AND network = $2
		RETURNING ` + selectColumns

	row := p.db.QueryRow(ctx, sql, txID, network.String(), newStatus, lastResult, time.Now(), incrementAttempts)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}

	return tx, nil
}

// DeleteTransaction removes the tx for the given (txid, network) pair. The
// terminal status precondition is checked by the caller before deleting.
func (p *TxDB) DeleteTransaction(ctx context.Context, txID string, network networks.Network) error {
	const sql = "DELETE FROM mempush.transaction WHERE txid = $1 AND network = $2"

	cmdTag, err := p.db.Exec(ctx, sql, txID, network.String())
	if err != nil {
		return err
	}

	if cmdTag.RowsAffected() == 0 {
		return types.ErrNotFound
	}

	return nil
}

func scanTransaction(row pgx.Row) (*types.MempoolTransaction, error) {
	tx := &types.MempoolTransaction{}
	var network string

	err := row.Scan(&tx.Id, &tx.TxID, &network, &tx.RawTx, &tx.Status, &tx.PushAttempts, &tx.LastResult, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}

	tx.Network = networks.Network(network)

	return tx, nil
}

func scanTransactions(rows pgx.Rows) ([]*types.MempoolTransaction, error) {
	txs := []*types.MempoolTransaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}
