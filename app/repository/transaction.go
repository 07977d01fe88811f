package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-cardgateway/app/entity"
)

const transactionColumns = `id, merchant_tx_id, order_id, action, amount, currency, environment,
			status, refunded_amount, created_at, updated_at`

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	query := `
		INSERT INTO gateway_transactions (
			merchant_tx_id, order_id, action, amount, currency, environment,
			status, refunded_amount, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		tx.MerchantTxID,
		tx.OrderID,
		tx.Action,
		tx.Amount,
		tx.Currency,
		tx.Environment,
		tx.Status,
		tx.RefundedAmount,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrTransactionExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	tx.ID = uint64(id)
	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *entity.Transaction) error {
	query := `
		UPDATE gateway_transactions SET
			status = ?,
			refunded_amount = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, tx.Status, tx.RefundedAmount, tx.UpdatedAt, tx.ID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

func (r *TransactionRepository) FindByMerchantTxID(ctx context.Context, merchantTxID string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM gateway_transactions WHERE merchant_tx_id = ? LIMIT 1`

	tx := &entity.Transaction{}
	if err := scanTransaction(r.db.QueryRowContext(ctx, query, merchantTxID), tx); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return tx, nil
}

// FindLatestByOrder returns the most recent checkout transaction of the order.
func (r *TransactionRepository) FindLatestByOrder(ctx context.Context, orderID uint64) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM gateway_transactions
		WHERE order_id = ?
		ORDER BY id DESC
		LIMIT 1
	`

	tx := &entity.Transaction{}
	if err := scanTransaction(r.db.QueryRowContext(ctx, query, orderID), tx); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return tx, nil
}

func (r *TransactionRepository) ListByOrder(ctx context.Context, orderID uint64) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM gateway_transactions
		WHERE order_id = ?
		ORDER BY id ASC
	`

	return r.list(ctx, query, orderID)
}

// ListUnconfirmed returns checkout transactions created after the given time that the gateway
// never reported on and were last touched before the given time, oldest first.
func (r *TransactionRepository) ListUnconfirmed(ctx context.Context, after, before time.Time, limit int32) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM gateway_transactions
		WHERE status = ''
		  AND action IN (?, ?)
		  AND created_at >= ?
		  AND updated_at <= ?
		ORDER BY updated_at ASC
		LIMIT ?
	`

	return r.list(ctx, query, "PURCHASE", "AUTH", after, before, limit)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.Transaction, 0)
	for rows.Next() {
		item := &entity.Transaction{}
		if err := scanTransaction(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func scanTransaction(scan rowScanner, tx *entity.Transaction) error {
	return scan.Scan(
		&tx.ID,
		&tx.MerchantTxID,
		&tx.OrderID,
		&tx.Action,
		&tx.Amount,
		&tx.Currency,
		&tx.Environment,
		&tx.Status,
		&tx.RefundedAmount,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
}
