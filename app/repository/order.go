package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-cardgateway/app/entity"
)

const orderColumns = `id, total, currency,
			billing_first_name, billing_last_name, billing_street, billing_city, billing_postal_code, billing_country,
			status, metadata_json, message, message_kind, paid_at, created_at, updated_at`

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint64) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	order := &entity.Order{}
	if err := scanOrder(r.db.QueryRowContext(ctx, query, id), order); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return order, nil
}

// Save writes the mutable order fields only while the stored status still equals expectedStatus.
func (r *OrderRepository) Save(ctx context.Context, order *entity.Order, expectedStatus string) error {
	metadataJSON, err := encodeMetadata(order.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE orders SET
			status = ?,
			metadata_json = ?,
			message = ?,
			message_kind = ?,
			paid_at = ?,
			updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		order.Status,
		metadataJSON,
		nullable(order.Message),
		nullable(order.MessageKind),
		nullable(order.PaidAt),
		order.UpdatedAt,
		order.ID,
		expectedStatus,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// MySQL reports zero affected rows for an unchanged row too.
	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, order.ID).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if current != expectedStatus {
		return ErrOrderConflict
	}
	return nil
}

func scanOrder(scan rowScanner, order *entity.Order) error {
	var metadataJSON string
	var message sql.Null[string]
	var messageKind sql.Null[string]
	var paidAt sql.Null[time.Time]

	err := scan.Scan(
		&order.ID,
		&order.Total,
		&order.Currency,
		&order.Billing.FirstName,
		&order.Billing.LastName,
		&order.Billing.Street,
		&order.Billing.City,
		&order.Billing.PostalCode,
		&order.Billing.Country,
		&order.Status,
		&metadataJSON,
		&message,
		&messageKind,
		&paidAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return err
	}

	order.Message = fromNull(message)
	order.MessageKind = fromNull(messageKind)
	order.PaidAt = fromNull(paidAt)

	metadata, err := decodeMetadata(metadataJSON)
	if err != nil {
		return err
	}
	order.Metadata = metadata

	return nil
}
