package repository

import (
	"context"

	"github.com/vibast-solutions/ms-go-cardgateway/app/entity"
)

type OrderNoteRepository struct {
	db DBTX
}

func NewOrderNoteRepository(db DBTX) *OrderNoteRepository {
	return &OrderNoteRepository{db: db}
}

func (r *OrderNoteRepository) Create(ctx context.Context, note *entity.OrderNote) error {
	query := `
		INSERT INTO order_notes (order_id, note, created_at)
		VALUES (?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, note.OrderID, note.Note, note.CreatedAt)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	note.ID = uint64(id)

	return nil
}

func (r *OrderNoteRepository) ListByOrder(ctx context.Context, orderID uint64) ([]*entity.OrderNote, error) {
	query := `
		SELECT id, order_id, note, created_at
		FROM order_notes
		WHERE order_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]*entity.OrderNote, 0)
	for rows.Next() {
		note := &entity.OrderNote{}
		if err := rows.Scan(&note.ID, &note.OrderID, &note.Note, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}
