package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-cardgateway/app/entity"
)

var orderRowColumns = []string{
	"id", "total", "currency",
	"billing_first_name", "billing_last_name", "billing_street", "billing_city", "billing_postal_code", "billing_country",
	"status", "metadata_json", "message", "message_kind", "paid_at", "created_at", "updated_at",
}

func TestOrderRepositoryFindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \?`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(
			uint64(42), "125.50", "EUR",
			"Ada", "Lovelace", "1 Main St", "Dublin", "D01", "IE",
			"pending", `{"payment_status":"pending"}`, nil, nil, nil, now, now,
		))

	order, err := NewOrderRepository(db).FindByID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, "125.5", order.Total.String())
	assert.Equal(t, "Dublin", order.Billing.City)
	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.Equal(t, "pending", order.Metadata[entity.MetaPaymentStatus])
	assert.Nil(t, order.Message)
	assert.Nil(t, order.PaidAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(orderRowColumns))

	order, err := NewOrderRepository(db).FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, order)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositorySaveIsConditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	message := "paid"
	kind := entity.MessageKindSuccess
	paidAt := time.Now().UTC()
	order := &entity.Order{
		ID:          42,
		Status:      entity.OrderStatusCompleted,
		Metadata:    map[string]string{entity.MetaPaymentStatus: "completed"},
		Message:     &message,
		MessageKind: &kind,
		PaidAt:      &paidAt,
		UpdatedAt:   paidAt,
	}

	mock.ExpectExec(`UPDATE orders SET (.+) WHERE id = \? AND status = \?`).
		WithArgs("completed", `{"payment_status":"completed"}`, "paid", "success", paidAt, paidAt, uint64(42), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewOrderRepository(db).Save(context.Background(), order, entity.OrderStatusPending))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositorySaveZeroRows(t *testing.T) {
	cases := []struct {
		name    string
		rows    *sqlmock.Rows
		wantErr error
	}{
		{"status moved on", sqlmock.NewRows([]string{"status"}).AddRow("completed"), ErrOrderConflict},
		{"row unchanged", sqlmock.NewRows([]string{"status"}).AddRow("pending"), nil},
		{"order gone", sqlmock.NewRows([]string{"status"}), ErrOrderNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(`UPDATE orders SET`).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`SELECT status FROM orders WHERE id = \?`).
				WithArgs(uint64(42)).
				WillReturnRows(tc.rows)

			err = NewOrderRepository(db).Save(context.Background(), &entity.Order{ID: 42, Status: "completed"}, "pending")
			assert.ErrorIs(t, err, tc.wantErr)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrderNoteRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO order_notes`).
		WithArgs(uint64(42), "Capture charge complete (Amount: 25.00)", now).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(`SELECT id, order_id, note, created_at FROM order_notes`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "note", "created_at"}).
			AddRow(uint64(9), uint64(42), "Capture charge complete (Amount: 25.00)", now))

	repo := NewOrderNoteRepository(db)
	note := &entity.OrderNote{OrderID: 42, Note: "Capture charge complete (Amount: 25.00)", CreatedAt: now}
	require.NoError(t, repo.Create(context.Background(), note))
	assert.Equal(t, uint64(9), note.ID)

	notes, err := repo.ListByOrder(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, note.Note, notes[0].Note)
	require.NoError(t, mock.ExpectationsWereMet())
}
