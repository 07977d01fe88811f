package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-cardgateway/app/entity"
)

var transactionRowColumns = []string{
	"id", "merchant_tx_id", "order_id", "action", "amount", "currency", "environment",
	"status", "refunded_amount", "created_at", "updated_at",
}

func TestTransactionRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO gateway_transactions`).
		WithArgs("tx-1", uint64(42), "PURCHASE", sqlmock.AnyArg(), "EUR", "sandbox", "", sqlmock.AnyArg(), now, now).
		WillReturnResult(sqlmock.NewResult(3, 1))

	tx := &entity.Transaction{
		MerchantTxID: "tx-1",
		OrderID:      42,
		Action:       "PURCHASE",
		Amount:       decimal.RequireFromString("25.00"),
		Currency:     "EUR",
		Environment:  entity.EnvironmentSandbox,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewTransactionRepository(db).Create(context.Background(), tx))
	assert.Equal(t, uint64(3), tx.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO gateway_transactions`).
		WillReturnError(&mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err = NewTransactionRepository(db).Create(context.Background(), &entity.Transaction{MerchantTxID: "tx-1"})
	assert.ErrorIs(t, err, ErrTransactionExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE gateway_transactions SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewTransactionRepository(db).Update(context.Background(), &entity.Transaction{ID: 99, Status: "VOID"})
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryFindByMerchantTxID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM gateway_transactions WHERE merchant_tx_id = \?`).
		WithArgs("tx-1").
		WillReturnRows(sqlmock.NewRows(transactionRowColumns).
			AddRow(uint64(3), "tx-1", uint64(42), "AUTH", "25.00", "EUR", "live", "NOT_SET_FOR_CAPTURE", "0", now, now))

	tx, err := NewTransactionRepository(db).FindByMerchantTxID(context.Background(), "tx-1")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("25")))
	assert.Equal(t, "NOT_SET_FOR_CAPTURE", tx.Status)
	assert.True(t, tx.RefundedAmount.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepositoryListUnconfirmed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	after := now.Add(-24 * time.Hour)
	before := now.Add(-15 * time.Minute)
	mock.ExpectQuery(`SELECT (.+) FROM gateway_transactions\s+WHERE status = ''`).
		WithArgs("PURCHASE", "AUTH", after, before, int32(50)).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns).
			AddRow(uint64(1), "tx-a", uint64(10), "PURCHASE", "10.00", "EUR", "live", "", "0", now, now).
			AddRow(uint64(2), "tx-b", uint64(11), "AUTH", "20.00", "EUR", "sandbox", "", "0", now, now))

	items, err := NewTransactionRepository(db).ListUnconfirmed(context.Background(), after, before, 50)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "tx-b", items[1].MerchantTxID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositories(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO transaction_events`).
		WithArgs(uint64(3), "transaction_confirmed", nil, "SUCCESS", nil, now).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(`INSERT INTO gateway_callbacks`).
		WithArgs(nil, "tx-1", "notify", "order_id=0", entity.CallbackStatusRejected, "order not found", now, now).
		WillReturnResult(sqlmock.NewResult(6, 1))

	event := &entity.TransactionEvent{TransactionID: 3, EventType: "transaction_confirmed", NewStatus: "SUCCESS", CreatedAt: now}
	require.NoError(t, NewTransactionEventRepository(db).Create(context.Background(), event))
	assert.Equal(t, uint64(5), event.ID)

	reason := "order not found"
	callback := &entity.GatewayCallback{
		MerchantTxID: "tx-1",
		Source:       "notify",
		PayloadJSON:  "order_id=0",
		Status:       entity.CallbackStatusRejected,
		Error:        &reason,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewGatewayCallbackRepository(db).Create(context.Background(), callback))
	assert.Equal(t, uint64(6), callback.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
