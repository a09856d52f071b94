package budget

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newMockLedger(t *testing.T, limits Limits) (*PostgresLedger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresLedger(db, limits).WithClock(fixedClock()), mock
}

func TestPostgresLedger_CheckGlobal(t *testing.T) {
	l, mock := newMockLedger(t, testLimits())

	mock.ExpectQuery(`SELECT COALESCE\(total_cost, 0\)`).
		WithArgs("global", "2026-08").
		WillReturnRows(sqlmock.NewRows([]string{"total_cost"}).AddRow(12.5))

	status, err := l.Check(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 12.5, status.MonthSpendUSD)
	assert.Equal(t, 187.5, status.RemainingUSD)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_CheckUnseenTenantIsZero(t *testing.T) {
	l, mock := newMockLedger(t, testLimits())

	mock.ExpectQuery(`SELECT COALESCE\(total_cost, 0\)`).
		WithArgs("tenant:t1", "2026-08").
		WillReturnError(sql.ErrNoRows)

	status, err := l.Check(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, status.MonthSpendUSD)
	assert.Equal(t, 50.0, status.LimitUSD)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_AdmitRejectsExhaustedGlobal(t *testing.T) {
	l, mock := newMockLedger(t, Limits{GlobalUSD: 200, DefaultTenantUSD: 50})

	mock.ExpectQuery(`SELECT COALESCE\(total_cost, 0\)`).
		WithArgs("global", "2026-08").
		WillReturnRows(sqlmock.NewRows([]string{"total_cost"}).AddRow(200.02))

	ok, err := l.Admit(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_AdmitChecksTenantAfterGlobal(t *testing.T) {
	l, mock := newMockLedger(t, testLimits())

	mock.ExpectQuery(`SELECT COALESCE\(total_cost, 0\)`).
		WithArgs("global", "2026-08").
		WillReturnRows(sqlmock.NewRows([]string{"total_cost"}).AddRow(10.0))
	mock.ExpectQuery(`SELECT COALESCE\(total_cost, 0\)`).
		WithArgs("tenant:t1", "2026-08").
		WillReturnRows(sqlmock.NewRows([]string{"total_cost"}).AddRow(50.0))

	ok, err := l.Admit(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, ok, "tenant cap exhausted even though global is open")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_IncrementUpsertsBothScopes(t *testing.T) {
	l, mock := newMockLedger(t, testLimits())

	mock.ExpectExec(`INSERT INTO budget_tracking`).
		WithArgs("global", "2026-08", 0.042, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO budget_tracking`).
		WithArgs("tenant:t1", "2026-08", 0.042, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, l.Increment(context.Background(), "t1", 0.042))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_Reset(t *testing.T) {
	l, mock := newMockLedger(t, testLimits())

	mock.ExpectExec(`UPDATE budget_tracking`).
		WithArgs("tenant:t1", "2026-08", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, l.Reset(context.Background(), "t1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
