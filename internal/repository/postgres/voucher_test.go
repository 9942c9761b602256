package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctspark-backend/internal/domain"
	"ctspark-backend/internal/repository/postgres"
)

func TestVoucherRepository_FindUnused(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewVoucherRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM vouchers WHERE plan_key = \\$1 AND bucket = \\$2 AND location_id = \\$3 AND used = FALSE").
		WithArgs("daily_1gb", 1, "loc1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "plan_key", "bucket", "location_id", "used", "assigned_to", "assigned_at", "transaction_ref", "created_at"}).
			AddRow("v1", "CODE1", "daily_1gb", 1, "loc1", false, "", nil, "", now).
			AddRow("v2", "CODE2", "daily_1gb", 1, "loc1", false, "", nil, "", now))

	vouchers, err := repo.FindUnused(context.Background(), "daily_1gb", 1, "loc1", 5)
	require.NoError(t, err)
	assert.Len(t, vouchers, 2)
	assert.Equal(t, "CODE1", vouchers[0].Code)
	assert.Nil(t, vouchers[0].AssignedAt)
}

func TestVoucherRepository_MarkUsed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewVoucherRepository(db)
	at := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	claim := domain.Claim{UserID: "user-1", TransactionRef: "CTS_1", At: at}
	v := domain.Voucher{ID: "v1", Code: "CODE1", PlanKey: "daily_1gb", Bucket: 1, LocationID: "loc1"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE vouchers SET used = TRUE").
			WithArgs("user-1", at, "CTS_1", "v1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		claimed, err := repo.MarkUsed(context.Background(), v, claim)
		require.NoError(t, err)
		assert.True(t, claimed.Used)
		assert.Equal(t, "user-1", claimed.AssignedTo)
		assert.Equal(t, "CTS_1", claimed.TransactionRef)
	})

	t.Run("AlreadyTaken", func(t *testing.T) {
		mock.ExpectExec("UPDATE vouchers SET used = TRUE").
			WithArgs("user-1", at, "CTS_1", "v1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := repo.MarkUsed(context.Background(), v, claim)
		assert.ErrorIs(t, err, domain.ErrVoucherTaken)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoucherRepository_CountBucket(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewVoucherRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FILTER").
		WithArgs("daily_1gb", 2, "").
		WillReturnRows(sqlmock.NewRows([]string{"unused", "used"}).AddRow(12, 30))

	unused, used, err := repo.CountBucket(context.Background(), "daily_1gb", 2, "")
	require.NoError(t, err)
	assert.Equal(t, int64(12), unused)
	assert.Equal(t, int64(30), used)
}

func TestVoucherRepository_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewVoucherRepository(db)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`COPY "vouchers"`)
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "CODE1", "daily_1gb", 3, "loc1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "CODE2", "daily_1gb", 3, "loc1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err = repo.Insert(context.Background(), "daily_1gb", 3, []domain.Voucher{
		{Code: "CODE1", LocationID: "loc1"},
		{Code: "CODE2", LocationID: "loc1"},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoucherRepository_InsertDuplicateCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewVoucherRepository(db)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`COPY "vouchers"`)
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "CODE1", "daily_1gb", 4, "loc1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WillReturnError(&pq.Error{Code: "23505", Constraint: "vouchers_plan_key_code_key"})
	mock.ExpectRollback()

	err = repo.Insert(context.Background(), "daily_1gb", 4, []domain.Voucher{
		{Code: "CODE1", LocationID: "loc1"},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
