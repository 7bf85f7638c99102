package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlx.NewDb(db, DriverSQLite)), mock
}

func TestDoCommitsOnSuccess(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product_variants")).
		WithArgs(2, sqlmock.AnyArg(), int64(1), "M", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Do(context.Background(), func(ctx context.Context, tx application.Tx) error {
		return tx.Stock().Decrement(ctx, 1, "M", 2)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("gateway down")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectRollback()

	err := store.Do(context.Background(), func(ctx context.Context, tx application.Tx) error {
		if err := tx.Carts().Clear(ctx, 9); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementDistinguishesMissingVariant(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product_variants")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM product_variants")).
		WithArgs(int64(1), "XL").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "size", "stock_quantity", "updated_at"}))
	mock.ExpectRollback()

	err := store.Do(context.Background(), func(ctx context.Context, tx application.Tx) error {
		return tx.Stock().Decrement(ctx, 1, "XL", 1)
	})
	assert.ErrorIs(t, err, inventory.ErrVariantNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoRollsBackOnPanic(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.Do(context.Background(), func(context.Context, application.Tx) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaForDialects(t *testing.T) {
	lite := schemaFor(DriverSQLite)
	pg := schemaFor(DriverPgx)

	require.Len(t, lite, len(schema))
	assert.Contains(t, lite[0], "INTEGER PRIMARY KEY AUTOINCREMENT")
	assert.Contains(t, pg[0], "BIGSERIAL PRIMARY KEY")
	assert.Contains(t, pg[0], "NUMERIC(12,2)")
	for _, stmt := range append(lite, pg...) {
		assert.NotContains(t, stmt, "{{")
	}
}
