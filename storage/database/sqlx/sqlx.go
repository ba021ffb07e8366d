package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core"
)

const dayLayout = "2006-01-02"

// wrap annotates a driver error. Lost connections are reported as core.StoreUnavailableError.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if isConnError(err) {
		return core.NewStoreUnavailableError(errors.Wrap(err, msg))
	}
	return errors.Wrap(err, msg)
}

func isConnError(err error) bool {
	cause := errors.Cause(err)
	if cause == driver.ErrBadConn || cause == sql.ErrConnDone {
		return true
	}
	var netErr net.Error
	return errors.As(cause, &netErr)
}

// notFound maps sql.ErrNoRows to the given sentinel.
func notFound(err error, sentinel error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return sentinel
	}
	return wrap(err, msg)
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return wrap(tx.Commit(), "committing transaction")
}
