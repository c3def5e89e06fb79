package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/sports-club-api/pkg/errors"
	"github.com/noah-isme/sports-club-api/pkg/validation"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// inTx runs fn inside a transaction, committing on success and rolling back otherwise.
func inTx(ctx context.Context, provider txProvider, fn func(tx *sqlx.Tx) error) (err error) {
	if provider == nil {
		return appErrors.Clone(appErrors.ErrInternal, "veritabanı işlemi başlatılamadı")
	}
	tx, err := provider.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Internal(err, "veritabanı işlemi başlatılamadı")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Internal(err, "veritabanı işlemi tamamlanamadı")
	}
	return nil
}

func defaultValidator(v *validation.Validator) *validation.Validator {
	if v == nil {
		return validation.New()
	}
	return v
}

func validationFailed(v *validation.Validator, err error) error {
	return appErrors.Validation(err, v.Message(err))
}

// emptyIfNil keeps list responses encoded as [] rather than null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
