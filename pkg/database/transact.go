package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Transact runs fn inside a single transaction and rolls everything back on
// error. The *sqlx.Tx is the unit of work handed to every repository call
// belonging to the operation; it must not outlive fn.
func Transact(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
