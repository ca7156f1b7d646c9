package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/locsheet/internal/core"
)

// mapPgError wraps err with the operation name. Missing rows become
// core.ErrNotFound and well-known PostgreSQL codes get text that
// core.MapError recognizes.
func mapPgError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if isNoRows(err) {
		return core.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", operation, err)
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return fmt.Errorf("%s: duplicate key on %s: %w", operation, pgErr.ConstraintName, err)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%s: violates foreign key %s: %w", operation, pgErr.ConstraintName, err)
	case "23514": // check_violation
		return fmt.Errorf("%s: invalid value for %s: %w", operation, pgErr.ConstraintName, err)
	case "40001": // serialization_failure
		return fmt.Errorf("%s: could not serialize: %w", operation, err)
	case "40P01": // deadlock_detected
		return fmt.Errorf("%s: deadlock: %w", operation, err)
	case "57014": // query_canceled
		return fmt.Errorf("%s: timeout: %w", operation, err)
	case "08000", "08003", "08006": // connection_exception
		return fmt.Errorf("%s: connection reset: %w", operation, err)
	default:
		return fmt.Errorf("%s (postgres %s): %w", operation, pgErr.Code, err)
	}
}
