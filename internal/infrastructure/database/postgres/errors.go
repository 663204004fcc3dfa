package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint failure whose
// constraint (or message) mentions hint.
func isUniqueViolation(err error, hint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation && strings.Contains(pgErr.ConstraintName, hint)
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "duplicate key") && strings.Contains(errStr, hint)
}
