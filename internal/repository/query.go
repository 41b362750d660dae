package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned by every backend when a record does not exist.
var ErrNotFound = pgx.ErrNoRows

// ErrDuplicate is returned when a unique constraint would be violated.
var ErrDuplicate = errors.New("duplicate record")

// ErrStaleStatus is returned by conditional updates when the stored status no
// longer matches the one the caller read.
var ErrStaleStatus = errors.New("record status changed")

const uniqueViolation = "23505"

// whereBuilder accumulates positional filter clauses.
type whereBuilder struct {
	clauses []string
	args    []any
}

// add appends a clause; every %s in expr is replaced by the new placeholder.
func (w *whereBuilder) add(expr string, arg any) {
	w.args = append(w.args, arg)
	placeholder := fmt.Sprintf("$%d", len(w.args))
	w.clauses = append(w.clauses, strings.ReplaceAll(expr, "%s", placeholder))
}

// addIn appends "column IN (...)" for a non-empty value list.
func addIn[T any](w *whereBuilder, column string, values []T) {
	if len(values) == 0 {
		return
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		w.args = append(w.args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(w.args))
	}
	w.clauses = append(w.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
}

// addSearch appends a case-insensitive LIKE over the given columns.
func (w *whereBuilder) addSearch(term *string, columns ...string) {
	if term == nil || strings.TrimSpace(*term) == "" {
		return
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("LOWER(%s) LIKE %%s", col)
	}
	w.add("("+strings.Join(parts, " OR ")+")", "%"+strings.ToLower(strings.TrimSpace(*term))+"%")
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// pageClause renders LIMIT/OFFSET with sane defaults.
func pageClause(limit, offset, defaultLimit int) string {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

// translateErr maps driver errors to repository sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func execAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
