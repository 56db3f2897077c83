package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrUniqueViolation is returned when a write collides with a unique column.
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrUnknownColumn is returned when a predicate or change names a column the table does not expose.
	ErrUnknownColumn = errors.New("unknown column")
)

// Gateway is the only read/write path to the store. It is bound either to the
// connection pool or to a single transaction.
type Gateway struct {
	ext sqlx.ExtContext
	db  *sqlx.DB
}

// Predicate is an equality condition on a single column.
type Predicate struct {
	Column string
	Value  any
}

// Eq builds an equality predicate.
func Eq(column string, value any) Predicate {
	return Predicate{Column: column, Value: value}
}

// WithTx runs fn against a gateway bound to one transaction. The transaction is
// committed when fn returns nil and rolled back otherwise. Nested calls reuse
// the outer transaction.
func (g *Gateway) WithTx(ctx context.Context, fn func(tx *Gateway) error) error {
	if g.db == nil {
		return fn(g)
	}

	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Gateway{ext: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", translateWriteErr(err))
	}
	return nil
}

// GetOne returns the first row matching every predicate, or nil when nothing matches.
func GetOne[T any](ctx context.Context, g *Gateway, table Table[T], where ...Predicate) (*T, error) {
	clause, args, err := table.where(where)
	if err != nil {
		return nil, err
	}

	query := table.selectSQL() + clause + " ORDER BY id LIMIT 1"
	var row T
	err = sqlx.GetContext(ctx, g.ext, &row, g.ext.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", table.Name, err)
	}
	return &row, nil
}

// GetAll returns every row matching the predicates ordered by id.
func GetAll[T any](ctx context.Context, g *Gateway, table Table[T], where ...Predicate) ([]T, error) {
	clause, args, err := table.where(where)
	if err != nil {
		return nil, err
	}

	rows := []T{}
	query := table.selectSQL() + clause + " ORDER BY id"
	if err := sqlx.SelectContext(ctx, g.ext, &rows, g.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", table.Name, err)
	}
	return rows, nil
}

// Count returns the number of rows matching the predicates.
func Count[T any](ctx context.Context, g *Gateway, table Table[T], where ...Predicate) (int, error) {
	clause, args, err := table.where(where)
	if err != nil {
		return 0, err
	}

	var n int
	query := "SELECT COUNT(*) FROM " + table.Name + clause
	if err := sqlx.GetContext(ctx, g.ext, &n, g.ext.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", table.Name, err)
	}
	return n, nil
}

// Create inserts a row built from fields and returns it as stored, with the
// generated id and timestamps populated.
func Create[T any](ctx context.Context, g *Gateway, table Table[T], fields map[string]any) (T, error) {
	var zero T
	columns, args, err := table.writes(fields)
	if err != nil {
		return zero, err
	}
	if len(columns) == 0 {
		return zero, fmt.Errorf("insert %s: no fields", table.Name)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table.Name, strings.Join(columns, ", "), placeholders)

	var id int64
	if err := sqlx.GetContext(ctx, g.ext, &id, g.ext.Rebind(query), args...); err != nil {
		return zero, fmt.Errorf("insert %s: %w", table.Name, translateWriteErr(err))
	}

	row, err := GetOne(ctx, g, table, Eq("id", id))
	if err != nil {
		return zero, err
	}
	if row == nil {
		return zero, fmt.Errorf("insert %s: row %d vanished", table.Name, id)
	}
	return *row, nil
}

// Update applies a partial change set to every row matching the predicate and
// returns the number of rows affected. Zero affected rows is not an error.
func Update[T any](ctx context.Context, g *Gateway, table Table[T], where Predicate, changes map[string]any) (int64, error) {
	columns, args, err := table.writes(changes)
	if err != nil {
		return 0, err
	}
	clause, whereArgs, err := table.where([]Predicate{where})
	if err != nil {
		return 0, err
	}

	sets := make([]string, 0, len(columns)+1)
	for _, column := range columns {
		sets = append(sets, column+" = ?")
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	query := "UPDATE " + table.Name + " SET " + strings.Join(sets, ", ") + clause
	res, err := g.ext.ExecContext(ctx, g.ext.Rebind(query), append(args, whereArgs...)...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table.Name, translateWriteErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table.Name, err)
	}
	return affected, nil
}

func (t Table[T]) selectSQL() string {
	return "SELECT " + strings.Join(t.Columns, ", ") + " FROM " + t.Name
}

func (t Table[T]) where(preds []Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		if !t.hasColumn(p.Column) {
			return "", nil, fmt.Errorf("%w %q on %s", ErrUnknownColumn, p.Column, t.Name)
		}
		conds = append(conds, p.Column+" = ?")
		args = append(args, p.Value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// writes returns the changed columns in a stable order along with their values.
func (t Table[T]) writes(fields map[string]any) ([]string, []any, error) {
	columns := make([]string, 0, len(fields))
	for column := range fields {
		if !t.writable(column) {
			return nil, nil, fmt.Errorf("%w %q on %s", ErrUnknownColumn, column, t.Name)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	args := make([]any, 0, len(columns))
	for _, column := range columns {
		args = append(args, fields[column])
	}
	return columns, args, nil
}

func translateWriteErr(err error) error {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, liteErr.Error())
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, pqErr.Message)
	}
	return err
}
