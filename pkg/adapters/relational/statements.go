package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/storagy/pkg/core"
)

func (a *Adapter) quoted(table string) string {
	return a.dialect.QualifiedName(table, a.opts.Schema)
}

func (a *Adapter) insertSQL(table string, fields []string) string {
	cols := make([]string, len(fields))
	params := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = a.dialect.QuoteIdentifier(f)
		params[i] = a.dialect.FormatPlaceholder(i + 1)
	}
	//nolint:gosec // identifiers are quoted by the dialect
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		a.quoted(table), strings.Join(cols, ", "), strings.Join(params, ", "))
}

// Insert adds one row inside the open cursor. Columns follow the order of
// the record.
func (a *Adapter) Insert(ctx context.Context, table string, row core.Record) error {
	if _, err := a.cursor(); err != nil {
		return err
	}
	_, err := a.Exec(ctx, a.insertSQL(table, row.Names), row.Values...)
	return err
}

// BulkInsert prepares one INSERT and executes it for every row inside the
// open cursor. On any failure the cursor is rolled back and dropped, so no
// row of the batch is kept. An empty batch does nothing.
func (a *Adapter) BulkInsert(ctx context.Context, table string, fields []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := a.cursor()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, a.insertSQL(table, fields))
	if err != nil {
		return errors.Join(fmt.Errorf("failed to prepare insert: %w", err), a.rollback())
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return errors.Join(fmt.Errorf("failed to insert row %d: %w", i, err), a.rollback())
		}
	}
	a.logger.Debug("bulk insert", slog.String("table", table), slog.Int("rows", len(rows)))
	return nil
}

// Resize changes a column to a text type of the given size. A size of zero
// or less does nothing; sizes above MaxVarchar use the dialect's unbounded
// type.
func (a *Adapter) Resize(ctx context.Context, table, field string, size int) error {
	if size <= 0 {
		return nil
	}
	if a.dialect.AlterColumn == "" {
		return &core.UnsupportedError{Driver: DriverName + "/" + a.dialect.Name, Operation: "resize"}
	}
	//nolint:gosec // identifiers are quoted by the dialect
	query := fmt.Sprintf(a.dialect.AlterColumn,
		a.quoted(table), a.dialect.QuoteIdentifier(field), a.dialect.VarcharType(size))
	return a.TransQuery(ctx, query)
}

// Truncate removes every row of a table.
func (a *Adapter) Truncate(ctx context.Context, table string) error {
	return a.TransQuery(ctx, fmt.Sprintf(a.dialect.Truncate, a.quoted(table)))
}

// SelectAll reads every row of a table inside the open cursor.
func (a *Adapter) SelectAll(ctx context.Context, table string) ([]core.Row, error) {
	rows, err := a.Query(ctx, "SELECT * FROM "+a.quoted(table))
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// scanRows reads and closes rows. Byte slices become strings.
func scanRows(rows *sql.Rows) ([]core.Row, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []core.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, core.Row(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// Columns returns the column names of a table in their own cursor, read
// from the metadata of a one-row select.
func (a *Adapter) Columns(ctx context.Context, table string) ([]string, error) {
	if err := a.Open(ctx); err != nil {
		return nil, err
	}
	rows, err := a.Query(ctx, a.dialect.SelectOne(a.quoted(table)))
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	cols, err := rows.Columns()
	_ = rows.Close()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to read columns: %w", err), a.Close())
	}
	return cols, a.Close()
}

// Declared lengths such as VARCHAR(20), for backends that only report the
// declared type.
var declaredLength = regexp.MustCompile(`\(\s*(\d+)\s*\)`)

// FieldSize returns the maximum length of every column of a table in their
// own cursor. Columns without a length map to nil.
func (a *Adapter) FieldSize(ctx context.Context, table string) (map[string]*int64, error) {
	schema, name := a.dialect.Qualify(table, a.opts.Schema)
	args := []any{schema, name}
	if a.dialect.TableFirst {
		args = []any{name, schema}
	}

	if err := a.Open(ctx); err != nil {
		return nil, err
	}
	rows, err := a.Query(ctx, a.dialect.FieldSize, args...)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	defer func() { _ = rows.Close() }()

	sizes := make(map[string]*int64)
	for rows.Next() {
		var (
			col, typ string
			length   sql.NullInt64
		)
		if err := rows.Scan(&col, &typ, &length); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to scan column metadata: %w", err), a.Close())
		}
		switch {
		case length.Valid:
			sizes[col] = &length.Int64
		default:
			if m := declaredLength.FindStringSubmatch(typ); m != nil {
				n, _ := strconv.ParseInt(m[1], 10, 64)
				sizes[col] = &n
			} else {
				sizes[col] = nil
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("error iterating column metadata: %w", err), a.Close())
	}
	_ = rows.Close()
	return sizes, a.Close()
}

func (a *Adapter) table() (string, error) {
	if a.opts.Table == "" {
		return "", fmt.Errorf("%s: %w", DriverName, core.ErrNoTable)
	}
	return a.opts.Table, nil
}

// All reads every row of the configured table in its own cursor.
func (a *Adapter) All(ctx context.Context) ([]core.Row, error) {
	table, err := a.table()
	if err != nil {
		return nil, err
	}
	if err := a.Open(ctx); err != nil {
		return nil, err
	}
	rows, err := a.SelectAll(ctx, table)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return rows, a.Close()
}

// FieldList returns the columns of the configured table.
func (a *Adapter) FieldList(ctx context.Context) ([]string, error) {
	table, err := a.table()
	if err != nil {
		return nil, err
	}
	return a.Columns(ctx, table)
}

// IsEmpty reports whether the configured table has no rows.
func (a *Adapter) IsEmpty(ctx context.Context) (bool, error) {
	table, err := a.table()
	if err != nil {
		return false, err
	}
	if err := a.Open(ctx); err != nil {
		return false, err
	}
	rows, err := a.Query(ctx, a.dialect.SelectOne(a.quoted(table)))
	if err != nil {
		return false, errors.Join(err, a.Close())
	}
	found := rows.Next()
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return false, errors.Join(err, a.Close())
	}
	return !found, a.Close()
}
