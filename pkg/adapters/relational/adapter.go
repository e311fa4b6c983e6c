package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/storagy/pkg/adapter"
	"github.com/leapstack-labs/storagy/pkg/core"
)

// DriverName is the dispatcher key of this adapter.
const DriverName = "relational"

// Adapter wraps a *sql.DB and at most one cursor. A cursor is a
// transaction: statements run inside it and become visible when the
// cursor is committed or closed.
//
// An Adapter is not safe for concurrent use.
type Adapter struct {
	*core.Conn[*sql.DB]
	opts    Options
	dialect *Dialect
	tx      *sql.Tx
	logger  *slog.Logger
}

// New builds the connection string for the configured dialect, opens the
// database and pings it.
// If logger is nil, a discard logger is used.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Adapter, error) {
	a, err := newAdapter(opts, logger)
	if err != nil {
		return nil, err
	}
	a.Conn = core.NewConn(a.open, a.closeDB)
	if err := a.Connect(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// FromDB wraps an already opened database. The adapter takes ownership:
// Disconnect closes db, and a later Connect reopens from opts.
func FromDB(ctx context.Context, db *sql.DB, opts Options, logger *slog.Logger) (*Adapter, error) {
	a, err := newAdapter(opts, logger)
	if err != nil {
		return nil, err
	}
	first := db
	a.Conn = core.NewConn(func(ctx context.Context) (*sql.DB, error) {
		if first == nil {
			return a.open(ctx)
		}
		h := first
		first = nil
		if err := a.ping(ctx, h); err != nil {
			_ = h.Close()
			return nil, err
		}
		return h, nil
	}, a.closeDB)
	if err := a.Connect(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func newAdapter(opts Options, logger *slog.Logger) (*Adapter, error) {
	if opts.Dialect == "" {
		opts.Dialect = DefaultOptions().Dialect
	}
	d, ok := GetDialect(opts.Dialect)
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %v)", opts.Dialect, ListDialects())
	}
	return &Adapter{
		opts:    opts,
		dialect: d,
		logger:  adapter.Logger(logger).With(slog.String("dialect", d.Name)),
	}, nil
}

// Driver returns the dispatcher name of the adapter.
func (a *Adapter) Driver() string {
	return DriverName
}

// Dialect returns the SQL dialect of the adapter.
func (a *Adapter) Dialect() *Dialect {
	return a.dialect
}

func (a *Adapter) target() string {
	if a.opts.Host != "" {
		return a.opts.Host + "/" + a.opts.Database
	}
	return a.opts.Database
}

func (a *Adapter) open(ctx context.Context) (*sql.DB, error) {
	a.logger.Debug("connecting", slog.String("host", a.opts.Host), slog.String("database", a.opts.Database))

	db, err := sql.Open(a.dialect.SQLDriver, a.dialect.DSN(a.opts))
	if err != nil {
		return nil, &core.ConnectionError{Driver: DriverName, Target: a.target(), Err: err}
	}
	if err := a.ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) ping(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return &core.ConnectionError{Driver: DriverName, Target: a.target(), Err: err}
	}
	return nil
}

// closeDB commits and closes any cursor, then closes the database.
func (a *Adapter) closeDB(db *sql.DB) error {
	a.logger.Debug("closing database connection")
	return errors.Join(a.Close(), db.Close())
}

func (a *Adapter) db() (*sql.DB, error) {
	if !a.IsConnected() {
		return nil, core.ErrNotConnected
	}
	return a.Handle(), nil
}

// Open starts a fresh cursor. A cursor that is already open is committed
// and closed first.
func (a *Adapter) Open(ctx context.Context) error {
	db, err := a.db()
	if err != nil {
		return err
	}
	if err := a.Close(); err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to open cursor: %w", err)
	}
	a.tx = tx
	a.logger.Debug("cursor opened")
	return nil
}

// IsCursorOpen reports whether a cursor is open.
func (a *Adapter) IsCursorOpen() bool {
	return a.tx != nil
}

// Commit makes the cursor's work durable and keeps the cursor open.
// Without a cursor it does nothing.
func (a *Adapter) Commit(ctx context.Context) error {
	if a.tx == nil {
		return nil
	}
	if err := a.Close(); err != nil {
		return err
	}
	return a.Open(ctx)
}

// Close commits and closes the cursor. Without a cursor it does nothing.
func (a *Adapter) Close() error {
	if a.tx == nil {
		return nil
	}
	tx := a.tx
	a.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cursor: %w", err)
	}
	a.logger.Debug("cursor closed")
	return nil
}

// rollback discards the cursor's work and drops the cursor.
func (a *Adapter) rollback() error {
	if a.tx == nil {
		return nil
	}
	tx := a.tx
	a.tx = nil
	a.logger.Debug("cursor rolled back")
	return tx.Rollback()
}

func (a *Adapter) cursor() (*sql.Tx, error) {
	if a.tx == nil {
		return nil, core.ErrCursorNotOpen
	}
	return a.tx, nil
}

// Query runs a statement returning rows inside the open cursor. The caller
// closes the returned rows.
func (a *Adapter) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	tx, err := a.cursor()
	if err != nil {
		return nil, err
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

// Exec runs a statement without rows inside the open cursor.
func (a *Adapter) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx, err := a.cursor()
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute SQL: %w", err)
	}
	return res, nil
}

// TransQuery runs one statement in its own cursor: open, execute, commit,
// close. A failing statement is rolled back.
func (a *Adapter) TransQuery(ctx context.Context, query string, args ...any) error {
	if err := a.Open(ctx); err != nil {
		return err
	}
	if _, err := a.Exec(ctx, query, args...); err != nil {
		return errors.Join(err, a.rollback())
	}
	return a.Close()
}

// Ensure Adapter implements the adapter interfaces
var (
	_ adapter.Adapter          = (*Adapter)(nil)
	_ adapter.Reader           = (*Adapter)(nil)
	_ adapter.FieldLister      = (*Adapter)(nil)
	_ adapter.EmptinessChecker = (*Adapter)(nil)
)
