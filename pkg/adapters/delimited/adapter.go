package delimited

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/leapstack-labs/storagy/pkg/adapter"
	"github.com/leapstack-labs/storagy/pkg/adapters/flatfile"
	"github.com/leapstack-labs/storagy/pkg/core"
	"github.com/leapstack-labs/storagy/pkg/fspath"
)

// DriverName is the dispatcher key of this adapter.
const DriverName = "delimited"

// Adapter reads and writes records of a delimited text file. Its handle is a
// flatfile.Adapter it owns exclusively; reads always start from the top of
// the file and writes always go to the end.
//
// In header mode an empty file gets its header on the first write: the
// configured Fields when present, otherwise the first row written.
//
// An Adapter is not safe for concurrent use.
type Adapter struct {
	*core.Conn[*flatfile.Adapter]
	flat    *flatfile.Adapter
	opts    Options
	dialect dialect
	logger  *slog.Logger
}

// New creates a delimited adapter and connects it.
// If logger is nil, a discard logger is used.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Adapter, error) {
	d, err := opts.dialect()
	if err != nil {
		return nil, err
	}
	if opts.DefaultColName == "" {
		opts.DefaultColName = DefaultOptions().DefaultColName
	}

	a := &Adapter{
		opts:    opts,
		dialect: d,
		logger:  adapter.Logger(logger),
	}
	a.Conn = core.NewConn(a.open, (*flatfile.Adapter).Disconnect)
	if err := a.Connect(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Driver returns the dispatcher name of the adapter.
func (a *Adapter) Driver() string {
	return DriverName
}

// open reuses the flat file adapter across reconnects so a truncating mode
// only truncates once.
func (a *Adapter) open(ctx context.Context) (*flatfile.Adapter, error) {
	if a.flat != nil {
		if err := a.flat.Connect(ctx); err != nil {
			return nil, err
		}
		return a.flat, nil
	}
	f, err := flatfile.New(ctx, a.opts.Options, a.logger)
	if err != nil {
		return nil, err
	}
	a.flat = f
	return f, nil
}

func (a *Adapter) file() (*flatfile.Adapter, error) {
	if !a.IsConnected() {
		return nil, core.ErrNotConnected
	}
	return a.Handle(), nil
}

// Filepath returns the full path of the file.
func (a *Adapter) Filepath() fspath.Path {
	if a.flat != nil {
		return a.flat.Filepath()
	}
	return fspath.New(a.opts.Path).Join(a.opts.Filename)
}

// EOF reports whether the underlying flat file reached its connect-time end.
func (a *Adapter) EOF() bool {
	f, err := a.file()
	if err != nil {
		return true
	}
	return f.EOF()
}

// Rename moves the file, see flatfile.Adapter.Rename.
func (a *Adapter) Rename(ctx context.Context, newPath string) error {
	f, err := a.file()
	if err != nil {
		return err
	}
	return f.Rename(ctx, newPath)
}

// scan reads records from the top of the file and rewinds afterwards. fn
// returns false to stop early.
func (a *Adapter) scan(fn func(record []string) bool) error {
	f, err := a.file()
	if err != nil {
		return err
	}
	if err := f.Rewind(); err != nil {
		return err
	}
	defer func() { _ = f.Rewind() }()

	r, err := f.Reader()
	if err != nil {
		return err
	}
	rr := a.dialect.newReader(r)
	for {
		record, err := rr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", a.Filepath(), err)
		}
		if !fn(record) {
			return nil
		}
	}
}

// FieldList returns the field names. In header mode that is the first
// record; otherwise one generated name per field of the first record,
// numbered from 1. An empty file reports the configured Fields, or
// ErrEmptySource when there are none.
func (a *Adapter) FieldList(_ context.Context) ([]string, error) {
	var first []string
	err := a.scan(func(record []string) bool {
		first = record
		return false
	})
	if err != nil {
		return nil, err
	}

	if first == nil {
		if len(a.opts.Fields) > 0 {
			return slices.Clone(a.opts.Fields), nil
		}
		return nil, fmt.Errorf("%s: %w", a.Filepath(), core.ErrEmptySource)
	}
	if a.opts.HasHeader {
		return first, nil
	}
	names := make([]string, len(first))
	for i := range first {
		names[i] = colName(a.opts.DefaultColName, i+1)
	}
	return names, nil
}

// All returns every data record as string rows. The header is excluded in
// header mode.
func (a *Adapter) All(_ context.Context) ([]core.Row, error) {
	var rows []core.Row
	skip := a.opts.HasHeader
	err := a.scan(func(record []string) bool {
		if skip {
			skip = false
			return true
		}
		row := make(core.Row, len(record))
		for i, v := range record {
			row[i] = v
		}
		rows = append(rows, row)
		return true
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// IsEmpty reports whether the file has no bytes.
func (a *Adapter) IsEmpty(ctx context.Context) (bool, error) {
	f, err := a.file()
	if err != nil {
		return false, err
	}
	return f.IsEmpty(ctx)
}

// prepareHeader writes the header to an empty file in header mode and
// returns how many of rows it consumed: 1 when the first row became the
// header, 0 otherwise.
func (a *Adapter) prepareHeader(ctx context.Context, w recordWriter, rows [][]string) (int, error) {
	if !a.opts.HasHeader {
		return 0, nil
	}
	empty, err := a.IsEmpty(ctx)
	if err != nil || !empty {
		return 0, err
	}
	if len(a.opts.Fields) > 0 {
		return 0, w.Write(a.opts.Fields)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	a.logger.Debug("using first row as header", slog.String("path", a.Filepath().String()))
	return 1, w.Write(rows[0])
}

// write renders rows in memory and appends them to the file in one call,
// so a row that cannot be encoded leaves the file as it was.
func (a *Adapter) write(ctx context.Context, rows [][]string) error {
	f, err := a.file()
	if err != nil {
		return err
	}
	var buf strings.Builder
	w := a.dialect.newWriter(&buf)
	consumed, err := a.prepareHeader(ctx, w, rows)
	if err != nil {
		return err
	}
	for _, row := range rows[consumed:] {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.Filepath(), err)
	}
	if err := f.Append(buf.String()); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.Filepath(), err)
	}
	return nil
}

// InsertList appends one record.
func (a *Adapter) InsertList(ctx context.Context, row []string) error {
	return a.write(ctx, [][]string{row})
}

// InsertDict appends one record laid out in field order. Every key must
// be a known field; fields without a key are written empty.
func (a *Adapter) InsertDict(ctx context.Context, row map[string]any) error {
	fields, err := a.FieldList(ctx)
	if err != nil {
		return err
	}
	record, err := dictRecord(fields, row)
	if err != nil {
		return err
	}
	return a.write(ctx, [][]string{record})
}

// Insert appends one record of any supported shape. Sequences go through
// InsertList; mappings through InsertDict in header mode, or as values in
// key order otherwise.
func (a *Adapter) Insert(ctx context.Context, row any) error {
	switch v := row.(type) {
	case []string:
		return a.InsertList(ctx, v)
	case []any:
		return a.InsertList(ctx, core.Row(v).Strings())
	case core.Row:
		return a.InsertList(ctx, v.Strings())
	case core.Record:
		if !a.opts.HasHeader {
			return a.InsertList(ctx, core.Row(v.Values).Strings())
		}
		m := make(map[string]any, v.Len())
		for i, name := range v.Names {
			m[name] = v.Values[i]
		}
		return a.InsertDict(ctx, m)
	case map[string]string:
		return a.insertMap(ctx, toAnyMap(v))
	case map[string]any:
		return a.insertMap(ctx, v)
	default:
		return &core.InvalidDataShapeError{Got: fmt.Sprintf("%T", row)}
	}
}

func (a *Adapter) insertMap(ctx context.Context, m map[string]any) error {
	if a.opts.HasHeader {
		return a.InsertDict(ctx, m)
	}
	keys := sortedKeys(m)
	values := make(core.Row, len(keys))
	for i, k := range keys {
		values[i] = m[k]
	}
	return a.InsertList(ctx, values.Strings())
}

// BulkInsert appends every row through a single writer. Accepted shapes
// are [][]string, [][]any, []core.Row, []map[string]any and
// []map[string]string. Mapping rows are all validated before anything is
// written. An empty slice is a no-op.
func (a *Adapter) BulkInsert(ctx context.Context, rows any) error {
	var records [][]string
	switch v := rows.(type) {
	case [][]string:
		records = v
	case [][]any:
		records = make([][]string, len(v))
		for i, r := range v {
			records[i] = core.Row(r).Strings()
		}
	case []core.Row:
		records = make([][]string, len(v))
		for i, r := range v {
			records[i] = r.Strings()
		}
	case []map[string]any:
		return a.bulkDicts(ctx, v)
	case []map[string]string:
		maps := make([]map[string]any, len(v))
		for i, m := range v {
			maps[i] = toAnyMap(m)
		}
		return a.bulkDicts(ctx, maps)
	default:
		return &core.InvalidDataShapeError{Got: fmt.Sprintf("%T", rows)}
	}
	if len(records) == 0 {
		return nil
	}
	return a.write(ctx, records)
}

func (a *Adapter) bulkDicts(ctx context.Context, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	fields, err := a.FieldList(ctx)
	if err != nil {
		return err
	}
	records := make([][]string, len(rows))
	for i, row := range rows {
		if records[i], err = dictRecord(fields, row); err != nil {
			return err
		}
	}
	return a.write(ctx, records)
}

// dictRecord lays a mapping out in field order. The first unknown key in
// sorted order is reported.
func dictRecord(fields []string, row map[string]any) ([]string, error) {
	for _, k := range sortedKeys(row) {
		if !slices.Contains(fields, k) {
			return nil, &core.UnknownFieldError{Field: k, Fields: fields}
		}
	}
	values := make(core.Row, len(fields))
	for i, name := range fields {
		values[i] = row[name]
	}
	return values.Strings(), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Ensure Adapter implements the adapter interfaces
var (
	_ adapter.Adapter          = (*Adapter)(nil)
	_ adapter.Reader           = (*Adapter)(nil)
	_ adapter.FieldLister      = (*Adapter)(nil)
	_ adapter.EmptinessChecker = (*Adapter)(nil)
)
