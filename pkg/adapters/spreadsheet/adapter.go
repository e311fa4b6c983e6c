package spreadsheet

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/storagy/pkg/adapter"
	"github.com/leapstack-labs/storagy/pkg/core"
	"github.com/leapstack-labs/storagy/pkg/fspath"
)

// DriverName is the dispatcher key of this adapter.
const DriverName = "spreadsheet"

// Options configures a spreadsheet adapter.
type Options struct {
	Path     string `mapstructure:"path"`
	Filename string `mapstructure:"filename"`
	Sheet    string `mapstructure:"sheet"`

	// HasHeader marks the first row as column names.
	HasHeader bool `mapstructure:"has_header"`

	// Coerce makes All return typed values instead of raw cell strings.
	Coerce bool `mapstructure:"coerce"`
}

// DefaultOptions returns header mode options with raw reads.
func DefaultOptions() Options {
	return Options{HasHeader: true}
}

// workbook is the native handle: an open workbook bound to one sheet.
type workbook struct {
	file     *excelize.File
	sheet    string
	date1904 bool
}

func (w *workbook) close() error {
	return w.file.Close()
}

// Adapter reads one sheet of a workbook.
//
// An Adapter is not safe for concurrent use.
type Adapter struct {
	*core.Conn[*workbook]
	opts   Options
	logger *slog.Logger
}

// New opens the workbook, binds the sheet and returns a connected adapter.
// If logger is nil, a discard logger is used.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Adapter, error) {
	a := &Adapter{
		opts:   opts,
		logger: adapter.Logger(logger),
	}
	a.Conn = core.NewConn(a.open, (*workbook).close)
	if err := a.Connect(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Driver returns the dispatcher name of the adapter.
func (a *Adapter) Driver() string {
	return DriverName
}

// Filepath returns the workbook path.
func (a *Adapter) Filepath() fspath.Path {
	return fspath.New(a.opts.Path).Join(a.opts.Filename)
}

// Sheet returns the bound sheet name.
func (a *Adapter) Sheet() string {
	return a.opts.Sheet
}

func (a *Adapter) open(_ context.Context) (*workbook, error) {
	path := a.Filepath()
	f, err := excelize.OpenFile(path.String())
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open workbook %s: %w", core.ErrSourceUnavailable, path, err)
	}

	sheets := f.GetSheetList()
	idx, err := f.GetSheetIndex(a.opts.Sheet)
	if err != nil || idx < 0 {
		_ = f.Close()
		return nil, &core.SheetNotFoundError{Sheet: a.opts.Sheet, Available: sheets}
	}

	props, err := f.GetWorkbookProps()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read workbook properties: %w", err)
	}

	a.logger.Debug("workbook connected",
		slog.String("path", path.String()),
		slog.String("sheet", a.opts.Sheet))
	return &workbook{
		file:     f,
		sheet:    a.opts.Sheet,
		date1904: props.Date1904 != nil && *props.Date1904,
	}, nil
}

func (a *Adapter) book() (*workbook, error) {
	if !a.IsConnected() {
		return nil, core.ErrNotConnected
	}
	return a.Handle(), nil
}

// grid returns every row of the sheet as raw strings, padded to the width
// of the widest row, and that width.
func (a *Adapter) grid() ([][]string, int, error) {
	w, err := a.book()
	if err != nil {
		return nil, 0, err
	}
	rows, err := w.file.GetRows(w.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read sheet %q: %w", w.sheet, err)
	}

	ncols := 0
	for _, row := range rows {
		ncols = max(ncols, len(row))
	}
	for i, row := range rows {
		if len(row) < ncols {
			rows[i] = append(row, make([]string, ncols-len(row))...)
		}
	}
	return rows, ncols, nil
}

// dataStart is the index of the first data row.
func (a *Adapter) dataStart() int {
	if a.opts.HasHeader {
		return 1
	}
	return 0
}

// ColNames returns the column names. In header mode the first row is used
// and padded with the column index as text up to the sheet width; without a
// header every column is named by its index.
func (a *Adapter) ColNames() ([]string, error) {
	rows, ncols, err := a.grid()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, ncols)
	if a.opts.HasHeader && len(rows) > 0 {
		names = append(names, rows[0]...)
	}
	for i := len(names); i < ncols; i++ {
		names = append(names, strconv.Itoa(i))
	}
	return names, nil
}

// TypeList returns the kind of every cell in the first data row. A sheet
// with no data rows reports no kinds.
func (a *Adapter) TypeList() ([]Kind, error) {
	rows, _, err := a.grid()
	if err != nil {
		return nil, err
	}
	return a.typeList(rows)
}

func (a *Adapter) typeList(rows [][]string) ([]Kind, error) {
	start := a.dataStart()
	if len(rows) <= start {
		return nil, nil
	}
	w := a.Handle()

	kinds := make([]Kind, len(rows[start]))
	for col, raw := range rows[start] {
		cell, err := excelize.CoordinatesToCellName(col+1, start+1)
		if err != nil {
			return nil, err
		}
		if kinds[col], err = w.cellKind(cell, raw); err != nil {
			return nil, fmt.Errorf("failed to read type of %s: %w", cell, err)
		}
	}
	return kinds, nil
}

// RawRows returns every data row as raw cell strings. Dates come back as
// their serial number and booleans as 1 or 0.
func (a *Adapter) RawRows() ([]core.Row, error) {
	rows, _, err := a.grid()
	if err != nil {
		return nil, err
	}

	var out []core.Row
	for _, row := range rows[min(a.dataStart(), len(rows)):] {
		r := make(core.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		out = append(out, r)
	}
	return out, nil
}

// CoercedRows returns every data row converted by the kinds of the first
// data row: dates become time.Time in the workbook date system, numbers
// float64, booleans bool and blanks nil. Everything else stays a string.
func (a *Adapter) CoercedRows() ([]core.Row, error) {
	rows, _, err := a.grid()
	if err != nil {
		return nil, err
	}
	kinds, err := a.typeList(rows)
	if err != nil {
		return nil, err
	}
	date1904 := a.Handle().date1904

	var out []core.Row
	start := min(a.dataStart(), len(rows))
	for i, row := range rows[start:] {
		r := make(core.Row, len(row))
		for col, raw := range row {
			kind := KindText
			if col < len(kinds) {
				kind = kinds[col]
			}
			v, err := coerce(kind, raw, date1904)
			if err != nil {
				cell, _ := excelize.CoordinatesToCellName(col+1, start+i+1)
				return nil, fmt.Errorf("cell %s: %w", cell, err)
			}
			r[col] = v
		}
		out = append(out, r)
	}
	return out, nil
}

func coerce(kind Kind, raw string, date1904 bool) (any, error) {
	switch kind {
	case KindEmpty:
		return nil, nil
	case KindNumber, KindDate:
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot read %q as %s: %w", raw, kind, err)
		}
		if kind == KindNumber {
			return n, nil
		}
		return excelize.ExcelDateToTime(n, date1904)
	case KindBoolean:
		if raw == "" {
			return nil, nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("cannot read %q as boolean: %w", raw, err)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// All returns the data rows, raw unless the adapter was built with Coerce.
func (a *Adapter) All(_ context.Context) ([]core.Row, error) {
	if a.opts.Coerce {
		return a.CoercedRows()
	}
	return a.RawRows()
}

// FieldList returns ColNames.
func (a *Adapter) FieldList(_ context.Context) ([]string, error) {
	return a.ColNames()
}

// IsEmpty reports whether the sheet has no data rows.
func (a *Adapter) IsEmpty(_ context.Context) (bool, error) {
	rows, _, err := a.grid()
	if err != nil {
		return false, err
	}
	return len(rows) <= a.dataStart(), nil
}

// Sources lists the sheets of a workbook whose name starts with filter.
// An empty filter matches every sheet.
func Sources(path, filename, filter string) ([]string, error) {
	p := fspath.New(path).Join(filename)
	f, err := excelize.OpenFile(p.String())
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open workbook %s: %w", core.ErrSourceUnavailable, p, err)
	}
	defer f.Close()

	var sheets []string
	for _, name := range f.GetSheetList() {
		if strings.HasPrefix(name, filter) {
			sheets = append(sheets, name)
		}
	}
	return sheets, nil
}

// Ensure Adapter implements the adapter interfaces
var (
	_ adapter.Adapter          = (*Adapter)(nil)
	_ adapter.Reader           = (*Adapter)(nil)
	_ adapter.FieldLister      = (*Adapter)(nil)
	_ adapter.EmptinessChecker = (*Adapter)(nil)
)
