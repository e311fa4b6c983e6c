package spreadsheet

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Kind is the declared type of a cell.
type Kind string

// Cell kinds reported by TypeList.
const (
	KindEmpty   Kind = "empty"
	KindText    Kind = "text"
	KindNumber  Kind = "number"
	KindDate    Kind = "date"
	KindBoolean Kind = "boolean"
	KindError   Kind = "error"
)

// Built-in number format ids that render a date or a time.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// Quoted literals, bracketed sections ([Red], [$-409]) and escaped
// characters carry no date meaning.
var formatNoise = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

// isDateFormat reports whether a custom number format renders a date.
func isDateFormat(format string) bool {
	f := strings.ToLower(formatNoise.ReplaceAllString(format, ""))
	if strings.Contains(f, "general") {
		return false
	}
	return strings.ContainsAny(f, "ymdhs")
}

// cellKind classifies one cell. raw is the unformatted value, used to tell
// numbers from blanks because excelize reports both as an unset type.
func (w *workbook) cellKind(cell, raw string) (Kind, error) {
	typ, err := w.file.GetCellType(w.sheet, cell)
	if err != nil {
		return "", err
	}

	switch typ {
	case excelize.CellTypeBool:
		return KindBoolean, nil
	case excelize.CellTypeError:
		return KindError, nil
	case excelize.CellTypeDate:
		return KindDate, nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return KindText, nil
	}

	if raw == "" {
		return KindEmpty, nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return KindText, nil
	}
	date, err := w.hasDateFormat(cell)
	if err != nil {
		return "", err
	}
	if date {
		return KindDate, nil
	}
	return KindNumber, nil
}

func (w *workbook) hasDateFormat(cell string) (bool, error) {
	id, err := w.file.GetCellStyle(w.sheet, cell)
	if err != nil || id == 0 {
		return false, err
	}
	style, err := w.file.GetStyle(id)
	if err != nil {
		return false, err
	}
	if builtinDateFormats[style.NumFmt] {
		return true, nil
	}
	return style.CustomNumFmt != nil && isDateFormat(*style.CustomNumFmt), nil
}
