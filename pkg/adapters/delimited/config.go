package delimited

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/storagy/pkg/adapters/flatfile"
)

// Options configures a delimited adapter. The flat file options are
// squashed, so params carry path, filename, mode and encoding at top level.
type Options struct {
	flatfile.Options `mapstructure:",squash"`

	// HasHeader marks the first record as the field names.
	HasHeader bool `mapstructure:"has_header"`

	// Delimiter separates fields. Must be a single character.
	Delimiter string `mapstructure:"delimiter"`

	// Quote wraps fields holding the delimiter. Must be a single character.
	Quote string `mapstructure:"quote"`

	// DefaultColName names columns of headerless files. It takes the 1-based
	// column index through a %d verb; a {} placeholder is accepted too.
	DefaultColName string `mapstructure:"default_col_name"`

	// Fields is the header written to an empty file in header mode, and the
	// field list reported while the file is still empty.
	Fields []string `mapstructure:"fields"`

	// UseCRLF terminates written records with \r\n instead of \n.
	UseCRLF bool `mapstructure:"use_crlf"`
}

// DefaultOptions returns comma separated, double quoted, header mode options.
func DefaultOptions() Options {
	return Options{
		Options:        flatfile.DefaultOptions(),
		HasHeader:      true,
		Delimiter:      ",",
		Quote:          `"`,
		DefaultColName: "col%d",
	}
}

func (o Options) dialect() (dialect, error) {
	comma, err := singleRune("delimiter", o.Delimiter)
	if err != nil {
		return dialect{}, err
	}
	quote, err := singleRune("quote", o.Quote)
	if err != nil {
		return dialect{}, err
	}
	if comma == quote {
		return dialect{}, fmt.Errorf("delimiter and quote must differ, both are %q", comma)
	}
	if comma == '\r' || comma == '\n' || quote == '\r' || quote == '\n' {
		return dialect{}, fmt.Errorf("delimiter and quote cannot be line terminators")
	}
	return dialect{comma: comma, quote: quote, crlf: o.UseCRLF}, nil
}

func singleRune(name, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%s must be a single character, got %q", name, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func colName(pattern string, index int) string {
	if strings.Contains(pattern, "{}") {
		return strings.Replace(pattern, "{}", fmt.Sprint(index), 1)
	}
	return fmt.Sprintf(pattern, index)
}
