package delimited

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// errUnterminatedQuote is returned by the quote-configurable reader when the
// input ends inside a quoted field.
var errUnterminatedQuote = errors.New("unterminated quoted field")

// dialect holds the tokenizing rules of a delimited file. encoding/csv only
// knows the double quote, so any other quote character goes through the
// small reader and writer below.
type dialect struct {
	comma rune
	quote rune
	crlf  bool
}

type recordReader interface {
	Read() ([]string, error)
}

type recordWriter interface {
	Write(record []string) error
	Flush()
	Error() error
}

func (d dialect) newReader(r io.Reader) recordReader {
	if d.quote == '"' {
		cr := csv.NewReader(r)
		cr.Comma = d.comma
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		return cr
	}
	return &quoteReader{r: bufio.NewReader(r), comma: d.comma, quote: d.quote}
}

func (d dialect) newWriter(w io.Writer) recordWriter {
	if d.quote == '"' {
		cw := csv.NewWriter(w)
		cw.Comma = d.comma
		cw.UseCRLF = d.crlf
		return cw
	}
	return &quoteWriter{w: bufio.NewWriter(w), comma: d.comma, quote: d.quote, crlf: d.crlf}
}

// quoteReader splits records on comma, honoring fields wrapped in quote.
// A doubled quote inside a quoted field is a literal quote. Blank lines
// are skipped, as encoding/csv does.
type quoteReader struct {
	r     *bufio.Reader
	comma rune
	quote rune
}

func (q *quoteReader) Read() ([]string, error) {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
		quoted   bool
		started  bool
	)
	endRecord := func() []string {
		return append(fields, field.String())
	}

	for {
		r, _, err := q.r.ReadRune()
		if errors.Is(err, io.EOF) {
			if inQuotes {
				return nil, errUnterminatedQuote
			}
			if !started {
				return nil, io.EOF
			}
			return endRecord(), nil
		}
		if err != nil {
			return nil, err
		}

		if inQuotes {
			if r != q.quote {
				field.WriteRune(r)
				continue
			}
			next, _, err := q.r.ReadRune()
			if err == nil && next == q.quote {
				field.WriteRune(q.quote)
				continue
			}
			if err == nil {
				_ = q.r.UnreadRune()
			}
			inQuotes = false
			continue
		}

		switch r {
		case '\r', '\n':
			if r == '\r' {
				if next, _, err := q.r.ReadRune(); err == nil && next != '\n' {
					_ = q.r.UnreadRune()
				}
			}
			if !started {
				continue
			}
			return endRecord(), nil
		case q.comma:
			started = true
			fields = append(fields, field.String())
			field.Reset()
			quoted = false
		case q.quote:
			started = true
			if field.Len() == 0 && !quoted {
				inQuotes, quoted = true, true
				continue
			}
			field.WriteRune(r)
		default:
			started = true
			field.WriteRune(r)
		}
	}
}

// quoteWriter writes records with minimal quoting: a field is quoted only
// when it holds the comma, the quote, CR or LF.
type quoteWriter struct {
	w     *bufio.Writer
	comma rune
	quote rune
	crlf  bool
	err   error
}

func (q *quoteWriter) Write(record []string) error {
	if q.err != nil {
		return q.err
	}
	quote := string(q.quote)
	var b strings.Builder
	for i, field := range record {
		if i > 0 {
			b.WriteRune(q.comma)
		}
		if !strings.ContainsRune(field, q.comma) && !strings.ContainsAny(field, quote+"\r\n") {
			b.WriteString(field)
			continue
		}
		b.WriteString(quote)
		b.WriteString(strings.ReplaceAll(field, quote, quote+quote))
		b.WriteString(quote)
	}
	if q.crlf {
		b.WriteString("\r\n")
	} else {
		b.WriteByte('\n')
	}
	_, q.err = q.w.WriteString(b.String())
	return q.err
}

func (q *quoteWriter) Flush() {
	if q.err == nil {
		q.err = q.w.Flush()
	}
}

func (q *quoteWriter) Error() error {
	return q.err
}
