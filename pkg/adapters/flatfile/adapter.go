package flatfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/leapstack-labs/storagy/pkg/adapter"
	"github.com/leapstack-labs/storagy/pkg/core"
	"github.com/leapstack-labs/storagy/pkg/fspath"
)

// DriverName is the dispatcher key of this adapter.
const DriverName = "flatfile"

// Adapter reads and appends lines of a text file. Each row it returns is a
// single-value core.Row holding the raw line, terminator included.
//
// An Adapter is not safe for concurrent use.
type Adapter struct {
	*core.Conn[*Stream]
	dir      fspath.Path
	filename string
	mode     openMode
	enc      encoding.Encoding
	opened   bool
	logger   *slog.Logger
}

// New creates a flat file adapter and connects it.
// If logger is nil, a discard logger is used.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Adapter, error) {
	mode, err := parseMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	if opts.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}

	a := &Adapter{
		dir:      fspath.New(opts.Path),
		filename: opts.Filename,
		mode:     mode,
		enc:      enc,
		logger:   adapter.Logger(logger),
	}
	a.Conn = core.NewConn(a.open, (*Stream).close)
	if err := a.Connect(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Driver returns the dispatcher name of the adapter.
func (a *Adapter) Driver() string {
	return DriverName
}

func (a *Adapter) open(_ context.Context) (*Stream, error) {
	flag := a.mode.flag
	// Truncating modes only truncate on the first open; reconnecting after a
	// rename must not wipe the file.
	if a.mode.truncate && !a.opened {
		flag |= os.O_TRUNC
	}
	path := a.Filepath()
	s, err := openStream(path.String(), flag)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %w", core.ErrSourceUnavailable, path, err)
	}
	a.opened = true
	a.logger.Debug("flat file connected",
		slog.String("path", path.String()),
		slog.Int64("eof_offset", s.EOFOffset()))
	return s, nil
}

func (a *Adapter) stream() (*Stream, error) {
	if !a.IsConnected() {
		return nil, core.ErrNotConnected
	}
	return a.Handle(), nil
}

// Filepath returns the full path of the file.
func (a *Adapter) Filepath() fspath.Path {
	return a.dir.Join(a.filename)
}

// Filename returns the file name without its directory.
func (a *Adapter) Filename() string {
	return a.filename
}

func (a *Adapter) String() string {
	return a.Filepath().String()
}

// Writable reports whether the file was opened in a writing mode.
func (a *Adapter) Writable() bool {
	return a.mode.writable
}

// EOF reports whether the read offset reached the end-of-file offset
// captured at connect time. A disconnected adapter is always at EOF.
func (a *Adapter) EOF() bool {
	s, err := a.stream()
	if err != nil {
		return true
	}
	return s.EOF()
}

// Rewind moves the read offset back to the start of the file.
func (a *Adapter) Rewind() error {
	s, err := a.stream()
	if err != nil {
		return err
	}
	return s.Seek(0)
}

// ReadLine reads the next line, decoded from the configured encoding.
func (a *Adapter) ReadLine() (string, error) {
	s, err := a.stream()
	if err != nil {
		return "", err
	}
	line, err := s.ReadLine()
	if err != nil {
		return "", err
	}
	return a.decode(line)
}

func (a *Adapter) decode(line string) (string, error) {
	if a.enc == nil {
		return line, nil
	}
	out, err := a.enc.NewDecoder().String(line)
	if err != nil {
		return "", fmt.Errorf("failed to decode line: %w", err)
	}
	return out, nil
}

// All reads lines until EOF and rewinds to the start of the file. Reading
// also stops at the physical end, in case the file shrank after connecting.
func (a *Adapter) All(_ context.Context) ([]core.Row, error) {
	s, err := a.stream()
	if err != nil {
		return nil, err
	}

	var rows []core.Row
	for !s.EOF() {
		line, err := a.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, core.Row{line})
	}
	if err := s.Seek(0); err != nil {
		return nil, err
	}
	return rows, nil
}

// CheckContent reports whether any line starts with prefix. The scan starts
// at the beginning of the file, stops at the first match, and always leaves
// the read offset at the start.
func (a *Adapter) CheckContent(prefix string) (bool, error) {
	s, err := a.stream()
	if err != nil {
		return false, err
	}
	if err := s.Seek(0); err != nil {
		return false, err
	}

	found := false
	for !s.EOF() {
		line, err := a.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = s.Seek(0)
			return false, err
		}
		if strings.HasPrefix(line, prefix) {
			found = true
			break
		}
	}
	return found, s.Seek(0)
}

// Append writes text at the end of the file. The EOF marker captured at
// connect time does not move. text is encoded as a whole before anything
// is written, so an encoding failure leaves the file untouched.
func (a *Adapter) Append(text string) error {
	s, err := a.writable()
	if err != nil {
		return err
	}
	raw := []byte(text)
	if a.enc != nil {
		if raw, err = a.enc.NewEncoder().Bytes(raw); err != nil {
			return fmt.Errorf("failed to encode: %w", err)
		}
	}
	_, err = s.appendBytes(raw)
	return err
}

// Writer returns a writer appending to the end of the file, encoding into
// the configured charset. Runes split across Write calls are carried over
// to the next call; Close flushes what is left and must be called.
func (a *Adapter) Writer() io.WriteCloser {
	w := appendWriter{a}
	if a.enc == nil {
		return w
	}
	return transform.NewWriter(w, a.enc.NewEncoder())
}

func (a *Adapter) writable() (*Stream, error) {
	if !a.mode.writable {
		return nil, fmt.Errorf("%s: %w", a.Filepath(), core.ErrReadOnly)
	}
	return a.stream()
}

type appendWriter struct {
	a *Adapter
}

func (w appendWriter) Write(p []byte) (int, error) {
	s, err := w.a.writable()
	if err != nil {
		return 0, err
	}
	return s.appendBytes(p)
}

func (w appendWriter) Close() error { return nil }

// Reader returns an io.Reader consuming the file from the current read
// offset, decoded from the configured charset.
func (a *Adapter) Reader() (io.Reader, error) {
	s, err := a.stream()
	if err != nil {
		return nil, err
	}
	if a.enc == nil {
		return s, nil
	}
	return transform.NewReader(s, a.enc.NewDecoder()), nil
}

// Rename moves the file and reconnects to it under the new name, which
// refreshes the EOF marker. newPath may be a full path, a bare file name
// (renamed within the current directory), or a directory (existing, or
// written with a trailing separator) to move the file into.
func (a *Adapter) Rename(ctx context.Context, newPath string) error {
	from := a.Filepath()
	to := resolveRename(from, newPath)

	if err := a.Disconnect(); err != nil {
		return fmt.Errorf("failed to close %s: %w", from, err)
	}
	if err := os.Rename(from.String(), to.String()); err != nil {
		// Put the adapter back the way it was before reporting
		return errors.Join(fmt.Errorf("failed to rename %s: %w", from, err), a.Connect(ctx))
	}

	a.dir = to.Dir()
	a.filename = to.Filename(false)
	a.logger.Debug("flat file renamed", slog.String("from", from.String()), slog.String("to", to.String()))
	return a.Connect(ctx)
}

func resolveRename(from fspath.Path, newPath string) fspath.Path {
	sep := string(os.PathSeparator)
	to := fspath.New(newPath)
	if strings.HasSuffix(to.String(), sep) {
		return to.Join(from.Filename(false))
	}
	if info, err := os.Stat(to.String()); err == nil && info.IsDir() {
		return to.Join(from.Filename(false))
	}
	if !strings.Contains(to.String(), sep) {
		return from.AppendFile(to.String())
	}
	return to
}

// IsEmpty reports whether the file size is zero, regardless of the read offset.
func (a *Adapter) IsEmpty(_ context.Context) (bool, error) {
	info, err := os.Stat(a.Filepath().String())
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", a.Filepath(), err)
	}
	return info.Size() == 0, nil
}

// Ensure Adapter implements the adapter interfaces
var (
	_ adapter.Adapter          = (*Adapter)(nil)
	_ adapter.Reader           = (*Adapter)(nil)
	_ adapter.EmptinessChecker = (*Adapter)(nil)
)
