package directory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/storagy/pkg/adapter"
	"github.com/leapstack-labs/storagy/pkg/core"
	"github.com/leapstack-labs/storagy/pkg/fspath"
)

// DriverName is the dispatcher key of this adapter.
const DriverName = "directory"

// Options configures a directory adapter.
type Options struct {
	Path string `mapstructure:"path"`
}

// Adapter lists regular files directly under a directory. The held handle
// is the normalized directory path; connecting only validates that it exists.
//
// An Adapter is not safe for concurrent use.
type Adapter struct {
	*core.Conn[fspath.Path]
	path   fspath.Path
	logger *slog.Logger
}

// New creates a directory adapter and connects it.
// If logger is nil, a discard logger is used.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Adapter, error) {
	a := &Adapter{
		path:   fspath.New(opts.Path),
		logger: adapter.Logger(logger),
	}
	a.Conn = core.NewConn(a.open, nil)
	if err := a.Connect(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Driver returns the dispatcher name of the adapter.
func (a *Adapter) Driver() string {
	return DriverName
}

func (a *Adapter) open(_ context.Context) (fspath.Path, error) {
	info, err := os.Stat(a.path.String())
	if err != nil || !info.IsDir() {
		return fspath.Path{}, fmt.Errorf("%w: path %s does not exist or is not a directory", core.ErrSourceUnavailable, a.path)
	}
	a.logger.Debug("directory connected", slog.String("path", a.path.String()))
	return a.path, nil
}

// Path returns the directory the adapter was built for.
func (a *Adapter) Path() fspath.Path {
	return a.path
}

func (a *Adapter) String() string {
	return a.path.String()
}

// Select lists the regular files under the directory whose name starts with
// filter. An empty filter matches every file.
func (a *Adapter) Select(filter string) ([]string, error) {
	if !a.IsConnected() {
		return nil, core.ErrNotConnected
	}
	return Sources(a.Handle().String(), filter)
}

// Sources lists the regular files directly under path whose name starts with
// filter, sorted by name. Matching is a plain prefix test, not a glob.
func Sources(path, filter string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", path, err)
	}

	var names []string
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), filter) {
			continue
		}
		if !isRegular(path, entry) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// isRegular follows symlinks so a link to a file counts as a file.
func isRegular(dir string, entry os.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

// All returns one single-value row per file name.
func (a *Adapter) All(_ context.Context) ([]core.Row, error) {
	names, err := a.Select("")
	if err != nil {
		return nil, err
	}
	rows := make([]core.Row, len(names))
	for i, n := range names {
		rows[i] = core.Row{n}
	}
	return rows, nil
}

// IsEmpty reports whether the directory holds no regular files.
func (a *Adapter) IsEmpty(_ context.Context) (bool, error) {
	names, err := a.Select("")
	if err != nil {
		return false, err
	}
	return len(names) == 0, nil
}

// Ensure Adapter implements the adapter interfaces
var (
	_ adapter.Adapter          = (*Adapter)(nil)
	_ adapter.Reader           = (*Adapter)(nil)
	_ adapter.EmptinessChecker = (*Adapter)(nil)
)
