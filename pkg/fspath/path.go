// Package fspath provides an immutable path value with separator
// normalization and derivation helpers.
package fspath

import (
	"os"
	"path/filepath"
	"strings"
)

// Path is a filesystem path whose separators have been normalized to the
// host convention. The zero value is the empty path.
type Path struct {
	value string
}

// New normalizes p. Both backslashes and forward slashes become the host
// separator, so normalizing an already normalized path is a no-op.
func New(p string) Path {
	return Path{value: normalize(p)}
}

func normalize(p string) string {
	return filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
}

// String returns the normalized path.
func (p Path) String() string {
	return p.value
}

// IsZero reports whether the path is empty.
func (p Path) IsZero() bool {
	return p.value == ""
}

// trimmed drops a trailing separator so "a/b/" names the segment "b".
func (p Path) trimmed() string {
	s := p.value
	if len(s) > 1 {
		s = strings.TrimSuffix(s, string(os.PathSeparator))
	}
	return s
}

// Filename returns the final segment, optionally without its extension.
func (p Path) Filename(removeExt bool) string {
	if p.value == "" {
		return ""
	}
	name := filepath.Base(p.trimmed())
	if removeExt {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// Ext returns the extension of the final segment, including the dot.
func (p Path) Ext() string {
	return filepath.Ext(p.Filename(false))
}

// Dir returns the path without its final segment.
func (p Path) Dir() Path {
	if p.value == "" {
		return p
	}
	return Path{value: filepath.Dir(p.trimmed())}
}

// AddSuffix inserts suffix between the file stem and its extension:
// "in/people.csv" + "_old" gives "in/people_old.csv".
func (p Path) AddSuffix(suffix string) Path {
	ext := p.Ext()
	base := strings.TrimSuffix(p.trimmed(), ext)
	return Path{value: base + normalize(suffix) + ext}
}

// AppendDir inserts a directory segment before the filename:
// "in/people.csv" + "done" gives "in/done/people.csv".
func (p Path) AppendDir(dir string) Path {
	seg := strings.Trim(normalize(dir), string(os.PathSeparator))
	return Path{value: filepath.Join(p.Dir().value, seg, p.Filename(false))}
}

// AppendFile replaces the filename: "in/people.csv" + "other.csv" gives
// "in/other.csv".
func (p Path) AppendFile(name string) Path {
	return Path{value: filepath.Join(p.Dir().value, normalize(name))}
}

// Join treats p as a directory and appends elems below it.
func (p Path) Join(elems ...string) Path {
	parts := make([]string, 0, len(elems)+1)
	parts = append(parts, p.value)
	for _, e := range elems {
		parts = append(parts, normalize(e))
	}
	return Path{value: filepath.Join(parts...)}
}
