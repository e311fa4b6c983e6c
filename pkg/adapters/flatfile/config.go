package flatfile

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Options configures a flat file adapter.
type Options struct {
	// Path is the directory holding the file.
	Path string `mapstructure:"path"`

	// Filename is the file name inside Path.
	Filename string `mapstructure:"filename"`

	// Mode is one of r, r+, w, w+, a, a+ ("b" and "t" are accepted and ignored).
	Mode string `mapstructure:"mode"`

	// Encoding is an IANA charset name. Lines are decoded on read and encoded
	// on write; offsets always count raw bytes.
	Encoding string `mapstructure:"encoding"`
}

// DefaultOptions returns read-only UTF-8 options.
func DefaultOptions() Options {
	return Options{Mode: "r", Encoding: "utf-8"}
}

// openMode is the parsed form of Options.Mode.
type openMode struct {
	flag     int
	writable bool
	truncate bool
}

func parseMode(mode string) (openMode, error) {
	m := strings.NewReplacer("b", "", "t", "").Replace(mode)
	switch m {
	case "", "r":
		return openMode{flag: os.O_RDONLY}, nil
	case "r+":
		return openMode{flag: os.O_RDWR, writable: true}, nil
	case "w", "w+":
		return openMode{flag: os.O_RDWR | os.O_CREATE, writable: true, truncate: true}, nil
	case "a", "a+":
		return openMode{flag: os.O_RDWR | os.O_CREATE | os.O_APPEND, writable: true}, nil
	default:
		return openMode{}, fmt.Errorf("invalid file mode %q (want r, r+, w, w+, a or a+)", mode)
	}
}

// lookupEncoding returns nil for UTF-8, which needs no transcoding.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}
