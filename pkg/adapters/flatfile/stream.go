package flatfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Stream is the native handle of a connected flat file: the open file, a
// read buffer, the logical read offset and the end-of-file offset captured
// when the file was opened.
//
// The logical offset counts the bytes handed out by ReadLine and Read, not
// the read-ahead of the buffer, so it matches what a caller has consumed.
type Stream struct {
	f   *os.File
	r   *bufio.Reader
	pos int64
	eof int64
}

func openStream(path string, flag int) (*Stream, error) {
	f, err := os.OpenFile(path, flag, 0o644) //nolint:gosec // path comes from adapter options
	if err != nil {
		return nil, err
	}
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to seek to end: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rewind: %w", err)
	}
	return &Stream{f: f, r: bufio.NewReader(f), eof: end}, nil
}

// File returns the underlying file.
func (s *Stream) File() *os.File {
	return s.f
}

// Tell returns the logical read offset.
func (s *Stream) Tell() int64 {
	return s.pos
}

// EOFOffset returns the file size captured at connect time.
func (s *Stream) EOFOffset() int64 {
	return s.eof
}

// EOF reports whether the logical offset equals the offset captured at
// connect time. Bytes written after connecting do not move that marker.
func (s *Stream) EOF() bool {
	return s.pos == s.eof
}

// Seek moves the logical offset to an absolute position and drops any
// buffered read-ahead.
func (s *Stream) Seek(offset int64) error {
	if _, err := s.f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to %d: %w", offset, err)
	}
	s.r.Reset(s.f)
	s.pos = offset
	return nil
}

// ReadLine returns the next line including its terminator. At the physical
// end of the file it returns "", io.EOF; a final line without terminator is
// returned with a nil error.
func (s *Stream) ReadLine() (string, error) {
	line, err := s.r.ReadString('\n')
	s.pos += int64(len(line))
	if err != nil && (err != io.EOF || line == "") {
		return line, err
	}
	return line, nil
}

// Read implements io.Reader over the logical offset.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.pos += int64(n)
	return n, err
}

// appendBytes writes p at the physical end of the file and restores the
// logical read offset. os.File writes are unbuffered, so the bytes are
// visible to the next read without a flush.
func (s *Stream) appendBytes(p []byte) (int, error) {
	if _, err := s.f.Seek(0, io.SeekEnd); err != nil {
		return 0, fmt.Errorf("failed to seek to end: %w", err)
	}
	n, err := s.f.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write: %w", err)
	}
	if err := s.Seek(s.pos); err != nil {
		return n, err
	}
	return n, nil
}

func (s *Stream) close() error {
	return s.f.Close()
}
