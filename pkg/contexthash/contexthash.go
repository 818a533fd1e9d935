// Package contexthash computes content-based fingerprints of the source lines
// surrounding a flagged line.
//
// The fingerprint covers a window of lines around the flagged line, each
// normalized by trimming surrounding whitespace and collapsing inner whitespace
// runs to a single space. The line number itself is not part of the hash, so a
// finding keeps its fingerprint when unrelated lines are inserted or removed
// above it, and changes when the text inside the window changes.
package contexthash

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// DefaultWindow is the number of lines hashed on each side of the flagged line.
	DefaultWindow = 3

	// DefaultMaxFileBytes caps the size of files that will be fingerprinted.
	DefaultMaxFileBytes int64 = 16 << 20

	// maxLineBytes caps a single line; longer lines fail the read.
	maxLineBytes = 1 << 20

	contextTag = "ctx\x00"
	pathTag    = "path\x00"
	eofTag     = "eof\x00"
)

var (
	// ErrFileUnreadable matches every *FileUnreadableError.
	ErrFileUnreadable = errors.New("file unreadable")

	// ErrUnknownEncoding is returned for an encoding hint that names no known charset.
	ErrUnknownEncoding = errors.New("unknown encoding")

	errFileTooLarge = errors.New("file exceeds size limit")
	errIsDirectory  = errors.New("path is a directory")
)

// FileUnreadableError reports that the file behind a finding could not be opened or read.
type FileUnreadableError struct {
	Path string
	Err  error
}

func (e *FileUnreadableError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *FileUnreadableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFileUnreadable) match regardless of the cause.
func (e *FileUnreadableError) Is(target error) bool { return target == ErrFileUnreadable }

// Fingerprint is the hash of a flagged line's context.
type Fingerprint uint64

// String renders the fingerprint as 16 lowercase hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Fingerprinter creates context fingerprints. The zero value is not usable; call New.
type Fingerprinter struct {
	window       int
	maxFileBytes int64
}

// Option configures a Fingerprinter.
type Option func(*Fingerprinter)

// WithWindow sets how many lines on each side of the flagged line are hashed.
// Negative values are treated as zero.
func WithWindow(lines int) Option {
	return func(f *Fingerprinter) {
		if lines < 0 {
			lines = 0
		}
		f.window = lines
	}
}

// WithMaxFileBytes bounds the size of files that are read. Zero or less disables the limit.
func WithMaxFileBytes(n int64) Option {
	return func(f *Fingerprinter) {
		f.maxFileBytes = n
	}
}

// New creates a Fingerprinter with the default window and size limit.
func New(opts ...Option) *Fingerprinter {
	f := &Fingerprinter{
		window:       DefaultWindow,
		maxFileBytes: DefaultMaxFileBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var defaultFingerprinter = New()

// Create fingerprints the context of line in the file at path using the defaults.
func Create(path string, line int, encodingHint string) (Fingerprint, error) {
	return defaultFingerprinter.Create(path, line, encodingHint)
}

// Window returns the number of lines hashed on each side of the flagged line.
func (f *Fingerprinter) Window() int {
	return f.window
}

// Create fingerprints the context of line in the file at path.
//
// encodingHint names the file's charset (e.g. "ISO-8859-1"); empty means UTF-8.
// A line of 0 means the finding has no specific line: the file must still be
// readable, and the fingerprint is derived from the file's absolute path. A
// line past the end of the file hashes the absolute path and the line number
// under its own tag, so it matches neither the no-line fingerprint nor another
// stale line in the same file.
func (f *Fingerprinter) Create(path string, line int, encodingHint string) (Fingerprint, error) {
	if line < 0 {
		return 0, fmt.Errorf("invalid line number %d", line)
	}

	dec, err := decoder(encodingHint)
	if err != nil {
		return 0, err
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, &FileUnreadableError{Path: path, Err: err}
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		return 0, &FileUnreadableError{Path: path, Err: err}
	}
	if fi.IsDir() {
		return 0, &FileUnreadableError{Path: path, Err: errIsDirectory}
	}
	if f.maxFileBytes > 0 && fi.Size() > f.maxFileBytes {
		return 0, &FileUnreadableError{Path: path, Err: errFileTooLarge}
	}

	if line == 0 {
		return pathFingerprint(path), nil
	}

	var r io.Reader = file
	if f.maxFileBytes > 0 {
		r = io.LimitReader(file, f.maxFileBytes)
	}

	lines, err := f.readWindow(transform.NewReader(r, dec), line)
	if err != nil {
		return 0, &FileUnreadableError{Path: path, Err: err}
	}
	if len(lines) == 0 {
		return eofFingerprint(path, line), nil
	}

	h := xxh3.New()
	h.Write([]byte(contextTag))
	for _, l := range lines {
		writeString(h, l)
	}
	return Fingerprint(h.Sum64()), nil
}

// readWindow returns the normalized lines in [line-window, line+window].
func (f *Fingerprinter) readWindow(r io.Reader, line int) ([]string, error) {
	first := max(1, line-f.window)
	last := line + f.window

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []string
	for n := 1; n <= last && scanner.Scan(); n++ {
		if n >= first {
			lines = append(lines, Normalize(scanner.Text()))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Normalize trims surrounding whitespace and collapses inner whitespace runs.
func Normalize(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

func pathFingerprint(path string) Fingerprint {
	h := xxh3.New()
	h.Write([]byte(pathTag))
	writeString(h, absPath(path))
	return Fingerprint(h.Sum64())
}

func eofFingerprint(path string, line int) Fingerprint {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(line))

	h := xxh3.New()
	h.Write([]byte(eofTag))
	writeString(h, absPath(path))
	h.Write(n[:])
	return Fingerprint(h.Sum64())
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// CheckEncoding reports whether hint names a charset Create can decode.
func CheckEncoding(hint string) error {
	_, err := decoder(hint)
	return err
}

func decoder(hint string) (*encoding.Decoder, error) {
	if hint == "" {
		return unicode.UTF8BOM.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(hint)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, hint)
	}
	return enc.NewDecoder(), nil
}

// writeString writes a length-prefixed string so adjacent values cannot run together.
func writeString(w io.Writer, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	w.Write(n[:])
	io.WriteString(w, s)
}
