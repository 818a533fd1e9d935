// Package identity composes the stable identity of an issue from its context
// fingerprint and finding metadata.
package identity

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/tsanders/violation-issues/pkg/contexthash"
	"github.com/tsanders/violation-issues/pkg/violation"
	"github.com/zeebo/xxh3"
)

// Identity identifies a logical issue across builds. Zero means "no identity".
type Identity uint64

// Field tags, written before each value in composition order.
const (
	tagFingerprint byte = iota + 1
	tagCategory
	tagSource
	tagSeverity
)

// Compose folds the fingerprint, category, source and severity, in that order,
// into a single identity. The result depends only on its arguments, so it is
// stable across processes and machines.
func Compose(fp contexthash.Fingerprint, category, source string, severity int) Identity {
	var buf [8]byte
	h := xxh3.New()

	h.Write([]byte{tagFingerprint})
	binary.BigEndian.PutUint64(buf[:], uint64(fp))
	h.Write(buf[:])

	writeString(h, tagCategory, category)
	writeString(h, tagSource, source)

	h.Write([]byte{tagSeverity})
	binary.BigEndian.PutUint64(buf[:], uint64(int64(severity)))
	h.Write(buf[:])

	id := Identity(h.Sum64())
	if id == 0 {
		id = 1
	}
	return id
}

// ForFinding composes the identity of a finding whose context hashed to fp.
func ForFinding(fp contexthash.Fingerprint, f violation.Finding) Identity {
	return Compose(fp, f.Category, f.Source, f.Severity)
}

func writeString(w io.Writer, tag byte, s string) {
	var hdr [9]byte
	hdr[0] = tag
	binary.BigEndian.PutUint64(hdr[1:], uint64(len(s)))
	w.Write(hdr[:])
	io.WriteString(w, s)
}

// String renders the identity as 16 lowercase hex digits.
func (id Identity) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id == 0
}

// Parse reads an identity rendered by String.
func Parse(s string) (Identity, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	return Identity(v), nil
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// MarshalYAML keeps the hex form in YAML output.
func (id Identity) MarshalYAML() (interface{}, error) {
	return id.String(), nil
}

// UnmarshalYAML reads the hex form written by MarshalYAML.
func (id *Identity) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return id.UnmarshalText([]byte(s))
}
