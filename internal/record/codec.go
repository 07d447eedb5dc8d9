package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// Version is the chunk format version written by Encode. Decode rejects
// every other version.
const Version uint32 = 23

var (
	ErrVersionMismatch  = errors.New("unsupported record version")
	ErrInvalidTimestamp = errors.New("invalid visit timestamp")
	ErrTruncated        = errors.New("truncated record")
)

// FormatError reports a chunk that cannot be decoded. Loaders skip such
// chunks rather than failing.
type FormatError struct {
	Version uint32
	Err     error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed history record (version %d): %v", e.Version, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Encode serializes e into a versioned chunk:
//
//	version   uint32
//	url       uint32 length + bytes
//	visitedAt uint8 valid flag + int64 unix seconds
//	title     uint32 length + bytes
//
// All integers are big-endian.
func Encode(e Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(4 + 4 + len(e.URL) + 9 + 4 + len(e.Title))

	_ = binary.Write(&buf, binary.BigEndian, Version)
	if err := writeString(&buf, e.URL); err != nil {
		return nil, fmt.Errorf("encode url: %w", err)
	}

	if e.VisitedAt.IsZero() {
		buf.WriteByte(0)
		_ = binary.Write(&buf, binary.BigEndian, int64(0))
	} else {
		buf.WriteByte(1)
		_ = binary.Write(&buf, binary.BigEndian, e.VisitedAt.Unix())
	}

	if err := writeString(&buf, e.Title); err != nil {
		return nil, fmt.Errorf("encode title: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a chunk produced by Encode. Version mismatches, invalid
// timestamps and short payloads are reported as *FormatError.
func Decode(chunk []byte) (Entry, error) {
	r := bytes.NewReader(chunk)

	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return Entry{}, &FormatError{Err: ErrTruncated}
	}
	if version != Version {
		return Entry{}, &FormatError{Version: version, Err: ErrVersionMismatch}
	}

	var e Entry
	var err error
	if e.URL, err = readString(r); err != nil {
		return Entry{}, &FormatError{Version: version, Err: err}
	}

	valid, err := r.ReadByte()
	if err != nil {
		return Entry{}, &FormatError{Version: version, Err: ErrTruncated}
	}
	var secs int64
	if err := binary.Read(r, binary.BigEndian, &secs); err != nil {
		return Entry{}, &FormatError{Version: version, Err: ErrTruncated}
	}
	if valid != 1 {
		return Entry{}, &FormatError{Version: version, Err: ErrInvalidTimestamp}
	}
	e.VisitedAt = time.Unix(secs, 0)

	if e.Title, err = readString(r); err != nil {
		return Entry{}, &FormatError{Version: version, Err: err}
	}
	return e, nil
}

func writeString(w *bytes.Buffer, s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("string of %d bytes exceeds frame limit", len(s))
	}
	_ = binary.Write(w, binary.BigEndian, uint32(len(s)))
	w.WriteString(s)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", ErrTruncated
	}
	if int64(n) > int64(r.Len()) {
		return "", ErrTruncated
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", ErrTruncated
	}
	return string(b), nil
}
