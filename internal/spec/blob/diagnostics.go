// File path: internal/spec/blob/diagnostics.go
package blob

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Status classifies the outcome of one decode attempt.
type Status string

const (
	// StatusNotAttempted is the zero value; the sentinel NotAttempted
	// carries it.
	StatusNotAttempted Status = ""
	StatusSuccess      Status = "success"
	StatusMismatch     Status = "format-mismatch"
	StatusTruncated    Status = "truncated"
	StatusError        Status = "error"
)

// Encoding names the container family a hypothesis assumes.
type Encoding string

const (
	EncodingPlain     Encoding = "plain"
	EncodingContainer Encoding = "b733"
)

// ByteOrder names the integer interpretation a hypothesis assumes.
type ByteOrder string

const (
	OrderLittle ByteOrder = "little"
	OrderBig    ByteOrder = "big"
)

// Attempt records one decode hypothesis evaluated against a byte stream.
// Immutable once produced. CodePage and OSType are populated only for the
// container family, and only when the header was readable.
type Attempt struct {
	Encoding    Encoding `json:"encoding"`
	Order       ByteOrder `json:"byte_order"`
	Status      Status    `json:"status"`
	UnpackedLen int       `json:"unpacked_len"`
	SpecLike    bool      `json:"spec_like"`
	Message     string    `json:"message,omitempty"`
	CodePage    uint16    `json:"code_page,omitempty"`
	OSType      uint16    `json:"os_type,omitempty"`
}

// NotAttempted is the well-known sentinel for a hypothesis that was never
// evaluated.
var NotAttempted = Attempt{}

// Attempted reports whether the attempt was actually evaluated.
func (a Attempt) Attempted() bool { return a.Status != StatusNotAttempted }

// Viable reports whether the attempt unpacked successfully and the unpacked
// bytes look like a spec stream.
func (a Attempt) Viable() bool { return a.Status == StatusSuccess && a.SpecLike }

// Diagnostics captures everything observed while decoding one raw payload.
// Created fresh per Decode call, never mutated afterwards, and consumed only
// for logging; rendering never depends on it.
type Diagnostics struct {
	Sequence         uint64    `json:"sequence"`
	BlobSize         int       `json:"blob_size"`
	HeadPreview      string    `json:"head_preview"`
	SpecLikeRaw      bool      `json:"spec_like_raw"`
	RawAttempts      []Attempt `json:"raw_attempts"`
	Decompressed     []Attempt `json:"decompressed_attempts,omitempty"`
	DecompressedSize int       `json:"decompressed_size,omitempty"`
	DecompressError  string    `json:"decompress_error,omitempty"`
}

const headPreviewBytes = 16

var decodeSequence atomic.Uint64

func nextSequence() uint64 { return decodeSequence.Add(1) }

func headPreview(raw []byte) string {
	n := len(raw)
	if n > headPreviewBytes {
		n = headPreviewBytes
	}
	if n == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", raw[i])
	}
	return b.String()
}
