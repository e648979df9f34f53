// File path: internal/spec/blob/decoder.go

// Package blob decodes raw event-rules and data-structure spec payloads.
// The on-disk layout of a spec record is not self-describing, so the decoder
// evaluates a fixed, ordered list of hypotheses — plain and B733-container
// framing, each under both byte orders — and folds the attempts into the
// first viable one. Malformed input is reported through attempt statuses,
// never through an error or panic.
package blob

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// Plain framing: u32 payload length, payload.
const plainHeaderLen = 4

// B733 container framing: magic 0xB7 0x33, u16 version, u16 code page,
// u16 OS type, u32 payload length, payload. The magic is byte-order
// independent; the integer fields honor the attempt's byte order.
const (
	containerHeaderLen = 12
	containerMagic0    = 0xB7
	containerMagic1    = 0x33
)

// Result is the outcome of a full decode: the unpacked spec stream (nil when
// no hypothesis qualified), the attempt that produced it, and whether it came
// from the decompressed section.
type Result struct {
	Data             []byte
	Best             Attempt
	FromDecompressed bool
	OK               bool
}

// hypothesis order is fixed; selection prefers earlier entries.
var hypotheses = []struct {
	encoding Encoding
	order    ByteOrder
}{
	{EncodingPlain, OrderLittle},
	{EncodingPlain, OrderBig},
	{EncodingContainer, OrderLittle},
	{EncodingContainer, OrderBig},
}

// Decode evaluates every hypothesis against raw and, when the payload is
// flagged as compressed, against the inflated bytes as well. Decompressed
// attempts win over raw ones because the inflated stream is the canonical
// spec representation. Decode never fails on malformed input; a payload that
// matches no hypothesis yields Result.OK == false with full diagnostics.
func Decode(raw []byte, compressed bool) (Result, Diagnostics) {
	diag := Diagnostics{
		Sequence:    nextSequence(),
		BlobSize:    len(raw),
		HeadPreview: headPreview(raw),
		SpecLikeRaw: looksLikeSpecStream(raw),
	}

	rawAttempts, rawData := evaluateAll(raw)
	diag.RawAttempts = rawAttempts

	var inflatedAttempts []Attempt
	var inflatedData [][]byte
	if compressed {
		inflated, err := inflate(raw)
		if err != nil {
			diag.DecompressError = err.Error()
		} else {
			diag.DecompressedSize = len(inflated)
			inflatedAttempts, inflatedData = evaluateAll(inflated)
			diag.Decompressed = inflatedAttempts
		}
	}

	if idx := selectViable(inflatedAttempts); idx >= 0 {
		return Result{Data: inflatedData[idx], Best: inflatedAttempts[idx], FromDecompressed: true, OK: true}, diag
	}
	if idx := selectViable(rawAttempts); idx >= 0 {
		return Result{Data: rawData[idx], Best: rawAttempts[idx], OK: true}, diag
	}
	return Result{Best: NotAttempted}, diag
}

func evaluateAll(data []byte) ([]Attempt, [][]byte) {
	attempts := make([]Attempt, 0, len(hypotheses))
	unpacked := make([][]byte, 0, len(hypotheses))
	for _, h := range hypotheses {
		var attempt Attempt
		var payload []byte
		switch h.encoding {
		case EncodingPlain:
			attempt, payload = evaluatePlain(data, h.order)
		default:
			attempt, payload = evaluateContainer(data, h.order)
		}
		attempts = append(attempts, attempt)
		unpacked = append(unpacked, payload)
	}
	return attempts, unpacked
}

func selectViable(attempts []Attempt) int {
	for i, a := range attempts {
		if a.Viable() {
			return i
		}
	}
	return -1
}

func evaluatePlain(data []byte, order ByteOrder) (Attempt, []byte) {
	attempt := Attempt{Encoding: EncodingPlain, Order: order}
	if len(data) < plainHeaderLen {
		attempt.Status = StatusMismatch
		attempt.Message = "payload shorter than length header"
		return attempt, nil
	}
	declared := int(byteOrder(order).Uint32(data[:plainHeaderLen]))
	if declared <= 0 {
		attempt.Status = StatusMismatch
		attempt.Message = "zero declared length"
		return attempt, nil
	}
	if declared > len(data)-plainHeaderLen {
		attempt.Status = StatusTruncated
		attempt.Message = fmt.Sprintf("declared length %d exceeds %d available bytes", declared, len(data)-plainHeaderLen)
		return attempt, nil
	}
	payload := data[plainHeaderLen : plainHeaderLen+declared]
	attempt.Status = StatusSuccess
	attempt.UnpackedLen = declared
	attempt.SpecLike = looksLikeSpecStream(payload)
	return attempt, payload
}

func evaluateContainer(data []byte, order ByteOrder) (Attempt, []byte) {
	attempt := Attempt{Encoding: EncodingContainer, Order: order}
	if len(data) < 2 {
		attempt.Status = StatusMismatch
		attempt.Message = "payload shorter than container magic"
		return attempt, nil
	}
	if data[0] != containerMagic0 || data[1] != containerMagic1 {
		attempt.Status = StatusMismatch
		attempt.Message = "container magic not present"
		return attempt, nil
	}
	if len(data) < containerHeaderLen {
		attempt.Status = StatusTruncated
		attempt.Message = "container header incomplete"
		return attempt, nil
	}
	bo := byteOrder(order)
	attempt.CodePage = bo.Uint16(data[4:6])
	attempt.OSType = bo.Uint16(data[6:8])
	declared := int(bo.Uint32(data[8:containerHeaderLen]))
	if declared <= 0 {
		attempt.Status = StatusMismatch
		attempt.Message = "zero declared length"
		return attempt, nil
	}
	if declared > len(data)-containerHeaderLen {
		attempt.Status = StatusTruncated
		attempt.Message = fmt.Sprintf("declared length %d exceeds %d available bytes", declared, len(data)-containerHeaderLen)
		return attempt, nil
	}
	payload := data[containerHeaderLen : containerHeaderLen+declared]
	attempt.Status = StatusSuccess
	attempt.UnpackedLen = declared
	attempt.SpecLike = looksLikeSpecStream(payload)
	return attempt, payload
}

func byteOrder(order ByteOrder) binary.ByteOrder {
	if order == OrderBig {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// looksLikeSpecStream reports whether the bytes begin with the expected spec
// stream header: after NUL padding, whitespace, and an optional BOM left over
// from fixed-record storage, the stream must open an XML element.
func looksLikeSpecStream(data []byte) bool {
	i := 0
	for i < len(data) {
		switch data[i] {
		case 0x00, ' ', '\t', '\r', '\n':
			i++
			continue
		}
		break
	}
	if bytes.HasPrefix(data[i:], utf8BOM) {
		i += len(utf8BOM)
	}
	return i < len(data) && data[i] == '<'
}

func inflate(raw []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open compressed payload: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate payload: %w", err)
	}
	return out, nil
}
