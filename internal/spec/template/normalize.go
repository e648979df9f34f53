// File path: internal/spec/template/normalize.go
package template

import "strings"

// NormalizePayload cleans a spec XML payload before parsing. Spec blobs come
// out of fixed-record storage carrying NUL padding, BOM markers, and the
// occasional zero-width character, sometimes with junk bytes ahead of the
// document element. Idempotent: normalizing an already-normalized payload is
// a no-op.
func NormalizePayload(payload string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case 0x0000, 0xFEFF, 0x200B:
			return -1
		}
		return r
	}, payload)
	cleaned = strings.TrimLeft(cleaned, " \t\r\n")
	if idx := strings.IndexByte(cleaned, '<'); idx > 0 {
		cleaned = cleaned[idx:]
	}
	return cleaned
}
