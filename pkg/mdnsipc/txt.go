package mdnsipc

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// cstring reads a NUL-terminated string starting at off in buf. It returns
// the decoded string and the offset just past the terminator (or past the
// end of buf, if no terminator was found). Non-UTF-8 bytes are replaced with
// the Unicode replacement character.
func cstring(buf []byte, off int) (string, int) {
	end := len(buf)
	for i := off; i < len(buf); i++ {
		if buf[i] == 0 {
			end = i
			break
		}
	}
	s := toUTF8Lossy(buf[off:end])
	if end < len(buf) {
		return s, end + 1
	}
	return s, end
}

// toUTF8Lossy decodes b as UTF-8, substituting U+FFFD for invalid sequences.
func toUTF8Lossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}

// unpackTXT consumes length-prefixed TXT items from b until it is exhausted,
// returning each item as a displayable, escaped string. If decoding fails
// partway, the items already accumulated are returned; if decoding fails
// before any item was produced, an error is returned instead.
func unpackTXT(b []byte) ([]string, error) {
	var items []string
	off := 0
	for off < len(b) {
		s, n, err := unpackTXTItem(b, off)
		if err != nil {
			if len(items) == 0 {
				return nil, err
			}
			break
		}
		items = append(items, s)
		off = n
	}
	return items, nil
}

func unpackTXTItem(b []byte, off int) (string, int, error) {
	if off+1 > len(b) {
		return "", 0, ErrTruncated
	}
	l := int(b[off])
	off++
	if off+l > len(b) {
		return "", 0, ErrTruncated
	}
	return escapeTXTItem(b[off : off+l]), off + l, nil
}

// escapeTXTItem renders a raw TXT item as a displayable string: bytes below
// 0x20 or above 0x7E are escaped as \NNN (three decimal digits), and '"' and
// '\\' are backslash-escaped. Printable ASCII passes through unchanged.
func escapeTXTItem(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c < 0x20 || c > 0x7E:
			sb.WriteByte('\\')
			s := strconv.Itoa(int(c))
			for i := len(s); i < 3; i++ {
				sb.WriteByte('0')
			}
			sb.WriteString(s)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
