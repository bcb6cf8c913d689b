package render

import "strings"

const hexDigits = "0123456789abcdef"

// EscapeJSONString returns s as a double-quoted JSON string literal.
// Control characters without a short escape are written as \u00XX;
// everything else, including non-ASCII text, is copied through.
func EscapeJSONString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\u00`)
				b.WriteByte(hexDigits[r>>4])
				b.WriteByte(hexDigits[r&0xF])
				continue
			}
			// invalid UTF-8 arrives here as RuneError and is written as U+FFFD
			b.WriteRune(r)
		}
	}

	b.WriteByte('"')
	return b.String()
}

// requestBody builds the render API payload without going through a JSON encoder.
func requestBody(text, mode string) string {
	return `{"text":` + EscapeJSONString(text) + `,"mode":` + EscapeJSONString(mode) + `}`
}
