package dust

import (
	"bytes"
	"encoding/json"
	"strings"
)

const htmlChars = `&<>"'`

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes &, <, >, " and '. A string without any of them is
// returned as is.
func EscapeHTML(s string) string {
	if !strings.ContainsAny(s, htmlChars) {
		return s
	}
	return htmlReplacer.Replace(s)
}

var jsReplacer = strings.NewReplacer(
	`\`, `\\`,
	"/", `\/`,
	`"`, `\"`,
	"'", `\'`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
	"\n", `\n`,
	"\f", `\f`,
	"\t", `\t`,
)

// EscapeJS escapes s for use inside a JavaScript string literal.
func EscapeJS(s string) string {
	return jsReplacer.Replace(s)
}

var jsonReplacer = strings.NewReplacer(
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
	"<", `\u003c`,
)

// EscapeJSON encodes v as JSON that is safe to embed in a script element.
func EscapeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return jsonReplacer.Replace(strings.TrimSuffix(buf.String(), "\n")), nil
}

const hexDigits = "0123456789ABCDEF"

// unreserved characters of encodeURIComponent besides letters and digits
const uriComponentMarks = "-_.!~*'()"

// characters encodeURI leaves alone on top of the component set
const uriReserved = ";,/?:@&=+$#"

// EncodeURI percent-encodes s like encodeURI in JavaScript.
func EncodeURI(s string) string {
	return percentEncode(s, uriComponentMarks+uriReserved)
}

// EncodeURIComponent percent-encodes s like encodeURIComponent in
// JavaScript.
func EncodeURIComponent(s string) string {
	return percentEncode(s, uriComponentMarks)
}

func percentEncode(s, keep string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case c < 0x80 && strings.IndexByte(keep, c) >= 0:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0f])
		}
	}
	return b.String()
}
