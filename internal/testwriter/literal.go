package testwriter

import (
	"fmt"
	"regexp"
	"strings"
)

// bytesPerLine bounds a byte-list literal line; longer buffers wrap.
const bytesPerLine = 64

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// stringLiteral renders s as a single-quoted TypeScript string.
func stringLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// templateText escapes s for use inside a backquoted template literal.
func templateText(s string) string {
	r := strings.NewReplacer("\\", `\\`, "`", "\\`", "${", `\${`)
	return r.Replace(s)
}

// propertyKey renders an object literal key, quoting names that are not identifiers.
func propertyKey(name string) string {
	if identifierPattern.MatchString(name) {
		return name
	}
	return stringLiteral(name)
}

// propertyAccess renders obj.name or obj['name'].
func propertyAccess(obj, name string) string {
	if identifierPattern.MatchString(name) {
		return obj + "." + name
	}
	return obj + "[" + stringLiteral(name) + "]"
}

// byteSegments renders bytes as hex literals, bytesPerLine per segment.
// Every segment but the last ends with a comma so that the segments can
// be printed one per line inside an array literal.
func byteSegments(data []byte) []string {
	if len(data) == 0 {
		return []string{""}
	}
	var segments []string
	for start := 0; start < len(data); start += bytesPerLine {
		end := start + bytesPerLine
		if end > len(data) {
			end = len(data)
		}
		var b strings.Builder
		for i, c := range data[start:end] {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "0x%02x", c)
		}
		if end < len(data) {
			b.WriteByte(',')
		}
		segments = append(segments, b.String())
	}
	return segments
}

// writeBuffer writes "<lead>Buffer.from([...])<tail>", on one line when the
// bytes fit, otherwise one segment per line.
func writeBuffer(w *Writer, lead string, data []byte, tail string) {
	segments := byteSegments(data)
	if len(segments) == 1 {
		w.Printf("%sBuffer.from([%s])%s", lead, segments[0], tail)
		return
	}
	w.Printf("%sBuffer.from([", lead)
	w.Indent()
	for _, s := range segments {
		w.Println(s)
	}
	w.Unindent()
	w.Printf("])%s", tail)
}
