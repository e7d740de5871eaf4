package testwriter

import (
	"fmt"
	"io"
	"strings"
)

const indentUnit = "  "

// Writer prints indented source lines. The first write error is kept and
// all later output is dropped; callers check Err once at the end.
type Writer struct {
	out    io.Writer
	depth  int
	prefix string
	err    error
}

// NewWriter returns a Writer printing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Indent increases the indentation of following lines.
func (w *Writer) Indent() {
	w.depth++
	w.prefix = strings.Repeat(indentUnit, w.depth)
}

// Unindent decreases the indentation of following lines.
func (w *Writer) Unindent() {
	if w.depth > 0 {
		w.depth--
	}
	w.prefix = strings.Repeat(indentUnit, w.depth)
}

// Println writes one indented line.
func (w *Writer) Println(line string) {
	if line == "" {
		w.write("\n")
		return
	}
	w.write(w.prefix + line + "\n")
}

// Printf writes one formatted, indented line.
func (w *Writer) Printf(format string, args ...any) {
	w.Println(fmt.Sprintf(format, args...))
}

// Blank writes an empty line.
func (w *Writer) Blank() { w.write("\n") }

// Err returns the first write error.
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.out, s)
}
