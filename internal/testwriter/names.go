package testwriter

import (
	"encoding/csv"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mark3labs/casewright/internal/requestcase"
)

// NoBindings is the case name meaning "no variable is bound".
const NoBindings = "None.Defined='No'"

var (
	uriSegmentPattern  = regexp.MustCompile(`([^{}]+)|\{([^}]+)\}`)
	varBindingPattern  = regexp.MustCompile(`([\w\-.]+)=([^&]*)`)
	nonWordPattern     = regexp.MustCompile(`\W+`)
	negativeNumPattern = regexp.MustCompile(`(^|[^\w.])-(\d)`)
	decimalPointPat    = regexp.MustCompile(`(\d)\.(\d)`)

	operatorReplacements = []struct {
		pattern *regexp.Regexp
		with    string
	}{
		{regexp.MustCompile(` *<= *`), "leq"},
		{regexp.MustCompile(` *< *`), "lt"},
		{regexp.MustCompile(` *>= *`), "geq "},
		{regexp.MustCompile(` *> *`), "gt "},
	}
)

// MethodName derives the test name for a case: the lower-cased operation,
// an identifier for each literal and templated path segment, then a space
// and the case descriptor.
//
//	GET /items/{id} named "Color.Is=red" -> "getItemsId Color Is Red"
func MethodName(c *requestcase.RequestCase) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(c.Operation))
	for _, segment := range strings.Split(c.Path, "/") {
		for _, m := range uriSegmentPattern.FindAllString(segment, -1) {
			b.WriteString(toIdentifier(m))
		}
	}
	b.WriteByte(' ')
	b.WriteString(Descriptor(c))
	return b.String()
}

// Descriptor describes the variable bindings encoded in the case name,
// falling back to the case id when the name binds nothing.
func Descriptor(c *requestcase.RequestCase) string {
	name := strings.TrimSpace(c.Name)
	if name == "" || name == NoBindings {
		return strconv.Itoa(c.ID)
	}
	if d, ok := bindingsDescriptor(name); ok {
		return d
	}
	return strconv.Itoa(c.ID)
}

func bindingsDescriptor(text string) (string, bool) {
	var bindings []string
	for _, m := range varBindingPattern.FindAllStringSubmatch(text, -1) {
		varID := toIdentifier(strings.TrimSuffix(m[1], ".Is"))
		bindings = append(bindings, varID+" Is "+valueID(m[2]))
	}
	if len(bindings) == 0 {
		return "", false
	}
	return strings.Join(bindings, "_"), true
}

// valueID categorizes a bound value: Blank, Null, Empty or a literal identifier.
func valueID(raw string) string {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case "":
		return "Blank"
	case "null":
		return "Null"
	case "[]", "{}":
		return "Empty"
	}
	first := firstCSV(trimmed)
	if strings.TrimSpace(first) == "" {
		return "Blank"
	}
	return toIdentifier(sanitizeValue(first))
}

// sanitizeValue spells out numbers and comparison operators so that they
// survive identifier reduction: "-1.5" -> "m1d5", "<=10" -> "leq10", ">5" -> "gt 5".
func sanitizeValue(v string) string {
	v = toNumberIdentifiers(v)
	for _, r := range operatorReplacements {
		v = r.pattern.ReplaceAllString(v, r.with)
	}
	return v
}

func toNumberIdentifiers(v string) string {
	v = negativeNumPattern.ReplaceAllString(v, "${1}m${2}")
	return decimalPointPat.ReplaceAllString(v, "${1}d${2}")
}

func firstCSV(v string) string {
	r := csv.NewReader(strings.NewReader(v))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rec, err := r.Read()
	if err != nil || len(rec) == 0 {
		return v
	}
	return rec[0]
}

// toIdentifier reduces text to one identifier by capitalizing each run of
// word characters and dropping everything else.
func toIdentifier(text string) string {
	var b strings.Builder
	for _, word := range nonWordPattern.Split(strings.TrimSpace(text), -1) {
		b.WriteString(capitalize(word))
	}
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// TestName derives the suite identifier from a base name:
// "pet-store api" -> "petStoreApi".
func TestName(base string) string {
	var b strings.Builder
	for i, word := range nonWordPattern.Split(base, -1) {
		if i == 0 {
			b.WriteString(strings.ToLower(word))
			continue
		}
		b.WriteString(capitalize(word))
	}
	return b.String()
}
