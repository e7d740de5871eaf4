package encoding

import (
	"fmt"
	"sort"
	"strings"
)

// MediaRange is a parsed media type such as "application/vnd.api+json; charset=utf-8".
type MediaRange struct {
	Type    string
	Subtype string
	Suffix  string // structured syntax suffix, "json" for "vnd.api+json"
	Params  map[string]string
}

// ParseMediaRange parses a media type. Type, subtype and parameter names are lower-cased.
func ParseMediaRange(s string) (MediaRange, error) {
	parts := strings.Split(s, ";")
	base := strings.ToLower(strings.TrimSpace(parts[0]))
	slash := strings.IndexByte(base, '/')
	if slash <= 0 || slash == len(base)-1 {
		return MediaRange{}, fmt.Errorf("invalid media type %q", s)
	}
	mr := MediaRange{Type: base[:slash], Subtype: base[slash+1:]}
	if plus := strings.LastIndexByte(mr.Subtype, '+'); plus >= 0 {
		mr.Suffix = mr.Subtype[plus+1:]
	}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, value, _ := strings.Cut(p, "=")
		if mr.Params == nil {
			mr.Params = make(map[string]string)
		}
		mr.Params[strings.ToLower(strings.TrimSpace(name))] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return mr, nil
}

// MustParseMediaRange is ParseMediaRange for well-known constants.
func MustParseMediaRange(s string) MediaRange {
	mr, err := ParseMediaRange(s)
	if err != nil {
		panic(err)
	}
	return mr
}

// Base returns "type/subtype" without parameters.
func (m MediaRange) Base() string { return m.Type + "/" + m.Subtype }

// IsWildcard reports whether the type or subtype is "*".
func (m MediaRange) IsWildcard() bool { return m.Type == "*" || m.Subtype == "*" }

// Matches reports whether m, possibly a wildcard range, accepts the concrete media type other.
func (m MediaRange) Matches(other MediaRange) bool {
	if m.Type != "*" && m.Type != other.Type {
		return false
	}
	return m.Subtype == "*" || m.Subtype == other.Subtype
}

// String renders the media range with parameters in name order.
func (m MediaRange) String() string {
	var b strings.Builder
	b.WriteString(m.Base())
	names := make([]string, 0, len(m.Params))
	for name := range m.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString("; ")
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(m.Params[name])
	}
	return b.String()
}

const (
	OctetStream    = "application/octet-stream"
	FormURLEncoded = "application/x-www-form-urlencoded"
	MultipartForm  = "multipart/form-data"
	JSON           = "application/json"
	TextPlain      = "text/plain"
)
