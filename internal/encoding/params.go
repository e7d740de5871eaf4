package encoding

import (
	"net/url"
	"strings"

	"github.com/mark3labs/casewright/internal/requestcase"
)

// Pair is one serialized name/value. Null marks a parameter whose value is
// null; writers keep it visible but do not send it.
type Pair struct {
	Key   string
	Value string
	Null  bool
}

// PathValue serializes a path parameter for interpolation into the path
// template. Scalar components are percent-encoded as path segments.
func PathValue(p requestcase.ParamData) string {
	v := p.Value
	if v.IsNull() {
		return ""
	}
	explode := p.Exploded != nil && *p.Exploded
	switch p.StyleOrDefault() {
	case "label":
		sep := ","
		if explode {
			sep = "."
		}
		return "." + joinValue(v, explode, sep, url.PathEscape)
	case "matrix":
		return matrixValue(p.Name, v, explode)
	default:
		return joinValue(v, explode, ",", url.PathEscape)
	}
}

func matrixValue(name string, v requestcase.DataValue, explode bool) string {
	esc := url.PathEscape
	switch v.Type {
	case requestcase.ArrayType:
		if explode {
			var b strings.Builder
			for _, item := range v.Items {
				b.WriteString(";" + name + "=" + esc(item.Text()))
			}
			return b.String()
		}
		return ";" + name + "=" + joinValue(v, false, ",", esc)
	case requestcase.ObjectType:
		if explode {
			var b strings.Builder
			for _, prop := range v.Props {
				b.WriteString(";" + prop.Name + "=" + esc(prop.Value.Text()))
			}
			return b.String()
		}
		return ";" + name + "=" + joinValue(v, false, ",", esc)
	default:
		return ";" + name + "=" + esc(v.Text())
	}
}

// HeaderValue serializes a header parameter with the simple style.
// ok is false when the value is null and the header must be omitted.
func HeaderValue(p requestcase.ParamData) (value string, ok bool) {
	if p.Value.IsNull() {
		return "", false
	}
	return joinValue(p.Value, p.Exploded != nil && *p.Exploded, ",", identity), true
}

// QueryPairs serializes a query parameter. Values are left unescaped; the
// generated code appends them through URLSearchParams.
func QueryPairs(p requestcase.ParamData) []Pair {
	if p.Value.IsNull() {
		return []Pair{{Key: p.Name, Null: true}}
	}
	return stylePairs(p.Name, p.Value, p.StyleOrDefault(), p.IsExploded())
}

// CookiePairs serializes a cookie parameter with the form style. Null
// values produce no cookie.
func CookiePairs(p requestcase.ParamData) []Pair {
	if p.Value.IsNull() {
		return nil
	}
	return stylePairs(p.Name, p.Value, "form", p.IsExploded())
}

// stylePairs implements the form, spaceDelimited, pipeDelimited and
// deepObject styles shared by query parameters and form bodies.
func stylePairs(name string, v requestcase.DataValue, style string, explode bool) []Pair {
	switch style {
	case "spaceDelimited", "pipeDelimited":
		sep := " "
		if style == "pipeDelimited" {
			sep = "|"
		}
		if v.Type == requestcase.ArrayType && !explode {
			return []Pair{{Key: name, Value: joinValue(v, false, sep, identity)}}
		}
	case "deepObject":
		if v.Type == requestcase.ObjectType {
			pairs := make([]Pair, 0, len(v.Props))
			for _, prop := range v.Props {
				pairs = append(pairs, scalarPair(name+"["+prop.Name+"]", prop.Value))
			}
			return pairs
		}
	}

	switch v.Type {
	case requestcase.ArrayType:
		if !explode {
			return []Pair{{Key: name, Value: joinValue(v, false, ",", identity)}}
		}
		if len(v.Items) == 0 {
			return []Pair{{Key: name}}
		}
		pairs := make([]Pair, 0, len(v.Items))
		for _, item := range v.Items {
			pairs = append(pairs, scalarPair(name, item))
		}
		return pairs
	case requestcase.ObjectType:
		if !explode {
			return []Pair{{Key: name, Value: joinValue(v, false, ",", identity)}}
		}
		pairs := make([]Pair, 0, len(v.Props))
		for _, prop := range v.Props {
			pairs = append(pairs, scalarPair(prop.Name, prop.Value))
		}
		return pairs
	default:
		return []Pair{scalarPair(name, v)}
	}
}

func scalarPair(key string, v requestcase.DataValue) Pair {
	if v.IsNull() {
		return Pair{Key: key, Null: true}
	}
	return Pair{Key: key, Value: v.Text()}
}

func identity(s string) string { return s }

// joinValue renders arrays as items joined by sep and objects as either
// "k=v" (explode) or "k,v" entries joined by sep.
func joinValue(v requestcase.DataValue, explode bool, sep string, esc func(string) string) string {
	switch v.Type {
	case requestcase.ArrayType:
		parts := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			parts = append(parts, esc(item.Text()))
		}
		return strings.Join(parts, sep)
	case requestcase.ObjectType:
		parts := make([]string, 0, 2*len(v.Props))
		for _, prop := range v.Props {
			if explode {
				parts = append(parts, esc(prop.Name)+"="+esc(prop.Value.Text()))
			} else {
				parts = append(parts, esc(prop.Name), esc(prop.Value.Text()))
			}
		}
		return strings.Join(parts, sep)
	default:
		return esc(v.Text())
	}
}
