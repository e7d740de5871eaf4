package encoding

import (
	"github.com/mark3labs/casewright/internal/requestcase"
)

// Converter serializes a data value as the payload of one media type.
type Converter interface {
	Convert(v requestcase.DataValue) (string, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(v requestcase.DataValue) (string, error)

func (f ConverterFunc) Convert(v requestcase.DataValue) (string, error) { return f(v) }

// Registry maps media type bases to converters. Lookup falls back to the
// structured syntax suffix ("+json") when the exact base is not registered.
type Registry struct {
	byBase   map[string]Converter
	bySuffix map[string]Converter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byBase: map[string]Converter{}, bySuffix: map[string]Converter{}}
}

// DefaultRegistry knows JSON (and any +json type) and text/plain.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(JSON, jsonConverter)
	r.RegisterSuffix("json", jsonConverter)
	r.Register(TextPlain, textConverter)
	return r
}

// Register binds a media type base, e.g. "application/xml".
func (r *Registry) Register(base string, c Converter) {
	r.byBase[MustParseMediaRange(base).Base()] = c
}

// RegisterSuffix binds a structured syntax suffix, e.g. "json" for "+json".
func (r *Registry) RegisterSuffix(suffix string, c Converter) {
	r.bySuffix[suffix] = c
}

// Lookup returns the converter for the media range.
func (r *Registry) Lookup(m MediaRange) (Converter, bool) {
	if c, ok := r.byBase[m.Base()]; ok {
		return c, true
	}
	if m.Suffix != "" {
		if c, ok := r.bySuffix[m.Suffix]; ok {
			return c, true
		}
	}
	return nil, false
}

var jsonConverter = ConverterFunc(func(v requestcase.DataValue) (string, error) {
	return v.JSON(), nil
})

var textConverter = ConverterFunc(func(v requestcase.DataValue) (string, error) {
	return v.Text(), nil
})
