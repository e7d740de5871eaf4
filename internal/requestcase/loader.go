package requestcase

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes load failures.
type ErrorCode string

const (
	InputError  ErrorCode = "InputError"
	ParseError  ErrorCode = "ParseError"
	InvalidCase ErrorCode = "InvalidCase"
)

// LoadError is a structured error with the offending source and, when known,
// the pointer to the offending case ("cases[3].params[0]").
type LoadError struct {
	Code     ErrorCode
	Message  string
	Location string
	Pointer  string
	Cause    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.Location != "" {
		b.WriteString(e.Location)
		b.WriteString(": ")
	}
	if e.Pointer != "" {
		b.WriteString(e.Pointer)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Document is the on-disk form of a set of request cases.
type Document struct {
	Name   string     `json:"name,omitempty" yaml:"name,omitempty" jsonschema:"description=Suite base name; derived from the file name when empty"`
	Server string     `json:"server,omitempty" yaml:"server,omitempty" jsonschema:"description=Default server URI for cases without one"`
	Cases  []CaseSpec `json:"cases" yaml:"cases"`
}

// CaseSpec is the on-disk form of a RequestCase.
type CaseSpec struct {
	ID           *int        `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string      `json:"name,omitempty" yaml:"name,omitempty" jsonschema:"description=Variable-binding descriptor such as Color.Is=red&Size.Is="`
	Server       string      `json:"server,omitempty" yaml:"server,omitempty"`
	Operation    string      `json:"operation" yaml:"operation" jsonschema:"required"`
	Path         string      `json:"path" yaml:"path" jsonschema:"required"`
	Params       []ParamSpec `json:"params,omitempty" yaml:"params,omitempty"`
	Body         *BodySpec   `json:"body,omitempty" yaml:"body,omitempty"`
	Auth         []AuthSpec  `json:"auth,omitempty" yaml:"auth,omitempty"`
	Failure      bool        `json:"failure,omitempty" yaml:"failure,omitempty"`
	AuthFailure  bool        `json:"authFailure,omitempty" yaml:"authFailure,omitempty"`
	InvalidInput string      `json:"invalidInput,omitempty" yaml:"invalidInput,omitempty"`
}

// ParamSpec is the on-disk form of a ParamData.
type ParamSpec struct {
	Name    string    `json:"name" yaml:"name" jsonschema:"required"`
	In      string    `json:"in" yaml:"in" jsonschema:"required,enum=path,enum=query,enum=header,enum=cookie"`
	Style   string    `json:"style,omitempty" yaml:"style,omitempty"`
	Explode *bool     `json:"explode,omitempty" yaml:"explode,omitempty"`
	Value   ValueSpec `json:"value" yaml:"value"`
}

// BodySpec is the on-disk form of a MessageData.
type BodySpec struct {
	MediaType string                  `json:"mediaType" yaml:"mediaType" jsonschema:"required"`
	Value     ValueSpec               `json:"value" yaml:"value"`
	Encodings map[string]EncodingSpec `json:"encodings,omitempty" yaml:"encodings,omitempty"`
}

// EncodingSpec is the on-disk form of an EncodingData.
type EncodingSpec struct {
	ContentType string `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Style       string `json:"style,omitempty" yaml:"style,omitempty"`
	Explode     *bool  `json:"explode,omitempty" yaml:"explode,omitempty"`
}

// AuthSpec is the on-disk form of an AuthDef.
type AuthSpec struct {
	Type string `json:"type" yaml:"type" jsonschema:"required,enum=apiKey,enum=httpBasic,enum=httpBearer"`
	In   string `json:"in,omitempty" yaml:"in,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// ValueSpec is a tagged data value. Value holds the scalar for
// boolean/integer/number/string/binary (base64); Items and Properties hold
// collection members.
type ValueSpec struct {
	Type       string         `json:"type" yaml:"type" jsonschema:"enum=null,enum=boolean,enum=integer,enum=number,enum=string,enum=array,enum=object,enum=binary"`
	Value      any            `json:"value,omitempty" yaml:"value,omitempty"`
	Items      []ValueSpec    `json:"items,omitempty" yaml:"items,omitempty"`
	Properties []PropertySpec `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// PropertySpec is one ordered member of an object ValueSpec.
type PropertySpec struct {
	Name  string    `json:"name" yaml:"name" jsonschema:"required"`
	Value ValueSpec `json:"value" yaml:"value"`
}

// Suite is a named, decoded set of request cases.
type Suite struct {
	Name   string
	Source string
	Cases  []RequestCase
}

// Load reads a request-case document from a file path ("-" reads stdin).
func Load(ctx context.Context, path string) (*Suite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &LoadError{Code: InputError, Message: "request cases: input is empty"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, &LoadError{Code: InputError, Message: err.Error(), Location: path, Cause: err}
	}
	suite, err := Decode(bytes.NewReader(raw), path)
	if err != nil {
		return nil, err
	}
	if suite.Name == "" {
		suite.Name = baseName(path)
	}
	return suite, nil
}

// Decode parses a YAML or JSON request-case document. source labels errors.
func Decode(r io.Reader, source string) (*Suite, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, &LoadError{Code: ParseError, Message: "document is empty", Location: source}
		}
		return nil, &LoadError{Code: ParseError, Message: err.Error(), Location: source, Cause: err}
	}
	return doc.toSuite(source)
}

func (d Document) toSuite(source string) (*Suite, error) {
	suite := &Suite{Name: strings.TrimSpace(d.Name), Source: source}
	for i, cs := range d.Cases {
		rc, err := cs.toCase(i, d.Server)
		if err != nil {
			if le, ok := err.(*LoadError); ok {
				le.Location = source
				if le.Pointer == "" {
					le.Pointer = fmt.Sprintf("cases[%d]", i)
				} else {
					le.Pointer = fmt.Sprintf("cases[%d].%s", i, le.Pointer)
				}
			}
			return nil, err
		}
		suite.Cases = append(suite.Cases, rc)
	}
	return suite, nil
}

func invalid(pointer, format string, args ...any) error {
	return &LoadError{Code: InvalidCase, Message: fmt.Sprintf(format, args...), Pointer: pointer}
}

func (cs CaseSpec) toCase(index int, defaultServer string) (RequestCase, error) {
	rc := RequestCase{
		ID:           index,
		Name:         cs.Name,
		Server:       strings.TrimSpace(cs.Server),
		Operation:    strings.ToUpper(strings.TrimSpace(cs.Operation)),
		Path:         strings.TrimSpace(cs.Path),
		Failure:      cs.Failure,
		AuthFailure:  cs.AuthFailure,
		InvalidInput: cs.InvalidInput,
	}
	if cs.ID != nil {
		rc.ID = *cs.ID
	}
	if rc.Server == "" {
		rc.Server = strings.TrimSpace(defaultServer)
	}
	if rc.Operation == "" {
		return rc, invalid("operation", "operation is required")
	}
	if rc.Path == "" {
		return rc, invalid("path", "path is required")
	}
	if !strings.HasPrefix(rc.Path, "/") {
		return rc, invalid("path", "path %q must start with /", rc.Path)
	}

	for i, ps := range cs.Params {
		ptr := fmt.Sprintf("params[%d]", i)
		if strings.TrimSpace(ps.Name) == "" {
			return rc, invalid(ptr, "parameter name is required")
		}
		loc := ParseLocation(ps.In)
		switch loc {
		case Path, Query, Header, Cookie:
		default:
			return rc, invalid(ptr, "unknown parameter location %q", ps.In)
		}
		v, err := ps.Value.toValue()
		if err != nil {
			return rc, invalid(ptr+".value", "%v", err)
		}
		rc.Params = append(rc.Params, ParamData{
			Name:     ps.Name,
			Location: loc,
			Style:    strings.TrimSpace(ps.Style),
			Exploded: ps.Explode,
			Value:    v,
		})
	}

	if cs.Body != nil {
		if strings.TrimSpace(cs.Body.MediaType) == "" {
			return rc, invalid("body", "body mediaType is required")
		}
		v, err := cs.Body.Value.toValue()
		if err != nil {
			return rc, invalid("body.value", "%v", err)
		}
		body := &MessageData{MediaType: strings.TrimSpace(cs.Body.MediaType), Value: v}
		if len(cs.Body.Encodings) > 0 {
			body.Encodings = make(map[string]EncodingData, len(cs.Body.Encodings))
			for name, es := range cs.Body.Encodings {
				body.Encodings[name] = EncodingData{
					ContentType: strings.TrimSpace(es.ContentType),
					Style:       strings.TrimSpace(es.Style),
					Exploded:    es.Explode,
				}
			}
		}
		rc.Body = body
	}

	for i, as := range cs.Auth {
		ptr := fmt.Sprintf("auth[%d]", i)
		def := AuthDef{Scheme: AuthScheme(strings.TrimSpace(as.Type)), Location: ParseLocation(as.In), Name: strings.TrimSpace(as.Name)}
		switch def.Scheme {
		case APIKey:
		case HTTPBasic, HTTPBearer:
			if def.Location == "" {
				def.Location = Header
			}
			if def.Name == "" {
				def.Name = "Authorization"
			}
		default:
			return rc, invalid(ptr, "unknown auth type %q", as.Type)
		}
		if def.Name == "" {
			return rc, invalid(ptr, "auth name is required")
		}
		rc.AuthDefs = append(rc.AuthDefs, def)
	}
	return rc, nil
}

func (vs ValueSpec) toValue() (DataValue, error) {
	typ := strings.ToLower(strings.TrimSpace(vs.Type))
	if typ == "" {
		typ = inferType(vs)
	}
	switch typ {
	case "null":
		return Null(), nil
	case "boolean":
		switch b := vs.Value.(type) {
		case bool:
			return Bool(b), nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return DataValue{}, fmt.Errorf("invalid boolean %q", b)
			}
			return Bool(parsed), nil
		default:
			return DataValue{}, fmt.Errorf("invalid boolean %v", vs.Value)
		}
	case "integer", "number":
		n, err := numberText(vs.Value)
		if err != nil {
			return DataValue{}, err
		}
		return Number(n), nil
	case "string":
		if vs.Value == nil {
			return String(""), nil
		}
		return String(scalarText(vs.Value)), nil
	case "binary":
		s, _ := vs.Value.(string)
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return DataValue{}, fmt.Errorf("binary value is not base64: %v", err)
		}
		return Binary(b), nil
	case "array":
		items := make([]DataValue, 0, len(vs.Items))
		for i, is := range vs.Items {
			v, err := is.toValue()
			if err != nil {
				return DataValue{}, fmt.Errorf("items[%d]: %w", i, err)
			}
			items = append(items, v)
		}
		return Array(items...), nil
	case "object":
		props := make([]Property, 0, len(vs.Properties))
		for i, ps := range vs.Properties {
			v, err := ps.Value.toValue()
			if err != nil {
				return DataValue{}, fmt.Errorf("properties[%d]: %w", i, err)
			}
			props = append(props, Prop(ps.Name, v))
		}
		return Object(props...), nil
	default:
		return DataValue{}, fmt.Errorf("unknown value type %q", vs.Type)
	}
}

// inferType lets hand-written documents omit the tag for plain scalars.
func inferType(vs ValueSpec) string {
	switch {
	case len(vs.Properties) > 0:
		return "object"
	case len(vs.Items) > 0:
		return "array"
	}
	switch vs.Value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	default:
		return "string"
	}
}

func numberText(v any) (string, error) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case uint64:
		return strconv.FormatUint(n, 10), nil
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	case string:
		s := strings.TrimSpace(n)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return "", fmt.Errorf("invalid number %q", n)
		}
		return s, nil
	default:
		return "", fmt.Errorf("invalid number %v", v)
	}
}

func scalarText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func baseName(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
