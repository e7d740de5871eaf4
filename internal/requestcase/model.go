package requestcase

import "strings"

// Request case model consumed by the test writers. Values are produced
// upstream by the resolver and only read here.

// Location is where a parameter or credential travels in the request.
type Location string

const (
	Path   Location = "path"
	Query  Location = "query"
	Header Location = "header"
	Cookie Location = "cookie"
)

// ParseLocation accepts any letter case ("QUERY", "query", ...).
func ParseLocation(s string) Location {
	return Location(strings.ToLower(strings.TrimSpace(s)))
}

// AuthScheme identifies how a credential is produced.
type AuthScheme string

const (
	APIKey     AuthScheme = "apiKey"
	HTTPBasic  AuthScheme = "httpBasic"
	HTTPBearer AuthScheme = "httpBearer"
)

// RequestCase is one fully resolved API call scenario.
type RequestCase struct {
	ID        int
	Name      string // variable-binding descriptor, e.g. "Color.Is=red&Size.Is="
	Server    string // resolved server URI; empty when upstream could not resolve one
	Operation string // HTTP method
	Path      string // path template, e.g. /items/{id}
	Params    []ParamData
	Body      *MessageData
	AuthDefs  []AuthDef

	Failure      bool
	AuthFailure  bool
	InvalidInput string // why the case is expected to fail
}

// IsFailure reports whether the request is expected to be rejected.
func (rc *RequestCase) IsFailure() bool { return rc.Failure || rc.AuthFailure }

// IsAuthFailure reports whether the request is expected to be rejected as unauthorized.
func (rc *RequestCase) IsAuthFailure() bool { return rc.AuthFailure }

// String identifies the case in errors and logs.
func (rc *RequestCase) String() string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(rc.Operation))
	b.WriteString(" ")
	b.WriteString(rc.Path)
	if rc.Name != "" {
		b.WriteString(" [")
		b.WriteString(rc.Name)
		b.WriteString("]")
	}
	return b.String()
}

// ParamData is a resolved request parameter.
type ParamData struct {
	Name     string
	Location Location
	Style    string // OpenAPI serialization style; empty means the location default
	Exploded *bool  // nil means the style default
	Value    DataValue
}

// IsExploded resolves the explode flag using the OpenAPI default for the style.
func (p ParamData) IsExploded() bool {
	if p.Exploded != nil {
		return *p.Exploded
	}
	return p.StyleOrDefault() == "form"
}

// StyleOrDefault returns the declared style or the default for the location.
func (p ParamData) StyleOrDefault() string {
	if p.Style != "" {
		return p.Style
	}
	switch p.Location {
	case Query, Cookie:
		return "form"
	default:
		return "simple"
	}
}

// MessageData is a request body.
type MessageData struct {
	MediaType string
	Value     DataValue
	Encodings map[string]EncodingData // per-property encodings for form media types
}

// EncodingData describes how one property of a form body is serialized.
type EncodingData struct {
	ContentType string
	Style       string
	Exploded    *bool
}

// IsExploded resolves the explode flag; form style explodes by default.
func (e EncodingData) IsExploded() bool {
	if e.Exploded != nil {
		return *e.Exploded
	}
	return e.Style == "" || e.Style == "form"
}

// AuthDef is one authentication requirement of a request.
type AuthDef struct {
	Scheme   AuthScheme
	Location Location
	Name     string // parameter, header or cookie name carrying the credential
}
