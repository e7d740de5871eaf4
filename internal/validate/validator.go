// Package validate checks recorded API responses against the responses
// declared in an OpenAPI document. It backs the validator command the
// generated suites shell out to.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pkg/errors"

	"github.com/mark3labs/casewright/internal/encoding"
	"github.com/mark3labs/casewright/internal/logger"
)

// Kind is the part of a response being validated.
type Kind string

const (
	Headers Kind = "headers"
	Body    Kind = "body"
)

// ValidationError reports a response that does not conform to its definition.
type ValidationError struct {
	Kind      Kind
	Operation string
	Path      string
	Status    int
	Reason    string
	Cause     error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s %s (status %d): invalid response %s: %s", e.Operation, e.Path, e.Status, e.Kind, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// Validator resolves response definitions from one document.
type Validator struct {
	doc *openapi3.T
}

// New returns a Validator for doc.
func New(doc *openapi3.T) *Validator {
	return &Validator{doc: doc}
}

type target struct {
	kind   Kind
	op     string
	path   string
	status int
}

func (t target) fail(reason string, cause error) error {
	return &ValidationError{Kind: t.kind, Operation: t.op, Path: t.path, Status: t.status, Reason: reason, Cause: cause}
}

// response finds the definition for the status, falling back to the "2XX"
// style range and then to "default".
func (v *Validator) response(t target) (*openapi3.Response, error) {
	if v.doc == nil {
		return nil, t.fail("no responses document", nil)
	}
	item := v.doc.Paths.Find(t.path)
	if item == nil {
		return nil, t.fail("path is not defined", nil)
	}
	op := item.GetOperation(t.op)
	if op == nil {
		return nil, t.fail("operation is not defined", nil)
	}
	ref := op.Responses.Get(t.status)
	if ref == nil {
		ref = op.Responses[fmt.Sprintf("%dXX", t.status/100)]
	}
	if ref == nil {
		ref = op.Responses.Default()
	}
	if ref == nil || ref.Value == nil {
		return nil, t.fail("status is not defined", nil)
	}
	return ref.Value, nil
}

// ValidateHeaders checks that every required declared header is present and
// that present declared headers match their schema.
func (v *Validator) ValidateHeaders(ctx context.Context, op, path string, status int, headers http.Header) error {
	t := target{kind: Headers, op: strings.ToUpper(op), path: path, status: status}
	logger.Debug("validating headers", logger.String("operation", t.op), logger.String("path", path), logger.Int("status", status))
	resp, err := v.response(t)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(resp.Headers))
	for name := range resp.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		// content-type is described by the response content instead
		if strings.EqualFold(name, "Content-Type") {
			continue
		}
		ref := resp.Headers[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		values := headers.Values(name)
		if len(values) == 0 {
			if ref.Value.Required {
				return t.fail(fmt.Sprintf("required header %q is missing", name), nil)
			}
			continue
		}
		if ref.Value.Schema == nil || ref.Value.Schema.Value == nil {
			continue
		}
		schema := ref.Value.Schema.Value
		value := coerce(strings.Join(values, ","), schema)
		if err := schema.VisitJSON(value); err != nil {
			return t.fail(fmt.Sprintf("header %q", name), errors.Wrapf(err, "value %q", strings.Join(values, ",")))
		}
	}
	return nil
}

// ValidateBody checks the body against the content declared for the
// status. An empty body is valid only when no content is declared.
func (v *Validator) ValidateBody(ctx context.Context, op, path string, status int, contentType string, body []byte) error {
	t := target{kind: Body, op: strings.ToUpper(op), path: path, status: status}
	logger.Debug("validating body",
		logger.String("operation", t.op), logger.String("path", path),
		logger.Int("status", status), logger.String("contentType", contentType))
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := v.response(t)
	if err != nil {
		return err
	}

	empty := len(strings.TrimSpace(string(body))) == 0
	if len(resp.Content) == 0 {
		if empty {
			return nil
		}
		return t.fail("no content is defined but the response has a body", nil)
	}
	if empty {
		return t.fail("content is defined but the response body is empty", nil)
	}
	if strings.TrimSpace(contentType) == "" {
		return t.fail("response has a body but no content type", nil)
	}
	actual, err := encoding.ParseMediaRange(contentType)
	if err != nil {
		return t.fail("unreadable content type", errors.WithStack(err))
	}
	media, declared := matchContent(resp.Content, actual)
	if media == nil {
		return t.fail(fmt.Sprintf("content type %q is not defined", actual.Base()), nil)
	}
	if media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	schema := media.Schema.Value

	var value any
	switch {
	case actual.Subtype == "json" || actual.Suffix == "json":
		if err := json.Unmarshal(body, &value); err != nil {
			return t.fail("body is not valid JSON", errors.Wrap(err, "decode"))
		}
	case actual.Type == "text":
		value = coerce(string(body), schema)
	default:
		logger.Debug("body not checked against schema", logger.String("mediaType", declared))
		return nil
	}
	if err := schema.VisitJSON(value); err != nil {
		return t.fail(fmt.Sprintf("body does not match the %s schema", declared), errors.WithStack(err))
	}
	return nil
}

// matchContent picks the most specific declared media range accepting the
// actual type.
func matchContent(content openapi3.Content, actual encoding.MediaRange) (*openapi3.MediaType, string) {
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		best      *openapi3.MediaType
		bestKey   string
		bestScore = -1
	)
	for _, k := range keys {
		mr, err := encoding.ParseMediaRange(k)
		if err != nil || !mr.Matches(actual) {
			continue
		}
		score := 0
		if mr.Type != "*" {
			score++
		}
		if mr.Subtype != "*" {
			score++
		}
		if score > bestScore {
			best, bestKey, bestScore = content[k], k, score
		}
	}
	return best, bestKey
}

// coerce converts raw text to the JSON value the schema expects, leaving it
// a string when it does not parse so the schema reports the mismatch.
func coerce(raw string, schema *openapi3.Schema) any {
	switch schema.Type {
	case "integer", "number":
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			return b
		}
	case "array":
		parts := strings.Split(raw, ",")
		items := make([]any, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if schema.Items != nil && schema.Items.Value != nil {
				items = append(items, coerce(p, schema.Items.Value))
			} else {
				items = append(items, p)
			}
		}
		return items
	}
	return raw
}
