package testwriter

import (
	"fmt"

	"github.com/mark3labs/casewright/internal/requestcase"
)

// UnsupportedMediaTypeError reports a body or multipart part whose media
// type has no registered converter.
type UnsupportedMediaTypeError struct {
	MediaType string
	Part      string // multipart property, empty for the whole body
}

func (e *UnsupportedMediaTypeError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("no serializer defined for part %q with contentType=%s", e.Part, e.MediaType)
	}
	return fmt.Sprintf("no serializer defined for mediaType=%s", e.MediaType)
}

// InvalidAuthLocationError reports a credential that cannot be delivered
// at its declared location.
type InvalidAuthLocationError struct {
	Auth requestcase.AuthDef
}

func (e *InvalidAuthLocationError) Error() string {
	return fmt.Sprintf("invalid location %q for %s credential %q", e.Auth.Location, e.Auth.Scheme, e.Auth.Name)
}

// CaseRenderError wraps any failure rendering one case with the case identity.
type CaseRenderError struct {
	ID        int
	Name      string
	Operation string
	Path      string
	Phase     State
	Cause     error
}

func newCaseRenderError(c *requestcase.RequestCase, phase State, cause error) *CaseRenderError {
	return &CaseRenderError{ID: c.ID, Name: c.Name, Operation: c.Operation, Path: c.Path, Phase: phase, Cause: cause}
}

func (e *CaseRenderError) Error() string {
	return fmt.Sprintf("can't write test case %d (%s %s %q) while %s: %v", e.ID, e.Operation, e.Path, e.Name, e.Phase, e.Cause)
}

func (e *CaseRenderError) Unwrap() error { return e.Cause }
