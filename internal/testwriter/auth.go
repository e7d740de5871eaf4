package testwriter

import (
	"fmt"

	"github.com/mark3labs/casewright/internal/requestcase"
)

// credentialAccessor names the generated function producing the credential
// for a scheme and records the dependency on it.
func credentialAccessor(scheme requestcase.AuthScheme, deps *Depends) (string, error) {
	switch scheme {
	case requestcase.APIKey:
		deps.SetAPIKey()
		return "apiKey()", nil
	case requestcase.HTTPBearer:
		deps.SetHTTPBearer()
		return "apiBearerCredentials()", nil
	case requestcase.HTTPBasic:
		deps.SetHTTPBasic()
		return "apiBasicCredentials()", nil
	default:
		return "", fmt.Errorf("unsupported authentication scheme %q", scheme)
	}
}

func writeAuthDefs(w *Writer, defs []requestcase.AuthDef, deps *Depends) error {
	for _, def := range defs {
		if err := writeAuthDef(w, def, deps); err != nil {
			return err
		}
	}
	return nil
}

func writeAuthDef(w *Writer, def requestcase.AuthDef, deps *Depends) error {
	switch def.Location {
	case requestcase.Query, requestcase.Header, requestcase.Cookie:
	default:
		return &InvalidAuthLocationError{Auth: def}
	}
	accessor, err := credentialAccessor(def.Scheme, deps)
	if err != nil {
		return err
	}
	switch def.Location {
	case requestcase.Query:
		w.Printf("url.searchParams.append(%s, %s);", stringLiteral(def.Name), accessor)
	case requestcase.Header:
		w.Printf("requestOptions.headers = { ...requestOptions.headers, %s: %s };", stringLiteral(def.Name), accessor)
	case requestcase.Cookie:
		writeCookieMerge(w, []string{fmt.Sprintf("`%s=${%s}`", templateText(def.Name), accessor)})
	}
	return nil
}
