package testwriter

import (
	"strings"

	"github.com/mark3labs/casewright/internal/encoding"
	"github.com/mark3labs/casewright/internal/requestcase"
)

// requestMethods are the APIRequestContext shorthands; anything else goes
// through fetch with an explicit method.
var requestMethods = map[string]bool{
	"get": true, "post": true, "put": true, "patch": true, "delete": true, "head": true,
}

// caseWriter renders one test block. Its output depends only on the case
// and the fixed configuration, never on flags raised by other cases.
type caseWriter struct {
	serverURI  string
	converters *encoding.Registry
	assertions AssertionEmitter
}

func (cw *caseWriter) serverFor(c *requestcase.RequestCase) string {
	if cw.serverURI != "" {
		return cw.serverURI
	}
	return c.Server
}

func (cw *caseWriter) write(w *Writer, c *requestcase.RequestCase, deps *Depends) error {
	w.Blank()
	w.Printf("test(%s, async ({ playwright }) => {", stringLiteral(MethodName(c)))
	w.Indent()

	cw.writeServer(w, c, deps)
	w.Blank()

	params := groupParams(c.Params)
	writePathParams(w, params[requestcase.Path])
	writeURL(w, c.Path, params[requestcase.Path])
	writeQueryParams(w, params[requestcase.Query])
	w.Blank()

	op := strings.ToLower(c.Operation)
	method := op
	if !requestMethods[op] {
		method = "fetch"
		w.Printf("const requestOptions: RequestOptions<'fetch'> = { method: %s };", stringLiteral(strings.ToUpper(c.Operation)))
	} else {
		w.Printf("const requestOptions: RequestOptions<%s> = {};", stringLiteral(op))
	}

	if err := writeAuthDefs(w, c.AuthDefs, deps); err != nil {
		return err
	}
	writeHeaderParams(w, params[requestcase.Header])
	writeCookieParams(w, params[requestcase.Cookie])
	if err := writeBody(w, c.Body, cw.converters, deps); err != nil {
		return err
	}

	w.Blank()
	w.Printf("const response = await request.%s(url.toString(), requestOptions);", method)
	w.Blank()
	cw.assertions.WriteExpectations(w, c, deps)

	w.Unindent()
	w.Println("});")
	return nil
}

func (cw *caseWriter) writeServer(w *Writer, c *requestcase.RequestCase, deps *Depends) {
	if deps.TrustServer() {
		w.Println("const request = await playwright.request.newContext({")
		w.Indent()
		w.Println("ignoreHTTPSErrors: true,")
		w.Unindent()
		w.Println("});")
	} else {
		w.Println("const request = await playwright.request.newContext();")
	}

	server := cw.serverFor(c)
	if server == "" {
		deps.SetServer()
		w.Println("const uri = new URL(forTestServer());")
		return
	}
	w.Printf("const uri = new URL(forTestServer(%s));", stringLiteral(server))
}
