package testwriter

import (
	"regexp"
	"strings"

	"github.com/mark3labs/casewright/internal/encoding"
	"github.com/mark3labs/casewright/internal/requestcase"
)

var pathVarPattern = regexp.MustCompile(`\{([^}]*)\}`)

// paramsByLocation groups parameters by location, keeping declaration order.
type paramsByLocation map[requestcase.Location][]requestcase.ParamData

func groupParams(params []requestcase.ParamData) paramsByLocation {
	groups := paramsByLocation{}
	for _, p := range params {
		groups[p.Location] = append(groups[p.Location], p)
	}
	return groups
}

func writePathParams(w *Writer, params []requestcase.ParamData) {
	if len(params) == 0 {
		return
	}
	w.Println("const pathParams = {")
	w.Indent()
	for _, p := range params {
		w.Printf("%s: %s,", propertyKey(p.Name), stringLiteral(encoding.PathValue(p)))
	}
	w.Unindent()
	w.Println("};")
}

// pathTemplate turns "/items/{id}" into a template literal body that
// interpolates pathParams and keeps the server's base path. Variables with
// no bound path parameter render empty.
func pathTemplate(path string, bound map[string]bool) string {
	var b strings.Builder
	b.WriteString("${uri.pathname.replace(/\\/$/, '')}")
	last := 0
	for _, loc := range pathVarPattern.FindAllStringSubmatchIndex(path, -1) {
		b.WriteString(templateText(path[last:loc[0]]))
		last = loc[1]
		name := path[loc[2]:loc[3]]
		if !bound[name] {
			continue
		}
		b.WriteString("${")
		b.WriteString(propertyAccess("pathParams", name))
		b.WriteString("}")
	}
	b.WriteString(templateText(path[last:]))
	return b.String()
}

func writeURL(w *Writer, path string, params []requestcase.ParamData) {
	bound := make(map[string]bool, len(params))
	for _, p := range params {
		bound[p.Name] = true
	}
	w.Printf("const url = new URL(`%s`, uri);", pathTemplate(path, bound))
}

func writeQueryParams(w *Writer, params []requestcase.ParamData) {
	if len(params) == 0 {
		return
	}
	w.Println("const queryParams = url.searchParams;")
	for _, p := range params {
		for _, pair := range encoding.QueryPairs(p) {
			if pair.Null {
				w.Printf("// queryParams.append(%s, null);", stringLiteral(pair.Key))
				continue
			}
			w.Printf("queryParams.append(%s, %s);", stringLiteral(pair.Key), stringLiteral(pair.Value))
		}
	}
}

func writeHeaderParams(w *Writer, params []requestcase.ParamData) {
	if len(params) == 0 {
		return
	}
	w.Println("const headers = {")
	w.Indent()
	for _, p := range params {
		if value, ok := encoding.HeaderValue(p); ok {
			w.Printf("%s: %s,", propertyKey(p.Name), stringLiteral(value))
		}
	}
	w.Unindent()
	w.Println("};")
	w.Println("requestOptions.headers = { ...requestOptions.headers, ...headers };")
}

func writeCookieParams(w *Writer, params []requestcase.ParamData) {
	var cookies []string
	for _, p := range params {
		for _, pair := range encoding.CookiePairs(p) {
			cookies = append(cookies, stringLiteral(pair.Key+"="+pair.Value))
		}
	}
	if len(cookies) == 0 {
		return
	}
	writeCookieMerge(w, cookies)
}

// writeCookieMerge appends cookie expressions to any Cookie header already set.
func writeCookieMerge(w *Writer, cookies []string) {
	w.Printf("requestOptions.headers = { ...requestOptions.headers, Cookie: [requestOptions.headers?.Cookie, %s].filter((cookie) => cookie != undefined).join('; ') };",
		strings.Join(cookies, ", "))
}
