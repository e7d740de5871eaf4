package testwriter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/casewright/internal/requestcase"
)

// AssertionEmitter renders response expectations: the matcher definitions
// in the preamble and the assertions of each case.
type AssertionEmitter interface {
	WriteMatchers(w *Writer, deps *Depends)
	WriteExpectations(w *Writer, c *requestcase.RequestCase, deps *Depends)
}

// DefaultValidatorCommand is the command the generated tests shell out to
// when response validation is enabled.
const DefaultValidatorCommand = "casewright"

// PlaywrightAssertions extends Playwright's expect with status and response
// validation matchers.
type PlaywrightAssertions struct {
	ValidatorCommand string
}

func (a PlaywrightAssertions) validator() string {
	if a.ValidatorCommand == "" {
		return DefaultValidatorCommand
	}
	return a.ValidatorCommand
}

func (a PlaywrightAssertions) WriteExpectations(w *Writer, c *requestcase.RequestCase, deps *Depends) {
	switch {
	case c.IsAuthFailure():
		deps.SetAuthFailure()
		writeComment(w, c.InvalidInput)
		w.Println("expect(response).toBeUnauthorized();")
	case c.IsFailure():
		deps.SetFailure()
		writeComment(w, c.InvalidInput)
		w.Println("expect(response).toBeBadRequest();")
	default:
		w.Println("expect(response).toBeSuccess();")
	}

	if deps.ValidateResponses() {
		op := stringLiteral(c.Operation)
		path := stringLiteral(c.Path)
		w.Printf("await expect(response).toBeValidHeaders(%s, %s);", op, path)
		w.Printf("await expect(response).toBeValidBody(%s, %s);", op, path)
	}
}

func (a PlaywrightAssertions) WriteMatchers(w *Writer, deps *Depends) {
	w.Println("const expect = baseExpect.extend({")
	w.Indent()
	writeStatusMatcher(w, "toBeSuccess", "response.status() >= 200 && response.status() < 300", "between 200-300")
	if deps.Failure() {
		writeStatusMatcher(w, "toBeBadRequest", "response.status() >= 400 && response.status() < 500", "between 400-500")
	}
	if deps.AuthFailure() {
		writeStatusMatcher(w, "toBeUnauthorized", "response.status() == 401", "401")
	}
	if deps.ValidateResponses() {
		writeValidMatcher(w, "toBeValidHeaders",
			fmt.Sprintf("`%s validate headers -r ${requestType} -p '${path}' -s ${response.status()} -h - ${responsesPath}`", templateText(a.validator())),
			"JSON.stringify(response.headersArray().map((header) => ({ [header.name]: header.value })))")
		writeValidMatcher(w, "toBeValidBody",
			fmt.Sprintf("`%s validate body -r ${requestType} -p '${path}' -s ${response.status()} -f \"${response.headers()['content-type'] ?? ''}\" -c - ${responsesPath}`", templateText(a.validator())),
			"(await response.body()).toString('utf-8')")
	}
	w.Unindent()
	w.Println("});")
}

func writeStatusMatcher(w *Writer, name, test, expected string) {
	w.Printf("%s(response: APIResponse) {", name)
	w.Indent()
	w.Printf("const assertionName = %s;", stringLiteral(name))
	w.Printf("const pass = %s;", test)
	w.Blank()
	w.Println("const message = () =>")
	w.Indent()
	w.Println("this.utils.matcherHint(assertionName, undefined, undefined, { isNot: this.isNot }) +")
	w.Println(`'\n\n' +`)
	w.Println("`Status Code: ${response.status()}\\n` +")
	w.Printf("`Expected: ${this.isNot ? 'not ' : ''}%s\\n`;", expected)
	w.Unindent()
	writeMatcherResult(w)
	w.Unindent()
	w.Println("},")
}

func writeValidMatcher(w *Writer, name, command, stdin string) {
	w.Printf("async %s(response: APIResponse, requestType: string, path: string) {", name)
	w.Indent()
	w.Println("let pass = true;")
	w.Println("let message = () => '';")
	w.Printf("const assertionName = %s;", stringLiteral(name))
	w.Println("try {")
	w.Indent()
	w.Println("const result = await execShellCommand(")
	w.Indent()
	w.Printf("%s,", command)
	w.Println(stdin)
	w.Unindent()
	w.Println(");")
	w.Println("pass = !result;")
	w.Println("message = () =>")
	w.Indent()
	w.Println("this.utils.matcherHint(assertionName, undefined, undefined, { isNot: this.isNot }) +")
	w.Println(`'\n\n' +`)
	w.Println("(result?.message ?? '');")
	w.Unindent()
	w.Unindent()
	w.Println("} catch (e) {")
	w.Indent()
	w.Println("pass = false;")
	w.Println("message = () => (e instanceof Error ? e.message : String(e));")
	w.Unindent()
	w.Println("}")
	w.Blank()
	writeMatcherResult(w)
	w.Unindent()
	w.Println("},")
}

func writeMatcherResult(w *Writer) {
	w.Println("return {")
	w.Indent()
	w.Println("message,")
	w.Println("pass,")
	w.Println("name: assertionName,")
	w.Unindent()
	w.Println("};")
}

// lineTerminators are the sequences that end a TypeScript line comment.
var lineTerminators = regexp.MustCompile("\r\n|[\n\r\u2028\u2029]")

// writeComment writes text as line comments, one per line of text.
func writeComment(w *Writer, text string) {
	for _, line := range lineTerminators.Split(text, -1) {
		if line = strings.TrimSpace(line); line != "" {
			w.Printf("// %s", line)
		}
	}
}
