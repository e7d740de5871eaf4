package testwriter

import (
	"fmt"
	"strings"
)

// Environment variables read by the generated tests.
const (
	EnvServer   = "CASEWRIGHT_API_SERVER"
	EnvAPIKey   = "CASEWRIGHT_API_KEY"
	EnvBearer   = "CASEWRIGHT_API_BEARER"
	EnvUser     = "CASEWRIGHT_API_USER"
	EnvPassword = "CASEWRIGHT_API_PASSWORD"
)

func writeDocstring(w *Writer, cfg *Config, testName string, caseCount int) {
	w.Println("/**")
	w.Printf(" * API tests for %s.", testName)
	w.Printf(" * Generated by casewright from %d request case(s); edits will be overwritten.", caseCount)
	if cfg.ValidateResponses {
		w.Printf(" * Responses are validated against %s.", docText(cfg.ResponsesPath))
	}
	w.Println(" */")
	w.Blank()
}

// docText keeps text on one line inside a block comment.
func docText(s string) string {
	s = lineTerminators.ReplaceAllString(s, " ")
	return strings.ReplaceAll(s, "*/", "*\\/")
}

func writeImports(w *Writer, cfg *Config, deps *Depends) {
	w.Println("import { test, expect as baseExpect, type APIRequestContext, type APIResponse } from '@playwright/test';")
	if deps.ValidateResponses() {
		w.Println("import { type ExecException, exec } from 'child_process';")
		w.Blank()
		w.Printf("const responsesPath = %s;", stringLiteral(cfg.ResponsesPath))
	}
	w.Blank()
}

func writeDeclarations(w *Writer, assertions AssertionEmitter, deps *Depends) {
	w.Println("type RequestOptions<T extends keyof APIRequestContext> = APIRequestContext[T] extends (")
	w.Indent()
	w.Println("url: never,")
	w.Println("options?: infer K,")
	w.Unindent()
	w.Println(") => unknown")
	w.Indent()
	w.Println("? NonNullable<K>")
	w.Println(": never;")
	w.Unindent()
	w.Blank()

	if deps.ValidateResponses() {
		writeExecShellCommand(w)
		w.Blank()
	}

	assertions.WriteMatchers(w, deps)
	w.Blank()

	writeCredentials(w, deps)

	if deps.Multipart() {
		w.Println("const filePart = (mimeType: string, buffer: Buffer) => ({ name: '', mimeType, buffer });")
		w.Blank()
	}

	writeServerResolver(w, deps)
}

func writeExecShellCommand(w *Writer) {
	w.Println("const execShellCommand = (command: string, stdinData: string) => {")
	w.Indent()
	w.Println("return new Promise<ExecException | undefined>((resolve) => {")
	w.Indent()
	w.Println("const child = exec(command, (error, stdout, stderr) => {")
	w.Indent()
	w.Println("if (error) {")
	w.Indent()
	w.Println("error.message = [stderr, stdout].filter((out) => out != '').join('\\n') || error.message;")
	w.Unindent()
	w.Println("}")
	w.Println("resolve(error ?? undefined);")
	w.Unindent()
	w.Println("});")
	w.Blank()
	w.Println("child.stdin?.write(stdinData);")
	w.Println("child.stdin?.end();")
	w.Unindent()
	w.Println("});")
	w.Unindent()
	w.Println("};")
}

func envAccessor(name, variable string) string {
	return fmt.Sprintf("const %s = () => process.env.%s ?? '';", name, variable)
}

func writeCredentials(w *Writer, deps *Depends) {
	if deps.APIKey() {
		w.Println(envAccessor("apiKey", EnvAPIKey))
		w.Blank()
	}
	if deps.HTTPBearer() {
		w.Println(envAccessor("apiBearer", EnvBearer))
		w.Println("const apiBearerCredentials = () => `Bearer ${apiBearer()}`;")
		w.Blank()
	}
	if deps.HTTPBasic() {
		w.Println(envAccessor("apiUser", EnvUser))
		w.Println(envAccessor("apiPassword", EnvPassword))
		w.Println("const asToken64 = (value: string) => Buffer.from(value, 'binary').toString('base64');")
		w.Println("const apiBasicCredentials = () => `Basic ${asToken64(`${apiUser()}:${apiPassword()}`)}`;")
		w.Blank()
	}
}

// writeServerResolver declares forTestServer. When every case names its
// server the resolver is a passthrough; otherwise the server can come from
// the environment, which also overrides the cases' own URIs.
func writeServerResolver(w *Writer, deps *Depends) {
	if !deps.Server() {
		w.Println("const forTestServer = (defaultUri: string) => defaultUri;")
		return
	}
	w.Println(envAccessor("apiServer", EnvServer))
	w.Blank()
	w.Println("const forTestServer = (defaultUri?: string) => {")
	w.Indent()
	w.Println("const testServer = apiServer();")
	w.Println("return defaultUri == undefined || testServer != ''")
	w.Indent()
	w.Println("? testServer")
	w.Println(": defaultUri;")
	w.Unindent()
	w.Unindent()
	w.Println("};")
}
