package testwriter

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mark3labs/casewright/internal/encoding"
	rc "github.com/mark3labs/casewright/internal/requestcase"
)

func render(t *testing.T, fn func(w *Writer) error) string {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := fn(w); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := w.Err(); err != nil {
		t.Fatalf("writer: %v", err)
	}
	return buf.String()
}

func encodeBody(deps *Depends, body *rc.MessageData) func(w *Writer) error {
	return func(w *Writer) error {
		return writeBody(w, body, encoding.DefaultRegistry(), deps)
	}
}

var hexByte = regexp.MustCompile(`0x([0-9a-f]{2})`)

func decodeByteLiterals(t *testing.T, src string) []byte {
	t.Helper()
	var out []byte
	for _, m := range hexByte.FindAllStringSubmatch(src, -1) {
		b, err := strconv.ParseUint(m[1], 16, 8)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, byte(b))
	}
	return out
}

func sequence(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return data
}

func TestBinaryBody_SingleLine(t *testing.T) {
	t.Parallel()
	data := sequence(40)
	got := render(t, encodeBody(NewDepends(false, false), &rc.MessageData{MediaType: "application/octet-stream", Value: rc.Binary(data)}))
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected content-type line and one buffer line, got:\n%s", got)
	}
	if lines[0] != "requestOptions.headers = { ...requestOptions.headers, 'content-type': 'application/octet-stream' };" {
		t.Fatalf("content-type line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "requestOptions.data = Buffer.from([0x00, 0x07,") || !strings.HasSuffix(lines[1], "]);") {
		t.Fatalf("buffer line = %q", lines[1])
	}
	if diff := cmp.Diff(data, decodeByteLiterals(t, lines[1])); diff != "" {
		t.Fatalf("bytes mismatch:\n%s", diff)
	}
}

func TestBinaryBody_MultiLineReconstructs(t *testing.T) {
	t.Parallel()
	data := sequence(4000)
	got := render(t, encodeBody(NewDepends(false, false), &rc.MessageData{MediaType: "application/octet-stream", Value: rc.Binary(data)}))
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	wantLines := 1 + 1 + (4000+bytesPerLine-1)/bytesPerLine + 1
	if len(lines) != wantLines {
		t.Fatalf("expected %d lines, got %d", wantLines, len(lines))
	}
	if lines[1] != "requestOptions.data = Buffer.from([" || lines[len(lines)-1] != "]);" {
		t.Fatalf("unexpected framing: %q ... %q", lines[1], lines[len(lines)-1])
	}
	if diff := cmp.Diff(data, decodeByteLiterals(t, strings.Join(lines[2:len(lines)-1], "\n"))); diff != "" {
		t.Fatalf("bytes mismatch:\n%s", diff)
	}
}

func TestByteSegments(t *testing.T) {
	t.Parallel()
	if got := byteSegments(nil); len(got) != 1 || got[0] != "" {
		t.Fatalf("empty input should give one empty segment, got %q", got)
	}
	segs := byteSegments(sequence(bytesPerLine + 1))
	if len(segs) != 2 || !strings.HasSuffix(segs[0], ",") || strings.HasSuffix(segs[1], ",") {
		t.Fatalf("unexpected segments %q", segs)
	}
}

func TestFormBody_GroupsRepeatedKeys(t *testing.T) {
	t.Parallel()
	body := &rc.MessageData{
		MediaType: "application/x-www-form-urlencoded",
		Value:     rc.Object(rc.Prop("a", rc.Number("1")), rc.Prop("a", rc.Number("2")), rc.Prop("a", rc.Null()), rc.Prop("b", rc.Null()), rc.Prop("x-y", rc.String("it's"))),
	}
	got := render(t, encodeBody(NewDepends(false, false), body))
	want := strings.Join([]string{
		"requestOptions.form = {",
		"  a: JSON.stringify([",
		"    '1',",
		"    '2',",
		"    '',",
		"  ]),",
		"  b: '',",
		`  'x-y': 'it\'s',`,
		"};",
		"",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}
}

func TestMultipartBody(t *testing.T) {
	t.Parallel()
	deps := NewDepends(false, false)
	body := &rc.MessageData{
		MediaType: "multipart/form-data",
		Value: rc.Object(
			rc.Prop("name", rc.String("x")),
			rc.Prop("file", rc.Binary([]byte{1, 2})),
			rc.Prop("meta", rc.Object(rc.Prop("a", rc.Number("1")))),
			rc.Prop("query", rc.Object(rc.Prop("q", rc.String("a b")))),
		),
		Encodings: map[string]rc.EncodingData{
			"query": {ContentType: "application/x-www-form-urlencoded"},
		},
	}
	got := render(t, encodeBody(deps, body))
	want := strings.Join([]string{
		"requestOptions.multipart = {",
		"  name: 'x',",
		"  file: filePart('application/octet-stream', Buffer.from([0x01, 0x02])),",
		`  meta: '{"a":1}',`,
		"  query: 'q=a+b',",
		"};",
		"",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("multipart mismatch (-want +got):\n%s", diff)
	}
	if !deps.Multipart() {
		t.Fatal("multipart body must set dependsMultipart")
	}
}

func TestMultipartBody_NonObjectIsEmpty(t *testing.T) {
	t.Parallel()
	deps := NewDepends(false, false)
	got := render(t, encodeBody(deps, &rc.MessageData{MediaType: "multipart/form-data", Value: rc.String("oops")}))
	if got != "requestOptions.multipart = {};\n" {
		t.Fatalf("got %q", got)
	}
}

func TestConvertedBody(t *testing.T) {
	t.Parallel()
	got := render(t, encodeBody(NewDepends(false, false), &rc.MessageData{
		MediaType: "application/vnd.api+json",
		Value:     rc.Object(rc.Prop("id", rc.Number("1")), rc.Prop("tags", rc.Array(rc.String("a")))),
	}))
	want := "requestOptions.headers = { ...requestOptions.headers, 'content-type': 'application/vnd.api+json' };\n" +
		`requestOptions.data = '{"id":1,"tags":["a"]}';` + "\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestUnsupportedMediaType(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := writeBody(NewWriter(&buf), &rc.MessageData{MediaType: "application/xml", Value: rc.String("<a/>")}, encoding.DefaultRegistry(), NewDepends(false, false))
	var ume *UnsupportedMediaTypeError
	if !errors.As(err, &ume) || ume.MediaType != "application/xml" {
		t.Fatalf("expected UnsupportedMediaTypeError, got %v", err)
	}

	err = writeBody(NewWriter(&buf), &rc.MessageData{
		MediaType: "multipart/form-data",
		Value:     rc.Object(rc.Prop("doc", rc.String("<a/>"))),
		Encodings: map[string]rc.EncodingData{"doc": {ContentType: "application/xml"}},
	}, encoding.DefaultRegistry(), NewDepends(false, false))
	if !errors.As(err, &ume) || ume.Part != "doc" {
		t.Fatalf("expected part-level UnsupportedMediaTypeError, got %v", err)
	}

	// a range cannot be sent as a request body
	err = writeBody(NewWriter(&buf), &rc.MessageData{MediaType: "application/*", Value: rc.String("x")}, encoding.DefaultRegistry(), NewDepends(false, false))
	if !errors.As(err, &ume) || ume.MediaType != "application/*" {
		t.Fatalf("expected UnsupportedMediaTypeError for a wildcard, got %v", err)
	}
}

func TestParams(t *testing.T) {
	t.Parallel()
	params := groupParams([]rc.ParamData{
		{Name: "id", Location: rc.Path, Value: rc.Number("10")},
		{Name: "item-id", Location: rc.Path, Value: rc.Null()},
		{Name: "q", Location: rc.Query, Value: rc.String("a b")},
		{Name: "skip", Location: rc.Query, Value: rc.Null()},
		{Name: "X-Trace", Location: rc.Header, Value: rc.String("abc")},
		{Name: "X-Gone", Location: rc.Header, Value: rc.Null()},
		{Name: "session", Location: rc.Cookie, Value: rc.String("s1")},
		{Name: "gone", Location: rc.Cookie, Value: rc.Null()},
	})
	got := render(t, func(w *Writer) error {
		writePathParams(w, params[rc.Path])
		writeURL(w, "/items/{id}/{item-id}", params[rc.Path])
		writeQueryParams(w, params[rc.Query])
		writeHeaderParams(w, params[rc.Header])
		writeCookieParams(w, params[rc.Cookie])
		return nil
	})
	want := strings.Join([]string{
		"const pathParams = {",
		"  id: '10',",
		"  'item-id': '',",
		"};",
		"const url = new URL(`${uri.pathname.replace(/\\/$/, '')}/items/${pathParams.id}/${pathParams['item-id']}`, uri);",
		"const queryParams = url.searchParams;",
		"queryParams.append('q', 'a b');",
		"// queryParams.append('skip', null);",
		"const headers = {",
		"  'X-Trace': 'abc',",
		"};",
		"requestOptions.headers = { ...requestOptions.headers, ...headers };",
		"requestOptions.headers = { ...requestOptions.headers, Cookie: [requestOptions.headers?.Cookie, 'session=s1'].filter((cookie) => cookie != undefined).join('; ') };",
		"",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestURL_UnboundPathVariable(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		params []rc.ParamData
		want   string
	}{
		{
			name: "no path params",
			want: "const url = new URL(`${uri.pathname.replace(/\\/$/, '')}/x/`, uri);\n",
		},
		{
			name:   "one of two bound",
			params: []rc.ParamData{{Name: "b", Location: rc.Path, Value: rc.String("2")}},
			want:   "const url = new URL(`${uri.pathname.replace(/\\/$/, '')}/x//${pathParams.b}`, uri);\n",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := "/x/{id}"
			if tc.params != nil {
				path = "/x/{a}/{b}"
			}
			got := render(t, func(w *Writer) error {
				writeURL(w, path, tc.params)
				return nil
			})
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestAuthDefs(t *testing.T) {
	t.Parallel()
	deps := NewDepends(false, false)
	got := render(t, func(w *Writer) error {
		return writeAuthDefs(w, []rc.AuthDef{
			{Scheme: rc.APIKey, Location: rc.Query, Name: "api_key"},
			{Scheme: rc.HTTPBearer, Location: rc.Header, Name: "Authorization"},
			{Scheme: rc.HTTPBasic, Location: rc.Cookie, Name: "basic"},
		}, deps)
	})
	want := strings.Join([]string{
		"url.searchParams.append('api_key', apiKey());",
		"requestOptions.headers = { ...requestOptions.headers, 'Authorization': apiBearerCredentials() };",
		"requestOptions.headers = { ...requestOptions.headers, Cookie: [requestOptions.headers?.Cookie, `basic=${apiBasicCredentials()}`].filter((cookie) => cookie != undefined).join('; ') };",
		"",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if !deps.APIKey() || !deps.HTTPBearer() || !deps.HTTPBasic() {
		t.Fatalf("auth flags not set: %v", deps.Flags())
	}
}

func TestAuthDef_InvalidLocation(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := writeAuthDef(NewWriter(&buf), rc.AuthDef{Scheme: rc.APIKey, Location: rc.Path, Name: "k"}, NewDepends(false, false))
	var iae *InvalidAuthLocationError
	if !errors.As(err, &iae) {
		t.Fatalf("expected InvalidAuthLocationError, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written, got %q", buf.String())
	}
}

func TestDependsSeal(t *testing.T) {
	t.Parallel()
	d := NewDepends(true, false)
	d.SetFailure()
	d.Seal()
	d.SetFailure()
	if err := d.Err(); err != nil {
		t.Fatalf("re-setting a set flag is not a violation: %v", err)
	}
	d.SetMultipart()
	if d.Multipart() {
		t.Fatal("sealed tracker must not change")
	}
	if err := d.Err(); err == nil || !strings.Contains(err.Error(), "dependsMultipart") {
		t.Fatalf("expected violation naming dependsMultipart, got %v", err)
	}
	if diff := cmp.Diff([]string{"dependsFailure", "validateResponses"}, d.Flags()); diff != "" {
		t.Fatalf("flags (-want +got):\n%s", diff)
	}
}

func TestStringLiteral(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"plain":     `'plain'`,
		"it's":      `'it\'s'`,
		"a\\b":      `'a\\b'`,
		"l1\nl2\t":  `'l1\nl2\t'`,
		"\x01":      `'\x01'`,
		"\u2028":   `'\u2028'`,
		"üñí":       `'üñí'`,
	}
	for in, want := range cases {
		if got := stringLiteral(in); got != want {
			t.Errorf("stringLiteral(%q) = %s, want %s", in, got, want)
		}
	}
	if got := templateText("a`b${c}\\"); got != "a\\`b\\${c}\\\\" {
		t.Errorf("templateText = %s", got)
	}
}
