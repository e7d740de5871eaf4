package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rc "github.com/mark3labs/casewright/internal/requestcase"
)

func boolp(b bool) *bool { return &b }

func TestParseMediaRange(t *testing.T) {
	t.Parallel()
	mr, err := ParseMediaRange(`Application/Vnd.API+JSON; Charset="UTF-8"`)
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.api+json", mr.Base())
	assert.Equal(t, "json", mr.Suffix)
	assert.Equal(t, "UTF-8", mr.Params["charset"])
	assert.Equal(t, "application/vnd.api+json; charset=UTF-8", mr.String())

	_, err = ParseMediaRange("json")
	require.Error(t, err)

	wild := MustParseMediaRange("application/*")
	assert.True(t, wild.IsWildcard())
	assert.True(t, wild.Matches(MustParseMediaRange("application/json")))
	assert.False(t, wild.Matches(MustParseMediaRange("text/plain")))
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()
	reg := DefaultRegistry()

	c, ok := reg.Lookup(MustParseMediaRange("application/json; charset=utf-8"))
	require.True(t, ok)
	out, err := c.Convert(rc.Object(rc.Prop("b", rc.Number("2")), rc.Prop("a", rc.String("x"))))
	require.NoError(t, err)
	assert.Equal(t, `{"b":2,"a":"x"}`, out)

	_, ok = reg.Lookup(MustParseMediaRange("application/problem+json"))
	assert.True(t, ok, "+json suffix should resolve to the JSON converter")

	c, ok = reg.Lookup(MustParseMediaRange("text/plain"))
	require.True(t, ok)
	out, err = c.Convert(rc.Number("42"))
	require.NoError(t, err)
	assert.Equal(t, "42", out)

	_, ok = reg.Lookup(MustParseMediaRange("application/xml"))
	assert.False(t, ok)
}

func TestPathValue(t *testing.T) {
	t.Parallel()
	arr := rc.Array(rc.Number("3"), rc.Number("4"))
	obj := rc.Object(rc.Prop("r", rc.Number("1")), rc.Prop("g", rc.String("a b")))
	cases := []struct {
		name string
		p    rc.ParamData
		want string
	}{
		{"simple scalar", rc.ParamData{Name: "id", Value: rc.Number("5")}, "5"},
		{"simple escapes", rc.ParamData{Name: "id", Value: rc.String("a/b c")}, "a%2Fb%20c"},
		{"simple array", rc.ParamData{Name: "id", Value: arr}, "3,4"},
		{"simple object explode", rc.ParamData{Name: "id", Exploded: boolp(true), Value: obj}, "r=1,g=a%20b"},
		{"simple object", rc.ParamData{Name: "id", Value: obj}, "r,1,g,a%20b"},
		{"label array", rc.ParamData{Name: "id", Style: "label", Value: arr}, ".3,4"},
		{"label array explode", rc.ParamData{Name: "id", Style: "label", Exploded: boolp(true), Value: arr}, ".3.4"},
		{"matrix scalar", rc.ParamData{Name: "id", Style: "matrix", Value: rc.Number("5")}, ";id=5"},
		{"matrix array explode", rc.ParamData{Name: "id", Style: "matrix", Exploded: boolp(true), Value: arr}, ";id=3;id=4"},
		{"matrix object explode", rc.ParamData{Name: "id", Style: "matrix", Exploded: boolp(true), Value: obj}, ";r=1;g=a%20b"},
		{"null", rc.ParamData{Name: "id", Value: rc.Null()}, ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tc.p.Location = rc.Path
			assert.Equal(t, tc.want, PathValue(tc.p))
		})
	}
}

func TestQueryPairs(t *testing.T) {
	t.Parallel()
	arr := rc.Array(rc.String("a"), rc.String("b"))
	obj := rc.Object(rc.Prop("x", rc.Number("1")), rc.Prop("y", rc.Null()))

	assert.Equal(t, []Pair{{Key: "q", Value: "a"}, {Key: "q", Value: "b"}},
		QueryPairs(rc.ParamData{Name: "q", Location: rc.Query, Value: arr}))
	assert.Equal(t, []Pair{{Key: "q", Value: "a,b"}},
		QueryPairs(rc.ParamData{Name: "q", Location: rc.Query, Exploded: boolp(false), Value: arr}))
	assert.Equal(t, []Pair{{Key: "q", Value: "a b"}},
		QueryPairs(rc.ParamData{Name: "q", Location: rc.Query, Style: "spaceDelimited", Exploded: boolp(false), Value: arr}))
	assert.Equal(t, []Pair{{Key: "q", Value: "a|b"}},
		QueryPairs(rc.ParamData{Name: "q", Location: rc.Query, Style: "pipeDelimited", Exploded: boolp(false), Value: arr}))
	assert.Equal(t, []Pair{{Key: "q[x]", Value: "1"}, {Key: "q[y]", Null: true}},
		QueryPairs(rc.ParamData{Name: "q", Location: rc.Query, Style: "deepObject", Value: obj}))
	assert.Equal(t, []Pair{{Key: "x", Value: "1"}, {Key: "y", Null: true}},
		QueryPairs(rc.ParamData{Name: "q", Location: rc.Query, Value: obj}))
	assert.Equal(t, []Pair{{Key: "q", Null: true}},
		QueryPairs(rc.ParamData{Name: "q", Location: rc.Query, Value: rc.Null()}))
	assert.Equal(t, []Pair{{Key: "q"}},
		QueryPairs(rc.ParamData{Name: "q", Location: rc.Query, Value: rc.Array()}))
}

func TestHeaderAndCookie(t *testing.T) {
	t.Parallel()
	v, ok := HeaderValue(rc.ParamData{Name: "X-Ids", Location: rc.Header, Value: rc.Array(rc.Number("1"), rc.Number("2"))})
	require.True(t, ok)
	assert.Equal(t, "1,2", v)

	_, ok = HeaderValue(rc.ParamData{Name: "X-Ids", Location: rc.Header, Value: rc.Null()})
	assert.False(t, ok)

	v, ok = HeaderValue(rc.ParamData{Name: "X-Bin", Location: rc.Header, Value: rc.Binary([]byte{0xff})})
	require.True(t, ok)
	assert.Equal(t, "/w==", v)

	assert.Empty(t, CookiePairs(rc.ParamData{Name: "c", Location: rc.Cookie, Value: rc.Null()}))
	assert.Equal(t, []Pair{{Key: "c", Value: "1"}, {Key: "c", Value: "2"}},
		CookiePairs(rc.ParamData{Name: "c", Location: rc.Cookie, Value: rc.Array(rc.Number("1"), rc.Number("2"))}))
	assert.Equal(t, []Pair{{Key: "c", Value: "1,2"}},
		CookiePairs(rc.ParamData{Name: "c", Location: rc.Cookie, Exploded: boolp(false), Value: rc.Array(rc.Number("1"), rc.Number("2"))}))
}

func TestFormPairsGrouping(t *testing.T) {
	t.Parallel()
	body := rc.Object(
		rc.Prop("a", rc.Number("1")),
		rc.Prop("b", rc.Null()),
		rc.Prop("a", rc.Number("2")),
		rc.Prop("c", rc.Array(rc.String("x"), rc.String("y"))),
	)
	groups := GroupPairs(FormPairs(body, map[string]rc.EncodingData{
		"c": {Style: "form", Exploded: boolp(false)},
	}))

	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, []Pair{{Key: "a", Value: "1"}, {Key: "a", Value: "2"}}, groups[0].Pairs)
	assert.Equal(t, []Pair{{Key: "b", Null: true}}, groups[1].Pairs)
	assert.Equal(t, []Pair{{Key: "c", Value: "x,y"}}, groups[2].Pairs)

	assert.Empty(t, FormPairs(rc.String("not an object"), nil))
}

func TestToForm(t *testing.T) {
	t.Parallel()
	got := ToForm(rc.Object(rc.Prop("name", rc.String("a b")), rc.Prop("tags", rc.Array(rc.String("x"), rc.String("y&z")))))
	assert.Equal(t, "name=a+b&tags=x&tags=y%26z", got)
	assert.Equal(t, "plain+text", ToForm(rc.String("plain text")))
}
