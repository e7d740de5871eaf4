package encoding

import (
	"net/url"
	"strings"

	"github.com/mark3labs/casewright/internal/requestcase"
)

// FormPairs encodes an object body as application/x-www-form-urlencoded
// pairs, one property at a time, honouring per-property style and explode.
// Keys and values are not percent-encoded. Non-object bodies, which only
// failure cases carry, produce no pairs.
func FormPairs(v requestcase.DataValue, encodings map[string]requestcase.EncodingData) []Pair {
	if v.Type != requestcase.ObjectType {
		return nil
	}
	var pairs []Pair
	for _, prop := range v.Props {
		enc := encodings[prop.Name]
		style := enc.Style
		if style == "" {
			style = "form"
		}
		if prop.Value.IsNull() {
			pairs = append(pairs, Pair{Key: prop.Name, Null: true})
			continue
		}
		pairs = append(pairs, stylePairs(prop.Name, prop.Value, style, enc.IsExploded())...)
	}
	return pairs
}

// FormGroup collects the values of one key in first-appearance order.
type FormGroup struct {
	Key   string
	Pairs []Pair
}

// GroupPairs groups pairs sharing a key, keeping the order in which keys first appear.
func GroupPairs(pairs []Pair) []FormGroup {
	index := make(map[string]int, len(pairs))
	var groups []FormGroup
	for _, p := range pairs {
		i, ok := index[p.Key]
		if !ok {
			i = len(groups)
			index[p.Key] = i
			groups = append(groups, FormGroup{Key: p.Key})
		}
		groups[i].Pairs = append(groups[i].Pairs, p)
	}
	return groups
}

// ToForm renders a value as a url-encoded form string, as used for a
// multipart part declared with a form content type.
func ToForm(v requestcase.DataValue) string {
	if v.Type != requestcase.ObjectType {
		return url.QueryEscape(v.Text())
	}
	pairs := FormPairs(v, nil)
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}
