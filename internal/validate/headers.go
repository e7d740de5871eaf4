package validate

import (
	"bytes"
	"net/http"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ParseHeaders reads the header list written by the generated tests: a
// JSON array of single-member objects such as [{"x-rate-limit": "10"}].
// Names are grouped case-insensitively in order of appearance.
func ParseHeaders(data []byte) (http.Header, error) {
	h := http.Header{}
	if len(bytes.TrimSpace(data)) == 0 {
		return h, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("headers: invalid JSON")
	}
	list := gjson.ParseBytes(data)
	if !list.IsArray() {
		return nil, errors.New(`headers: expected an array of {"name": "value"} objects`)
	}

	var err error
	list.ForEach(func(_, entry gjson.Result) bool {
		if !entry.IsObject() {
			err = errors.Errorf("headers: entry %s is not an object", entry.Raw)
			return false
		}
		entry.ForEach(func(name, value gjson.Result) bool {
			h.Add(name.String(), value.String())
			return true
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}
