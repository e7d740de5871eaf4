package requestcase

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// ValueType tags the variant held by a DataValue.
type ValueType int

const (
	NullType ValueType = iota
	BooleanType
	NumberType
	StringType
	ArrayType
	ObjectType
	BinaryType
)

func (t ValueType) String() string {
	switch t {
	case NullType:
		return "null"
	case BooleanType:
		return "boolean"
	case NumberType:
		return "number"
	case StringType:
		return "string"
	case ArrayType:
		return "array"
	case ObjectType:
		return "object"
	case BinaryType:
		return "binary"
	default:
		return "unknown"
	}
}

// DataValue is a resolved data value. Only the field matching Type is meaningful.
type DataValue struct {
	Type   ValueType
	Bool   bool
	Number string // textual number, kept verbatim to preserve precision
	Str    string
	Items  []DataValue
	Props  []Property // ordered
	Bytes  []byte
}

// Property is one named member of an object value.
type Property struct {
	Name  string
	Value DataValue
}

func Null() DataValue                    { return DataValue{Type: NullType} }
func Bool(b bool) DataValue              { return DataValue{Type: BooleanType, Bool: b} }
func Number(n string) DataValue          { return DataValue{Type: NumberType, Number: n} }
func String(s string) DataValue          { return DataValue{Type: StringType, Str: s} }
func Array(items ...DataValue) DataValue { return DataValue{Type: ArrayType, Items: items} }
func Object(props ...Property) DataValue { return DataValue{Type: ObjectType, Props: props} }
func Binary(b []byte) DataValue          { return DataValue{Type: BinaryType, Bytes: b} }

// Prop builds an object member.
func Prop(name string, v DataValue) Property { return Property{Name: name, Value: v} }

// IsNull reports whether the value is the null variant.
func (v DataValue) IsNull() bool { return v.Type == NullType }

// Lookup returns the named object member.
func (v DataValue) Lookup(name string) (DataValue, bool) {
	for _, p := range v.Props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return DataValue{}, false
}

// Text renders a scalar the way it appears in a URL or header before encoding.
// Binary values render as standard base64; collections render as JSON.
func (v DataValue) Text() string {
	switch v.Type {
	case NullType:
		return ""
	case BooleanType:
		if v.Bool {
			return "true"
		}
		return "false"
	case NumberType:
		return v.Number
	case StringType:
		return v.Str
	case BinaryType:
		return base64.StdEncoding.EncodeToString(v.Bytes)
	default:
		return v.JSON()
	}
}

// JSON renders the value as compact JSON with object members in declared order.
func (v DataValue) JSON() string {
	var b strings.Builder
	v.writeJSON(&b)
	return b.String()
}

func (v DataValue) writeJSON(b *strings.Builder) {
	switch v.Type {
	case NullType:
		b.WriteString("null")
	case BooleanType, NumberType:
		b.WriteString(v.Text())
	case StringType:
		writeJSONString(b, v.Str)
	case BinaryType:
		writeJSONString(b, v.Text())
	case ArrayType:
		b.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			item.writeJSON(b)
		}
		b.WriteByte(']')
	case ObjectType:
		b.WriteByte('{')
		for i, p := range v.Props {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSONString(b, p.Name)
			b.WriteByte(':')
			p.Value.writeJSON(b)
		}
		b.WriteByte('}')
	}
}

func writeJSONString(b *strings.Builder, s string) {
	// json.Marshal of a string cannot fail.
	enc, _ := json.Marshal(s)
	b.Write(enc)
}
