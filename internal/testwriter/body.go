package testwriter

import (
	"fmt"

	"github.com/mark3labs/casewright/internal/encoding"
	"github.com/mark3labs/casewright/internal/requestcase"
)

// BodyEncoder renders a request body for one family of media types.
type BodyEncoder interface {
	EncodeBody(w *Writer, body *requestcase.MessageData, mediaType encoding.MediaRange, deps *Depends) error
}

// bodyEncoderFor selects the encoder for a media type base.
func bodyEncoderFor(mediaType encoding.MediaRange, converters *encoding.Registry) BodyEncoder {
	switch mediaType.Base() {
	case encoding.OctetStream:
		return binaryBody{}
	case encoding.FormURLEncoded:
		return formBody{}
	case encoding.MultipartForm:
		return multipartBody{converters: converters}
	default:
		return convertedBody{converters: converters}
	}
}

func writeBody(w *Writer, body *requestcase.MessageData, converters *encoding.Registry, deps *Depends) error {
	if body == nil {
		return nil
	}
	mediaType, err := encoding.ParseMediaRange(body.MediaType)
	if err != nil || mediaType.IsWildcard() {
		return &UnsupportedMediaTypeError{MediaType: body.MediaType}
	}
	return bodyEncoderFor(mediaType, converters).EncodeBody(w, body, mediaType, deps)
}

func writeContentType(w *Writer, mediaType encoding.MediaRange) {
	w.Printf("requestOptions.headers = { ...requestOptions.headers, 'content-type': %s };", stringLiteral(mediaType.String()))
}

// bytesOf returns the raw bytes to send for a value in a binary slot.
func bytesOf(v requestcase.DataValue) []byte {
	switch v.Type {
	case requestcase.BinaryType:
		return v.Bytes
	case requestcase.NullType:
		return nil
	default:
		return []byte(v.Text())
	}
}

type binaryBody struct{}

func (binaryBody) EncodeBody(w *Writer, body *requestcase.MessageData, mediaType encoding.MediaRange, _ *Depends) error {
	writeContentType(w, mediaType)
	writeBuffer(w, "requestOptions.data = ", bytesOf(body.Value), ";")
	return nil
}

type formBody struct{}

func (formBody) EncodeBody(w *Writer, body *requestcase.MessageData, _ encoding.MediaRange, _ *Depends) error {
	groups := encoding.GroupPairs(encoding.FormPairs(body.Value, body.Encodings))
	if len(groups) == 0 {
		return nil
	}
	w.Println("requestOptions.form = {")
	w.Indent()
	for _, g := range groups {
		key := propertyKey(g.Key)
		if len(g.Pairs) == 1 {
			w.Printf("%s: %s,", key, formValue(g.Pairs[0]))
			continue
		}
		w.Printf("%s: JSON.stringify([", key)
		w.Indent()
		for _, p := range g.Pairs {
			w.Printf("%s,", formValue(p))
		}
		w.Unindent()
		w.Println("]),")
	}
	w.Unindent()
	w.Println("};")
	return nil
}

func formValue(p encoding.Pair) string {
	if p.Null {
		return "''"
	}
	return stringLiteral(p.Value)
}

type multipartBody struct {
	converters *encoding.Registry
}

func (m multipartBody) EncodeBody(w *Writer, body *requestcase.MessageData, _ encoding.MediaRange, deps *Depends) error {
	deps.SetMultipart()
	// Only object values have parts; failure cases may carry anything else.
	if body.Value.Type != requestcase.ObjectType || len(body.Value.Props) == 0 {
		w.Println("requestOptions.multipart = {};")
		return nil
	}
	w.Println("requestOptions.multipart = {")
	w.Indent()
	for _, prop := range body.Value.Props {
		if err := m.writePart(w, prop, body.Encodings[prop.Name]); err != nil {
			return err
		}
	}
	w.Unindent()
	w.Println("};")
	return nil
}

func (m multipartBody) writePart(w *Writer, prop requestcase.Property, enc requestcase.EncodingData) error {
	raw := enc.ContentType
	if raw == "" {
		raw = defaultPartType(prop.Value)
	}
	contentType, err := encoding.ParseMediaRange(raw)
	if err != nil {
		return &UnsupportedMediaTypeError{MediaType: raw, Part: prop.Name}
	}
	key := propertyKey(prop.Name)

	switch contentType.Base() {
	case encoding.OctetStream:
		lead := fmt.Sprintf("%s: filePart(%s, ", key, stringLiteral(contentType.String()))
		writeBuffer(w, lead, bytesOf(prop.Value), "),")
		return nil
	case encoding.FormURLEncoded:
		w.Printf("%s: %s,", key, stringLiteral(encoding.ToForm(prop.Value)))
		return nil
	}

	c, ok := m.converters.Lookup(contentType)
	if !ok {
		return &UnsupportedMediaTypeError{MediaType: contentType.String(), Part: prop.Name}
	}
	data, err := c.Convert(prop.Value)
	if err != nil {
		return fmt.Errorf("part %q: %w", prop.Name, err)
	}
	w.Printf("%s: %s,", key, stringLiteral(data))
	return nil
}

// defaultPartType is the OpenAPI default content type of a multipart property.
func defaultPartType(v requestcase.DataValue) string {
	switch v.Type {
	case requestcase.ObjectType, requestcase.ArrayType:
		return encoding.JSON
	case requestcase.BinaryType:
		return encoding.OctetStream
	default:
		return encoding.TextPlain
	}
}

type convertedBody struct {
	converters *encoding.Registry
}

func (cb convertedBody) EncodeBody(w *Writer, body *requestcase.MessageData, mediaType encoding.MediaRange, _ *Depends) error {
	c, ok := cb.converters.Lookup(mediaType)
	if !ok {
		return &UnsupportedMediaTypeError{MediaType: mediaType.String()}
	}
	data, err := c.Convert(body.Value)
	if err != nil {
		return err
	}
	writeContentType(w, mediaType)
	w.Printf("requestOptions.data = %s;", stringLiteral(data))
	return nil
}
