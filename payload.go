package contract

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/contracthttp/contract/schema"
)

// maxMultipartMemory caps the in-memory buffer for multipart parsing; the
// remainder spills to temp files (32 MB).
const maxMultipartMemory = 32 << 20

// decodePayload reads and decodes the request body against the endpoint's
// payload declaration.
func decodePayload(r *http.Request, ep *Endpoint) (any, error) {
	if !ep.hasPayload {
		return nil, nil
	}

	switch ep.payloadEncoding {
	case EncodingJSON:
		var raw any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, &schema.ValidationError{Field: "", Expected: "valid JSON body", Value: err.Error()}
		}
		return ep.payload.Decode(raw)

	case EncodingForm:
		if err := r.ParseForm(); err != nil {
			return nil, &schema.ValidationError{Field: "", Expected: "url-encoded body", Value: err.Error()}
		}
		return ep.payload.Decode(valuesToRaw(r.PostForm, ep.payload))

	case EncodingMultipart:
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, &schema.ValidationError{Field: "", Expected: "multipart body", Value: err.Error()}
		}
		return ep.payload.Decode(multipartToRaw(r, ep.payload))

	case EncodingText:
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, &schema.ValidationError{Field: "", Expected: "text body", Value: err.Error()}
		}
		return ep.payload.Decode(string(b))

	default:
		return nil, fmt.Errorf("unknown payload encoding %d", ep.payloadEncoding)
	}
}

// valuesToRaw shapes url.Values into the raw form the schema expects:
// strings for scalar fields, []any for array fields, absent keys omitted.
func valuesToRaw(values url.Values, s *schema.Schema) map[string]any {
	raw := make(map[string]any)
	for _, f := range s.Fields() {
		vs, ok := values[f.Name()]
		if !ok || len(vs) == 0 {
			continue
		}
		if paramKind(f.Schema()) == schema.KindArray {
			items := make([]any, len(vs))
			for i, v := range vs {
				items[i] = v
			}
			raw[f.Name()] = items
			continue
		}
		raw[f.Name()] = vs[0]
	}
	return raw
}

// multipartToRaw shapes a parsed multipart form into raw schema input:
// scalar fields from form values, file fields as FileValue (or []any of
// FileValue for array-of-file fields). Parts with no declared field are
// ignored.
func multipartToRaw(r *http.Request, s *schema.Schema) map[string]any {
	raw := valuesToRaw(r.MultipartForm.Value, s)
	for _, f := range s.Fields() {
		headers := r.MultipartForm.File[f.Name()]
		if len(headers) == 0 {
			continue
		}
		if paramKind(f.Schema()) == schema.KindArray {
			items := make([]any, len(headers))
			for i, h := range headers {
				items[i] = fileFromHeader(h)
			}
			raw[f.Name()] = items
			continue
		}
		raw[f.Name()] = fileFromHeader(headers[0])
	}
	return raw
}

func fileFromHeader(h *multipart.FileHeader) *schema.FileValue {
	return schema.NewFileValue(h.Filename, h.Header.Get("Content-Type"), h.Size, func() (io.ReadCloser, error) {
		return h.Open()
	})
}

// paramKind unwraps optional wrappers when deciding how to shape raw input.
func paramKind(s *schema.Schema) schema.Kind {
	if s.Kind() == schema.KindOptional {
		return s.Elem().Kind()
	}
	return s.Kind()
}

// writeBody encodes a typed handler result against a response declaration
// and writes it. Encode failures are handler bugs and are reported to the
// caller as faults.
func writeBody(w http.ResponseWriter, spec successSpec, value any) error {
	if spec.schema == nil {
		w.WriteHeader(spec.status)
		return nil
	}

	wire, err := spec.schema.Encode(value)
	if err != nil {
		return err
	}

	switch spec.encoding {
	case EncodingText:
		w.Header().Set("Content-Type", spec.encoding.contentType(spec.schema))
		w.WriteHeader(spec.status)
		_, werr := io.WriteString(w, wire.(string))
		return werr

	case EncodingForm:
		obj, ok := wire.(map[string]any)
		if !ok {
			return &schema.EncodingError{Reason: fmt.Sprintf("url-encoded response requires an object, got %T", wire)}
		}
		values, err := rawToValues(obj)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", spec.encoding.contentType(spec.schema))
		w.WriteHeader(spec.status)
		_, werr := io.WriteString(w, values.Encode())
		return werr

	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(spec.status)
		//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
		json.NewEncoder(w).Encode(wire)
		return nil
	}
}

// rawToValues flattens an encoded object into url.Values.
func rawToValues(obj map[string]any) (url.Values, error) {
	values := make(url.Values, len(obj))
	for name, v := range obj {
		if v == nil {
			continue
		}
		if items, ok := v.([]any); ok {
			for _, item := range items {
				str, err := schema.FormatScalar(item)
				if err != nil {
					return nil, &schema.EncodingError{Field: name, Reason: err.Error()}
				}
				values.Add(name, str)
			}
			continue
		}
		str, err := schema.FormatScalar(v)
		if err != nil {
			return nil, &schema.EncodingError{Field: name, Reason: err.Error()}
		}
		values.Set(name, str)
	}
	return values, nil
}
