package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/contracthttp/contract/schema"
)

// Client is a typed caller derived from an API descriptor. It mirrors the
// dispatcher: inputs are encoded against the declared schemas before the
// request, responses are decoded against the declared success or error
// schema after it. The client is stateless apart from its base URL and
// performs no caching or retries.
type Client struct {
	api     *API
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying transport (default http.DefaultClient).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient derives a client for the API, rooted at baseURL.
func NewClient(api *API, baseURL string, opts ...ClientOption) (*Client, error) {
	if err := api.Err(); err != nil {
		return nil, err
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	c := &Client{
		api:     api,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Result is a decoded response: the status that matched a declared success
// response and the typed value decoded against its schema.
type Result struct {
	Status int
	Header http.Header
	Value  any
}

// Call invokes a declared endpoint. Input maps are encoded against the
// endpoint's schemas; a value that fails its schema never leaves the
// process. Transport failures return a NetworkError; declared error
// responses return a HandlerError carrying the decoded error value; a
// status the declaration does not cover returns an UnexpectedStatusError.
func (c *Client) Call(ctx context.Context, group, endpoint string, in Input) (*Result, error) {
	ep, ok := c.api.endpoint(group, endpoint)
	if !ok {
		return nil, fmt.Errorf("no declared endpoint %s/%s", group, endpoint)
	}

	reqURL, err := c.buildURL(ep, in)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeRequestBody(ep, in.Payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, ep.method, reqURL, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if err := c.setHeaders(req, ep, in.Header); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: err}
	}
	defer func() {
		//nolint:errcheck,gosec // best-effort close
		resp.Body.Close()
	}()

	return c.decodeResponse(ep, resp)
}

// Group returns a view of the client scoped to one group.
func (c *Client) Group(name string) *GroupClient {
	return &GroupClient{client: c, group: name}
}

// GroupClient scopes calls to a single declared group.
type GroupClient struct {
	client *Client
	group  string
}

// Call invokes an endpoint of the scoped group.
func (g *GroupClient) Call(ctx context.Context, endpoint string, in Input) (*Result, error) {
	return g.client.Call(ctx, g.group, endpoint, in)
}

func (c *Client) buildURL(ep *Endpoint, in Input) (string, error) {
	params := map[string]any{}
	if ep.pathSchema != nil {
		encoded, err := ep.pathSchema.Encode(mapOrEmpty(in.Path))
		if err != nil {
			return "", err
		}
		params = encoded.(map[string]any)
	}

	path, err := ep.path.resolve(params)
	if err != nil {
		return "", err
	}

	u := c.baseURL + path

	if ep.querySchema != nil {
		encoded, err := ep.querySchema.Encode(mapOrEmpty(in.Query))
		if err != nil {
			return "", err
		}
		values, err := rawToValues(encoded.(map[string]any))
		if err != nil {
			return "", err
		}
		if len(values) > 0 {
			u += "?" + values.Encode()
		}
	}

	return u, nil
}

func (c *Client) setHeaders(req *http.Request, ep *Endpoint, header map[string]any) error {
	if ep.headerSchema == nil {
		return nil
	}
	encoded, err := ep.headerSchema.Encode(mapOrEmpty(header))
	if err != nil {
		return err
	}
	for name, v := range encoded.(map[string]any) {
		if v == nil {
			continue
		}
		str, err := schema.FormatScalar(v)
		if err != nil {
			return &schema.EncodingError{Field: name, Reason: err.Error()}
		}
		req.Header.Set(name, str)
	}
	return nil
}

// encodeRequestBody renders the payload in the endpoint's declared wire
// encoding.
func encodeRequestBody(ep *Endpoint, payload any) (io.Reader, string, error) {
	if !ep.hasPayload {
		return nil, "", nil
	}

	wire, err := ep.payload.Encode(payload)
	if err != nil {
		return nil, "", err
	}

	switch ep.payloadEncoding {
	case EncodingJSON:
		b, err := json.Marshal(wire)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(b), "application/json", nil

	case EncodingForm:
		values, err := rawToValues(wire.(map[string]any))
		if err != nil {
			return nil, "", err
		}
		return strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", nil

	case EncodingText:
		return strings.NewReader(wire.(string)), ep.payloadEncoding.contentType(ep.payload), nil

	case EncodingMultipart:
		return encodeMultipart(wire.(map[string]any))

	default:
		return nil, "", fmt.Errorf("unknown payload encoding %d", ep.payloadEncoding)
	}
}

func encodeMultipart(obj map[string]any) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	writeFile := func(name string, f *schema.FileValue) error {
		part, err := mw.CreateFormFile(name, f.Name)
		if err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer func() {
			//nolint:errcheck,gosec // best-effort close
			rc.Close()
		}()
		_, err = io.Copy(part, rc)
		return err
	}

	for name, v := range obj {
		switch val := v.(type) {
		case nil:
			continue
		case *schema.FileValue:
			if err := writeFile(name, val); err != nil {
				return nil, "", err
			}
		case []any:
			for _, item := range val {
				if f, ok := item.(*schema.FileValue); ok {
					if err := writeFile(name, f); err != nil {
						return nil, "", err
					}
					continue
				}
				str, err := schema.FormatScalar(item)
				if err != nil {
					return nil, "", &schema.EncodingError{Field: name, Reason: err.Error()}
				}
				if err := mw.WriteField(name, str); err != nil {
					return nil, "", err
				}
			}
		default:
			str, err := schema.FormatScalar(val)
			if err != nil {
				return nil, "", &schema.EncodingError{Field: name, Reason: err.Error()}
			}
			if err := mw.WriteField(name, str); err != nil {
				return nil, "", err
			}
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) decodeResponse(ep *Endpoint, resp *http.Response) (*Result, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: resp.Request.URL.String(), Err: err}
	}

	spec, ok := ep.successFor(resp.StatusCode)
	if !ok && len(ep.successes) == 0 && resp.StatusCode == http.StatusOK {
		// Mirror the dispatcher: no declared success means an untyped 200.
		spec, ok = ep.primarySuccess(), true
	}
	if ok {
		value, err := decodeResponseBody(spec, body)
		if err != nil {
			return nil, err
		}
		return &Result{Status: resp.StatusCode, Header: resp.Header, Value: value}, nil
	}

	if spec, ok := ep.errorFor(resp.StatusCode); ok {
		var value any
		if spec.schema != nil {
			var raw any
			if err := json.Unmarshal(body, &raw); err != nil {
				return nil, &schema.ValidationError{Expected: "valid JSON error body", Value: err.Error()}
			}
			value, err = spec.schema.Decode(raw)
			if err != nil {
				return nil, err
			}
		}
		return nil, &HandlerError{Status: resp.StatusCode, Value: value}
	}

	return nil, &UnexpectedStatusError{Status: resp.StatusCode, Body: body}
}

func decodeResponseBody(spec successSpec, body []byte) (any, error) {
	if spec.schema == nil {
		return nil, nil
	}

	switch spec.encoding {
	case EncodingText:
		return spec.schema.Decode(string(body))

	case EncodingForm:
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, &schema.ValidationError{Expected: "url-encoded response body", Value: err.Error()}
		}
		return spec.schema.Decode(valuesToRaw(values, spec.schema))

	default:
		var raw any
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, &schema.ValidationError{Expected: "valid JSON response body", Value: err.Error()}
		}
		return spec.schema.Decode(raw)
	}
}

func mapOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
