// Package apiclient is the typed client of the platform REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/session"
)

const DefaultTimeout = 30 * time.Second

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "edplatform_client_request_duration_seconds",
	Help:    "Duration of the requests made to the platform API.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "status"})

// Client talks to the platform API on behalf of the user signed in the store.
type Client struct {
	baseURL string
	store   session.Store
	guard   *session.ExpiryGuard
	http    *http.Client
}

// New returns a Client for baseURL. guard may be nil, then 401 responses only return errors.
func New(baseURL string, store session.Store, guard *session.ExpiryGuard, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: NormalizeBaseURL(baseURL),
		store:   store,
		guard:   guard,
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL always ends with a single slash.
func (c *Client) BaseURL() string { return c.baseURL }

// NormalizeBaseURL collapses trailing slashes into one.
func NormalizeBaseURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/") + "/"
}

// Params are the query parameters of a request.
// Slices repeat the key; nil values and empty strings are dropped.
type Params map[string]interface{}

func (p Params) encode() string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := make(url.Values)
	for _, k := range keys {
		v := reflect.ValueOf(p[k])
		if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
			continue
		}
		if v.Kind() == reflect.Ptr {
			v = v.Elem()
		}
		if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
			for i := 0; i < v.Len(); i++ {
				q.Add(k, fmt.Sprint(v.Index(i).Interface()))
			}
			continue
		}
		if s := fmt.Sprint(v.Interface()); s != "" {
			q.Add(k, s)
		}
	}
	return q.Encode()
}

// APIError is a non 2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []core.FieldError
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) > 0 {
		flds := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			flds = append(flds, f.Field+": "+f.Error)
		}
		msg += " (" + strings.Join(flds, "; ") + ")"
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, msg)
}

// Is matches the core sentinel errors for their status codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case core.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case core.ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case core.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// ValidationError returns the field errors of a 400 response as a core.ValidationError.
func (e *APIError) ValidationError() (*core.ValidationError, bool) {
	if e.StatusCode != http.StatusBadRequest || len(e.Fields) == 0 {
		return nil, false
	}
	return &core.ValidationError{Err: e, Fields: e.Fields}, true
}

// parseAPIError reads the error payloads of the API: {"error": msg}, {"detail": msg},
// or a map of field errors (string or list of strings per field).
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if len(apiErr.Message) > 200 {
			apiErr.Message = apiErr.Message[:200]
		}
		return apiErr
	}

	fields := make([]string, 0, len(payload))
	for k := range payload {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		switch v := payload[k].(type) {
		case string:
			if k == "error" || k == "detail" || k == "message" {
				if apiErr.Message == "" {
					apiErr.Message = v
				}
				continue
			}
			apiErr.Fields = append(apiErr.Fields, core.FieldError{Field: k, Error: v})
		case []interface{}:
			if len(v) > 0 {
				apiErr.Fields = append(apiErr.Fields, core.FieldError{Field: k, Error: fmt.Sprint(v[0])})
			}
		}
	}
	return apiErr
}

func (c *Client) newRequest(ctx context.Context, method, path string, query Params, body interface{}) (*http.Request, error) {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *Form:
		buf, ct, err := b.encode()
		if err != nil {
			return nil, errors.Wrap(err, "encoding multipart body")
		}
		reader, contentType = buf, ct
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, errors.Wrap(err, "encoding json body")
		}
		reader, contentType = bytes.NewReader(data), "application/json"
	}

	u := c.baseURL + strings.TrimLeft(path, "/")
	if qs := query.encode(); qs != "" {
		u += "?" + qs
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := session.AccessToken(c.store); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends a request and decodes the JSON response into out, when not nil.
func (c *Client) do(ctx context.Context, method, path string, query Params, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		requestDuration.WithLabelValues(method, "error").Observe(time.Since(start).Seconds())
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = res.Body.Close() }()
	requestDuration.WithLabelValues(method, strconv.Itoa(res.StatusCode)).Observe(time.Since(start).Seconds())

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "%s %s: reading response", method, path)
	}

	if res.StatusCode >= http.StatusBadRequest {
		if res.StatusCode == http.StatusUnauthorized && c.guard != nil {
			c.guard.HandleUnauthorized(req.Header.Get("Authorization") != "")
		}
		return parseAPIError(res.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "%s %s: decoding response", method, path)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query Params, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Object is an untyped JSON object, used by the endpoints the client only relays.
type Object map[string]interface{}

// call sends a request and decodes the response as T.
func call[T any](ctx context.Context, c *Client, method, path string, query Params, body interface{}) (T, error) {
	var out T
	err := c.do(ctx, method, path, query, body, &out)
	return out, err
}
