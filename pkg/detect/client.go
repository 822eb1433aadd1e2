// Package detect is the client of the external body measurement service.
package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/fitfinder/fitfinder/util/log"
	"github.com/google/uuid"
)

// DetectPath is the path of the measurement endpoint, relative to the service URL.
const DetectPath = "/detect/"

// Multipart layout the service expects.
const (
	FieldName   = "file"
	FileName    = "image.jpg"
	ContentType = "image/jpeg"
)

// RequestIDHeader carries the per-request ID used to correlate logs.
const RequestIDHeader = "X-Request-ID"

type Client struct {
	url    *url.URL
	client *http.Client
	token  func() string
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends "Authorization: Bearer <token>" when token returns a non-empty value.
func WithToken(token func() string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient returns a client for the service at _url. A nil client means http.DefaultClient.
func NewClient(_url string, client *http.Client, opts ...Option) (*Client, error) {
	u, err := url.Parse(_url)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid url: unsupported scheme %q", u.Scheme)
	}

	if client == nil {
		client = http.DefaultClient
	}

	c := &Client{url: u, client: client}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the full URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.url.JoinPath(DetectPath).String()
}

// Detect posts the image once. The body is read as JSON whatever the status
// code; only transport failures and non-JSON bodies are errors.
func (c *Client) Detect(ctx context.Context, req *Request) (*Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldName, FileName))
	h.Set("Content-Type", ContentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}

	if _, err = part.Write(req.Image); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	if err = writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set(RequestIDHeader, requestID)
	if c.token != nil {
		if token := c.token(); token != "" {
			request.Header.Set("Authorization", "Bearer "+token)
		}
	}

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	log.Debugf("detect %s: status %d, %d bytes", requestID, response.StatusCode, len(raw))

	res, err := parseResult(raw)
	if err != nil {
		return nil, err
	}
	if !res.Complete() {
		log.Printf("detect %s: incomplete response (status %d): %.200s", requestID, response.StatusCode, raw)
	}
	return res, nil
}

func parseResult(raw []byte) (*Result, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}

	res := &Result{}
	obj, ok := doc.(map[string]any)
	if !ok {
		return res, nil
	}
	res.HeightCM = number(obj["height_cm"])
	res.WidthCM = number(obj["width_cm"])
	return res, nil
}

func number(v any) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}
