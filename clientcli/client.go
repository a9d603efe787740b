package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultEndpoint is the base URL of the hosting service.
const DefaultEndpoint = "https://neocities.org"

const (
	listPath   = "/api/list"
	uploadPath = "/api/upload"
	deletePath = "/api/delete"
)

// Client performs operations against the hosting service's API.
// It holds no mutable state after construction and may be shared between goroutines.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type clientOptions struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*clientOptions)

// WithHTTPClient sets the HTTP client used as the base transport.
// The client is copied; its Transport gets wrapped to attach the API key
// and its CheckRedirect replaced so redirects are returned, not followed.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithTimeout sets an overall timeout on every request.
// Without it, requests run until the transport gives up.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithEndpoint points the client at a different base URL.
func WithEndpoint(endpoint string) Option {
	return func(o *clientOptions) {
		o.endpoint = endpoint
	}
}

// New creates a Client that authenticates every request with apiKey.
// It does not validate the key or touch the network; a bad key surfaces
// as an API error on the first call.
func New(apiKey string, opts ...Option) *Client {
	o := clientOptions{endpoint: DefaultEndpoint}
	for _, opt := range opts {
		opt(&o)
	}

	var base http.Client
	if o.httpClient != nil {
		base = *o.httpClient
	}
	if o.timeout > 0 {
		base.Timeout = o.timeout
	}
	// The key is attached on every hop, so redirects are never followed.
	base.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	base.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"}),
		Base:   base.Transport,
	}

	endpoint := o.endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: &base,
	}
}

// NewFromConfig creates a Client from a resolved Config.
func NewFromConfig(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Endpoint != "" {
		opts = append([]Option{WithEndpoint(cfg.Endpoint)}, opts...)
	}
	return New(cfg.APIKey, opts...), nil
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// List returns every file and directory in the account, in the order the
// service reports them.
func (c *Client) List(ctx context.Context) ([]RemoteFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+listPath, http.NoBody)
	if err != nil {
		return nil, requestError(err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	dec := json.NewDecoder(resp.Body)
	var res listResponse
	if err := dec.Decode(&res); err != nil {
		return nil, decodeError(err)
	}
	if res.Files == nil {
		return nil, decodeError(errMissingFiles)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, decodeError(errTrailingData)
	}

	return *res.Files, nil
}

// Push uploads every entry in a single multipart request.
// Destinations are checked before anything is read or sent; an entry
// without a file name fails the whole call with a KindPath error.
// Whether a request that fails midway leaves some files uploaded is up
// to the service.
func (c *Client) Push(ctx context.Context, entries []UploadEntry) error {
	contentType, body, err := encodeBatch(entries)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+uploadPath, body)
	if err != nil {
		return requestError(err)
	}
	req.Header.Set("Content-Type", contentType)

	return c.send(req)
}

// Delete removes every path in a single request. Directories are removed
// recursively by the service.
func (c *Client) Delete(ctx context.Context, paths []string) error {
	form := url.Values{}
	for _, p := range paths {
		form.Add("filenames[]", p)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+deletePath, strings.NewReader(form.Encode()))
	if err != nil {
		return requestError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.send(req)
}

// do runs one exchange and returns the response only if it was a 2xx.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if normErr := normalize(resp, err); normErr != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, normErr
	}
	return resp, nil
}

// send runs one exchange whose success body is not needed.
func (c *Client) send(req *http.Request) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}
