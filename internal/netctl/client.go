// Package netctl is the HTTP client behind the netctl command.
package netctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrAPI wraps error responses from the daemon.
var ErrAPI = errors.New("daemon error")

// Client talks to a running daemon.
type Client struct {
	resty *resty.Client
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// New creates a client for the daemon at opts.BaseURL.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.MaxRetries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	r := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("User-Agent", "netctl/1.0").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	r.SetTransport(retryClient.HTTPClient.Transport)

	return &Client{resty: r}
}

// apiError is the daemon's error body.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var failure apiError
	req := c.resty.R().SetContext(ctx).SetError(&failure)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		if failure.Error == "" {
			failure.Error = resp.Status()
		}
		return fmt.Errorf("%w: %s %s: %s", ErrAPI, method, path, failure.Error)
	}
	return nil
}

// Status returns bridge, view and event store state.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodGet, "/status", nil, &out)
}

// Feeds lists every feed with its status.
func (c *Client) Feeds(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodGet, "/feeds", nil, &out)
}

// Feed returns one feed's value and status.
func (c *Client) Feed(ctx context.Context, name string) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodGet, "/feeds/"+name, nil, &out)
}

// Refresh polls active feeds, or every feed with all.
func (c *Client) Refresh(ctx context.Context, all bool) error {
	return c.do(ctx, http.MethodPost, "/feeds/refresh", map[string]bool{"all": all}, nil)
}

// SetPollInterval changes the poll interval; zero stops polling.
func (c *Client) SetPollInterval(ctx context.Context, d time.Duration) error {
	return c.do(ctx, http.MethodPut, "/poll-interval", map[string]int64{"interval_ms": d.Milliseconds()}, nil)
}

// Send forwards a command to the host.
func (c *Client) Send(ctx context.Context, command string, args ...any) error {
	if args == nil {
		args = []any{}
	}
	return c.do(ctx, http.MethodPost, "/commands/"+command, map[string]any{"args": args}, nil)
}

// SelectTab switches tabs by URL hash.
func (c *Client) SelectTab(ctx context.Context, hash string) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodPost, "/views/select", map[string]string{"hash": hash}, &out)
}

// StopCapture halts capturing for good.
func (c *Client) StopCapture(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/capture/stop", nil, nil)
}

// Events returns stored log entries after seq.
func (c *Client) Events(ctx context.Context, since uint64) (map[string]any, error) {
	var out map[string]any
	path := "/events"
	if since > 0 {
		path += "?since=" + strconv.FormatUint(since, 10)
	}
	return out, c.do(ctx, http.MethodGet, path, nil, &out)
}

// Dump streams a log dump into w.
func (c *Client) Dump(ctx context.Context, w io.Writer, compression, comments string) error {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetQueryParams(map[string]string{"compression": compression, "comments": comments}).
		Get("/snapshot")
	if err != nil {
		return err
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		data, _ := io.ReadAll(body)
		var failure apiError
		if sonic.Unmarshal(data, &failure) != nil || failure.Error == "" {
			failure.Error = resp.Status()
		}
		return fmt.Errorf("%w: dump: %s", ErrAPI, failure.Error)
	}
	_, err = io.Copy(w, body)
	return err
}

// SaveDump asks the daemon to write a dump to its export directory and
// returns the path.
func (c *Client) SaveDump(ctx context.Context, comments string) (string, error) {
	var out struct {
		Path string `json:"path"`
	}
	err := c.do(ctx, http.MethodGet, "/snapshot?save=true&comments="+url.QueryEscape(comments), nil, &out)
	return out.Path, err
}

// LoadLog uploads a dump for viewing.
func (c *Client) LoadLog(ctx context.Context, r io.Reader, fileName, compression string) (map[string]any, error) {
	var (
		out     map[string]any
		failure apiError
	)
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"file": fileName, "compression": compression}).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(r).
		SetResult(&out).
		SetError(&failure).
		Post("/events/load")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: load: %s", ErrAPI, failure.Error)
	}
	return out, nil
}

// ParseArg turns a command-line argument into a command argument: valid
// JSON scalars keep their type, anything else is a string.
func ParseArg(s string) any {
	var v any
	if err := sonic.UnmarshalString(s, &v); err != nil {
		return s
	}
	switch v.(type) {
	case bool, float64, string:
		return v
	default:
		return s
	}
}
