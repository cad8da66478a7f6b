package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/matheus3301/wppmcp/internal/metrics"
)

const (
	DefaultHost        = "localhost:8080"
	DefaultTimeout     = 30 * time.Second
	DefaultFileTimeout = 60 * time.Second

	// Bodies beyond this are cut before decoding; the bridge never sends
	// anything near it.
	maxBodyBytes = 8 << 20
)

// Kind classifies a failed bridge call.
type Kind string

const (
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindDecode    Kind = "decode"
	KindRemote    Kind = "remote"
)

// Error is returned for every failed bridge call. Message is the text shown
// to the caller.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Reply is the decoded JSON object the bridge answered with.
type Reply map[string]any

// String returns a top-level string field, or "" when absent.
func (r Reply) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	FileTimeout time.Duration
	HTTPClient  *http.Client
}

// Client talks to the bridge REST API. Each action is exactly one HTTP
// request; nothing is retried.
type Client struct {
	baseURL     string
	apiKey      string
	timeout     time.Duration
	fileTimeout time.Duration
	http        *http.Client
	log         *zap.Logger
}

// New creates a bridge client. Zero timeouts fall back to the defaults.
func New(opts Options, log *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL(DefaultHost)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.FileTimeout <= 0 {
		opts.FileTimeout = DefaultFileTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		timeout:     opts.Timeout,
		fileTimeout: opts.FileTimeout,
		http:        opts.HTTPClient,
		log:         log,
	}
}

// BaseURL builds the API root from a BRIDGE_HOST value. Port 8080 is
// assumed when host has none.
func BaseURL(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}
	if !strings.Contains(host, ":") {
		host += ":8080"
	}
	return "http://" + host + "/api"
}

// call describes one request. route is the path template used as the
// metrics label.
type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
	file   bool
}

func (c *Client) do(ctx context.Context, cl call) (reply Reply, err error) {
	timeout := c.timeout
	if cl.file {
		timeout = c.fileTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if cl.path == "" {
		cl.path = cl.route
	}
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("encode request: %v", err), Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("request error: %v", err), Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	start := time.Now()
	log := c.log.With(
		zap.String("request_id", reqID),
		zap.String("method", cl.method),
		zap.String("route", cl.route),
	)
	defer func() {
		metrics.BridgeRequestsTotal.WithLabelValues(cl.route, outcome(err)).Inc()
		metrics.BridgeRequestDuration.WithLabelValues(cl.route).Observe(time.Since(start).Seconds())
		if err != nil {
			log.Warn("bridge call failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
			return
		}
		log.Debug("bridge call", zap.Duration("duration", time.Since(start)))
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		msg := fmt.Sprintf("request error: %v", err)
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("request error: bridge did not answer within %s", timeout)
		}
		return nil, &Error{Kind: KindTransport, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Status: resp.StatusCode, Message: fmt.Sprintf("request error: read body: %v", err), Err: err}
	}
	return decode(resp.StatusCode, raw)
}

// decode maps a raw bridge answer onto a Reply or an *Error.
func decode(status int, raw []byte) (Reply, error) {
	if status < 200 || status > 299 {
		msg := bridgeMessage(raw)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d - %s", status, strings.TrimSpace(string(raw)))
		}
		return nil, &Error{Kind: KindStatus, Status: status, Message: msg}
	}

	if !gjson.ValidBytes(raw) {
		return nil, &Error{Kind: KindDecode, Status: status, Message: "malformed response: " + snippet(raw)}
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return Reply{"result": parsed.Value()}, nil
	}

	if ok := parsed.Get("success"); ok.Exists() && !ok.Bool() {
		msg := bridgeMessage(raw)
		if msg == "" {
			msg = "bridge reported failure"
		}
		return nil, &Error{Kind: KindRemote, Status: status, Message: msg}
	}

	var reply Reply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, &Error{Kind: KindDecode, Status: status, Message: "malformed response: " + snippet(raw), Err: err}
	}
	return reply, nil
}

func bridgeMessage(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return ""
	}
	for _, key := range []string{"error", "message"} {
		if v := gjson.GetBytes(raw, key); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		s = "empty body"
	}
	return s
}

func outcome(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return string(be.Kind)
	}
	return metrics.Outcome(err)
}
