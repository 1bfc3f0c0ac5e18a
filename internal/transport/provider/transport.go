package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCompletionTimeout is the hard ceiling of one completion request.
const DefaultCompletionTimeout = 5 * time.Second

// DefaultRelayURL is the text-extraction relay used by relay providers.
const DefaultRelayURL = "https://r.jina.ai/"

const maxBodyBytes = 1 << 20

var (
	errUnexpectedStatus    = errors.New("unexpected status")
	errForeignCallback     = errors.New("response for a foreign callback")
	errNoEmbeddedJSON      = errors.New("no embedded json")
	errUnrecognizedPayload = errors.New("unrecognized completion payload")
)

// Transport fetches an upstream URL and returns its decoded JSON payload.
type Transport interface {
	Get(ctx context.Context, rawURL string) (any, error)
}

// CompletionTransport performs callback-style completion requests over a native
// HTTP client. Every request carries a one-shot callback name that must wrap the
// response; the name is released when the call returns, whatever the outcome.
type CompletionTransport struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewCompletionTransport creates a completion transport. A non-positive timeout
// falls back to DefaultCompletionTimeout.
func NewCompletionTransport(client *http.Client, timeout time.Duration, userAgent string) *CompletionTransport {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}
	return &CompletionTransport{
		client:    client,
		timeout:   timeout,
		userAgent: userAgent,
		pending:   make(map[string]struct{}),
	}
}

// Get implements Transport.
func (t *CompletionTransport) Get(ctx context.Context, rawURL string) (any, error) {
	name := t.register()
	defer t.release(name)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	target, err := withQueryParam(rawURL, "callback", name)
	if err != nil {
		return nil, err
	}

	body, err := fetch(ctx, t.client, target, t.userAgent)
	if err != nil {
		return nil, err
	}

	payload, err := unwrapCallback(body, name)
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("decode completion payload: %w", err)
	}
	return v, nil
}

// Pending returns the number of in-flight callback registrations.
func (t *CompletionTransport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *CompletionTransport) register() string {
	name := "kw" + strings.ReplaceAll(uuid.NewString(), "-", "")
	t.mu.Lock()
	t.pending[name] = struct{}{}
	t.mu.Unlock()
	return name
}

func (t *CompletionTransport) release(name string) {
	t.mu.Lock()
	delete(t.pending, name)
	t.mu.Unlock()
}

// unwrapCallback extracts the argument of name(...). Bare JSON is accepted for
// upstreams that ignore the callback parameter.
func unwrapCallback(body []byte, name string) ([]byte, error) {
	s := strings.TrimSpace(string(body))
	s = strings.TrimPrefix(s, "/**/")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		return []byte(s), nil
	}

	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return nil, errUnrecognizedPayload
	}
	if strings.TrimSpace(s[:open]) != name {
		return nil, errForeignCallback
	}

	s = strings.TrimSuffix(s, ";")
	end := strings.LastIndexByte(s, ')')
	if end <= open {
		return nil, errUnrecognizedPayload
	}
	return []byte(s[open+1 : end]), nil
}

// RelayTransport routes requests through a text-extraction relay and digs the
// JSON payload out of the relay's mixed text answer.
type RelayTransport struct {
	client    *http.Client
	base      string
	userAgent string
}

// NewRelayTransport creates a relay transport. An empty base uses DefaultRelayURL.
func NewRelayTransport(client *http.Client, base, userAgent string) *RelayTransport {
	if client == nil {
		client = http.DefaultClient
	}
	if base == "" {
		base = DefaultRelayURL
	}
	return &RelayTransport{client: client, base: base, userAgent: userAgent}
}

// Get implements Transport.
func (t *RelayTransport) Get(ctx context.Context, rawURL string) (any, error) {
	body, err := fetch(ctx, t.client, t.base+rawURL, t.userAgent)
	if err != nil {
		return nil, err
	}
	return ExtractJSON(string(body))
}

var (
	relayHeaderRegex = regexp.MustCompile(`(?m)^(Title|URL Source|Markdown Content):.*$`)
	embeddedRegex    = regexp.MustCompile(`(?s)(\[.*\]|\{.*\})`)
)

// ExtractJSON pulls the outermost JSON array or object out of relay text.
// The scan is greedy: it spans from the first opening bracket to the last
// matching closing one.
func ExtractJSON(text string) (any, error) {
	text = relayHeaderRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	m := embeddedRegex.FindString(text)
	if m == "" {
		return nil, errNoEmbeddedJSON
	}

	var v any
	if err := json.Unmarshal([]byte(m), &v); err != nil {
		return nil, fmt.Errorf("decode relay payload: %w", err)
	}
	return v, nil
}

func fetch(ctx context.Context, client *http.Client, target, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.URL.Host, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w %d", errUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func withQueryParam(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
