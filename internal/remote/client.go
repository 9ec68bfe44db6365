package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ClientConfig configures HTTPStore.
type ClientConfig struct {
	BaseURL string
	// Token is sent as a bearer token when set.
	Token        string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultClientConfig returns conservative defaults for a remote service.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:      baseURL,
		Timeout:      10 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 250 * time.Millisecond,
	}
}

// HTTPStore is a DocumentStore talking to the document service.
type HTTPStore struct {
	cfg    ClientConfig
	http   *http.Client
	logger *slog.Logger
}

func NewHTTPStore(cfg ClientConfig, logger *slog.Logger) *HTTPStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPStore{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		logger: logger.With("component", "remote"),
	}
}

func (c *HTTPStore) Get(ctx context.Context, uid string) (*Envelope, error) {
	return c.call(ctx, http.MethodGet, uid, nil)
}

func (c *HTTPStore) Put(ctx context.Context, uid string, env Envelope) (*Envelope, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshaling envelope: %w", err)
	}
	return c.call(ctx, http.MethodPut, uid, data)
}

// Available reports whether the service answers its health check.
func (c *HTTPStore) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// statusError is a non-2xx response. missing is set when the service
// confirmed that the document does not exist.
type statusError struct {
	code    int
	body    string
	missing bool
}

func (e *statusError) Error() string {
	return fmt.Sprintf("document service returned status %d: %s", e.code, e.body)
}

func (c *HTTPStore) call(ctx context.Context, method, uid string, body []byte) (*Envelope, error) {
	start := time.Now()
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	var lastErr error
	attempts := 1 + max(c.cfg.MaxRetries, 0)
	for i := 0; i < attempts; i++ {
		if i > 0 && !c.backoff(ctx) {
			break
		}
		env, err := c.doRequest(ctx, method, uid, body)
		if err == nil {
			c.logger.DebugContext(ctx, "remote call", "method", method, "uid", uid,
				"attempt", i+1, "latency_ms", time.Since(start).Milliseconds())
			return env, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}

	c.logger.DebugContext(ctx, "remote call failed", "method", method, "uid", uid,
		"latency_ms", time.Since(start).Milliseconds(), "error", lastErr)
	return nil, classify(ctx, lastErr)
}

func (c *HTTPStore) backoff(ctx context.Context) bool {
	if c.cfg.RetryBackoff <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(c.cfg.RetryBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *HTTPStore) doRequest(ctx context.Context, method, uid string, body []byte) (*Envelope, error) {
	endpoint := c.cfg.BaseURL + "/v1/planner-states/" + url.PathEscape(uid)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{
			code:    resp.StatusCode,
			body:    strings.TrimSpace(string(respBody)),
			missing: resp.Header.Get(HeaderDocumentStatus) == documentMissing,
		}
	}

	var env Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &env, nil
}

// retryable reports whether err may succeed on another attempt: connection
// failures and 5xx responses.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return isConnectionError(err)
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ErrTimeout
	}
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.code == http.StatusNotFound && se.missing:
			return ErrNotFound
		case se.code == http.StatusUnauthorized || se.code == http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, se)
		case se.code >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, se)
		default:
			return fmt.Errorf("%w: %v", ErrRejected, se)
		}
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
