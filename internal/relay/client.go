// Package relay performs the outbound call to the downstream conversion or
// order-registration API. Every transport-level outcome is classified into
// one of three results so the orchestrator can decide whether the sale may
// be recorded and whether the caller can safely retry.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Status classifies the outcome of a relay attempt.
type Status int

const (
	// Accepted: the remote API durably accepted the event.
	Accepted Status = iota
	// Rejected: the remote API was reachable but declined the payload.
	// Retrying the same payload will fail again.
	Rejected
	// TransportFailure: the request never got a remote verdict (timeout,
	// connection refused, reset). Safe to retry unmodified.
	TransportFailure
)

// String returns the status name for logs and error detail.
func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "transport_failure"
	}
}

// Result is the classified outcome of one relay attempt.
type Result struct {
	Status   Status
	Response json.RawMessage // remote body when Accepted
	Detail   string          // remote error when Rejected, cause when TransportFailure
}

// Options configures a Client for one downstream target.
type Options struct {
	// Endpoint is the full URL events are POSTed to, including any
	// credential carried as a query parameter.
	Endpoint string
	// CredentialHeader/Credential set an API credential header when the
	// target authenticates by header instead of query parameter.
	CredentialHeader string
	Credential       string
	Timeout          time.Duration
}

// Client posts composed payloads to a single downstream endpoint.
type Client struct {
	opts       Options
	httpClient *http.Client
}

// New returns a Client with a bounded request timeout.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		opts: opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

// ConversionEndpoint appends the access token to a conversion API base URL,
// which authenticates by query parameter. A base that does not parse is a
// configuration error and must fail at startup, not degrade into rejected
// relays.
func ConversionEndpoint(base, accessToken string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid conversion endpoint %q: %w", base, err)
	}
	q := u.Query()
	q.Set("access_token", accessToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Send posts the payload and classifies the outcome. No transport error
// escapes as a raw error; everything maps onto a Result.
func (c *Client) Send(ctx context.Context, body any) Result {
	raw, err := json.Marshal(body)
	if err != nil {
		return Result{Status: Rejected, Detail: fmt.Sprintf("encode payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(raw))
	if err != nil {
		return Result{Status: Rejected, Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.CredentialHeader != "" {
		req.Header.Set(c.opts.CredentialHeader, c.opts.Credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Status: TransportFailure, Detail: fmt.Sprintf("send request: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		// The remote verdict arrived but the body did not; without the
		// acknowledgment the attempt cannot be treated as accepted.
		return Result{Status: TransportFailure, Detail: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{Status: Accepted, Response: respBody}
	}

	return Result{
		Status: Rejected,
		Detail: fmt.Sprintf("remote status %d: %s", resp.StatusCode, string(respBody)),
	}
}
