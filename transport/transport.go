// Package transport is a thin shell around the downstream publish channel
// that accepted (or quarantined) canonical envelopes get forwarded to. It
// is explicitly outside the admission core: the core only produces a
// Decision and canonical bytes, and never itself does network I/O.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// PublishAck is the downstream publisher's response to one publish
// request.
type PublishAck struct {
	Accepted       bool   `json:"accepted"`
	Persisted      bool   `json:"persisted"`
	StreamSequence int64  `json:"stream_sequence"`
	ErrorCode      string `json:"error_code"`
	ErrorMessage   string `json:"error_message"`
}

// Publisher forwards canonical envelope bytes to a named subject (accepted
// events go to the main stream, rejected ones to the quarantine subject).
type Publisher interface {
	Publish(ctx context.Context, canonicalEnvelope []byte, subject string, correlationID string, requirePersistedAck bool) (PublishAck, error)
}

type publishRequest struct {
	CanonicalEnvelope   []byte `json:"canonical_envelope"`
	Subject             string `json:"subject"`
	CorrelationID       string `json:"correlation_id"`
	RequirePersistedAck bool   `json:"require_persisted_ack"`
}

// Client publishes over a newline-delimited-JSON protocol on a Unix domain
// socket. It stands in for the heavier RPC transport a production
// deployment would use; the wire shape (one JSON request, one JSON
// response, newline-terminated) is the thinnest shell that still exercises
// a real connect/write/read/timeout cycle.
type Client struct {
	target  string
	timeout time.Duration
	dial    func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewClient builds a Client targeting a "unix://<path>" or "unix:<path>"
// socket URI, with per-call timeoutMS milliseconds.
func NewClient(target string, timeoutMS int) *Client {
	return &Client{
		target:  target,
		timeout: time.Duration(timeoutMS) * time.Millisecond,
		dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, address)
		},
	}
}

// Publish sends one request and reads back exactly one JSON response line.
func (c *Client) Publish(ctx context.Context, canonicalEnvelope []byte, subject, correlationID string, requirePersistedAck bool) (PublishAck, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx, "unix", socketPath(c.target))
	if err != nil {
		return PublishAck{}, fmt.Errorf("transport: dial %s: %w", c.target, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	req := publishRequest{
		CanonicalEnvelope:   canonicalEnvelope,
		Subject:             subject,
		CorrelationID:       correlationID,
		RequirePersistedAck: requirePersistedAck,
	}
	encoded, err := json.Marshal(req)
	if err != nil {
		return PublishAck{}, fmt.Errorf("transport: encode request: %w", err)
	}
	if _, err := conn.Write(append(encoded, '\n')); err != nil {
		return PublishAck{}, fmt.Errorf("transport: write: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return PublishAck{}, fmt.Errorf("transport: read response: %w", err)
	}
	var ack PublishAck
	if err := json.Unmarshal(line, &ack); err != nil {
		return PublishAck{}, fmt.Errorf("transport: decode response: %w", err)
	}
	return ack, nil
}

// socketPath strips a "unix://" or "unix:" scheme prefix, since
// net.Dialer.DialContext for the "unix" network wants a bare filesystem path.
func socketPath(target string) string {
	switch {
	case len(target) >= 7 && target[:7] == "unix://":
		return target[7:]
	case len(target) >= 5 && target[:5] == "unix:":
		return target[5:]
	default:
		return target
	}
}
