// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains the streaming protocol client.
//
// # Architecture
//
//	Session → Client.Stream → HTTPClient → chunked response body
//	                              ↓
//	                        FrameSplitter → JSON decode → Callbacks
//
// The client performs exactly one exchange per call. It holds no
// conversation state; history, retry, and preemption are session concerns.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// =============================================================================
// HTTP Client Interface
// =============================================================================

// HTTPClient abstracts HTTP operations for the streaming client.
//
// # Description
//
// Production code uses defaultHTTPClient wrapping net/http. Tests inject a
// mock returning constructed responses, which keeps every protocol test
// independent of the network.
//
// # Assumptions
//
//   - Implementations honor context cancellation on the request and on
//     subsequent body reads.
//   - The caller closes the response body.
type HTTPClient interface {
	// PostWithHeaders sends a POST request with extra headers merged in.
	PostWithHeaders(ctx context.Context, url, contentType string, body io.Reader, headers map[string]string) (*http.Response, error)
}

// defaultHTTPClient implements HTTPClient over net/http.
//
// The underlying client carries no timeout: staleness detection is the
// caller's responsibility via the context, and a client-level deadline would
// kill long-lived streams mid-reply.
type defaultHTTPClient struct {
	client *http.Client
}

func (c *defaultHTTPClient) PostWithHeaders(ctx context.Context, url, contentType string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.client.Do(req)
}

// =============================================================================
// Client
// =============================================================================

// Client issues streaming chat exchanges against one endpoint.
//
// # Description
//
// Client is stateless between calls and safe for concurrent use; each
// Stream call owns its own splitter and read loop. Knows nothing about
// conversation history.
//
// # Fields
//
//   - client: HTTP transport (production or mock)
//   - chatURL: resolved {endpoint}/chat target
//
// # Examples
//
//	client := stream.NewClient("https://triage.example.com/api/")
//	outcome, err := client.Stream(ctx, req, headers, stream.Callbacks{
//	    OnText: func(s string) { fmt.Print(s) },
//	    OnDone: func() { fmt.Println() },
//	})
type Client struct {
	client  HTTPClient
	chatURL string
}

// NewClient creates a streaming client for the given endpoint.
//
// Trailing slashes on the endpoint are stripped before the /chat path is
// appended, so "https://host/api" and "https://host/api///" are equivalent.
func NewClient(endpoint string) *Client {
	return NewClientWithHTTPClient(endpoint, &defaultHTTPClient{client: &http.Client{}})
}

// NewClientWithHTTPClient creates a streaming client with an injected HTTP
// client. Use this constructor in tests.
func NewClientWithHTTPClient(endpoint string, client HTTPClient) *Client {
	return &Client{
		client:  client,
		chatURL: strings.TrimRight(endpoint, "/") + "/chat",
	}
}

// Stream performs one streaming exchange and dispatches events to cb.
//
// # Description
//
// POSTs the request, then reads the response body incrementally: each read
// feeds the frame splitter, each completed frame is prefix-stripped and
// JSON-decoded, and each decoded event is dispatched by type. Malformed
// JSON payloads are skipped without surfacing an error, because the
// upstream model may emit transient noise and that must not abort an
// otherwise-good stream.
//
// # Inputs
//
//   - ctx: Cancellation signal. Checked at every chunk boundary.
//   - req: Wire request. Marshalled as-is; DiagnosticContext nil becomes
//     an explicit JSON null.
//   - headers: Resolved auth headers, merged into the request.
//   - cb: Event callbacks. Nil fields are skipped.
//
// # Outputs
//
//   - Outcome: Done, Error (server-signaled), Cancelled, or Failed.
//   - error: Non-nil only for OutcomeFailed; *TransportError for non-2xx.
//
// # Limitations
//
//   - No internal timeout or deadline. Callers own staleness policy.
//   - Events after a terminal frame in the same chunk are discarded.
//
// # Assumptions
//
//   - The response body, when 2xx, is an event stream per the package doc.
func (c *Client) Stream(ctx context.Context, req Request, headers map[string]string, cb Callbacks) (Outcome, error) {
	if req.Messages == nil {
		// Serialize as [] rather than null.
		req.Messages = []Message{}
	}

	postBody, err := json.Marshal(req)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("marshal request: %w", err)
	}

	merged := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		merged[k] = v
	}
	merged["Accept"] = "text/event-stream"

	resp, err := c.client.PostWithHeaders(ctx, c.chatURL, "application/json", bytes.NewReader(postBody), merged)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeCancelled, nil
		}
		slog.Error("chat stream request failed", "url", c.chatURL, "error", err)
		return OutcomeFailed, fmt.Errorf("http post: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if readErr != nil {
			bodyBytes = nil
		}
		te := newTransportError(resp.StatusCode, bodyBytes)
		slog.Error("chat stream server returned error",
			"url", c.chatURL,
			"status_code", te.Status,
			"message", te.Message,
		)
		return OutcomeFailed, te
	}

	return c.readLoop(ctx, resp.Body, cb)
}

// readLoop consumes the response body chunk by chunk until a terminal event,
// end of stream, cancellation, or a read error.
func (c *Client) readLoop(ctx context.Context, body io.Reader, cb Callbacks) (Outcome, error) {
	splitter := NewFrameSplitter()
	buf := make([]byte, 4096)

	for {
		// Cancellation is observed at each chunk boundary and unwinds
		// without firing OnError or OnDone.
		if ctx.Err() != nil {
			return OutcomeCancelled, nil
		}

		n, err := body.Read(buf)
		if n > 0 {
			for _, frame := range splitter.Push(string(buf[:n])) {
				if outcome, terminal := c.dispatchFrame(frame, cb); terminal {
					return outcome, nil
				}
			}
		}
		if err == io.EOF {
			// Server closed without a terminal frame: synthesize the
			// completion so callers are never left hanging.
			if cb.OnDone != nil {
				cb.OnDone()
			}
			return OutcomeDone, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return OutcomeCancelled, nil
			}
			return OutcomeFailed, fmt.Errorf("read stream: %w", err)
		}
	}
}

// dispatchFrame decodes one complete frame and fires the matching callback.
// Returns the outcome and true when the frame was terminal.
func (c *Client) dispatchFrame(frame string, cb Callbacks) (Outcome, bool) {
	for _, payload := range framePayloads(frame) {
		var event Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			// Transient noise from the upstream model. Skip, don't abort.
			slog.Debug("skipping malformed stream payload", "error", err)
			continue
		}

		switch event.Type {
		case EventText:
			if event.Content != nil && cb.OnText != nil {
				cb.OnText(*event.Content)
			}
		case EventSummary:
			if event.Data != nil && cb.OnSummary != nil {
				cb.OnSummary(*event.Data)
			}
		case EventError:
			content := ""
			if event.Content != nil {
				content = *event.Content
			}
			if cb.OnError != nil {
				cb.OnError(content)
			}
			return OutcomeError, true
		case EventDone:
			if cb.OnDone != nil {
				cb.OnDone()
			}
			return OutcomeDone, true
		}
	}
	return OutcomeDone, false
}
