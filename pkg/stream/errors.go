// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"encoding/json"
	"fmt"
)

// TransportError reports a non-2xx HTTP response from the chat endpoint.
//
// Message is taken from a "message" field in the response body when the
// server provides one, otherwise it is derived from the status code. Use
// errors.As to recover the typed error from a Stream call:
//
//	var te *TransportError
//	if errors.As(err, &te) {
//	    fmt.Println(te.Status, te.Message)
//	}
type TransportError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (status %d): %s", e.Status, e.Message)
}

// newTransportError builds a TransportError from a response status and body.
func newTransportError(status int, body []byte) *TransportError {
	if len(body) > 0 {
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
			return &TransportError{Status: status, Message: payload.Message}
		}
	}
	return &TransportError{Status: status, Message: statusMessage(status)}
}

// statusMessage maps an HTTP status to a user-facing message when the
// server body carries none.
func statusMessage(status int) string {
	switch {
	case status == 404:
		return "Chat endpoint not found"
	case status == 401 || status == 403:
		return "Authentication error"
	case status >= 500:
		return "Server error"
	default:
		return fmt.Sprintf("Request failed (%d)", status)
	}
}
