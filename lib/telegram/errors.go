// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"fmt"
	"time"
)

// APIError is a Bot API failure response.
type APIError struct {
	// Code is the error_code field, usually the HTTP status.
	Code int
	// Description is the server's message.
	Description string
	// RetryAfter is set on 429 flood-control responses.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram: %d: %s (retry after %s)", e.Code, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram: %d: %s", e.Code, e.Description)
}
