// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON API response reads: 64 MB. The shop
// payload is a few megabytes at its largest.
const MaxResponseSize int64 = 64 << 20

// ErrTooLarge is returned by ReadLimited when the body exceeds the limit.
var ErrTooLarge = errors.New("response body exceeds size limit")

// ReadResponse reads a JSON API response body up to MaxResponseSize.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a body up to MaxResponseSize and JSON-decodes it
// into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ReadLimited reads body fully, failing with ErrTooLarge if it holds
// more than limit bytes.
func ReadLimited(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}

// ErrorBody reads an error response body for use in a diagnostic
// message. Read errors are ignored; a partial body is still useful.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	return string(data)
}
