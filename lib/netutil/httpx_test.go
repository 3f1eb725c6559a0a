// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"strings"
	"testing"
)

func TestReadLimited(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		limit   int64
		wantErr bool
	}{
		{"under", "abc", 4, false},
		{"exact", "abcd", 4, false},
		{"over", "abcde", 4, true},
		{"empty", "", 4, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := ReadLimited(strings.NewReader(test.body), test.limit)
			if test.wantErr {
				if !errors.Is(err, ErrTooLarge) {
					t.Fatalf("err = %v, want ErrTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != test.body {
				t.Errorf("data = %q, want %q", data, test.body)
			}
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	var target struct {
		Status int `json:"status"`
	}
	if err := DecodeResponse(strings.NewReader(`{"status":200}`), &target); err != nil {
		t.Fatal(err)
	}
	if target.Status != 200 {
		t.Errorf("Status = %d", target.Status)
	}
	if err := DecodeResponse(strings.NewReader(`{"status":`), &target); err == nil {
		t.Error("truncated JSON should fail to decode")
	}
}

func TestErrorBodyIsBounded(t *testing.T) {
	body := ErrorBody(strings.NewReader(strings.Repeat("x", 10000)))
	if len(body) != 4096 {
		t.Errorf("len(ErrorBody) = %d, want 4096", len(body))
	}
}
