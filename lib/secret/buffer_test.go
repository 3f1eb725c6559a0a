// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFromBytesZeroesSource(t *testing.T) {
	source := []byte("123456:telegram-bot-token")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != "123456:telegram-bot-token" {
		t.Errorf("String() = %q", got)
	}
	for index, value := range source {
		if value != 0 {
			t.Fatalf("source byte %d = %d after NewFromBytes, want 0", index, value)
		}
	}
	if buffer.Len() != len(source) {
		t.Errorf("Len() = %d, want %d", buffer.Len(), len(source))
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("New(0) should fail")
	}
	if _, err := NewFromString(""); err == nil {
		t.Error("NewFromString(\"\") should fail")
	}
}

func TestEqual(t *testing.T) {
	buffer, err := NewFromString("syt_matrix_token")
	if err != nil {
		t.Fatal(err)
	}
	defer buffer.Close()

	if !buffer.Equal([]byte("syt_matrix_token")) {
		t.Error("Equal should match identical contents")
	}
	if buffer.Equal([]byte("syt_matrix_tokeN")) {
		t.Error("Equal matched different contents")
	}
}

func TestCloseIsIdempotentAndPanicsOnRead(t *testing.T) {
	buffer, err := NewFromString("token")
	if err != nil {
		t.Fatal(err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if buffer.Len() != 0 {
		t.Errorf("Len() after Close = %d", buffer.Len())
	}

	defer func() {
		if recover() == nil {
			t.Fatal("Bytes after Close did not panic")
		}
	}()
	buffer.Bytes()
}

func TestReadFromPath(t *testing.T) {
	directory := t.TempDir()

	t.Run("trims whitespace", func(t *testing.T) {
		path := filepath.Join(directory, "token")
		if err := os.WriteFile(path, []byte("  abc:def\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		buffer, err := ReadFromPath(path)
		if err != nil {
			t.Fatalf("ReadFromPath: %v", err)
		}
		defer buffer.Close()
		if buffer.String() != "abc:def" {
			t.Errorf("token = %q, want %q", buffer.String(), "abc:def")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(directory, "empty")
		if err := os.WriteFile(path, []byte("\n\t "), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := ReadFromPath(path)
		if err == nil || !strings.Contains(err.Error(), "empty") {
			t.Fatalf("ReadFromPath(empty) error = %v, want empty error", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ReadFromPath(filepath.Join(directory, "absent")); err == nil {
			t.Fatal("ReadFromPath(absent) should fail")
		}
	})

	t.Run("first line of reader", func(t *testing.T) {
		buffer, err := ReadLine(strings.NewReader("line-token\nsecond line\n"))
		if err != nil {
			t.Fatal(err)
		}
		defer buffer.Close()
		if buffer.String() != "line-token" {
			t.Errorf("token = %q", buffer.String())
		}
	})
}
