// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// ReadFromPath reads a token from path, or from stdin when path is "-".
// Surrounding whitespace is trimmed; an empty token is an error.
func ReadFromPath(path string) (*Buffer, error) {
	if path == "-" {
		return ReadLine(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fromTrimmed(data)
}

// ReadLine reads a token from the first line of reader.
func ReadLine(reader io.Reader) (*Buffer, error) {
	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading token: %w", err)
		}
		return nil, fmt.Errorf("no token on input")
	}
	return fromTrimmed(scanner.Bytes())
}

func fromTrimmed(data []byte) (*Buffer, error) {
	defer Zero(data)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret is empty")
	}
	return NewFromBytes(trimmed)
}
