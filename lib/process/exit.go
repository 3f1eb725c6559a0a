// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrUsage marks errors caused by bad command-line input. They exit
// with status 2, as flag parsing errors conventionally do.
var ErrUsage = errors.New("usage error")

// Fatal writes "error: err" to stderr and exits with ExitCode(err).
func Fatal(err error) {
	report(os.Stderr, err)
	os.Exit(ExitCode(err))
}

// ExitCode maps an error from run() to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}

func report(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}
