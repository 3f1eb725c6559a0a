// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/shopbot/lib/config"
	"github.com/bureau-foundation/shopbot/lib/process"
	"github.com/bureau-foundation/shopbot/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		process.Fatal(err)
	}
}

// streams carries the process's standard streams so modes can be driven
// from tests.
type streams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	console := streams{stdin: stdin, stdout: stdout, stderr: stderr}

	mode := "run"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		mode, args = args[0], args[1:]
	}

	switch mode {
	case "run":
		return runBot(ctx, args, console)
	case "render":
		return runRender(ctx, args, console)
	case "keygen":
		return runKeygen(args, console)
	case "seal":
		return runSeal(args, console)
	case "version":
		fmt.Fprintf(stdout, "shopbot %s\n", version.Full())
		return nil
	case "help":
		printUsage(stderr)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("%w: unknown mode %q", process.ErrUsage, mode)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: shopbot [mode] [flags]

Modes:
  run      run the chat bot (default)
  render   fetch and render the catalog once to a file
  keygen   generate an age keypair for sealed tokens
  seal     seal a token from stdin to an age public key
  version  print version information

Run "shopbot <mode> --help" for the flags of a mode.
`)
}

// newFlagSet returns a flag set for mode whose errors are usage errors.
func newFlagSet(mode string, console streams) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("shopbot "+mode, pflag.ContinueOnError)
	flagSet.SetOutput(console.stderr)
	return flagSet
}

// parseFlags parses args and rejects positional arguments. A --help
// request is reported as errHelp so the caller can exit cleanly.
func parseFlags(flagSet *pflag.FlagSet, args []string) error {
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return fmt.Errorf("%w: %v", process.ErrUsage, err)
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", process.ErrUsage, flagSet.Arg(0))
	}
	return nil
}

var errHelp = errors.New("help requested")

// loadConfig loads --config when given, otherwise SHOPBOT_CONFIG or the
// defaults, and validates the result for mode.
func loadConfig(path string, mode config.Mode) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(mode); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
