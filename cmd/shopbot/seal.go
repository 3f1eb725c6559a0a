// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/shopbot/lib/process"
	"github.com/bureau-foundation/shopbot/lib/sealed"
	"github.com/bureau-foundation/shopbot/lib/secret"
)

// runKeygen prints a new age keypair. The private key goes to --out
// (mode 0600) or stdout; the public key always goes to stderr.
func runKeygen(args []string, console streams) error {
	var outPath string
	flagSet := newFlagSet("keygen", console)
	flagSet.StringVarP(&outPath, "out", "o", "", "write the identity to this file instead of stdout")
	if err := parseFlags(flagSet, args); err != nil {
		if errors.Is(err, errHelp) {
			return nil
		}
		return err
	}

	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		return err
	}
	defer keypair.Close()

	identity := fmt.Sprintf("# public key: %s\n%s\n", keypair.PublicKey, keypair.PrivateKey.String())
	if outPath == "" {
		fmt.Fprint(console.stdout, identity)
	} else {
		file, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			return fmt.Errorf("creating identity file: %w", err)
		}
		if _, err := file.WriteString(identity); err != nil {
			file.Close()
			return fmt.Errorf("writing identity file: %w", err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("writing identity file: %w", err)
		}
	}
	fmt.Fprintf(console.stderr, "Public key: %s\n", keypair.PublicKey)
	return nil
}

// runSeal reads a token from stdin (or --token-file) and prints it
// sealed to each --recipient.
func runSeal(args []string, console streams) error {
	var (
		recipients []string
		tokenPath  string
	)
	flagSet := newFlagSet("seal", console)
	flagSet.StringArrayVarP(&recipients, "recipient", "r", nil, "age public key to seal to (repeatable, required)")
	flagSet.StringVar(&tokenPath, "token-file", "-", "file holding the token, or - for stdin")
	if err := parseFlags(flagSet, args); err != nil {
		if errors.Is(err, errHelp) {
			return nil
		}
		return err
	}
	if len(recipients) == 0 {
		return fmt.Errorf("%w: at least one --recipient is required", process.ErrUsage)
	}
	for _, recipient := range recipients {
		if err := sealed.ParsePublicKey(recipient); err != nil {
			return fmt.Errorf("%w: %v", process.ErrUsage, err)
		}
	}

	var (
		token *secret.Buffer
		err   error
	)
	if tokenPath == "-" {
		token, err = readToken(console)
	} else {
		token, err = secret.ReadFromPath(tokenPath)
	}
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}
	defer token.Close()

	ciphertext, err := sealed.Encrypt(token.Bytes(), recipients)
	if err != nil {
		return err
	}
	fmt.Fprintln(console.stdout, ciphertext)
	return nil
}

// readToken reads one line from stdin, prompting without echo when
// stdin is a terminal.
func readToken(console streams) (*secret.Buffer, error) {
	file, ok := console.stdin.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return secret.ReadLine(console.stdin)
	}
	fmt.Fprint(console.stderr, "Token: ")
	data, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(console.stderr)
	if err != nil {
		return nil, err
	}
	defer secret.Zero(data)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("no token entered")
	}
	return secret.NewFromBytes(trimmed)
}
