// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/bureau-foundation/shopbot/lib/sealed"
	"github.com/bureau-foundation/shopbot/lib/secret"
)

// TokenConfig names a chat token in one of three forms. Exactly one
// form may be used.
type TokenConfig struct {
	// Token is the token itself. Prefer the file forms outside of
	// development; the environment overrides set this field.
	Token string `yaml:"token"`

	// TokenFile holds the token in plain text ("-" reads stdin).
	TokenFile string `yaml:"token_file"`

	// SealedTokenFile holds the token encrypted with age, opened with
	// the identity in IdentityFile.
	SealedTokenFile string `yaml:"sealed_token_file"`
	IdentityFile    string `yaml:"identity_file"`
}

// Configured reports whether any token form is set.
func (t TokenConfig) Configured() bool {
	return t.Token != "" || t.TokenFile != "" || t.SealedTokenFile != ""
}

func (t TokenConfig) validate(section string) error {
	forms := 0
	for _, set := range []bool{t.Token != "", t.TokenFile != "", t.SealedTokenFile != ""} {
		if set {
			forms++
		}
	}
	if forms > 1 {
		return fmt.Errorf("%s: set only one of token, token_file and sealed_token_file", section)
	}
	if t.SealedTokenFile != "" && t.IdentityFile == "" {
		return fmt.Errorf("%s: sealed_token_file requires identity_file", section)
	}
	return nil
}

// Open returns the token. The caller must Close the buffer.
func (t TokenConfig) Open() (*secret.Buffer, error) {
	switch {
	case t.Token != "":
		return secret.NewFromString(t.Token)
	case t.TokenFile != "":
		buffer, err := secret.ReadFromPath(t.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("reading token file %s: %w", t.TokenFile, err)
		}
		return buffer, nil
	case t.SealedTokenFile != "":
		return sealed.OpenFile(t.SealedTokenFile, t.IdentityFile)
	default:
		return nil, fmt.Errorf("no token configured")
	}
}
