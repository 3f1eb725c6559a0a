// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/bureau-foundation/shopbot/lib/secret"
)

// Keypair is an age x25519 keypair. The caller must Close it.
type Keypair struct {
	// PrivateKey is the AGE-SECRET-KEY-1... identity.
	PrivateKey *secret.Buffer

	// PublicKey is the age1... recipient.
	PublicKey string
}

// Close releases the private key memory.
func (k *Keypair) Close() error {
	if k.PrivateKey != nil {
		return k.PrivateKey.Close()
	}
	return nil
}

// GenerateKeypair generates a new age x25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age keypair: %w", err)
	}
	privateKey, err := secret.NewFromString(identity.String())
	if err != nil {
		return nil, fmt.Errorf("protecting private key: %w", err)
	}
	return &Keypair{
		PrivateKey: privateKey,
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// Encrypt seals plaintext to the given age1... recipients and returns
// base64 ciphertext.
func Encrypt(plaintext []byte, recipientKeys []string) (string, error) {
	if len(recipientKeys) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}

	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return "", fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipients...)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// Decrypt opens ciphertext (base64 or age armor) with identity, which
// may hold several identities and # comments as age identity files do.
// The plaintext is trimmed of surrounding whitespace. identity is
// borrowed, not closed.
func Decrypt(ciphertext string, identity *secret.Buffer) (*secret.Buffer, error) {
	identities, err := age.ParseIdentities(strings.NewReader(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}

	source, err := ciphertextReader(ciphertext)
	if err != nil {
		return nil, err
	}
	reader, err := age.Decrypt(source, identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	defer secret.Zero(plaintext)

	trimmed := bytes.TrimSpace(plaintext)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("sealed value is empty")
	}
	buffer, err := secret.NewFromBytes(trimmed)
	if err != nil {
		return nil, fmt.Errorf("protecting decrypted plaintext: %w", err)
	}
	return buffer, nil
}

// OpenFile reads the sealed file at sealedPath and decrypts it with the
// identity file at identityPath.
func OpenFile(sealedPath, identityPath string) (*secret.Buffer, error) {
	ciphertext, err := os.ReadFile(sealedPath)
	if err != nil {
		return nil, fmt.Errorf("reading sealed file: %w", err)
	}
	identity, err := secret.ReadFromPath(identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity %s: %w", identityPath, err)
	}
	defer identity.Close()

	token, err := Decrypt(string(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", sealedPath, err)
	}
	return token, nil
}

// ParsePublicKey validates an age1... recipient.
func ParsePublicKey(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("invalid age public key: %w", err)
	}
	return nil
}

func ciphertextReader(ciphertext string) (io.Reader, error) {
	trimmed := strings.TrimSpace(ciphertext)
	if strings.HasPrefix(trimmed, armor.Header) {
		return armor.NewReader(strings.NewReader(trimmed)), nil
	}
	raw, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 ciphertext: %w", err)
	}
	return bytes.NewReader(raw), nil
}
