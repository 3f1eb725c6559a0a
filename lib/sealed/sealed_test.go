// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"
	"filippo.io/age/armor"
)

func TestGenerateKeypair(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer keypair.Close()

	if !strings.HasPrefix(keypair.PrivateKey.String(), "AGE-SECRET-KEY-1") {
		t.Errorf("private key has unexpected prefix")
	}
	if err := ParsePublicKey(keypair.PublicKey); err != nil {
		t.Errorf("ParsePublicKey(%q): %v", keypair.PublicKey, err)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	defer keypair.Close()

	ciphertext, err := Encrypt([]byte("123456:ABC-telegram\n"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	token, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	defer token.Close()

	if token.String() != "123456:ABC-telegram" {
		t.Errorf("token = %q, want trimmed plaintext", token.String())
	}
}

func TestDecryptWrongIdentity(t *testing.T) {
	sender, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()
	other, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()

	ciphertext, err := Encrypt([]byte("token"), []string{sender.PublicKey})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decrypt(ciphertext, other.PrivateKey); err == nil {
		t.Fatal("Decrypt with the wrong identity should fail")
	}
}

func TestEncryptRequiresRecipient(t *testing.T) {
	if _, err := Encrypt([]byte("token"), nil); err == nil {
		t.Fatal("Encrypt with no recipients should fail")
	}
	if _, err := Encrypt([]byte("token"), []string{"age1notakey"}); err == nil {
		t.Fatal("Encrypt with a malformed recipient should fail")
	}
}

func TestOpenFileArmoredWithCommentedIdentity(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}

	var armored bytes.Buffer
	armorWriter := armor.NewWriter(&armored)
	writer, err := age.Encrypt(armorWriter, identity.Recipient())
	if err != nil {
		t.Fatal(err)
	}
	writer.Write([]byte("syt_matrix_access_token"))
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	if err := armorWriter.Close(); err != nil {
		t.Fatal(err)
	}

	directory := t.TempDir()
	sealedPath := filepath.Join(directory, "matrix.age")
	identityPath := filepath.Join(directory, "identity.txt")
	if err := os.WriteFile(sealedPath, armored.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	identityFile := "# created: 2026-10-18\n# public key: " + identity.Recipient().String() + "\n" + identity.String() + "\n"
	if err := os.WriteFile(identityPath, []byte(identityFile), 0o600); err != nil {
		t.Fatal(err)
	}

	token, err := OpenFile(sealedPath, identityPath)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer token.Close()
	if token.String() != "syt_matrix_access_token" {
		t.Errorf("token = %q", token.String())
	}
}

func TestOpenFileMissing(t *testing.T) {
	directory := t.TempDir()
	_, err := OpenFile(filepath.Join(directory, "absent.age"), filepath.Join(directory, "identity"))
	if err == nil || !strings.Contains(err.Error(), "reading sealed file") {
		t.Fatalf("OpenFile error = %v, want sealed file read error", err)
	}
}
