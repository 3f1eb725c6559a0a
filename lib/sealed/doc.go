// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed stores bot tokens encrypted at rest with age.
//
// An operator generates an x25519 keypair once ("shopbot keygen"), keeps
// the identity on the host, and seals each chat token to the public key
// ("shopbot seal"). The config then names the sealed file and the
// identity file instead of carrying a plaintext token. Sealed files hold
// either base64 ciphertext (what "shopbot seal" prints) or the ASCII
// armor produced by the age CLI.
//
// Identities and decrypted tokens are returned as [secret.Buffer] values.
package sealed
