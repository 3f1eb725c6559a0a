// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"sync"

	"github.com/bureau-foundation/shopbot/lib/digest"
)

// uploadMemo remembers the remote reference of the last uploaded image.
// One slot suffices: only the current image is ever sent.
type uploadMemo struct {
	mu        sync.Mutex
	digest    digest.Hash
	reference string
}

func (m *uploadMemo) get(d digest.Hash) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reference == "" || m.digest != d {
		return "", false
	}
	return m.reference, true
}

func (m *uploadMemo) set(d digest.Hash, reference string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.digest = d
	m.reference = reference
}

// forget clears the slot if it still holds d.
func (m *uploadMemo) forget(d digest.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.digest == d {
		m.reference = ""
	}
}
