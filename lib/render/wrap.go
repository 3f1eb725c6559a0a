// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"strings"

	"golang.org/x/image/font"
)

// Wrap breaks text into lines no wider than maxWidth pixels when drawn
// in face. Words are separated by runs of whitespace and rejoined with
// single spaces. A line grows one word at a time; when the next word
// would make it wider than maxWidth the line is emitted and the word
// starts the next one. A word wider than maxWidth on its own occupies a
// line by itself and is never split. Blank text yields no lines.
func Wrap(text string, face font.Face, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if textWidth(face, candidate) > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}
