// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"strings"
)

// Command names.
const (
	CommandShop  = "shop"
	CommandStart = "start"
	CommandHelp  = "help"
)

// DefaultPrefix is the command sigil accepted besides "/".
const DefaultPrefix = "!"

// ParseCommand returns the lower-cased command name at the start of
// body, or "" when body is not a command. "/" always introduces a
// command; prefix (DefaultPrefix when empty) does too. A "@name"
// suffix addressed to a different bot than botName is not a command
// for this bot. Arguments after the command are ignored.
func ParseCommand(body, prefix, botName string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return ""
	}
	word := fields[0]
	switch {
	case strings.HasPrefix(word, "/"):
		word = word[1:]
	case strings.HasPrefix(word, prefix):
		word = word[len(prefix):]
	default:
		return ""
	}

	name, target, addressed := strings.Cut(word, "@")
	if addressed && botName != "" && !strings.EqualFold(target, botName) {
		return ""
	}
	return strings.ToLower(name)
}

// IsShowCatalog reports whether body is the show-catalog command.
func IsShowCatalog(body, prefix, botName string) bool {
	return ParseCommand(body, prefix, botName) == CommandShop
}
