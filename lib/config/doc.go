// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the shop bot.
//
// Configuration comes from a single file named by the --config flag
// (via [LoadFile]) or the SHOPBOT_CONFIG environment variable (via
// [Load]). The file is YAML; files ending in .json or .jsonc are read
// as JSON with comments and trailing commas allowed. Unknown keys are
// errors. Without a file, [Load] starts from [Default].
//
// A short list of environment variables overrides the file, for
// container deployments where secrets arrive through the environment:
// TELEGRAM_TOKEN, SHOPBOT_MATRIX_TOKEN, SHOPBOT_CATALOG_URL,
// SHOPBOT_SCHEDULE and SHOPBOT_LOG_LEVEL. Path fields expand ${VAR} and
// ${VAR:-default} after loading.
//
// Chat tokens are given inline, as a token_file, or as an age-sealed
// sealed_token_file plus identity_file; [TokenConfig.Open] returns the
// token in a [secret.Buffer] whichever form was used.
package config
