// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile replaces files so readers never see a partial
// write.
//
// [WriteFile] writes to a temporary file in the destination directory,
// fsyncs it, renames it into place and fsyncs the parent directory. A
// failure at any step removes the temporary file and leaves any
// previous file untouched. The render mode writes its JPEG this way so
// a web server or cron job picking up the file never serves a
// truncated image.
package atomicfile
