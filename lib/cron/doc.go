// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cron parses 5-field cron expressions and computes the next
// occurrence after a given time. It drives the daily catalog refresh.
//
// Supported syntax:
//
//	┌───────────── minute (0-59)
//	│ ┌───────────── hour (0-23)
//	│ │ ┌───────────── day of month (1-31)
//	│ │ │ ┌───────────── month (1-12)
//	│ │ │ │ ┌───────────── day of week (0-6, 0=Sunday)
//	│ │ │ │ │
//	* * * * *
//
// Each field supports single values (5), ranges (1-5), lists (1,3,5),
// steps (*/15, 1-30/5) and the wildcard. The shortcuts @hourly, @daily
// (alias @midnight) and @weekly are accepted. When both day fields are
// restricted a day matches if either does, as in Vixie cron.
//
// Schedules evaluate in UTC unless bound to a location with In. The item
// shop rotates at 00:00 UTC, so the default refresh schedule is written
// in UTC as well.
package cron
