// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Shopbot answers chat requests for the current Fortnite item shop with
// a single rendered JPEG.
//
// The catalog is fetched and rendered once at startup and then on the
// configured cron schedule (03:00 daily by default). The latest image
// lives in memory; a failed refresh keeps serving the previous one.
// Until the first refresh succeeds, requests get a short "not ready"
// reply instead of an image.
//
// # Modes
//
//	shopbot [run]        run the bot (the default)
//	shopbot render       fetch and render once, write the JPEG to --out
//	shopbot keygen       print a new age keypair for sealing tokens
//	shopbot seal         seal a token read from stdin to --recipient
//	shopbot version      print version information
//
// # Transports
//
// Telegram runs when a bot token is configured (TELEGRAM_TOKEN or the
// telegram section of the config file). Matrix runs when
// matrix.homeserver_url is set. Both may run at once; they share the
// image cache. The optional HTTP endpoint (http.address) serves
// /healthz, /status and /catalog.jpg for monitoring.
//
// See package config for the file format and environment variables.
package main
