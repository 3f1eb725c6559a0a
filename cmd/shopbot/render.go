// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/shopbot/lib/atomicfile"
	"github.com/bureau-foundation/shopbot/lib/catalog"
	"github.com/bureau-foundation/shopbot/lib/clock"
	"github.com/bureau-foundation/shopbot/lib/config"
	"github.com/bureau-foundation/shopbot/lib/imagecache"
	"github.com/bureau-foundation/shopbot/lib/process"
)

// runRender fetches and renders the catalog once and writes the JPEG
// to --out ("-" for stdout). A summary goes to stderr.
func runRender(ctx context.Context, args []string, console streams) error {
	var (
		configPath string
		outPath    string
		quiet      bool
	)
	flagSet := newFlagSet("render", console)
	flagSet.StringVarP(&configPath, "config", "c", "", "config file (default: $SHOPBOT_CONFIG, else defaults plus environment)")
	flagSet.StringVarP(&outPath, "out", "o", "", "output JPEG path, or - for stdout (required)")
	flagSet.BoolVarP(&quiet, "quiet", "q", false, "do not print the summary")
	if err := parseFlags(flagSet, args); err != nil {
		if errors.Is(err, errHelp) {
			return nil
		}
		return err
	}
	if outPath == "" {
		return fmt.Errorf("%w: --out is required", process.ErrUsage)
	}

	cfg, err := loadConfig(configPath, config.ModeRender)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(console.stderr)
	if err != nil {
		return err
	}

	clk := clock.Real()
	chain, err := newPipeline(cfg, &http.Client{}, clk, logger)
	if err != nil {
		return err
	}
	defer chain.Close()

	snapshot, err := chain.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	fingerprint, err := snapshot.Fingerprint()
	if err != nil {
		return err
	}
	image, err := chain.renderer.Render(ctx, snapshot)
	if err != nil {
		return err
	}
	entry := imagecache.NewEntry(image, snapshot, fingerprint, clk.Now())

	if outPath == "-" {
		if _, err := console.stdout.Write(entry.Data); err != nil {
			return fmt.Errorf("writing image: %w", err)
		}
	} else if err := atomicfile.WriteFile(outPath, entry.Data, 0o644); err != nil {
		return fmt.Errorf("writing image: %w", err)
	}

	if !quiet {
		fmt.Fprintln(console.stderr, renderSummary(newSummaryStyles(console.stderr), snapshot, entry, outPath))
	}
	return nil
}

// maxCategoryLabel bounds the label column of the summary.
const maxCategoryLabel = 32

type summaryStyles struct {
	title lipgloss.Style
	label lipgloss.Style
	box   lipgloss.Style
}

// newSummaryStyles builds styles for w, which is usually stderr rather
// than the stdout lipgloss inspects by default.
func newSummaryStyles(w io.Writer) summaryStyles {
	renderer := lipgloss.NewRenderer(w, termenv.WithColorCache(true))
	return summaryStyles{
		title: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label: renderer.NewStyle().Foreground(lipgloss.Color("8")),
		box: renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
	}
}

// renderSummary describes a finished render for the terminal.
func renderSummary(styles summaryStyles, snapshot *catalog.Snapshot, entry *imagecache.Entry, outPath string) string {
	names := make([]string, len(snapshot.Categories))
	labelWidth := 0
	for index, category := range snapshot.Categories {
		names[index] = ansi.Truncate(category.Name, maxCategoryLabel, "…")
		labelWidth = max(labelWidth, lipgloss.Width(names[index]))
	}
	label := styles.label.Width(labelWidth + 2)

	var lines []string
	lines = append(lines, styles.title.Render(
		fmt.Sprintf("%d entries in %d categories", entry.Entries, entry.Categories)))
	for index, category := range snapshot.Categories {
		lines = append(lines, label.Render(names[index])+fmt.Sprintf("%d", len(category.Entries)))
	}
	lines = append(lines, "")

	destination := outPath
	if destination == "-" {
		destination = "stdout"
	}
	lines = append(lines, fmt.Sprintf("%s %dx%d JPEG, %s",
		destination, entry.Width, entry.Height, humanize.Bytes(uint64(len(entry.Data)))))
	lines = append(lines, styles.label.Render("digest "+entry.Digest.Short()))

	return styles.box.Render(strings.Join(lines, "\n"))
}
