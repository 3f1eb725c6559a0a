// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/shopbot/lib/catalog"
	"github.com/bureau-foundation/shopbot/lib/cron"
	"github.com/bureau-foundation/shopbot/lib/ref"
	"github.com/bureau-foundation/shopbot/lib/render"
)

// EnvConfig names the environment variable Load reads the config path
// from.
const EnvConfig = "SHOPBOT_CONFIG"

// Environment overrides.
const (
	EnvTelegramToken = "TELEGRAM_TOKEN"
	EnvMatrixToken   = "SHOPBOT_MATRIX_TOKEN"
	EnvCatalogURL    = "SHOPBOT_CATALOG_URL"
	EnvSchedule      = "SHOPBOT_SCHEDULE"
	EnvLogLevel      = "SHOPBOT_LOG_LEVEL"
)

// DefaultSchedule refreshes once a day at 03:00.
const DefaultSchedule = "0 3 * * *"

// Config is the complete bot configuration.
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog"`
	Render   RenderConfig   `yaml:"render"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Telegram TelegramConfig `yaml:"telegram"`
	Matrix   MatrixConfig   `yaml:"matrix"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
}

// CatalogConfig configures the catalog fetch.
type CatalogConfig struct {
	// URL is the catalog endpoint. Default: catalog.DefaultURL.
	URL string `yaml:"url"`

	// Language is passed as the language query parameter when set.
	Language string `yaml:"language"`

	// Timeout bounds the catalog request. Default: 30s.
	Timeout Duration `yaml:"timeout"`
}

// RenderConfig configures image rendering.
type RenderConfig struct {
	// FontPath is a TrueType/OpenType file. Empty uses the built-in
	// Go Bold face.
	FontPath string `yaml:"font_path"`

	// Quality is the JPEG quality, 1 to 100. Default: 90.
	Quality int `yaml:"quality"`

	// IconTimeout bounds one icon download. Default: 15s.
	IconTimeout Duration `yaml:"icon_timeout"`

	// IconConcurrency bounds parallel icon downloads. Default: 8.
	IconConcurrency int `yaml:"icon_concurrency"`
}

// RefreshConfig configures the refresh schedule.
type RefreshConfig struct {
	// Schedule is a five-field cron expression or @daily-style
	// shortcut. Default: DefaultSchedule.
	Schedule string `yaml:"schedule"`

	// Timezone is the IANA zone Schedule is evaluated in. Default: Local.
	Timezone string `yaml:"timezone"`

	// Timeout bounds one refresh. Default: 2m.
	Timeout Duration `yaml:"timeout"`
}

// TelegramConfig configures the Telegram transport. It is enabled when
// a token is configured.
type TelegramConfig struct {
	TokenConfig `yaml:",inline"`

	// APIURL overrides the Bot API base URL.
	APIURL string `yaml:"api_url"`

	// PollTimeout is the getUpdates long-poll wait. Default: 30s.
	PollTimeout Duration `yaml:"poll_timeout"`
}

// Enabled reports whether the Telegram transport should run.
func (t TelegramConfig) Enabled() bool { return t.Configured() }

// MatrixConfig configures the Matrix transport. It is enabled when
// HomeserverURL is set.
type MatrixConfig struct {
	HomeserverURL string `yaml:"homeserver_url"`

	// UserID is the bot's full Matrix user ID.
	UserID string `yaml:"user_id"`

	// The access token, in any TokenConfig form. When no token is
	// configured, PasswordFile is used to log in.
	TokenConfig `yaml:",inline"`

	// PasswordFile holds the account password for login.
	PasswordFile string `yaml:"password_file"`

	// CommandPrefix is accepted besides "/". Default: "!".
	CommandPrefix string `yaml:"command_prefix"`

	// Rooms are joined at startup and restrict where the bot answers.
	Rooms []string `yaml:"rooms"`

	// SyncTimeout is the /sync long-poll wait. Default: 30s.
	SyncTimeout Duration `yaml:"sync_timeout"`
}

// Enabled reports whether the Matrix transport should run.
func (m MatrixConfig) Enabled() bool { return m.HomeserverURL != "" }

// RoomIDs parses Rooms.
func (m MatrixConfig) RoomIDs() ([]ref.RoomID, error) {
	roomIDs := make([]ref.RoomID, 0, len(m.Rooms))
	for _, raw := range m.Rooms {
		roomID, err := ref.ParseRoomID(raw)
		if err != nil {
			return nil, fmt.Errorf("matrix.rooms: %w", err)
		}
		roomIDs = append(roomIDs, roomID)
	}
	return roomIDs, nil
}

// HTTPConfig configures the status endpoint.
type HTTPConfig struct {
	// Address is the listen address, e.g. "127.0.0.1:9090". Empty
	// disables the endpoint.
	Address string `yaml:"address"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error. Default: info.
	Level string `yaml:"level"`

	// Format is text or json. Default: text.
	Format string `yaml:"format"`
}

// Mode selects which checks Validate applies.
type Mode int

const (
	// ModeBot runs the chat transports and needs at least one.
	ModeBot Mode = iota
	// ModeRender renders once to a file and needs no transport.
	ModeRender
)

// Default returns the configuration used before the file and
// environment are applied.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			URL:     catalog.DefaultURL,
			Timeout: Duration(catalog.DefaultTimeout),
		},
		Render: RenderConfig{
			Quality:         render.DefaultQuality,
			IconTimeout:     Duration(15 * time.Second),
			IconConcurrency: 8,
		},
		Refresh: RefreshConfig{
			Schedule: DefaultSchedule,
			Timeout:  Duration(2 * time.Minute),
		},
		Telegram: TelegramConfig{
			PollTimeout: Duration(30 * time.Second),
		},
		Matrix: MatrixConfig{
			CommandPrefix: "!",
			SyncTimeout:   Duration(30 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads the file named by SHOPBOT_CONFIG, or Default() plus the
// environment overrides when the variable is unset.
func Load() (*Config, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return LoadFile(path)
	}
	cfg := Default()
	cfg.applyEnvironment()
	return cfg, nil
}

// LoadFile loads configuration from path, then applies variable
// expansion and the environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg.expandVariables()
	cfg.applyEnvironment()
	return cfg, nil
}

// loadFile decodes one file into c. JSON is a subset of YAML, so
// .json and .jsonc files go through the same strict decoder after
// comments and trailing commas are stripped.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnvironment() {
	if value := os.Getenv(EnvTelegramToken); value != "" {
		c.Telegram.TokenConfig = TokenConfig{Token: value}
	}
	if value := os.Getenv(EnvMatrixToken); value != "" {
		c.Matrix.TokenConfig = TokenConfig{Token: value}
	}
	if value := os.Getenv(EnvCatalogURL); value != "" {
		c.Catalog.URL = value
	}
	if value := os.Getenv(EnvSchedule); value != "" {
		c.Refresh.Schedule = value
	}
	if value := os.Getenv(EnvLogLevel); value != "" {
		c.Log.Level = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	for _, field := range []*string{
		&c.Render.FontPath,
		&c.Telegram.TokenFile,
		&c.Telegram.SealedTokenFile,
		&c.Telegram.IdentityFile,
		&c.Matrix.TokenFile,
		&c.Matrix.SealedTokenFile,
		&c.Matrix.IdentityFile,
		&c.Matrix.PasswordFile,
	} {
		*field = expandVars(*field)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate(mode Mode) error {
	var errs []error

	if parsed, err := url.Parse(c.Catalog.URL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		errs = append(errs, fmt.Errorf("catalog.url must be an http or https URL: %q", c.Catalog.URL))
	}
	if c.Catalog.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("catalog.timeout must be positive"))
	}
	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		errs = append(errs, fmt.Errorf("render.quality must be between 1 and 100, got %d", c.Render.Quality))
	}
	if c.Render.IconConcurrency < 1 {
		errs = append(errs, fmt.Errorf("render.icon_concurrency must be at least 1"))
	}
	if _, err := c.Refresh.Trigger(); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if c.Telegram.Enabled() {
		if err := c.Telegram.validate("telegram"); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Matrix.Enabled() {
		if _, err := ref.ParseUserID(c.Matrix.UserID); err != nil {
			errs = append(errs, fmt.Errorf("matrix.user_id: %w", err))
		}
		if c.Matrix.Configured() {
			if err := c.Matrix.validate("matrix"); err != nil {
				errs = append(errs, err)
			}
		} else if c.Matrix.PasswordFile == "" {
			errs = append(errs, fmt.Errorf("matrix needs a token, token_file, sealed_token_file or password_file"))
		}
		if _, err := c.Matrix.RoomIDs(); err != nil {
			errs = append(errs, err)
		}
	}

	if mode == ModeBot && !c.Telegram.Enabled() && !c.Matrix.Enabled() {
		errs = append(errs, fmt.Errorf("no chat transport configured: set %s, telegram.token_file or matrix.homeserver_url", EnvTelegramToken))
	}

	return errors.Join(errs...)
}

// Trigger parses Schedule in Timezone.
func (r RefreshConfig) Trigger() (cron.Schedule, error) {
	schedule, err := cron.Parse(r.Schedule)
	if err != nil {
		return cron.Schedule{}, fmt.Errorf("refresh.schedule: %w", err)
	}
	location := time.Local
	if r.Timezone != "" {
		location, err = time.LoadLocation(r.Timezone)
		if err != nil {
			return cron.Schedule{}, fmt.Errorf("refresh.timezone: %w", err)
		}
	}
	return schedule.In(location), nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	options := &slog.HandlerOptions{Level: level}
	switch l.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, options)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, options)), nil
	default:
		return nil, fmt.Errorf("log.format must be text or json, got %q", l.Format)
	}
}
