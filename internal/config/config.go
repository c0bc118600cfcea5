package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Artwork display modes.
const (
	ArtworkKitty = "kitty"
	ArtworkText  = "text"
	ArtworkOff   = "off"
)

// Config captures everything piju needs to reach and display a Mopidy server.
type Config struct {
	Host                string
	ServerURL           string
	PollInterval        time.Duration
	RequestTimeout      time.Duration
	ManageScreenBlanker bool
	Events              bool
	Artwork             string
	LogFile             string
}

const (
	defaultConfigPath     = "~/.config/piju/config.toml"
	defaultHost           = "localhost"
	defaultPort           = "6680"
	defaultPollInterval   = time.Second
	minPollInterval       = 100 * time.Millisecond
	defaultRequestTimeout = 5 * time.Second
)

// Default returns the configuration used when no file is present.
func Default() Config {
	server, _ := ServerURL(defaultHost)
	return Config{
		Host:           defaultHost,
		ServerURL:      server,
		PollInterval:   defaultPollInterval,
		RequestTimeout: defaultRequestTimeout,
		Artwork:        ArtworkText,
	}
}

// Load locates and parses the piju config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Host                string  `toml:"host"`
		PollInterval        float64 `toml:"poll_interval"`
		RequestTimeout      float64 `toml:"request_timeout"`
		ManageScreenBlanker bool    `toml:"manage_screenblanker"`
		Events              bool    `toml:"events"`
		Artwork             string  `toml:"artwork"`
		LogFile             string  `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if host := strings.TrimSpace(raw.Host); host != "" {
		cfg.Host = host
	}
	if raw.PollInterval > 0 {
		cfg.PollInterval = seconds(raw.PollInterval)
	}
	if raw.RequestTimeout > 0 {
		cfg.RequestTimeout = seconds(raw.RequestTimeout)
	}
	cfg.ManageScreenBlanker = raw.ManageScreenBlanker
	cfg.Events = raw.Events
	if mode := strings.ToLower(strings.TrimSpace(raw.Artwork)); mode != "" {
		cfg.Artwork = mode
	}
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}

	if err := cfg.Finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Finalize validates the config and derives ServerURL from Host. Call it
// again after overriding fields from the command line.
func (c *Config) Finalize() error {
	switch c.Artwork {
	case ArtworkKitty, ArtworkText, ArtworkOff:
	case "":
		c.Artwork = ArtworkText
	default:
		return fmt.Errorf("unknown artwork mode %q", c.Artwork)
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.PollInterval < minPollInterval {
		c.PollInterval = minPollInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	server, err := ServerURL(c.Host)
	if err != nil {
		return err
	}
	c.ServerURL = server
	return nil
}

// ServerURL normalizes a host value such as "localhost", "mopidy:6680" or
// "https://proxy/base" into a base URL. A missing scheme means http, a
// missing port means 6680, and any params, query or fragment are dropped.
// A base path is kept so the server can sit behind a proxy.
func ServerURL(host string) (string, error) {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		trimmed = defaultHost
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse host %q: %w", host, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("parse host %q: missing hostname", host)
	}
	if u.Port() == "" {
		u.Host = u.Host + ":" + defaultPort
	}
	// Path parameters (";x=y") are part of the final segment in Go's parser.
	if i := strings.Index(u.Path, ";"); i >= 0 {
		u.Path = u.Path[:i]
	}
	u.RawPath = ""
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
