package bridge

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// SocketName is the file name of the bridge socket.
const SocketName = "SlimeVRDriver"

// fallbackDir is used when XDG_RUNTIME_DIR is unset.
const fallbackDir = "/tmp"

// DefaultSocketPath returns $XDG_RUNTIME_DIR/SlimeVRDriver, or
// /tmp/SlimeVRDriver when the variable is unset. The second result reports
// whether XDG_RUNTIME_DIR was used.
func DefaultSocketPath() (string, bool) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, SocketName), true
	}
	return filepath.Join(fallbackDir, SocketName), false
}

// Config is the file configuration of the bridge commands.
type Config struct {
	SocketPath  string
	Backlog     int
	BufferSize  int
	LogLevel    string
	MetricsAddr string
}

type fileConfig struct {
	SocketPath  string `toml:"socket_path"`
	Backlog     int    `toml:"backlog"`
	BufferSize  int    `toml:"buffer_size"`
	LogLevel    string `toml:"log_level"`
	MetricsAddr string `toml:"metrics_addr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	path, _ := DefaultSocketPath()
	return Config{
		SocketPath: path,
		Backlog:    DefaultBacklog,
		BufferSize: DefaultBufferSize,
		LogLevel:   "info",
	}
}

// LoadConfig reads a TOML file over DefaultConfig. Keys absent from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, errors.Wrap(err, "load bridge config")
	}

	if meta.IsDefined("socket_path") {
		if p := strings.TrimSpace(raw.SocketPath); p != "" {
			cfg.SocketPath = os.ExpandEnv(p)
		}
	}

	if meta.IsDefined("backlog") {
		if raw.Backlog <= 0 {
			return Config{}, errors.Errorf("backlog must be positive, got %d", raw.Backlog)
		}
		cfg.Backlog = raw.Backlog
	}

	if meta.IsDefined("buffer_size") {
		if raw.BufferSize <= HeaderSize {
			return Config{}, errors.Errorf("buffer_size must exceed %d, got %d", HeaderSize, raw.BufferSize)
		}
		cfg.BufferSize = raw.BufferSize
	}

	if meta.IsDefined("log_level") {
		level := strings.TrimSpace(raw.LogLevel)
		if _, ok := ParseLevel(level); !ok {
			return Config{}, errors.Errorf("unknown log_level %q", raw.LogLevel)
		}
		cfg.LogLevel = level
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	return cfg, nil
}

// Options converts the file configuration into session options.
func (c Config) Options() []Option {
	return []Option{
		BacklogOption(c.Backlog),
		BufferSizeOption(c.BufferSize),
	}
}
