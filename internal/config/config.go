package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config is the full application configuration. Values load in layers:
// struct-tag defaults, then an optional YAML file, then ACDG_* environment
// variables, then command-line flags on top.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Horizons HorizonsConfig `yaml:"horizons"`
	Output   OutputConfig   `yaml:"output"`
	Relay    RelayConfig    `yaml:"relay"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `yaml:"level" env:"ACDG_LOG_LEVEL" default:"info"`
	Format string `yaml:"format" env:"ACDG_LOG_FORMAT" default:"console"`
	Debug  bool   `yaml:"debug" env:"ACDG_DEBUG" default:"false"`
}

// HorizonsConfig configures the connection to the JPL Horizons telnet
// service.
type HorizonsConfig struct {
	Host           string        `yaml:"host" env:"ACDG_HORIZONS_HOST" default:"horizons.jpl.nasa.gov"`
	Port           int           `yaml:"port" env:"ACDG_HORIZONS_PORT" default:"6775"`
	LocalAddr      string        `yaml:"local_addr" env:"ACDG_LOCAL_ADDR"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"30s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" default:"2m"`
	SendTimeout    time.Duration `yaml:"send_timeout" default:"5s"`
	MaxAttempts    int           `yaml:"max_attempts" default:"3"`
}

// OutputConfig configures where fetched element sets are written.
type OutputConfig struct {
	Dir string `yaml:"dir" env:"ACDG_OUTPUT_DIR" default:"data"`
}

// RelayConfig configures the websocket relay service.
type RelayConfig struct {
	ListenAddr string `yaml:"listen_addr" env:"ACDG_RELAY_ADDR" default:":8093"`
}

// ConfigureZerolog applies the configured level to the global logger.
func (c *LogConfig) ConfigureZerolog() {
	level := zerolog.InfoLevel
	if c.Debug {
		level = zerolog.DebugLevel
	} else if parsed, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err == nil && c.Level != "" {
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
}

// FindConfigFile searches the standard locations for acdg.yaml and returns
// the first hit, or "" when none exists.
func FindConfigFile() string {
	const name = "acdg.yaml"

	paths := []string{
		name,
		filepath.Join("configs", name),
		filepath.Join("/etc/acdg", name),
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".acdg", name))
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
