package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	stegano "github.com/yyyoichi/stegano_zero"
)

const envLogLevel = "STEGANO_LOG_LEVEL"

type config struct {
	Cipher   stegano.Cipher
	Channel  stegano.Channel
	Golay    bool
	Salt     string
	LogLevel zerolog.Level
}

// config.toml key mapping to codec settings.
type fileConfig struct {
	Cipher   string `toml:"cipher"`
	Channel  string `toml:"channel"`
	ECC      string `toml:"ecc"`
	Salt     string `toml:"salt"`
	LogLevel string `toml:"log_level"`
}

func defaultConfig() config {
	return config{
		Cipher:   stegano.AESGCM,
		Channel:  stegano.Red,
		LogLevel: zerolog.InfoLevel,
	}
}

// loadConfig overlays the keys defined in path onto the defaults.
// An empty path yields the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if strings.TrimSpace(path) != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return config{}, fmt.Errorf("load config: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
		}
		if meta.IsDefined("cipher") {
			if cfg.Cipher, err = stegano.ParseCipher(raw.Cipher); err != nil {
				return config{}, fmt.Errorf("load config: %w", err)
			}
		}
		if meta.IsDefined("channel") {
			if cfg.Channel, err = stegano.ParseChannel(raw.Channel); err != nil {
				return config{}, fmt.Errorf("load config: %w", err)
			}
		}
		if meta.IsDefined("ecc") {
			switch strings.ToLower(strings.TrimSpace(raw.ECC)) {
			case "", "none":
				cfg.Golay = false
			case "golay":
				cfg.Golay = true
			default:
				return config{}, fmt.Errorf("load config: unsupported ecc %q (expected none or golay)", raw.ECC)
			}
		}
		if meta.IsDefined("salt") {
			cfg.Salt = raw.Salt
		}
		if meta.IsDefined("log_level") {
			if cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw.LogLevel))); err != nil {
				return config{}, fmt.Errorf("load config: %w", err)
			}
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *config) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(envLogLevel)))
	if raw == "" {
		return
	}
	if lvl, err := zerolog.ParseLevel(raw); err == nil {
		cfg.LogLevel = lvl
	}
}

func (c config) options(logger zerolog.Logger) []stegano.Option {
	opts := []stegano.Option{
		stegano.WithCipher(c.Cipher),
		stegano.WithChannel(c.Channel),
		stegano.WithLogger(logger),
	}
	if c.Golay {
		opts = append(opts, stegano.WithGolay())
	}
	return opts
}
