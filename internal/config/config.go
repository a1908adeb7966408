// Package config loads the engine's process-wiring configuration.
//
// The matching semantics described by the engine itself take no runtime
// configuration; this package only governs how the process is wired
// together: where it listens, which protocol-version token it expects,
// how verbosely it logs, and where it exposes operator metrics.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full set of process-wiring knobs.
type Config struct {
	// TradingAddr is the address the wire-protocol acceptor binds.
	TradingAddr string `mapstructure:"trading_addr" validate:"required,hostname_port"`
	// ProtocolVersion is the BeginString token every message must carry.
	ProtocolVersion string `mapstructure:"protocol_version" validate:"required"`
	// LogLevel is one of debug/info/warn/error.
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// AdminAddr is the address the /metrics and /healthz endpoints bind.
	AdminAddr string `mapstructure:"admin_addr" validate:"required,hostname_port"`
	// ShutdownGrace bounds how long the admin listener's graceful
	// shutdown may take. Session and book teardown is not bounded by it.
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace" validate:"required"`
}

// Default returns the configuration the source hard-codes: port 3927
// and the FIX.4.2 protocol-version token (spec.md §6).
func Default() Config {
	return Config{
		TradingAddr:     "0.0.0.0:3927",
		ProtocolVersion: "FIX.4.2",
		LogLevel:        "info",
		AdminAddr:       "127.0.0.1:9927",
		ShutdownGrace:   5 * time.Second,
	}
}

// Load reads configuration from an optional file and from environment
// variables prefixed MATCHFIX_, overlaying Default(). A missing config
// file is not an error: the engine has none of the per-deployment state
// the original required and runs from defaults alone.
func Load(path string) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MATCHFIX")
	v.AutomaticEnv()

	v.SetDefault("trading_addr", def.TradingAddr)
	v.SetDefault("protocol_version", def.ProtocolVersion)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("admin_addr", def.AdminAddr)
	v.SetDefault("shutdown_grace", def.ShutdownGrace)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			_, notFound := err.(viper.ConfigFileNotFoundError)
			if !notFound && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
