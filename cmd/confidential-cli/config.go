package main

import (
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultLogLevel  = "info"
	defaultLogOutput = "stdout"
	defaultBits      = 16
)

// Config holds the tool configuration
type Config struct {
	Log    LogConfig
	Tables TablesConfig
	Keys   KeysConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// TablesConfig holds kangaroo table configuration
type TablesConfig struct {
	Bits  int      `mapstructure:"bits"`  // bit width to generate
	File  string   `mapstructure:"file"`  // table file to write or inspect
	Files []string `mapstructure:"files"` // table files to load for decryption
}

// KeysConfig holds key material passed on the command line
type KeysConfig struct {
	Key        string `mapstructure:"key"`        // hex decryption key
	Ciphertext string `mapstructure:"ciphertext"` // hex 64-byte ciphertext
	Seed       string `mapstructure:"seed"`       // hex seed for derived keys
	Index      uint32 `mapstructure:"index"`      // derivation index
}

// loadConfig parses flags and environment variables into a Config. Every
// flag can also be set through the environment with the CONFIDENTIAL prefix
// (e.g. CONFIDENTIAL_LOG_LEVEL).
func loadConfig() (*Config, []string, error) {
	flag.String("log.level", defaultLogLevel, "log level (debug, info, warn, error)")
	flag.String("log.output", defaultLogOutput, "log output (stdout, stderr or file path)")
	flag.Int("tables.bits", defaultBits, "kangaroo table bit width (16, 32 or 48)")
	flag.String("tables.file", "", "kangaroo table file to write or inspect")
	flag.StringSlice("tables.files", nil, "kangaroo table files to load")
	flag.String("keys.key", "", "decryption key (hex)")
	flag.String("keys.ciphertext", "", "ciphertext to decrypt (hex, 64 bytes)")
	flag.String("keys.seed", "", "seed for derived keys (hex)")
	flag.Uint32("keys.index", 0, "key derivation index")
	flag.Parse()

	viper.SetEnvPrefix("CONFIDENTIAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		return nil, nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, flag.Args(), nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Tables.Bits {
	case 16, 32, 48:
	default:
		return fmt.Errorf("unsupported table bit width %d", cfg.Tables.Bits)
	}
	return nil
}
