package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ReplayConfig holds configuration for the replay command, loaded from
// flags, GASHOOK_* env vars, or a config file.
type ReplayConfig struct {
	RPCURL            string
	Pool              string
	BaseFee           uint32
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	Out               string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// LoadReplay merges config file, environment variables, and flags into
// ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"base-fee":           uint32(5000),
		"batch-size":         uint64(500),
		"out":                "./data/decisions.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
		"log-level":          "info",
	})
	if err != nil {
		return ReplayConfig{}, err
	}

	cfg := ReplayConfig{
		RPCURL:            v.GetString("rpc"),
		Pool:              v.GetString("pool"),
		BaseFee:           v.GetUint32("base-fee"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// SimulateConfig holds configuration for the simulate command.
type SimulateConfig struct {
	Input     string
	Pool      string
	BaseFee   uint32
	FromBlock uint64
	ToBlock   uint64
	BatchSize uint64
	Out       string
	LogLevel  string
}

// LoadSimulate merges config file, environment variables, and flags into
// SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"base-fee":   uint32(5000),
		"batch-size": uint64(500),
		"out":        "./data/simulated_decisions.jsonl",
		"log-level":  "info",
	})
	if err != nil {
		return SimulateConfig{}, err
	}

	cfg := SimulateConfig{
		Input:     v.GetString("in"),
		Pool:      v.GetString("pool"),
		BaseFee:   v.GetUint32("base-fee"),
		FromBlock: v.GetUint64("from"),
		ToBlock:   v.GetUint64("to"),
		BatchSize: v.GetUint64("batch-size"),
		Out:       v.GetString("out"),
		LogLevel:  v.GetString("log-level"),
	}

	return cfg, nil
}

// ExportConfig holds configuration for the export command.
type ExportConfig struct {
	PGDSN    string
	ChainID  uint64
	Pool     string
	LogLevel string
}

// LoadExport merges config file, environment variables, and flags into
// ExportConfig.
func LoadExport(cfgFile string, flags *pflag.FlagSet) (ExportConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"log-level": "info",
	})
	if err != nil {
		return ExportConfig{}, err
	}

	cfg := ExportConfig{
		PGDSN:    v.GetString("pg-dsn"),
		ChainID:  v.GetUint64("chain-id"),
		Pool:     v.GetString("pool"),
		LogLevel: v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("GASHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
