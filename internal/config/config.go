package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds runtime settings loaded from flags, env, or config file.
type Config struct {
	EthRPCURL string
	BscRPCURL string
	Contracts string
	OutDir    string
	PGDSN     string
	Chart     bool
	ChartTop  int
	Verbose   int
	LogLevel  string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HOLDERSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("contracts", "./contracts_info.json")
	v.SetDefault("out-dir", ".")
	v.SetDefault("chart-top", 20)
	v.SetDefault("verbose", 1)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		EthRPCURL: v.GetString("eth-rpc"),
		BscRPCURL: v.GetString("bsc-rpc"),
		Contracts: v.GetString("contracts"),
		OutDir:    v.GetString("out-dir"),
		PGDSN:     v.GetString("pg-dsn"),
		Chart:     v.GetBool("chart"),
		ChartTop:  v.GetInt("chart-top"),
		Verbose:   v.GetInt("verbose"),
		LogLevel:  v.GetString("log-level"),
	}

	return cfg, nil
}

// Endpoints returns the chain-id -> RPC URL map for connection resolution.
func (c Config) Endpoints() map[string]string {
	return map[string]string{
		"eth": c.EthRPCURL,
		"bsc": c.BscRPCURL,
	}
}

// Level maps the 0/1/2 verbosity flag to a zap level name. An explicit
// log-level setting wins over verbosity.
func (c Config) Level() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	switch {
	case c.Verbose <= 0:
		return "warn"
	case c.Verbose == 1:
		return "info"
	default:
		return "debug"
	}
}
