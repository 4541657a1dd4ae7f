package config

import (
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/telemetryd/internal/errors"
	"codeberg.org/mutker/telemetryd/internal/logger"
	"codeberg.org/mutker/telemetryd/internal/telemetry"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultTickInterval   = time.Second
	DefaultSampleInterval = time.Second
	DefaultStaleAfter     = 5 * time.Second
	DefaultHistorySize    = 100
	DefaultLogSize        = 50
	DefaultPhase          = string(telemetry.PhaseAscent)
	DefaultListen         = "127.0.0.1:8080"
	DefaultLogLevel       = string(LogLevelInfo)
	DefaultLogMaxSizeMB   = 10
	DefaultLogMaxBackups  = 3

	configName = "telemetryd"
	configEnv  = "TELEMETRYD_CONFIG"
	envPrefix  = "TELEMETRYD"
)

type Config struct {
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	SampleInterval time.Duration `mapstructure:"sample_interval"`
	StaleAfter     time.Duration `mapstructure:"stale_after"`
	HistorySize    int           `mapstructure:"history_size"`
	LogSize        int           `mapstructure:"log_size"`
	Phase          string        `mapstructure:"phase"`
	Simulate       bool          `mapstructure:"simulate"`
	Listen         string        `mapstructure:"listen"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFile        string        `mapstructure:"log_file"`
	LogMaxSizeMB   int           `mapstructure:"log_max_size_mb"`
	LogMaxBackups  int           `mapstructure:"log_max_backups"`
	PIDFile        string        `mapstructure:"pid_file"`
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"tick-interval":   "tick_interval",
	"sample-interval": "sample_interval",
	"stale-after":     "stale_after",
	"history-size":    "history_size",
	"log-size":        "log_size",
	"phase":           "phase",
	"simulate":        "simulate",
	"listen":          "listen",
	"log-level":       "log_level",
	"log-file":        "log_file",
	"pid-file":        "pid_file",
}

// Load reads configuration from defaults, the TOML config file, TELEMETRYD_*
// environment variables and args, in increasing order of precedence.
func Load(args []string) (*Config, error) {
	errFactory := errors.New()
	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	configPath := fs.String("config", os.Getenv(configEnv), "Path to the TOML configuration file")
	fs.Duration("tick-interval", DefaultTickInterval, "Interval between staleness and mission clock checks")
	fs.Duration("sample-interval", DefaultSampleInterval, "Interval between simulated samples")
	fs.Duration("stale-after", DefaultStaleAfter, "Time without samples before the link is marked disconnected")
	fs.Int("history-size", DefaultHistorySize, "Number of samples retained for trend charts")
	fs.Int("log-size", DefaultLogSize, "Number of log entries retained")
	fs.String("phase", DefaultPhase, "Initial mission phase")
	fs.Bool("simulate", true, "Feed the session from the built-in sample simulator")
	fs.String("listen", DefaultListen, "Address for the HTTP/WebSocket feed, empty to disable")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, warning, error)")
	fs.String("log-file", "", "Also write logs to this rotating file")
	fs.String("pid-file", defaultPIDFile(), "PID file guarding against a second instance")

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := readConfigFile(v, *configPath); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tick_interval", DefaultTickInterval)
	v.SetDefault("sample_interval", DefaultSampleInterval)
	v.SetDefault("stale_after", DefaultStaleAfter)
	v.SetDefault("history_size", DefaultHistorySize)
	v.SetDefault("log_size", DefaultLogSize)
	v.SetDefault("phase", DefaultPhase)
	v.SetDefault("simulate", true)
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", DefaultLogMaxSizeMB)
	v.SetDefault("log_max_backups", DefaultLogMaxBackups)
	v.SetDefault("pid_file", defaultPIDFile())
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
		return nil
	}

	v.SetConfigName(configName)
	v.SetConfigType("toml")
	v.AddConfigPath(filepath.Join("/etc", configName))
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

// Validate checks ranges and enumerations that viper cannot enforce.
func (c *Config) Validate() error {
	errFactory := errors.New()

	intervals := []struct {
		key   string
		value time.Duration
	}{
		{"tick_interval", c.TickInterval},
		{"sample_interval", c.SampleInterval},
		{"stale_after", c.StaleAfter},
	}
	for _, iv := range intervals {
		if iv.value <= 0 {
			return errFactory.WithData(errors.ErrInvalidInterval, iv.key+"="+iv.value.String())
		}
	}

	if c.HistorySize <= 0 || c.LogSize <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "buffer sizes must be positive")
	}

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if _, err := c.MissionPhase(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}

// MissionPhase returns the configured initial phase.
func (c *Config) MissionPhase() (telemetry.Phase, error) {
	return telemetry.ParsePhase(c.Phase)
}

// LoggerOptions derives logger settings from the configuration.
func (c *Config) LoggerOptions(service bool) logger.Options {
	return logger.Options{
		Level:      c.LogLevel,
		Service:    service,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
	}
}

func defaultPIDFile() string {
	return filepath.Join(os.TempDir(), configName+".pid")
}
