package config

import (
	"strings"
	"time"

	"codeberg.org/mutker/vcmclient/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultBroker   = "192.168.1.91"
	DefaultPort     = 1883
	DefaultModule   = 0
	DefaultLogDir   = "."
	DefaultShow     = ShowErrors
	DefaultGroup    = "VI"
	DefaultHostID   = "vcmclient"
	DefaultLogLevel = LogLevelWarning
	DefaultTimeout  = 10 * time.Second

	defaultEnvPrefix  = "VCMCLIENT"
	defaultConfigName = "vcmclient"
)

type Config struct {
	Broker      string        `mapstructure:"broker"`
	Port        int           `mapstructure:"port"`
	Module      int           `mapstructure:"module"`
	Log         bool          `mapstructure:"log"`
	LogDir      string        `mapstructure:"log_dir"`
	Show        ShowLevel     `mapstructure:"show"`
	Group       string        `mapstructure:"group"`
	HostID      string        `mapstructure:"host_id"`
	LogLevel    LogLevel      `mapstructure:"log_level"`
	LogFile     string        `mapstructure:"log_file"`
	HistoryDB   string        `mapstructure:"history_db"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"broker":       "broker",
	"port":         "port",
	"module":       "module",
	"log":          "log",
	"log-dir":      "log_dir",
	"show":         "show",
	"group":        "group",
	"host-id":      "host_id",
	"log-level":    "log_level",
	"log-file":     "log_file",
	"history-db":   "history_db",
	"metrics-addr": "metrics_addr",
	"timeout":      "timeout",
}

// RegisterFlags defines every configuration flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a TOML config file")
	fs.String("broker", DefaultBroker, "MQTT broker host")
	fs.Int("port", DefaultPort, "MQTT broker port")
	fs.Int("module", DefaultModule, "Module ID to test")
	fs.Bool("log", false, "Start with CSV data logging enabled")
	fs.String("log-dir", DefaultLogDir, "Directory for CSV data logs")
	fs.String("show", string(DefaultShow), "Received message display level (none, errors, topic, changed, all)")
	fs.String("group", DefaultGroup, "Sparkplug group ID")
	fs.String("host-id", DefaultHostID, "Sparkplug host application ID")
	fs.String("log-level", string(DefaultLogLevel), "Log level (debug, info, warning, error)")
	fs.String("log-file", "", "Write application logs to this file")
	fs.String("history-db", "", "Record every metric update to this SQLite database")
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.Duration("timeout", DefaultTimeout, "Broker operation timeout")
}

// Load merges defaults, the config file, environment variables and flags,
// in increasing order of precedence. fs may be nil.
func Load(fs *pflag.FlagSet, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(defaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Changed {
			o.configPath = f.Value.String()
		}
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errFactory.Wrap(errors.ErrBindFlags, err)
			}
		}
	}

	if o.configPath == "" {
		o.configPath = v.GetString("config")
	}

	if o.configPath != "" {
		v.SetConfigFile(o.configPath)
		v.SetConfigType("toml")
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/vcmclient")
		v.AddConfigPath("$HOME/.config/vcmclient")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config", "")
	v.SetDefault("broker", DefaultBroker)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("module", DefaultModule)
	v.SetDefault("log", false)
	v.SetDefault("log_dir", DefaultLogDir)
	v.SetDefault("show", string(DefaultShow))
	v.SetDefault("group", DefaultGroup)
	v.SetDefault("host_id", DefaultHostID)
	v.SetDefault("log_level", string(DefaultLogLevel))
	v.SetDefault("log_file", "")
	v.SetDefault("history_db", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("timeout", DefaultTimeout)
}

// Validate checks every field and returns the first problem found.
func (c *Config) Validate() error {
	errFactory := errors.New()

	switch {
	case !c.LogLevel.IsValid():
		return errFactory.WithData(errors.ErrInvalidLogLevel, FieldError{"log_level", c.LogLevel, "must be debug, info, warning or error"})
	case !c.Show.IsValid():
		return errFactory.WithData(errors.ErrInvalidShowLevel, FieldError{"show", c.Show, "must be none, errors, topic, changed or all"})
	case c.Broker == "":
		return errFactory.WithData(errors.ErrInvalidConfig, FieldError{"broker", c.Broker, "must not be empty"})
	case c.Port < 1 || c.Port > 65535:
		return errFactory.WithData(errors.ErrInvalidConfig, FieldError{"port", c.Port, "must be between 1 and 65535"})
	case c.Module < 0:
		return errFactory.WithData(errors.ErrInvalidConfig, FieldError{"module", c.Module, "must not be negative"})
	case c.Group == "":
		return errFactory.WithData(errors.ErrInvalidConfig, FieldError{"group", c.Group, "must not be empty"})
	case c.HostID == "":
		return errFactory.WithData(errors.ErrInvalidConfig, FieldError{"host_id", c.HostID, "must not be empty"})
	case c.Timeout <= 0:
		return errFactory.WithData(errors.ErrInvalidConfig, FieldError{"timeout", c.Timeout, "must be positive"})
	}

	return nil
}
