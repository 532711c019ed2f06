package config

import "fmt"

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath string
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// ShowLevel controls how much of each received message is echoed to the
// diagnostic log. Levels are cumulative in declaration order.
type ShowLevel string

const (
	ShowNone    ShowLevel = "none"
	ShowErrors  ShowLevel = "errors"
	ShowTopic   ShowLevel = "topic"
	ShowChanged ShowLevel = "changed"
	ShowAll     ShowLevel = "all"
)

// ShowLevels lists the valid show levels from least to most verbose.
var ShowLevels = []ShowLevel{ShowNone, ShowErrors, ShowTopic, ShowChanged, ShowAll}

func (s ShowLevel) rank() int {
	for i, l := range ShowLevels {
		if l == s {
			return i
		}
	}
	return -1
}

// IsValid returns whether the show level is one of ShowLevels
func (s ShowLevel) IsValid() bool {
	return s.rank() >= 0
}

// Shows reports whether output gated at level min is visible at s.
func (s ShowLevel) Shows(min ShowLevel) bool {
	return s.rank() >= min.rank() && min != ShowNone
}

// String implements the Stringer interface
func (s ShowLevel) String() string {
	return string(s)
}

// FieldError describes why a single configuration value was rejected.
type FieldError struct {
	Field  string
	Value  any
	Reason string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s=%v (%s)", e.Field, e.Value, e.Reason)
}
