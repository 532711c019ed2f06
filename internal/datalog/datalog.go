package datalog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"codeberg.org/mutker/vcmclient/internal/errors"
	"codeberg.org/mutker/vcmclient/internal/logger"
	"codeberg.org/mutker/vcmclient/internal/metrics"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644

	filePrefix      = "vcm_test_log_"
	fileDateLayout  = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

var header = []string{"timestamp", "module", "metric", "value"}

// State is whether data logging is enabled.
type State bool

const (
	Off State = false
	On  State = true
)

// Label is the action text offered to the operator in this state.
func (s State) Label() string {
	if s == On {
		return "Toggle Logging Off"
	}
	return "Toggle Logging On"
}

func (s State) String() string {
	if s == On {
		return "on"
	}
	return "off"
}

// FileName returns the log file name for the day of t.
func FileName(t time.Time) string {
	return filePrefix + t.Format(fileDateLayout) + ".csv"
}

// Logger appends metric updates to a CSV file per day while enabled.
type Logger struct {
	mu    sync.Mutex
	dir   string
	state State
	now   func() time.Time

	file *os.File
	w    *csv.Writer
	day  string
}

type Option func(*Logger)

// WithClock replaces the clock used to pick the day's file.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// New creates a logger writing into dir. When enabled, today's file is
// opened immediately; if that fails the logger starts Off and the error is
// returned alongside it.
func New(dir string, enabled bool, opts ...Option) (*Logger, error) {
	l := &Logger{
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	if enabled {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.enable(); err != nil {
			return l, err
		}
	}

	return l, nil
}

func (l *Logger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Path returns the file currently open, or "" when none is.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Toggle flips the logging state and returns the new one. A failure to open
// the file leaves logging Off.
func (l *Logger) Toggle() (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == On {
		err := l.disable()
		return l.state, err
	}

	err := l.enable()
	return l.state, err
}

// Record appends one metric update. It is a no-op while logging is Off.
// Write failures turn logging Off.
func (l *Logger) Record(module int, m metrics.Metric) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == Off {
		return nil
	}

	if l.now().Format(fileDateLayout) != l.day {
		l.closeFile()
		if err := l.open(); err != nil {
			l.state = Off
			return err
		}
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = l.now()
	}

	row := []string{
		ts.Format(timestampLayout),
		strconv.Itoa(module),
		m.Name,
		m.Value.String(),
	}
	if err := l.write(row); err != nil {
		l.closeFile()
		l.state = Off
		return err
	}

	return nil
}

// Close flushes and closes the current file. Logging state is kept.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeFile()
}

func (l *Logger) enable() error {
	if err := l.open(); err != nil {
		l.state = Off
		return err
	}
	l.state = On
	logger.Info().Str("path", l.file.Name()).Msg("Data logging enabled")
	return nil
}

func (l *Logger) disable() error {
	l.state = Off
	err := l.closeFile()
	logger.Info().Msg("Data logging disabled")
	return err
}

func (l *Logger) open() error {
	errFactory := errors.New()

	now := l.now()
	path := filepath.Join(l.dir, FileName(now))

	if err := os.MkdirAll(l.dir, defaultDirPerm); err != nil {
		return errFactory.Wrap(ErrLogIO, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, defaultFilePerm)
	if err != nil {
		return errFactory.Wrap(ErrLogIO, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return errFactory.Wrap(ErrLogIO, err)
	}

	l.file = f
	l.w = csv.NewWriter(f)
	l.day = now.Format(fileDateLayout)

	if info.Size() == 0 {
		if err := l.write(header); err != nil {
			l.closeFile()
			return err
		}
	}

	logger.Debug().Str("path", path).Msg("Opened data log")
	return nil
}

func (l *Logger) write(row []string) error {
	errFactory := errors.New()

	if err := l.w.Write(row); err != nil {
		return errFactory.Wrap(ErrLogIO, err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return errFactory.Wrap(ErrLogIO, err)
	}
	return nil
}

func (l *Logger) closeFile() error {
	if l.file == nil {
		return nil
	}

	errFactory := errors.New()
	l.w.Flush()
	flushErr := l.w.Error()
	closeErr := l.file.Close()

	l.file = nil
	l.w = nil
	l.day = ""

	if flushErr != nil {
		return errFactory.Wrap(ErrLogIO, flushErr)
	}
	if closeErr != nil {
		return errFactory.Wrap(ErrLogIO, closeErr)
	}
	return nil
}
