package datalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/vcmclient/internal/errors"
	"codeberg.org/mutker/vcmclient/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func sample(name string, ts time.Time, v metrics.Value) metrics.Metric {
	return metrics.Metric{Name: name, Timestamp: ts, Value: v}
}

func TestStateLabel(t *testing.T) {
	assert.Equal(t, "Toggle Logging Off", On.Label())
	assert.Equal(t, "Toggle Logging On", Off.Label())
}

func TestFileName(t *testing.T) {
	day := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "vcm_test_log_2024-03-09.csv", FileName(day))
}

func TestToggleRestoresState(t *testing.T) {
	l, err := New(t.TempDir(), true)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	require.Equal(t, On, l.State())

	s, err := l.Toggle()
	require.NoError(t, err)
	assert.Equal(t, Off, s)

	s, err = l.Toggle()
	require.NoError(t, err)
	assert.Equal(t, On, s)
	assert.Equal(t, On, l.State())
}

func TestRecordWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	c := &clock{time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}

	l, err := New(dir, true, WithClock(c.now))
	require.NoError(t, err)

	ts := time.Date(2024, 5, 1, 9, 59, 58, 250_000_000, time.UTC)
	require.NoError(t, l.Record(2, sample(metrics.ADC(4), ts, metrics.Number(0.5))))
	require.NoError(t, l.Record(2, sample(metrics.FirmwareVersion, ts, metrics.Text("1.4, rc"))))
	require.NoError(t, l.Close())

	lines := readLines(t, filepath.Join(dir, "vcm_test_log_2024-05-01.csv"))
	assert.Equal(t, []string{
		"timestamp,module,metric,value",
		"2024-05-01T09:59:58.250Z,2,Inputs/ADC4,0.5",
		`2024-05-01T09:59:58.250Z,2,Properties/Firmware Version,"1.4, rc"`,
	}, lines)
}

func TestNoWritesWhileOff(t *testing.T) {
	dir := t.TempDir()

	l, err := New(dir, false)
	require.NoError(t, err)

	require.NoError(t, l.Record(0, sample(metrics.BdSeq, time.Now(), metrics.Number(1))))
	assert.Empty(t, l.Path())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNoWritesAfterToggleOff(t *testing.T) {
	dir := t.TempDir()
	c := &clock{time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}

	l, err := New(dir, true, WithClock(c.now))
	require.NoError(t, err)
	require.NoError(t, l.Record(0, sample(metrics.BdSeq, c.t, metrics.Number(1))))

	_, err = l.Toggle()
	require.NoError(t, err)
	require.NoError(t, l.Record(0, sample(metrics.BdSeq, c.t, metrics.Number(2))))

	lines := readLines(t, filepath.Join(dir, FileName(c.t)))
	assert.Len(t, lines, 2)
}

func TestReopenSameDayAppendsWithoutHeader(t *testing.T) {
	dir := t.TempDir()
	c := &clock{time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}

	l, err := New(dir, true, WithClock(c.now))
	require.NoError(t, err)
	require.NoError(t, l.Record(0, sample(metrics.BdSeq, c.t, metrics.Number(1))))

	_, err = l.Toggle()
	require.NoError(t, err)
	_, err = l.Toggle()
	require.NoError(t, err)
	require.NoError(t, l.Record(0, sample(metrics.BdSeq, c.t, metrics.Number(2))))
	require.NoError(t, l.Close())

	lines := readLines(t, filepath.Join(dir, FileName(c.t)))
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,module,metric,value", lines[0])
	assert.True(t, strings.HasSuffix(lines[2], ",bdSeq,2"))
}

func TestRotatesOnDayChange(t *testing.T) {
	dir := t.TempDir()
	c := &clock{time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC)}

	l, err := New(dir, true, WithClock(c.now))
	require.NoError(t, err)
	require.NoError(t, l.Record(1, sample(metrics.ADC(0), c.t, metrics.Number(1))))

	c.t = c.t.Add(2 * time.Second)
	require.NoError(t, l.Record(1, sample(metrics.ADC(0), c.t, metrics.Number(2))))
	require.NoError(t, l.Close())

	first := readLines(t, filepath.Join(dir, "vcm_test_log_2024-05-01.csv"))
	second := readLines(t, filepath.Join(dir, "vcm_test_log_2024-05-02.csv"))
	assert.Len(t, first, 2)
	assert.Len(t, second, 2)
	assert.Equal(t, "timestamp,module,metric,value", second[0])
}

func TestRecordUsesClockWhenTimestampMissing(t *testing.T) {
	dir := t.TempDir()
	c := &clock{time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}

	l, err := New(dir, true, WithClock(c.now))
	require.NoError(t, err)
	require.NoError(t, l.Record(0, sample(metrics.ModuleStatus, time.Time{}, metrics.Text("ONLINE"))))
	require.NoError(t, l.Close())

	lines := readLines(t, filepath.Join(dir, FileName(c.t)))
	assert.Equal(t, "2024-05-01T08:00:00.000Z,0,Module Status,ONLINE", lines[1])
}

func TestOpenFailureDisablesLogging(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	l, err := New(blocker, true)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrLogIO))
	assert.Equal(t, Off, l.State())

	s, err := l.Toggle()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrLogIO))
	assert.Equal(t, Off, s)
}

func TestRotationFailureDisablesLogging(t *testing.T) {
	dir := t.TempDir()
	c := &clock{time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	l, err := New(dir, true, WithClock(c.now))
	require.NoError(t, err)

	// Next day's file name is taken by a directory, so opening it fails.
	next := c.t.Add(24 * time.Hour)
	require.NoError(t, os.Mkdir(filepath.Join(dir, FileName(next)), 0o755))
	c.t = next

	err = l.Record(0, sample(metrics.BdSeq, c.t, metrics.Number(1)))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrLogIO))
	assert.Equal(t, Off, l.State())
}
