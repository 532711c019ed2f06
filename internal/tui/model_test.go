package tui

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/vcmclient/internal/app"
	"codeberg.org/mutker/vcmclient/internal/config"
	"codeberg.org/mutker/vcmclient/internal/datalog"
	"codeberg.org/mutker/vcmclient/internal/metrics"
	"codeberg.org/mutker/vcmclient/internal/sparkplug"
	"codeberg.org/mutker/vcmclient/internal/transport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	subscribed []string
	topics     []string
}

func (f *fakeTransport) Subscribe(_ context.Context, filters ...string) error {
	f.subscribed = append(f.subscribed, filters...)
	return nil
}

func (f *fakeTransport) Unsubscribe(context.Context, ...string) error { return nil }

func (f *fakeTransport) Publish(_ context.Context, topic string, _ []byte) error {
	f.topics = append(f.topics, topic)
	return nil
}

func newTestModel(t *testing.T, opts ...app.Option) (Model, *fakeTransport, chan transport.Event) {
	t.Helper()

	tr := &fakeTransport{}
	cfg := &config.Config{Group: "VI", Module: 3, Show: config.ShowErrors}
	events := make(chan transport.Event, 4)
	ctrl := app.New(tr, cfg, opts...)
	return NewModel(context.Background(), ctrl, events), tr, events
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()

	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m
}

func birthEvent(version int64) transport.Event {
	topic := sparkplug.Topic{Group: "VI", Type: sparkplug.NodeBirth, Node: "ADC3"}
	return transport.Event{
		Kind:     transport.EventMessage,
		RawTopic: topic.String(),
		Topic:    topic,
		Payload: sparkplug.NewPayload(time.Now(), 0,
			sparkplug.Metric{Name: metrics.BdSeq, DataType: sparkplug.Int64, Value: int64(1)},
			sparkplug.Metric{Name: metrics.CommsVersion, DataType: sparkplug.Int64, Value: version},
		),
		ReceivedAt: time.Now(),
	}
}

func TestNewModel(t *testing.T) {
	m, _, _ := newTestModel(t)

	assert.Equal(t, promptNone, m.prompt)
	assert.Len(t, m.table.Rows(), metrics.NewDefaultStore().Len())
	assert.Contains(t, m.View(), "VCM Client")
	assert.Contains(t, m.View(), "Diagnostics")
}

func TestEventUpdatesTable(t *testing.T) {
	m, _, events := newTestModel(t)

	next, cmd := m.Update(eventMsg(birthEvent(2)))
	m = next.(Model)
	require.NotNil(t, cmd)

	assert.True(t, m.ctrl.Session().Alive)
	assert.Contains(t, m.View(), "ONLINE")

	// the returned command waits for the next event
	events <- birthEvent(2)
	msg := cmd()
	_, ok := msg.(eventMsg)
	assert.True(t, ok)
}

func TestEventsClosedQuits(t *testing.T) {
	m, _, events := newTestModel(t)
	close(events)

	msg := m.Init()()
	assert.Equal(t, eventsClosedMsg{}, msg)

	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		t.Run(k, func(t *testing.T) {
			m, _, _ := newTestModel(t)
			next, cmd := m.Update(keyMsg(k))
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
			assert.True(t, next.(Model).quitting)
		})
	}
}

func TestChangeModulePrompt(t *testing.T) {
	m, tr, _ := newTestModel(t)

	m = press(t, m, "m")
	assert.Equal(t, promptModule, m.prompt)
	assert.Contains(t, m.View(), "Module id:")

	m = press(t, m, "7", "enter")
	assert.Equal(t, promptNone, m.prompt)
	assert.Equal(t, 7, m.ctrl.Session().Module)
	assert.Equal(t, sparkplug.NodeFilters("VI", "ADC7"), tr.subscribed)
	assert.Equal(t, []string{"spBv1.0/VI/NCMD/ADC7"}, tr.topics)
}

func TestPromptSwallowsCommandKeys(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(t, m, "m", "q")
	assert.False(t, m.quitting)
	assert.Equal(t, "q", m.input.Value())

	m = press(t, m, "esc")
	assert.Equal(t, promptNone, m.prompt)
	assert.Equal(t, 3, m.ctrl.Session().Module)
}

func TestSetDACPrompt(t *testing.T) {
	m, tr, _ := newTestModel(t)

	next, _ := m.Update(eventMsg(birthEvent(2)))
	m = next.(Model)

	m = press(t, m, "d", "4", "enter")
	assert.Equal(t, promptDACVoltage, m.prompt)
	assert.Equal(t, "4", m.dacIndex)

	m = press(t, m, "0", ".", "5", "enter")
	assert.Equal(t, promptNone, m.prompt)
	assert.Equal(t, []string{"spBv1.0/VI/DCMD/ADC3/TESTBENCH"}, tr.topics)
}

func TestSetDACRejectedWhileOffline(t *testing.T) {
	m, tr, _ := newTestModel(t)

	m = press(t, m, "d", "4", "enter", "0", ".", "5", "enter")
	assert.Empty(t, tr.topics)

	last := m.ctrl.Diagnostics().Recent(1)
	require.Len(t, last, 1)
	assert.Contains(t, last[0].Message, "ADC3")
}

func TestRebootAndRebirthKeys(t *testing.T) {
	m, tr, _ := newTestModel(t)

	next, _ := m.Update(eventMsg(birthEvent(2)))
	m = next.(Model)

	press(t, m, "b", "R")
	assert.Equal(t, []string{"spBv1.0/VI/NCMD/ADC3", "spBv1.0/VI/NCMD/ADC3"}, tr.topics)
}

func TestToggleLoggingKey(t *testing.T) {
	dl, err := datalog.New(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() { dl.Close() })

	m, _, _ := newTestModel(t, app.WithDataLog(dl))
	assert.Contains(t, m.View(), "toggle logging on")

	m = press(t, m, "l")
	assert.Equal(t, datalog.On, dl.State())
	assert.Contains(t, m.View(), "toggle logging off")
}

func TestCycleShow(t *testing.T) {
	m, _, _ := newTestModel(t)

	press(t, m, "s")
	assert.Equal(t, config.ShowTopic, m.ctrl.Status().Show)

	assert.Equal(t, config.ShowNone, nextShow(config.ShowAll))
}

func TestHelpToggle(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(t, m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = press(t, m, "esc")
	assert.False(t, m.showHelp)
}

func TestWindowResize(t *testing.T) {
	m, _, _ := newTestModel(t)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(Model)

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 120, m.diag.Width)
	assert.GreaterOrEqual(t, m.diag.Height, minPane)
}
