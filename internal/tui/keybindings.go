package tui

import (
	"codeberg.org/mutker/vcmclient/internal/config"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	KeyQuit         = "q"
	KeyQuitAlt      = "ctrl+c"
	KeyModule       = "m"
	KeyDAC          = "d"
	KeyReboot       = "b"
	KeyRebirth      = "R"
	KeyToggleLog    = "l"
	KeyRedraw       = "r"
	KeyCycleShow    = "s"
	KeyToggleHelp   = "?"
	KeySubmit       = "enter"
	KeyCancel       = "esc"
	KeyScrollDiagUp = "pgup"
	KeyScrollDiagDn = "pgdown"
)

// HandleKeyMsg processes a key pressed outside a prompt. It returns false
// for keys it does not bind.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyCancel {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyModule:
		return true, m.startPrompt(promptModule)

	case KeyDAC:
		return true, m.startPrompt(promptDACIndex)

	case KeyReboot:
		_ = m.ctrl.Reboot(m.ctx)
		return true, nil

	case KeyRebirth:
		_ = m.ctrl.Rebirth(m.ctx)
		return true, nil

	case KeyToggleLog:
		_, _ = m.ctrl.ToggleLogging()
		return true, nil

	case KeyCycleShow:
		m.ctrl.SetShow(nextShow(m.ctrl.Status().Show))
		return true, nil

	case KeyRedraw:
		m.diagVersion = 0
		return true, tea.ClearScreen

	case KeyScrollDiagUp, KeyScrollDiagDn:
		var cmd tea.Cmd
		m.diag, cmd = m.diag.Update(msg)
		return true, cmd
	}

	return false, nil
}

// nextShow cycles through the show levels from least to most verbose.
func nextShow(s config.ShowLevel) config.ShowLevel {
	for i, l := range config.ShowLevels {
		if l == s {
			return config.ShowLevels[(i+1)%len(config.ShowLevels)]
		}
	}
	return config.DefaultShow
}
