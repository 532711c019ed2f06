package display

import (
	"codeberg.org/mutker/vcmclient/internal/config"
	"codeberg.org/mutker/vcmclient/internal/metrics"
)

// Reporter writes per-message diagnostics at the configured show level.
// Diagnostics about operator actions bypass it and go to Diagnostics
// directly.
type Reporter struct {
	diag *Diagnostics
	show config.ShowLevel
}

func NewReporter(diag *Diagnostics, show config.ShowLevel) *Reporter {
	return &Reporter{diag: diag, show: show}
}

func (r *Reporter) Show() config.ShowLevel {
	return r.show
}

func (r *Reporter) SetShow(show config.ShowLevel) {
	r.show = show
}

// Error reports a problem with a received message.
func (r *Reporter) Error(message string) {
	if r.show.Shows(config.ShowErrors) {
		r.diag.Error(message)
	}
}

// Notice reports a module state change such as a birth or death.
func (r *Reporter) Notice(message string) {
	if r.show.Shows(config.ShowErrors) {
		r.diag.Info(message)
	}
}

// Topic reports that a message arrived.
func (r *Reporter) Topic(topic string) {
	if r.show.Shows(config.ShowTopic) {
		r.diag.Info(topic)
	}
}

// Metric reports one received metric. Unchanged values are only shown at
// ShowAll.
func (r *Reporter) Metric(m metrics.Metric, changed bool) {
	level := config.ShowAll
	if changed {
		level = config.ShowChanged
	}
	if r.show.Shows(level) {
		r.diag.Infof("  %s = %s", m.Name, m.Value)
	}
}
