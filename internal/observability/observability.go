package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vcmclient"

// Metrics are the client's Prometheus instruments, registered on their own
// registry so tests and multiple clients never collide.
type Metrics struct {
	Registry *prometheus.Registry

	messages       *prometheus.CounterVec
	decodeErrors   prometheus.Counter
	unknownMetrics prometheus.Counter
	updates        prometheus.Counter
	commands       *prometheus.CounterVec
	commandErrors  *prometheus.CounterVec
	logRows        prometheus.Counter
	logErrors      prometheus.Counter
	alive          prometheus.Gauge
	compatible     prometheus.Gauge
	handleLatency  prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Sparkplug messages received for the selected module, by message type.",
		}, []string{"type"}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Received messages whose topic or payload could not be decoded.",
		}),
		unknownMetrics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_metrics_total",
			Help:      "Received metrics whose name is not tracked.",
		}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metric_updates_total",
			Help:      "Metric values applied to the store.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_published_total",
			Help:      "Commands sent to the module, by command.",
		}, []string{"command"}),
		commandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Commands rejected or failed, by command.",
		}, []string{"command"}),
		logRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datalog_rows_total",
			Help:      "Rows appended to the CSV data log.",
		}),
		logErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datalog_errors_total",
			Help:      "CSV data log failures.",
		}),
		alive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "module_alive",
			Help:      "1 while the selected module has an active Sparkplug session.",
		}),
		compatible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "module_compatible",
			Help:      "1 while the selected module reports a supported communications version.",
		}),
		handleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_handle_seconds",
			Help:      "Time spent applying one received message.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
	}

	m.Registry.MustRegister(
		m.messages, m.decodeErrors, m.unknownMetrics, m.updates,
		m.commands, m.commandErrors, m.logRows, m.logErrors,
		m.alive, m.compatible, m.handleLatency,
	)

	return m
}

func (m *Metrics) MessageReceived(msgType string) {
	m.messages.WithLabelValues(msgType).Inc()
}

func (m *Metrics) DecodeError() {
	m.decodeErrors.Inc()
}

func (m *Metrics) UnknownMetric() {
	m.unknownMetrics.Inc()
}

func (m *Metrics) MetricUpdated() {
	m.updates.Inc()
}

// CommandResult counts one command attempt.
func (m *Metrics) CommandResult(command string, err error) {
	if err != nil {
		m.commandErrors.WithLabelValues(command).Inc()
		return
	}
	m.commands.WithLabelValues(command).Inc()
}

// LogResult counts one data log write.
func (m *Metrics) LogResult(err error) {
	if err != nil {
		m.logErrors.Inc()
		return
	}
	m.logRows.Inc()
}

func (m *Metrics) SetModuleState(alive, compatible bool) {
	m.alive.Set(boolToFloat(alive))
	m.compatible.Set(boolToFloat(compatible))
}

func (m *Metrics) ObserveHandle(seconds float64) {
	m.handleLatency.Observe(seconds)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
