package posix

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/lifecycle"
)

const metricsNamespace = "halport"

// metrics holds the backend's Prometheus collectors. A nil *metrics records
// nothing.
type metrics struct {
	handles           *prometheus.GaugeVec
	timerFires        prometheus.Counter
	kvOps             *prometheus.CounterVec
	heapBytes         prometheus.Gauge
	semaphoreTimeouts prometheus.Counter
	threadDeleteFatal prometheus.Counter
	lifecycleState    *prometheus.GaugeVec
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	if r == nil {
		return nil, nil
	}
	m := &metrics{
		handles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "handles_live",
			Help:      "Live HAL handles by kind.",
		}, []string{"kind"}),
		timerFires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "timer_fires_total",
			Help:      "Timer callbacks invoked.",
		}),
		kvOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "kv_operations_total",
			Help:      "Key-value store operations by operation and result.",
		}, []string{"op", "result"}),
		heapBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "heap_bytes",
			Help:      "Live bytes allocated through the memory facade.",
		}),
		semaphoreTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "semaphore_timeouts_total",
			Help:      "Semaphore waits that expired.",
		}),
		threadDeleteFatal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "thread_delete_unfinished_total",
			Help:      "Thread deletions whose target did not stop within the grace period.",
		}),
		lifecycleState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "lifecycle_state",
			Help:      "Lifecycle state by component (0 stopped, 1 starting, 2 running, 3 stopping, 4 crashed).",
		}, []string{"component"}),
	}

	var err error
	if m.handles, err = register(r, m.handles); err != nil {
		return nil, err
	}
	if m.timerFires, err = register(r, m.timerFires); err != nil {
		return nil, err
	}
	if m.kvOps, err = register(r, m.kvOps); err != nil {
		return nil, err
	}
	if m.heapBytes, err = register(r, m.heapBytes); err != nil {
		return nil, err
	}
	if m.semaphoreTimeouts, err = register(r, m.semaphoreTimeouts); err != nil {
		return nil, err
	}
	if m.threadDeleteFatal, err = register(r, m.threadDeleteFatal); err != nil {
		return nil, err
	}
	if m.lifecycleState, err = register(r, m.lifecycleState); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to r. When an equal collector is already registered, as
// with several platforms in one process, the existing one is shared.
func register[C prometheus.Collector](r prometheus.Registerer, c C) (C, error) {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) setHandles(kind string, n int) {
	if m == nil {
		return
	}
	m.handles.WithLabelValues(kind).Set(float64(n))
}

func (m *metrics) timerFired() {
	if m == nil {
		return
	}
	m.timerFires.Inc()
}

func (m *metrics) setHeap(n uint64) {
	if m == nil {
		return
	}
	m.heapBytes.Set(float64(n))
}

func (m *metrics) semaphoreTimeout() {
	if m == nil {
		return
	}
	m.semaphoreTimeouts.Inc()
}

func (m *metrics) threadDeleteUnfinished() {
	if m == nil {
		return
	}
	m.threadDeleteFatal.Inc()
}

// stateGauge exports one component's lifecycle state.
type stateGauge struct {
	gauge prometheus.Gauge
}

func (g stateGauge) OnStateChange(_, current lifecycle.State, _ string) {
	g.gauge.Set(float64(current))
}

// lifecycleEmitter returns the emitter for component, or nil when metrics
// are disabled.
func (m *metrics) lifecycleEmitter(component string) lifecycle.EventEmitter {
	if m == nil {
		return nil
	}
	return stateGauge{gauge: m.lifecycleState.WithLabelValues(component)}
}

// ObserveKV implements kvstore.Observer.
func (m *metrics) ObserveKV(op string, err error) {
	if m == nil {
		return
	}
	m.kvOps.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, hal.ErrNotFound):
		return "not_found"
	case errors.Is(err, hal.ErrBufferTooSmall):
		return "buffer_too_small"
	default:
		return string(hal.CodeOf(err))
	}
}
