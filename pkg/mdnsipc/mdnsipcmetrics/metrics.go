// Package mdnsipcmetrics provides VictoriaMetrics counters for an mdnsipc.IPC
// instance, following the style of atlas's pkg/metricsx.
package mdnsipcmetrics

import (
	"github.com/VictoriaMetrics/metrics"
	"github.com/pg9182/mdnsresponder/pkg/metricsx"
)

// Metrics holds the counters and gauges for one IPC instance. The zero value
// is usable: every method is nil-safe, so callers that don't want metrics
// can simply leave a *Metrics field nil.
type Metrics struct {
	set *metrics.Set

	framesReadTotal      *metrics.Counter
	framesDiscardedTotal struct {
		malformedHeader *metrics.Counter
		bodyParseError  *metrics.Counter
		overrun         *metrics.Counter
	}
	eventsPublishedTotal *metrics.Counter
	writerCallsTotal     struct {
		browse   *metrics.Counter
		resolve  *metrics.Counter
		addrinfo *metrics.Counter
		cancel   *metrics.Counter
	}
	writerFailuresTotal *metrics.Counter
	assemblerBufferSize *metrics.Gauge
}

// New creates a Metrics instance. If set is nil, all counter operations
// become no-ops (the metrics are simply not registered anywhere).
func New(set *metrics.Set) *Metrics {
	m := &Metrics{set: set}
	if set == nil {
		return m
	}

	m.framesReadTotal = set.NewCounter(`mdnsipc_frames_read_total`)
	m.framesDiscardedTotal.malformedHeader = set.NewCounter(metricsx.Name(`mdnsipc_frames_discarded_total`, "reason", "malformed_header"))
	m.framesDiscardedTotal.bodyParseError = set.NewCounter(metricsx.Name(`mdnsipc_frames_discarded_total`, "reason", "body_parse_error"))
	m.framesDiscardedTotal.overrun = set.NewCounter(metricsx.Name(`mdnsipc_frames_discarded_total`, "reason", "overrun"))
	m.eventsPublishedTotal = set.NewCounter(`mdnsipc_events_published_total`)
	m.writerCallsTotal.browse = set.NewCounter(metricsx.Name(`mdnsipc_writer_calls_total`, "op", "browse"))
	m.writerCallsTotal.resolve = set.NewCounter(metricsx.Name(`mdnsipc_writer_calls_total`, "op", "resolve"))
	m.writerCallsTotal.addrinfo = set.NewCounter(metricsx.Name(`mdnsipc_writer_calls_total`, "op", "addrinfo"))
	m.writerCallsTotal.cancel = set.NewCounter(metricsx.Name(`mdnsipc_writer_calls_total`, "op", "cancel"))
	m.writerFailuresTotal = set.NewCounter(`mdnsipc_writer_failures_total`)

	return m
}

// Set returns the underlying *metrics.Set, or nil if metrics are disabled.
func (m *Metrics) Set() *metrics.Set {
	if m == nil {
		return nil
	}
	return m.set
}

func (m *Metrics) FrameRead() {
	if m != nil && m.framesReadTotal != nil {
		m.framesReadTotal.Inc()
	}
}

func (m *Metrics) FrameDiscardedMalformedHeader() {
	if m != nil && m.framesDiscardedTotal.malformedHeader != nil {
		m.framesDiscardedTotal.malformedHeader.Inc()
	}
}

func (m *Metrics) FrameDiscardedBodyParseError() {
	if m != nil && m.framesDiscardedTotal.bodyParseError != nil {
		m.framesDiscardedTotal.bodyParseError.Inc()
	}
}

func (m *Metrics) FrameDiscardedOverrun() {
	if m != nil && m.framesDiscardedTotal.overrun != nil {
		m.framesDiscardedTotal.overrun.Inc()
	}
}

func (m *Metrics) EventPublished() {
	if m != nil && m.eventsPublishedTotal != nil {
		m.eventsPublishedTotal.Inc()
	}
}

func (m *Metrics) WriterCalled(op string) {
	if m == nil {
		return
	}
	switch op {
	case "browse":
		incIfSet(m.writerCallsTotal.browse)
	case "resolve":
		incIfSet(m.writerCallsTotal.resolve)
	case "addrinfo":
		incIfSet(m.writerCallsTotal.addrinfo)
	case "cancel":
		incIfSet(m.writerCallsTotal.cancel)
	}
}

func (m *Metrics) WriterFailed() {
	if m != nil && m.writerFailuresTotal != nil {
		m.writerFailuresTotal.Inc()
	}
}

// ReplySkipped counts a reply operation that decoded a valid header but
// that the core has no Event shape for (see mdnsipc.isInterpretedReplyOp).
// The per-operation counter is created on first use via GetOrCreateCounter,
// since the set of skippable operations is fixed by the protocol but this
// package can't depend on mdnsipc's ReplyOp type to enumerate them (that
// would be an import cycle).
func (m *Metrics) ReplySkipped(opName string) {
	if m == nil || m.set == nil {
		return
	}
	m.set.GetOrCreateCounter(metricsx.Name(`mdnsipc_replies_skipped_total`, "op", opName)).Inc()
}

// RegisterAssemblerBufferSizeFunc wires f as the live source for the
// mdnsipc_assembler_buffer_bytes gauge. It must be called at most once; f is
// polled whenever the set is scraped.
func (m *Metrics) RegisterAssemblerBufferSizeFunc(f func() float64) {
	if m == nil || m.set == nil || m.assemblerBufferSize != nil {
		return
	}
	m.assemblerBufferSize = m.set.NewGauge(`mdnsipc_assembler_buffer_bytes`, f)
}

func incIfSet(c *metrics.Counter) {
	if c != nil {
		c.Inc()
	}
}
