package mdnsipc

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/pg9182/mdnsresponder/pkg/mdnsipc/mdnsipcmetrics"
	"github.com/rs/zerolog"
)

// readChunkSize is the maximum number of bytes read from the socket per
// syscall, matching the daemon's own framing granularity.
const readChunkSize = 2048

// reader is the single long-lived goroutine that owns the read half of the
// connection, drives the frame assembler, and publishes decoded replies as
// Events.
type reader struct {
	conn    *net.UnixConn
	events  chan<- Event
	logger  zerolog.Logger
	metrics *mdnsipcmetrics.Metrics

	// bufSize mirrors the assembler's current buffer length. It exists so
	// BufferSize can be polled as a metrics gauge from another goroutine
	// without touching the assembler itself, which is not safe for
	// concurrent use.
	bufSize atomic.Int64
}

// BufferSize returns the assembler's current unconsumed buffer length, for
// use as a live metrics gauge source.
func (r *reader) BufferSize() float64 {
	return float64(r.bufSize.Load())
}

// run drives the reader loop until ctx is cancelled, the peer closes the
// connection, or a read error occurs. It always closes r.events before
// returning, so a consumer observes end-of-stream via the closed channel.
//
// Cancellation is implemented by closing the connection out of band (see
// IPC.Close): that unblocks whatever blocking Read is in flight immediately,
// which is the idiomatic Go analogue of selecting over a cancellation token
// and socket readability at once. Bytes still pending in the assembler at
// the moment cancellation is observed are discarded, never decoded.
func (r *reader) run(ctx context.Context) {
	defer close(r.events)

	var asm assembler
	buf := make([]byte, readChunkSize)

	for {
		n, err := r.conn.Read(buf)
		if err != nil || n == 0 {
			// Either the peer closed (n == 0, err == io.EOF), a read error
			// occurred, or IPC.Close closed the connection to interrupt us.
			// All three end the task the same way.
			asm.reset()
			r.bufSize.Store(0)
			return
		}

		r.metrics.FrameRead()
		asm.feed(buf[:n])
		r.bufSize.Store(int64(len(asm.buf)))

		if ctx.Err() != nil {
			// Cancellation arrived between reads: don't decode or publish
			// anything further from the buffer we just grew.
			asm.reset()
			r.bufSize.Store(0)
			return
		}

		publish := func(ev Event) {
			select {
			case r.events <- ev:
				r.metrics.EventPublished()
			case <-ctx.Done():
				// Cancellation won the race while we were suspended trying
				// to publish; drop the event and let the outer ctx.Err()
				// checks unwind the loop.
			}
		}

		for {
			_, status := asm.drain(publish, r.logSkipped, r.logBodyError)
			switch status {
			case drainParseError:
				r.logger.Warn().Msg("mdnsipc: discarding buffer after malformed frame header")
				r.metrics.FrameDiscardedMalformedHeader()
			case drainOverrun:
				r.logger.Warn().Msg("mdnsipc: discarding buffer after oversized frame")
				r.metrics.FrameDiscardedOverrun()
			}
			r.bufSize.Store(int64(len(asm.buf)))
			if status != drainOK {
				break
			}
			r.metrics.FrameRead()
			if ctx.Err() != nil {
				asm.reset()
				r.bufSize.Store(0)
				return
			}
		}

		if ctx.Err() != nil {
			asm.reset()
			r.bufSize.Store(0)
			return
		}
	}
}

func (r *reader) logBodyError(op ReplyOp, err error) {
	r.logger.Warn().Stringer("op", op).Err(err).Msg("mdnsipc: discarding frame after body parse error")
	r.metrics.FrameDiscardedBodyParseError()
}

// logSkipped handles a reply operation that is recognized (it decoded a
// valid header) but that this core has no Event shape for, e.g. a
// RegisterService or Query reply received over a connection only used for
// Browse/Resolve/AddressInfo. Per spec, these are logged and skipped
// rather than silently dropped.
func (r *reader) logSkipped(op ReplyOp) {
	r.logger.Debug().Stringer("op", op).Msg("mdnsipc: skipping unhandled reply operation")
	r.metrics.ReplySkipped(op.String())
}
