package mdnsipc

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/pg9182/mdnsresponder/pkg/mdnsipc/mdnsipcmetrics"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// DefaultSocketPath is the well-known path mDNSResponder listens on.
const DefaultSocketPath = "/var/run/mDNSResponder"

// IPC owns one connection to the local mDNSResponder daemon: the write half
// of the socket, the reader goroutine's lifetime, and the cancellation that
// ties the two together. The read half is owned exclusively by the reader
// goroutine for the lifetime of the connection.
//
// An IPC is consumed by Close; it must not be reused afterwards.
type IPC struct {
	conn    *net.UnixConn
	writeMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{} // closed when the reader goroutine returns

	logger  zerolog.Logger
	metrics *mdnsipcmetrics.Metrics

	closeOnce sync.Once
}

// Options configures an IPC instance. The zero value uses DefaultSocketPath,
// a no-op logger, and no metrics.
type Options struct {
	// SocketPath overrides DefaultSocketPath. Exposed for testability
	// (dialing a temporary listener), not for production tuning — the
	// protocol assumes mDNSResponder's well-known path.
	SocketPath string

	// Logger receives structured log lines for internal, non-user-visible
	// conditions (malformed frames, body parse errors, read/write errors).
	Logger zerolog.Logger

	// Metrics, if non-nil, is updated as frames are read/discarded and
	// events are published.
	Metrics *mdnsipcmetrics.Metrics
}

// Open connects to the daemon and starts the reader goroutine. events must
// be a non-nil, buffered channel; the reader is its sole sender and closes
// it when it exits, for any reason (cancellation, peer EOF, or read error).
func Open(ctx context.Context, opts Options, events chan<- Event) (*IPC, error) {
	path := opts.SocketPath
	if path == "" {
		path = DefaultSocketPath
	}

	conn, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIPCConnectionCreationFailed, err)
	}

	if err := growReceiveBuffer(conn, maxFrameBuffer); err != nil {
		opts.Logger.Debug().Err(err).Msg("mdnsipc: failed to grow socket receive buffer")
	}

	runCtx, cancel := context.WithCancel(ctx)
	// Cancelling ctx (or calling Close) closes the connection, which unblocks
	// a Read the reader goroutine has in flight.
	context.AfterFunc(runCtx, func() { conn.Close() })

	ipc := &IPC{
		conn:    conn,
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}

	r := &reader{
		conn:    conn,
		events:  events,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	opts.Metrics.RegisterAssemblerBufferSizeFunc(r.BufferSize)

	go func() {
		defer close(ipc.done)
		r.run(runCtx)
	}()

	return ipc, nil
}

// growReceiveBuffer raises the kernel receive buffer on conn to at least n
// bytes, so a daemon that bursts several maximal-size frames in a row
// doesn't stall on socket backpressure before the reader ever gets to drain
// them into the assembler.
func growReceiveBuffer(conn *net.UnixConn, n int) error {
	rc, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var setErr error
	if err := rc.Control(func(fd uintptr) {
		setErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, n)
	}); err != nil {
		return err
	}
	return setErr
}

// Close trips the cancellation, waits for the reader goroutine to finish,
// and releases the connection. Calling Close more than once is a no-op.
func (ipc *IPC) Close() error {
	ipc.closeOnce.Do(func() {
		ipc.cancel()
		// Unblock a pending read immediately rather than waiting for the
		// daemon; the reader goroutine treats this as a clean exit.
		ipc.conn.Close()
		<-ipc.done
	})
	return nil
}
