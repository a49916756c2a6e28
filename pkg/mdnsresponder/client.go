// Package mdnsresponder is a thin, user-facing client for the local
// mDNSResponder daemon: open a connection, browse/resolve/look up
// addresses, and receive the results as a stream of Events.
//
// The protocol work — framing, reassembly, and dispatch — lives in
// pkg/mdnsipc; this package only wires that core up behind a small,
// convenient API.
package mdnsresponder

import (
	"context"
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pg9182/mdnsresponder/pkg/mdnsipc"
	"github.com/pg9182/mdnsresponder/pkg/mdnsipc/mdnsipcmetrics"
	"github.com/rs/zerolog"
)

// Event, Service, Resolved, AddrInfo, and Kind are re-exported from mdnsipc
// so callers don't need to import the lower-level package directly.
type (
	Event    = mdnsipc.Event
	Service  = mdnsipc.Service
	Resolved = mdnsipc.Resolved
	AddrInfo = mdnsipc.AddrInfo
	Kind     = mdnsipc.Kind
)

// Re-exported event kinds and protocol selectors.
const (
	ServiceAdded        = mdnsipc.ServiceAdded
	ServiceRemoved      = mdnsipc.ServiceRemoved
	ServiceResolved     = mdnsipc.ServiceResolved
	AddressInfoResolved = mdnsipc.AddressInfoResolved

	ProtocolIPv4 = mdnsipc.ProtocolIPv4
	ProtocolIPv6 = mdnsipc.ProtocolIPv6
	ProtocolBoth = mdnsipc.ProtocolBoth
)

// Client is a connection to the local mDNSResponder daemon.
type Client struct {
	ipc    *mdnsipc.IPC
	events chan mdnsipc.Event
}

// Options configures Open.
type Options struct {
	// SocketPath overrides mdnsipc.DefaultSocketPath. Leave empty in
	// production; this exists for tests that dial a temporary listener.
	SocketPath string

	// Logger receives structured log lines for internal, non-user-visible
	// protocol conditions. The zero value discards everything.
	Logger zerolog.Logger

	// Metrics, if non-nil, is populated with IPC counters under it.
	Metrics *metrics.Set
}

// Open connects to the daemon and returns a Client whose event channel has
// room for capacity pending Events. capacity must be >= 1.
func Open(ctx context.Context, capacity int, opts Options) (*Client, error) {
	if capacity < 1 {
		return nil, mdnsipc.ErrChannelCreationFailed
	}

	events := make(chan mdnsipc.Event, capacity)

	ipc, err := mdnsipc.Open(ctx, mdnsipc.Options{
		SocketPath: opts.SocketPath,
		Logger:     opts.Logger,
		Metrics:    mdnsipcmetrics.New(opts.Metrics),
	}, events)
	if err != nil {
		return nil, err
	}

	return &Client{ipc: ipc, events: events}, nil
}

// Events returns the channel Events are delivered on. It is closed when the
// underlying connection's reader stops, for any reason; a closed-channel
// receive (ok == false) is how callers detect end-of-stream.
func (c *Client) Events() <-chan mdnsipc.Event {
	return c.events
}

// Browse subscribes to appearance/removal events for serviceType in domain
// and returns the context correlating future events (and a later Cancel
// call) to this subscription.
func (c *Client) Browse(serviceType, domain string) (uint64, error) {
	ctx, err := c.ipc.Browse(serviceType, domain)
	if err != nil {
		return 0, fmt.Errorf("browse %s in %s: %w", serviceType, domain, err)
	}
	return ctx, nil
}

// Resolve requests host, port, and TXT data for a named service instance.
func (c *Client) Resolve(name, serviceType, domain string) (uint64, error) {
	ctx, err := c.ipc.Resolve(name, serviceType, domain)
	if err != nil {
		return 0, fmt.Errorf("resolve %s.%s.%s: %w", name, serviceType, domain, err)
	}
	return ctx, nil
}

// GetAddrInfo requests address resolution for hostname.
func (c *Client) GetAddrInfo(hostname string, protocol mdnsipc.Protocol) (uint64, error) {
	ctx, err := c.ipc.GetAddrInfo(protocol, hostname)
	if err != nil {
		return 0, fmt.Errorf("get address info for %s: %w", hostname, err)
	}
	return ctx, nil
}

// Cancel asks the daemon to stop producing results for a context returned
// by a prior Browse, Resolve, or GetAddrInfo call.
func (c *Client) Cancel(reqContext uint64) error {
	if err := c.ipc.Cancel(reqContext); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	return nil
}

// Close tears down the connection to the daemon. After Close, the Client
// must not be used again.
func (c *Client) Close() error {
	return c.ipc.Close()
}
