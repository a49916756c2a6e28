// Command mdns-browse browses for a service type against the local
// mDNSResponder daemon and prints events as they arrive, until Ctrl+C is
// pressed or the daemon connection closes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pg9182/mdnsresponder/pkg/mdnsresponder"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

var opt struct {
	Help        bool
	Socket      string
	Domain      string
	Capacity    int
	Verbose     bool
	MetricsAddr string
}

func init() {
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
	pflag.StringVar(&opt.Socket, "socket", "", "Path to the mDNSResponder UNIX socket (default: the daemon's well-known path)")
	pflag.StringVar(&opt.Domain, "domain", "local", "Domain to browse in")
	pflag.IntVar(&opt.Capacity, "capacity", 32, "Event channel buffer size")
	pflag.BoolVarP(&opt.Verbose, "verbose", "v", false, "Enable debug-level logging")
	pflag.StringVar(&opt.MetricsAddr, "metrics-addr", "", "If set, serve Prometheus metrics on this address (e.g. 127.0.0.1:9109)")
}

func main() {
	pflag.Parse()

	if pflag.NArg() != 1 || opt.Help {
		fmt.Printf("usage: %s [options] service-type\n\nexample: %s _http._tcp\n\noptions:\n%s", os.Args[0], os.Args[0], pflag.CommandLine.FlagUsages())
		if opt.Help {
			os.Exit(2)
		}
		os.Exit(0)
	}
	serviceType := pflag.Arg(0)

	level := zerolog.InfoLevel
	if opt.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()

	var metricsSet *metrics.Set
	if opt.MetricsAddr != "" {
		metricsSet = metrics.NewSet()
		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metricsSet.WritePrometheus(w)
		})
		go func() {
			if err := http.ListenAndServe(opt.MetricsAddr, mux); err != nil {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mdnsresponder.Open(ctx, opt.Capacity, mdnsresponder.Options{
		SocketPath: opt.Socket,
		Logger:     logger,
		Metrics:    metricsSet,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: connect to mDNSResponder: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	browseCtx, err := client.Browse(serviceType, opt.Domain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: browse: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Uint64("context", browseCtx).Msg("browse started, waiting for services or Ctrl+C to exit")

loop:
	for {
		select {
		case ev, ok := <-client.Events():
			if !ok {
				logger.Debug().Msg("connection closed")
				break loop
			}
			printEvent(ev)
		case <-ctx.Done():
			break loop
		}
	}

	if err := client.Cancel(browseCtx); err != nil {
		logger.Warn().Err(err).Msg("cancel browse")
	}
}

func printEvent(ev mdnsresponder.Event) {
	switch ev.Kind {
	case mdnsresponder.ServiceAdded:
		fmt.Printf("+ %s.%s.%s\n", ev.Service.Name, ev.Service.ServiceType, ev.Service.Domain)
	case mdnsresponder.ServiceRemoved:
		fmt.Printf("- %s.%s.%s\n", ev.Service.Name, ev.Service.ServiceType, ev.Service.Domain)
	case mdnsresponder.ServiceResolved:
		fmt.Printf("= %s -> %s:%d %v\n", ev.Resolved.FullName, ev.Resolved.HostTarget, ev.Resolved.Port, ev.Resolved.TXTData)
	case mdnsresponder.AddressInfoResolved:
		fmt.Printf("@ %s -> %s\n", ev.AddrInfo.Hostname, ev.AddrInfo.Address)
	}
}
