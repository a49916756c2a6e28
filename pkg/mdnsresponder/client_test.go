package mdnsresponder

import (
	"context"
	"testing"

	"github.com/pg9182/mdnsresponder/pkg/mdnsipc"
)

func TestOpenRejectsZeroCapacity(t *testing.T) {
	_, err := Open(context.Background(), 0, Options{})
	if err != mdnsipc.ErrChannelCreationFailed {
		t.Errorf("got %v, want ErrChannelCreationFailed", err)
	}
}

func TestOpenRejectsBadSocketPath(t *testing.T) {
	_, err := Open(context.Background(), 1, Options{SocketPath: "/nonexistent/path/to/socket"})
	if err == nil {
		t.Fatal("expected an error dialing a nonexistent socket")
	}
}
