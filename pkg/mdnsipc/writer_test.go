package mdnsipc

import (
	"bytes"
	"testing"
)

func TestWriteRequestFrame(t *testing.T) {
	server, client := newUnixPipe(t)
	ipc := &IPC{conn: client}

	if err := ipc.writeRequest(RequestBrowse, 0x1122334455667788, []byte("body")); err != nil {
		t.Fatalf("writeRequest: %v", err)
	}

	buf := make([]byte, HeaderSize+len("body"))
	if _, err := readFull(server, buf); err != nil {
		t.Fatalf("read frame: %v", err)
	}

	h, err := DecodeHeader(buf[:HeaderSize])
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.Operation != uint32(RequestBrowse) {
		t.Errorf("operation = %d, want %d", h.Operation, RequestBrowse)
	}
	if h.ClientContext != 0x1122334455667788 {
		t.Errorf("client context = %x, want %x", h.ClientContext, 0x1122334455667788)
	}
	if h.DataLength != uint32(len("body")) {
		t.Errorf("data length = %d, want %d", h.DataLength, len("body"))
	}
	if !bytes.Equal(buf[HeaderSize:], []byte("body")) {
		t.Errorf("body = %q, want %q", buf[HeaderSize:], "body")
	}
}

// TestCancelRequestByteExact checks that Cancel writes exactly a bare header
// (no body) carrying the caller-supplied context, reusing it rather than
// drawing a fresh one.
func TestCancelRequestByteExact(t *testing.T) {
	server, client := newUnixPipe(t)
	ipc := &IPC{conn: client}

	const reqContext uint64 = 0xabad1deacafed00d
	if err := ipc.Cancel(reqContext); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	buf := make([]byte, HeaderSize)
	if _, err := readFull(server, buf); err != nil {
		t.Fatalf("read frame: %v", err)
	}

	h, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.Operation != uint32(RequestCancel) {
		t.Errorf("operation = %d, want %d", h.Operation, RequestCancel)
	}
	if h.ClientContext != reqContext {
		t.Errorf("client context = %x, want %x", h.ClientContext, reqContext)
	}
	if h.DataLength != 0 {
		t.Errorf("data length = %d, want 0 (no body)", h.DataLength)
	}

	want := EncodeHeader(Header{
		Version:       1,
		IPCFlags:      IPCFlagNoErrSd,
		Operation:     uint32(RequestCancel),
		ClientContext: reqContext,
	})
	if !bytes.Equal(buf, want) {
		t.Errorf("frame = %x, want %x", buf, want)
	}
}

// TestNewContextFreshness draws a large number of contexts and checks that
// none collide, a cheap statistical stand-in for "uniformly random over 64
// bits".
func TestNewContextFreshness(t *testing.T) {
	const draws = 200000
	seen := make(map[uint64]struct{}, draws)
	for i := 0; i < draws; i++ {
		v, err := newContext()
		if err != nil {
			t.Fatalf("newContext: %v", err)
		}
		if _, ok := seen[v]; ok {
			t.Fatalf("collision after %d draws: %x", i, v)
		}
		seen[v] = struct{}{}
	}
}

func TestBrowseResolveAddrInfoDrawFreshContexts(t *testing.T) {
	_, client := newUnixPipe(t)
	ipc := &IPC{conn: client}

	c1, err := ipc.Browse("_http._tcp", "local")
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	c2, err := ipc.Resolve("svc", "_http._tcp", "local")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	c3, err := ipc.GetAddrInfo(ProtocolIPv4, "host.local")
	if err != nil {
		t.Fatalf("GetAddrInfo: %v", err)
	}

	if c1 == c2 || c2 == c3 || c1 == c3 {
		t.Errorf("expected distinct contexts, got %x %x %x", c1, c2, c3)
	}
}

func readFull(conn interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
