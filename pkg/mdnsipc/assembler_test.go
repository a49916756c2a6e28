package mdnsipc

import (
	"testing"
)

func encodeBrowseReplyFrame(t *testing.T, clientContext uint64, add bool, name, typ, domain string) []byte {
	t.Helper()

	flags := ReplyFlags(0)
	if add {
		flags = ReplyFlagAdd
	}

	var body []byte
	body = appendUint32(body, uint32(flags))
	body = appendUint32(body, 0) // interface index
	body = appendUint32(body, 0) // error
	body = appendCString(body, name)
	body = appendCString(body, typ)
	body = appendCString(body, domain)

	h := Header{
		Version:       1,
		DataLength:    uint32(len(body)),
		Operation:     uint32(ReplyBrowse),
		ClientContext: clientContext,
	}
	return append(EncodeHeader(h), body...)
}

// TestAssemblerBrowseAdd covers a single Browse-add reply delivered whole.
func TestAssemblerBrowseAdd(t *testing.T) {
	frame := encodeBrowseReplyFrame(t, 42, true, "printer", "_ipp._tcp", "local")

	var asm assembler
	asm.feed(frame)

	var got []Event
	_, status := asm.drain(func(ev Event) { got = append(got, ev) }, nil, nil)
	if status != drainOK {
		t.Fatalf("drain status = %v, want drainOK", status)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Kind != ServiceAdded || got[0].Context != 42 || got[0].Service.Name != "printer" {
		t.Errorf("unexpected event: %+v", got[0])
	}
}

// TestAssemblerBrowseRemove covers a single Browse-remove reply.
func TestAssemblerBrowseRemove(t *testing.T) {
	frame := encodeBrowseReplyFrame(t, 7, false, "printer", "_ipp._tcp", "local")

	var asm assembler
	asm.feed(frame)

	var got []Event
	_, status := asm.drain(func(ev Event) { got = append(got, ev) }, nil, nil)
	if status != drainOK {
		t.Fatalf("drain status = %v, want drainOK", status)
	}
	if len(got) != 1 || got[0].Kind != ServiceRemoved {
		t.Fatalf("unexpected events: %+v", got)
	}
}

// TestAssemblerSplitFrame feeds a single frame across two writes and checks
// that nothing is emitted until the full frame has arrived.
func TestAssemblerSplitFrame(t *testing.T) {
	frame := encodeBrowseReplyFrame(t, 1, true, "a", "_http._tcp", "local")
	mid := len(frame) / 2

	var asm assembler
	asm.feed(frame[:mid])

	var got []Event
	_, status := asm.drain(func(ev Event) { got = append(got, ev) }, nil, nil)
	if status != drainNeedMore {
		t.Fatalf("drain status = %v, want drainNeedMore", status)
	}
	if len(got) != 0 {
		t.Fatalf("got %d events before frame complete, want 0", len(got))
	}

	asm.feed(frame[mid:])
	_, status = asm.drain(func(ev Event) { got = append(got, ev) }, nil, nil)
	if status != drainOK {
		t.Fatalf("drain status = %v, want drainOK", status)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
}

// TestAssemblerMalformedHeaderResync checks that an unrecognized operation
// code in the header discards the entire buffer, including any valid frame
// bytes queued up after it, rather than scanning forward to resync.
func TestAssemblerMalformedHeaderResync(t *testing.T) {
	bad := EncodeHeader(Header{Operation: 0xff})
	good := encodeBrowseReplyFrame(t, 99, true, "b", "_http._tcp", "local")

	var asm assembler
	asm.feed(bad)
	asm.feed(good)

	var got []Event
	_, status := asm.drain(func(ev Event) { got = append(got, ev) }, nil, nil)
	if status != drainParseError {
		t.Fatalf("drain status = %v, want drainParseError", status)
	}
	if len(got) != 0 {
		t.Fatalf("got %d events from malformed buffer, want 0", len(got))
	}
	if len(asm.buf) != 0 {
		t.Fatalf("buffer not reset after malformed header, %d bytes remain", len(asm.buf))
	}

	// The valid frame that followed the malformed header is gone too: a new
	// feed is required, matching the "discard everything, not a scan" rule.
	asm.feed(good)
	got = nil
	_, status = asm.drain(func(ev Event) { got = append(got, ev) }, nil, nil)
	if status != drainOK || len(got) != 1 {
		t.Fatalf("re-fed frame did not decode: status=%v got=%+v", status, got)
	}
}

// TestAssemblerBodyParseErrorContinues checks that a frame whose header is
// well-formed but whose body fails to parse is discarded on its own, leaving
// subsequent frames in the buffer intact.
func TestAssemblerBodyParseErrorContinues(t *testing.T) {
	// A Browse reply body too short to contain even the reply header.
	h := Header{Operation: uint32(ReplyBrowse), DataLength: 2}
	truncated := append(EncodeHeader(h), 0, 0)
	good := encodeBrowseReplyFrame(t, 5, true, "c", "_http._tcp", "local")

	var asm assembler
	asm.feed(truncated)
	asm.feed(good)

	var bodyErrs int
	_, status := asm.drain(func(Event) {}, nil, func(ReplyOp, error) { bodyErrs++ })
	if status != drainOK {
		t.Fatalf("drain status = %v, want drainOK", status)
	}
	if bodyErrs != 1 {
		t.Fatalf("got %d body errors, want 1", bodyErrs)
	}

	var got []Event
	_, status = asm.drain(func(ev Event) { got = append(got, ev) }, nil, nil)
	if status != drainOK || len(got) != 1 {
		t.Fatalf("frame following the bad one did not decode: status=%v got=%+v", status, got)
	}
}

// TestAssemblerSkippedReplyOpIsReported checks that a well-formed frame
// whose reply operation is recognized but not interpreted (e.g.
// RegisterService) is reported via onSkipped rather than silently dropped,
// and does not stop subsequent frames from decoding normally.
func TestAssemblerSkippedReplyOpIsReported(t *testing.T) {
	for _, op := range []ReplyOp{
		ReplyEnumeration,
		ReplyRegisterService,
		ReplyQuery,
		ReplyRegisterRecord,
		ReplyGetProperty,
		ReplyPortMapping,
		ReplyAsyncError,
	} {
		h := Header{Operation: uint32(op), DataLength: 0}
		frame := EncodeHeader(h)
		good := encodeBrowseReplyFrame(t, 1, true, "d", "_http._tcp", "local")

		var asm assembler
		asm.feed(frame)
		asm.feed(good)

		var skipped []ReplyOp
		var got []Event
		_, status := asm.drain(func(ev Event) { got = append(got, ev) }, func(o ReplyOp) { skipped = append(skipped, o) }, nil)
		if status != drainOK {
			t.Fatalf("op %v: drain status = %v, want drainOK", op, status)
		}
		if len(got) != 0 {
			t.Fatalf("op %v: got %d events from a skipped-op frame, want 0", op, len(got))
		}
		if len(skipped) != 1 || skipped[0] != op {
			t.Fatalf("op %v: onSkipped called with %+v, want [%v]", op, skipped, op)
		}

		got = nil
		_, status = asm.drain(func(ev Event) { got = append(got, ev) }, nil, nil)
		if status != drainOK || len(got) != 1 {
			t.Fatalf("op %v: frame following the skipped one did not decode: status=%v got=%+v", op, status, got)
		}
	}
}

// TestAssemblerFramingDeterminism checks that however a stream of N valid
// frames is chopped up across feed() calls, exactly N events come out.
func TestAssemblerFramingDeterminism(t *testing.T) {
	var stream []byte
	const n = 5
	for i := 0; i < n; i++ {
		stream = append(stream, encodeBrowseReplyFrame(t, uint64(i), true, "svc", "_http._tcp", "local")...)
	}

	for _, chunkSize := range []int{1, 3, 7, 64, len(stream)} {
		var asm assembler
		var got []Event
		for off := 0; off < len(stream); off += chunkSize {
			end := off + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			asm.feed(stream[off:end])
			for {
				_, status := asm.drain(func(ev Event) { got = append(got, ev) }, nil, nil)
				if status != drainOK {
					break
				}
			}
		}
		if len(got) != n {
			t.Errorf("chunkSize=%d: got %d events, want %d", chunkSize, len(got), n)
		}
	}
}

func TestAssemblerOverrunIsDistinctFromParseError(t *testing.T) {
	h := Header{Operation: uint32(ReplyBrowse), DataLength: maxFrameBuffer}

	var asm assembler
	asm.feed(EncodeHeader(h))

	_, status := asm.drain(func(Event) {}, nil, nil)
	if status != drainOverrun {
		t.Fatalf("drain status = %v, want drainOverrun", status)
	}
	if len(asm.buf) != 0 {
		t.Fatalf("buffer not reset after overrun, %d bytes remain", len(asm.buf))
	}
}
