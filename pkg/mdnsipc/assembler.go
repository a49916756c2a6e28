package mdnsipc

// maxFrameBuffer bounds how much unconsumed data the assembler will hold
// for a single pending partial frame. The wire format has no hard cap, but
// a well-behaved daemon never sends bodies anywhere near this large; an
// overrun discards the buffer (drainOverrun) rather than growing it without
// bound.
const maxFrameBuffer = 64 * 1024

// drainStatus describes the outcome of one drain pass.
type drainStatus int

const (
	drainNeedMore drainStatus = iota
	drainOK
	drainParseError
	drainOverrun
)

// assembler reassembles a byte stream into discrete reply frames and decodes
// each one into an Event. It is not safe for concurrent use; the reader task
// is its sole owner.
type assembler struct {
	buf []byte
}

// feed appends newly-read bytes to the rolling buffer.
func (a *assembler) feed(b []byte) {
	a.buf = append(a.buf, b...)
}

// drain attempts to consume one frame from the front of the buffer.
//
//   - If the buffer holds less than one full frame, it returns
//     (0, drainNeedMore): the caller should read more bytes and retry.
//   - If the header is malformed, the entire buffer is discarded and
//     (0, drainParseError) is returned: the daemon is trusted to frame
//     cleanly, so this is treated as a protocol violation rather than
//     something to resync past.
//   - If the header is well-formed but declares a frame (header plus body)
//     longer than maxFrameBuffer, the entire buffer is discarded and (0, drainOverrun)
//     is returned, distinct from drainParseError so the caller can
//     attribute it separately in logs/metrics.
//   - Otherwise exactly one frame is consumed and (n, drainOK) is returned.
//     If the frame's reply operation is one this core interprets
//     (Browse/Resolve/AddressInfo) and its body decodes successfully, emit
//     is called with the resulting Event. A body decode failure is local to
//     that one frame (DataLength is trusted, so the framing itself is
//     intact): the frame is still dropped and drainOK is still returned,
//     but onBodyError is called instead of emit, so the caller can log it.
//     A recognized reply operation this core simply doesn't interpret
//     (e.g. Enumeration, Query, AsyncError) is reported to onSkipped
//     instead of being silently dropped, per spec: "all other replies are
//     logged and skipped."
func (a *assembler) drain(emit func(Event), onSkipped func(op ReplyOp), onBodyError func(op ReplyOp, err error)) (int, drainStatus) {
	if len(a.buf) < HeaderSize {
		return 0, drainNeedMore
	}

	h, err := DecodeHeader(a.buf[:HeaderSize])
	if err != nil {
		a.reset()
		return 0, drainParseError
	}

	need := HeaderSize + int(h.DataLength)
	if need > maxFrameBuffer {
		a.reset()
		return 0, drainOverrun
	}
	if len(a.buf) < need {
		return 0, drainNeedMore
	}

	body := a.buf[HeaderSize:need]
	if op, ok := h.AsReplyOp(); ok {
		if !isInterpretedReplyOp(op) {
			if onSkipped != nil {
				onSkipped(op)
			}
		} else if ev, err := decodeReplyEvent(op, h.ClientContext, body); err == nil {
			if emit != nil {
				emit(*ev)
			}
		} else if onBodyError != nil {
			onBodyError(op, err)
		}
	}

	a.consume(need)
	return need, drainOK
}

// isInterpretedReplyOp reports whether decodeReplyEvent decodes op into an
// Event, as opposed to an operation this core merely recognizes as valid
// but has no Event shape for.
func isInterpretedReplyOp(op ReplyOp) bool {
	switch op {
	case ReplyBrowse, ReplyResolve, ReplyAddressInfo:
		return true
	default:
		return false
	}
}

// decodeReplyEvent decodes body (the bytes following the 28-byte IPC
// header) for a reply operation this core interprets. Callers must only
// pass op values for which isInterpretedReplyOp is true.
func decodeReplyEvent(op ReplyOp, clientContext uint64, body []byte) (*Event, error) {
	switch op {
	case ReplyBrowse:
		rh, svc, err := DecodeBrowseReply(body)
		if err != nil {
			return nil, err
		}
		kind := ServiceRemoved
		if rh.Flags.Has(ReplyFlagAdd) {
			kind = ServiceAdded
		}
		return &Event{Kind: kind, Context: clientContext, Service: svc}, nil
	case ReplyResolve:
		_, resolved, err := DecodeResolveReply(body)
		if err != nil {
			return nil, err
		}
		return &Event{Kind: ServiceResolved, Context: clientContext, Resolved: resolved}, nil
	case ReplyAddressInfo:
		_, addr, err := DecodeAddrInfoReply(body)
		if err != nil {
			return nil, err
		}
		return &Event{Kind: AddressInfoResolved, Context: clientContext, AddrInfo: addr}, nil
	default:
		panic("mdnsipc: decodeReplyEvent called with uninterpreted op " + op.String())
	}
}

func (a *assembler) consume(n int) {
	a.buf = append(a.buf[:0], a.buf[n:]...)
}

// reset discards all buffered bytes, as happens on a header parse error or
// on cancellation.
func (a *assembler) reset() {
	a.buf = a.buf[:0]
}
