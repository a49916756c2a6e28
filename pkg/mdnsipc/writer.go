package mdnsipc

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// newContext draws a fresh, uniformly random 64-bit client context. A
// cryptographic source is used because the value is an opaque correlation
// id handed to an external daemon, not because it needs to be
// unpredictable for security purposes.
func newContext() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// Browse issues a Browse request for serviceType in domain and returns the
// fresh context correlating replies to this call.
func (ipc *IPC) Browse(serviceType, domain string) (uint64, error) {
	ctx, err := newContext()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIPCWriteFailed, err)
	}
	body := EncodeBrowseRequest(ServiceFlagNone, 0, serviceType, domain)
	if err := ipc.writeRequest(RequestBrowse, ctx, body); err != nil {
		return 0, err
	}
	ipc.metrics.WriterCalled("browse")
	return ctx, nil
}

// Resolve issues a Resolve request for the named service instance and
// returns the fresh context correlating replies to this call.
func (ipc *IPC) Resolve(name, regType, domain string) (uint64, error) {
	ctx, err := newContext()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIPCWriteFailed, err)
	}
	body := EncodeResolveRequest(ServiceFlagNone, 0, name, regType, domain)
	if err := ipc.writeRequest(RequestResolve, ctx, body); err != nil {
		return 0, err
	}
	ipc.metrics.WriterCalled("resolve")
	return ctx, nil
}

// GetAddrInfo issues an AddressInfo request for hostname and returns the
// fresh context correlating replies to this call.
func (ipc *IPC) GetAddrInfo(protocol Protocol, hostname string) (uint64, error) {
	ctx, err := newContext()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIPCWriteFailed, err)
	}
	body := EncodeAddrInfoRequest(ServiceFlagNone, 0, protocol, hostname)
	if err := ipc.writeRequest(RequestAddressInfo, ctx, body); err != nil {
		return 0, err
	}
	ipc.metrics.WriterCalled("addrinfo")
	return ctx, nil
}

// Cancel asks the daemon to stop producing results for the given context
// (previously returned by Browse, Resolve, or GetAddrInfo).
func (ipc *IPC) Cancel(reqContext uint64) error {
	if err := ipc.writeRequest(RequestCancel, reqContext, nil); err != nil {
		return err
	}
	ipc.metrics.WriterCalled("cancel")
	return nil
}

// writeRequest builds a header for op/reqContext/body and writes header and
// body atomically with respect to other writers on this IPC.
func (ipc *IPC) writeRequest(op RequestOp, reqContext uint64, body []byte) error {
	h := Header{
		Version:       1,
		DataLength:    uint32(len(body)),
		IPCFlags:      IPCFlagNoErrSd,
		Operation:     uint32(op),
		ClientContext: reqContext,
		RegIndex:      0,
	}

	frame := EncodeHeader(h)
	if len(body) > 0 {
		frame = append(frame, body...)
	}

	ipc.writeMu.Lock()
	defer ipc.writeMu.Unlock()

	for len(frame) > 0 {
		n, err := ipc.conn.Write(frame)
		if err != nil {
			ipc.metrics.WriterFailed()
			return fmt.Errorf("%w: %v", ErrIPCWriteFailed, err)
		}
		frame = frame[n:]
	}
	return nil
}
