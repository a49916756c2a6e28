// Package mdnsipc implements the duplex framing engine used to talk to the
// local mDNSResponder daemon over its UNIX domain socket: request/reply
// encoding, stream reassembly, and the reader goroutine that turns daemon
// replies into a channel of discovery events.
package mdnsipc

import "encoding/binary"

// HeaderSize is the fixed, big-endian-encoded size of an IPC message header.
const HeaderSize = 28

// Header is the fixed header that precedes every frame on the wire.
type Header struct {
	Version       uint32
	DataLength    uint32
	IPCFlags      IPCFlags
	Operation     uint32 // raw wire value; use AsRequestOp/AsReplyOp to interpret
	ClientContext uint64
	RegIndex      uint32
}

// IsReply reports whether the header's operation code is a reply (>= 64).
func (h Header) IsReply() bool {
	return h.Operation >= replyOperationStart
}

// AsRequestOp resolves the header's operation as a request code.
func (h Header) AsRequestOp() (RequestOp, bool) {
	if h.IsReply() {
		return 0, false
	}
	_, ok := requestOpNames[RequestOp(h.Operation)]
	return RequestOp(h.Operation), ok
}

// AsReplyOp resolves the header's operation as a reply code.
func (h Header) AsReplyOp() (ReplyOp, bool) {
	if !h.IsReply() {
		return 0, false
	}
	_, ok := replyOpNames[ReplyOp(h.Operation)]
	return ReplyOp(h.Operation), ok
}

// EncodeHeader serializes h into a fresh HeaderSize-byte buffer.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Version)
	binary.BigEndian.PutUint32(buf[4:8], h.DataLength)
	binary.BigEndian.PutUint32(buf[8:12], uint32(h.IPCFlags))
	binary.BigEndian.PutUint32(buf[12:16], h.Operation)
	binary.BigEndian.PutUint64(buf[16:24], h.ClientContext)
	binary.BigEndian.PutUint32(buf[24:28], h.RegIndex)
	return buf
}

// DecodeHeader parses a Header from the front of buf. buf must be at least
// HeaderSize bytes; only the first HeaderSize bytes are consumed.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrShortBuffer
	}

	op := binary.BigEndian.Uint32(buf[12:16])

	h := Header{
		Version:       binary.BigEndian.Uint32(buf[0:4]),
		DataLength:    binary.BigEndian.Uint32(buf[4:8]),
		IPCFlags:      IPCFlags(binary.BigEndian.Uint32(buf[8:12])),
		Operation:     op,
		ClientContext: binary.BigEndian.Uint64(buf[16:24]),
		RegIndex:      binary.BigEndian.Uint32(buf[24:28]),
	}

	if op >= replyOperationStart {
		if _, ok := replyOpNames[ReplyOp(op)]; !ok {
			return Header{}, ErrUnknownOperation
		}
	} else {
		if _, ok := requestOpNames[RequestOp(op)]; !ok {
			return Header{}, ErrUnknownOperation
		}
	}
	return h, nil
}

// RequestOp identifies a request operation (wire value < 64).
type RequestOp uint32

// Request operations, per the mDNSResponder IPC protocol.
const (
	RequestNone               RequestOp = 0
	RequestConnection         RequestOp = 1
	RequestRegisterRecord     RequestOp = 2
	RequestRemoveRecord       RequestOp = 3
	RequestEnumeration        RequestOp = 4
	RequestRegisterService    RequestOp = 5
	RequestBrowse             RequestOp = 6
	RequestResolve            RequestOp = 7
	RequestQuery              RequestOp = 8
	RequestReconfirmRecord    RequestOp = 9
	RequestAddRecord          RequestOp = 10
	RequestUpdateRecord       RequestOp = 11
	RequestSetDomain          RequestOp = 12
	RequestGetProperty        RequestOp = 13
	RequestPortMapping        RequestOp = 14
	RequestAddressInfo        RequestOp = 15
	RequestSendBpfObsolete    RequestOp = 16
	RequestGetPid             RequestOp = 17
	RequestRelease            RequestOp = 18
	RequestConnectionDelegate RequestOp = 19
	RequestCancel             RequestOp = 63
)

var requestOpNames = map[RequestOp]string{
	RequestNone:               "None",
	RequestConnection:         "Connection",
	RequestRegisterRecord:     "RegisterRecord",
	RequestRemoveRecord:       "RemoveRecord",
	RequestEnumeration:        "Enumeration",
	RequestRegisterService:    "RegisterService",
	RequestBrowse:             "Browse",
	RequestResolve:            "Resolve",
	RequestQuery:              "Query",
	RequestReconfirmRecord:    "ReconfirmRecord",
	RequestAddRecord:          "AddRecord",
	RequestUpdateRecord:       "UpdateRecord",
	RequestSetDomain:          "SetDomain",
	RequestGetProperty:        "GetProperty",
	RequestPortMapping:        "PortMapping",
	RequestAddressInfo:        "AddressInfo",
	RequestSendBpfObsolete:    "SendBpfObsolete",
	RequestGetPid:             "GetPid",
	RequestRelease:            "Release",
	RequestConnectionDelegate: "ConnectionDelegate",
	RequestCancel:             "Cancel",
}

func (op RequestOp) String() string {
	if s, ok := requestOpNames[op]; ok {
		return s
	}
	return "RequestOp(?)"
}

// replyOperationStart is the lowest wire value reserved for replies.
const replyOperationStart = 64

// ReplyOp identifies a reply operation (wire value >= 64).
type ReplyOp uint32

// Reply operations, per the mDNSResponder IPC protocol.
const (
	ReplyEnumeration     ReplyOp = 64
	ReplyRegisterService ReplyOp = 65
	ReplyBrowse          ReplyOp = 66
	ReplyResolve         ReplyOp = 67
	ReplyQuery           ReplyOp = 68
	ReplyRegisterRecord  ReplyOp = 69
	ReplyGetProperty     ReplyOp = 70
	ReplyPortMapping     ReplyOp = 71
	ReplyAddressInfo     ReplyOp = 72
	ReplyAsyncError      ReplyOp = 73
)

var replyOpNames = map[ReplyOp]string{
	ReplyEnumeration:     "Enumeration",
	ReplyRegisterService: "RegisterService",
	ReplyBrowse:          "Browse",
	ReplyResolve:         "Resolve",
	ReplyQuery:           "Query",
	ReplyRegisterRecord:  "RegisterRecord",
	ReplyGetProperty:     "GetProperty",
	ReplyPortMapping:     "PortMapping",
	ReplyAddressInfo:     "AddressInfo",
	ReplyAsyncError:      "AsyncError",
}

func (op ReplyOp) String() string {
	if s, ok := replyOpNames[op]; ok {
		return s
	}
	return "ReplyOp(?)"
}

// IPCFlags is a bit field carried in the IPC header.
type IPCFlags uint32

// Known IPC flag bits.
const (
	IPCFlagNoReply      IPCFlags = 0x0
	IPCFlagTrailingTlvs IPCFlags = 0x2
	IPCFlagNoErrSd      IPCFlags = 0x4
)

// ServiceFlags is a bit field carried in per-operation request bodies.
type ServiceFlags uint32

// Known service flag bits.
const (
	ServiceFlagNone           ServiceFlags = 0x0
	ServiceFlagAutoTrigger    ServiceFlags = 0x1
	ServiceFlagAdd            ServiceFlags = 0x2
	ServiceFlagDefault        ServiceFlags = 0x3
	ServiceFlagForceMulticast ServiceFlags = 0x400
	ServiceFlagIncludeP2p     ServiceFlags = 0x20000
	ServiceFlagIncludeAwdl    ServiceFlags = 0x100000
)

// ReplyHeaderSize is the size of the 12-byte header that precedes every
// reply body.
const ReplyHeaderSize = 12

// ReplyFlags is the bit-set decomposition of a reply header's flags word.
type ReplyFlags uint32

// Known reply flag bits. Unknown bits are ignored by DecodeReplyHeader.
const (
	ReplyFlagMoreComing       ReplyFlags = 0x1
	ReplyFlagAdd              ReplyFlags = 0x2
	ReplyFlagThresholdReached ReplyFlags = 0x2000000
)

// Has reports whether all bits of want are set.
func (f ReplyFlags) Has(want ReplyFlags) bool {
	return f&want == want
}

// ReplyHeader is the 12-byte header that precedes every reply body.
type ReplyHeader struct {
	Flags          ReplyFlags
	InterfaceIndex uint32
	Error          uint32
}

// DecodeReplyHeader parses a ReplyHeader from the first ReplyHeaderSize bytes
// of buf.
func DecodeReplyHeader(buf []byte) (ReplyHeader, error) {
	if len(buf) < ReplyHeaderSize {
		return ReplyHeader{}, ErrShortBuffer
	}
	flags := binary.BigEndian.Uint32(buf[0:4])
	return ReplyHeader{
		Flags:          ReplyFlags(flags), // unknown bits are simply never tested by Has
		InterfaceIndex: binary.BigEndian.Uint32(buf[4:8]),
		Error:          binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}

// Protocol selects the address family for an AddressInfo request.
type Protocol uint32

// Known protocol selectors.
const (
	ProtocolIPv4 Protocol = 1
	ProtocolIPv6 Protocol = 2
	ProtocolBoth Protocol = 3
)

// PublishRequest is an unimplemented stub. The source protocol carries two
// near-duplicate, ambiguous register/publish-service encodings that this
// client deliberately does not implement (see SPEC_FULL.md).
type PublishRequest struct {
	ServiceFlags   ServiceFlags
	InterfaceIndex uint32
	Name           string
	ServiceType    string
	Domain         string
	Host           string
	Port           uint16
	TXTData        []string
}
