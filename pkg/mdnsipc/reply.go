package mdnsipc

import (
	"encoding/binary"
	"net/netip"
)

// DecodeBrowseReply decodes a Browse reply body (reply header already
// consumed by the caller is NOT expected here; body starts at the reply
// header).
func DecodeBrowseReply(body []byte) (ReplyHeader, Service, error) {
	rh, err := DecodeReplyHeader(body)
	if err != nil {
		return ReplyHeader{}, Service{}, err
	}

	off := ReplyHeaderSize
	name, off := cstring(body, off)
	typ, off := cstring(body, off)
	domain, _ := cstring(body, off)

	return rh, Service{Name: name, ServiceType: typ, Domain: domain}, nil
}

// DecodeResolveReply decodes a Resolve reply body.
func DecodeResolveReply(body []byte) (ReplyHeader, Resolved, error) {
	rh, err := DecodeReplyHeader(body)
	if err != nil {
		return ReplyHeader{}, Resolved{}, err
	}

	off := ReplyHeaderSize
	fullName, off := cstring(body, off)
	hostTarget, off := cstring(body, off)

	if off+2 > len(body) {
		return ReplyHeader{}, Resolved{}, ErrTruncated
	}
	port := binary.BigEndian.Uint16(body[off : off+2])
	off += 2

	if off+2 > len(body) {
		return ReplyHeader{}, Resolved{}, ErrTruncated
	}
	txtLen := int(binary.BigEndian.Uint16(body[off : off+2]))
	off += 2

	if off+txtLen > len(body) {
		return ReplyHeader{}, Resolved{}, ErrTruncated
	}
	txt, err := unpackTXT(body[off : off+txtLen])
	if err != nil {
		return ReplyHeader{}, Resolved{}, err
	}

	return rh, Resolved{
		FullName:   fullName,
		HostTarget: hostTarget,
		Port:       port,
		TXTData:    txt,
	}, nil
}

// DecodeAddrInfoReply decodes an AddressInfo reply body.
func DecodeAddrInfoReply(body []byte) (ReplyHeader, AddrInfo, error) {
	rh, err := DecodeReplyHeader(body)
	if err != nil {
		return ReplyHeader{}, AddrInfo{}, err
	}

	off := ReplyHeaderSize
	name, off := cstring(body, off)

	if off+6 > len(body) {
		return ReplyHeader{}, AddrInfo{}, ErrTruncated
	}
	// rrtype, rrclass are decoded but not surfaced; rdlen drives rdata length.
	_ = binary.BigEndian.Uint16(body[off : off+2])
	_ = binary.BigEndian.Uint16(body[off+2 : off+4])
	rdlen := int(binary.BigEndian.Uint16(body[off+4 : off+6]))
	off += 6

	if off+rdlen+4 > len(body) {
		return ReplyHeader{}, AddrInfo{}, ErrTruncated
	}
	rdata := body[off : off+rdlen]
	off += rdlen

	// ttl is decoded for wire completeness but not surfaced on AddrInfo.
	_ = binary.BigEndian.Uint32(body[off : off+4])

	var addr netip.Addr
	switch rdlen {
	case 4:
		addr = netip.AddrFrom4([4]byte(rdata))
	case 16:
		addr = netip.AddrFrom16([16]byte(rdata))
	default:
		return ReplyHeader{}, AddrInfo{}, ErrTruncated
	}

	return rh, AddrInfo{Hostname: name, Address: addr}, nil
}
