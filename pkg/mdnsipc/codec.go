package mdnsipc

import "encoding/binary"

// EncodeBrowseRequest serializes a Browse request body: service_flags,
// interface_index, reg_type\0, domain\0.
func EncodeBrowseRequest(serviceFlags ServiceFlags, interfaceIndex uint32, regType, domain string) []byte {
	buf := make([]byte, 0, 4+4+len(regType)+1+len(domain)+1)
	buf = appendUint32(buf, uint32(serviceFlags))
	buf = appendUint32(buf, interfaceIndex)
	buf = appendCString(buf, regType)
	buf = appendCString(buf, domain)
	return buf
}

// EncodeResolveRequest serializes a Resolve request body: service_flags,
// interface_index, name\0, reg_type\0, domain\0.
func EncodeResolveRequest(serviceFlags ServiceFlags, interfaceIndex uint32, name, regType, domain string) []byte {
	buf := make([]byte, 0, 4+4+len(name)+1+len(regType)+1+len(domain)+1)
	buf = appendUint32(buf, uint32(serviceFlags))
	buf = appendUint32(buf, interfaceIndex)
	buf = appendCString(buf, name)
	buf = appendCString(buf, regType)
	buf = appendCString(buf, domain)
	return buf
}

// EncodeAddrInfoRequest serializes an AddressInfo request body:
// service_flags, interface_index, protocol, hostname\0.
func EncodeAddrInfoRequest(serviceFlags ServiceFlags, interfaceIndex uint32, protocol Protocol, hostname string) []byte {
	buf := make([]byte, 0, 4+4+4+len(hostname)+1)
	buf = appendUint32(buf, uint32(serviceFlags))
	buf = appendUint32(buf, interfaceIndex)
	buf = appendUint32(buf, uint32(protocol))
	buf = appendCString(buf, hostname)
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendUint16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}
