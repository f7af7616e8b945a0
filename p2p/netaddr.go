package p2p

import (
	"fmt"
	"net/netip"

	"lotus.dev/wire/consensus"
)

// Network ids for the addrv2 encoding. Only IPv4 is carried today.
const netIPv4 = 1

const ipv4AddrBytes = 4

// NetAddress is one peer endpoint. The legacy encoding embeds the IPv4
// address in the IPv4-mapped IPv6 form; the v2 encoding tags it with a
// network id and explicit length.
type NetAddress struct {
	Time     uint32
	Services uint64
	Addr     netip.Addr
	Port     uint16
}

// ipv4-mapped prefix used by the legacy address encoding.
var v1Padding = [12]byte{10: 0xff, 11: 0xff}

func appendNetAddress(dst []byte, a *NetAddress, withTime bool) ([]byte, error) {
	ip := a.Addr
	if ip.Is4In6() {
		ip = ip.Unmap()
	}
	if !ip.Is4() && ip != (netip.Addr{}) {
		return nil, fmt.Errorf("p2p: address %s is not IPv4", a.Addr)
	}
	if withTime {
		dst = appendU32le(dst, a.Time)
	}
	dst = appendU64le(dst, a.Services)
	dst = append(dst, v1Padding[:]...)
	var ip4 [4]byte
	if ip.Is4() {
		ip4 = ip.As4()
	}
	dst = append(dst, ip4[:]...)
	return appendU16be(dst, a.Port), nil
}

func parseNetAddress(r *reader, withTime bool) (NetAddress, error) {
	var a NetAddress
	var err error
	if withTime {
		if a.Time, err = r.u32("addr: time"); err != nil {
			return a, err
		}
	}
	if a.Services, err = r.u64("addr: services"); err != nil {
		return a, err
	}
	if _, err = r.exact(len(v1Padding), "addr: padding"); err != nil {
		return a, err
	}
	ipb, err := r.exact(ipv4AddrBytes, "addr: ip")
	if err != nil {
		return a, err
	}
	a.Addr = netip.AddrFrom4([4]byte(ipb))
	if a.Port, err = r.u16be("addr: port"); err != nil {
		return a, err
	}
	return a, nil
}

func appendNetAddressV2(dst []byte, a *NetAddress) ([]byte, error) {
	ip := a.Addr
	if ip.Is4In6() {
		ip = ip.Unmap()
	}
	if !ip.Is4() && ip != (netip.Addr{}) {
		return nil, fmt.Errorf("p2p: address %s is not IPv4", a.Addr)
	}
	dst = appendU32le(dst, a.Time)
	// Services are a CompactSize in the v2 encoding.
	dst = consensus.AppendCompactSize(dst, a.Services)
	dst = append(dst, netIPv4)
	dst = consensus.AppendCompactSize(dst, ipv4AddrBytes)
	var ip4 [4]byte
	if ip.Is4() {
		ip4 = ip.As4()
	}
	dst = append(dst, ip4[:]...)
	return appendU16be(dst, a.Port), nil
}

func parseNetAddressV2(r *reader) (NetAddress, error) {
	var a NetAddress
	var err error
	if a.Time, err = r.u32("addrv2: time"); err != nil {
		return a, err
	}
	if a.Services, err = r.compactSize("addrv2: services"); err != nil {
		return a, err
	}
	net, err := r.u8("addrv2: network id")
	if err != nil {
		return a, err
	}
	if net != netIPv4 {
		return a, structErr("addrv2: unsupported network id")
	}
	addrLen, err := r.compactSize("addrv2: address length")
	if err != nil {
		return a, err
	}
	if addrLen != ipv4AddrBytes {
		return a, structErr("addrv2: bad IPv4 address length")
	}
	ipb, err := r.exact(ipv4AddrBytes, "addrv2: ip")
	if err != nil {
		return a, err
	}
	a.Addr = netip.AddrFrom4([4]byte(ipb))
	if a.Port, err = r.u16be("addrv2: port"); err != nil {
		return a, err
	}
	return a, nil
}
