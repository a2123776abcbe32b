// Package ipset tracks which IPv4 addresses are covered by a collection of
// ranges, prefixes and single addresses.
package ipset

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strings"

	"github.com/henderiw/multirange/pkg/multirange"
	"go4.org/netipx"
)

type IPSet struct {
	set *multirange.Set
}

func New(opts ...multirange.Option) *IPSet {
	return &IPSet{
		set: multirange.New(opts...),
	}
}

// Add accepts "10.0.0.1-10.0.0.9", "10.0.0.0/24" or "10.0.0.1".
func (r *IPSet) Add(s string) error {
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, "-"):
		ipRange, err := netipx.ParseIPRange(s)
		if err != nil {
			return fmt.Errorf("ip range %s is invalid: %w", s, err)
		}
		return r.AddRange(ipRange)
	case strings.Contains(s, "/"):
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return fmt.Errorf("ip prefix %s is invalid: %w", s, err)
		}
		return r.AddPrefix(prefix)
	default:
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return fmt.Errorf("ip address %s is invalid", s)
		}
		return r.AddRange(netipx.IPRangeFrom(addr, addr))
	}
}

func (r *IPSet) AddPrefix(p netip.Prefix) error {
	if !p.IsValid() {
		return fmt.Errorf("ip prefix %s is invalid", p.String())
	}
	return r.AddRange(netipx.RangeOfPrefix(p.Masked()))
}

func (r *IPSet) AddRange(ipRange netipx.IPRange) error {
	if !ipRange.IsValid() {
		return fmt.Errorf("ip range %s is invalid", ipRange.String())
	}
	if !ipRange.From().Is4() {
		return fmt.Errorf("ip range %s is not an IPv4 range", ipRange.String())
	}
	return r.set.Insert(addrToID(ipRange.From()), addrToID(ipRange.To()))
}

func (r *IPSet) Contains(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.Is4() {
		return false
	}
	return r.set.Contains(addrToID(addr))
}

// Ranges returns the merged ranges in ascending order.
func (r *IPSet) Ranges() []netipx.IPRange {
	ranges := make([]netipx.IPRange, 0, r.set.Len())
	for rr := range r.set.Ranges() {
		ranges = append(ranges, netipx.IPRangeFrom(idToAddr(rr.From), idToAddr(rr.To)))
	}
	return ranges
}

// Prefixes returns the minimal list of prefixes covering the set.
func (r *IPSet) Prefixes() []netip.Prefix {
	var prefixes []netip.Prefix
	for _, ipRange := range r.Ranges() {
		prefixes = ipRange.AppendPrefixes(prefixes)
	}
	return prefixes
}

// Count returns the number of covered addresses.
func (r *IPSet) Count() uint64 {
	return r.set.Count()
}

// IPSet converts the coverage into an immutable netipx.IPSet.
func (r *IPSet) IPSet() (*netipx.IPSet, error) {
	var b netipx.IPSetBuilder
	for _, ipRange := range r.Ranges() {
		b.AddRange(ipRange)
	}
	return b.IPSet()
}

func (r *IPSet) String() string {
	var sb strings.Builder
	for _, ipRange := range r.Ranges() {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(ipRange.String())
	}
	return sb.String()
}

func addrToID(addr netip.Addr) uint64 {
	a4 := addr.As4()
	return uint64(binary.BigEndian.Uint32(a4[:]))
}

func idToAddr(id uint64) netip.Addr {
	var a4 [4]byte
	binary.BigEndian.PutUint32(a4[:], uint32(id))
	return netip.AddrFrom4(a4)
}
