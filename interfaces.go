package ssdp

import (
	"bytes"
	"fmt"
	"net"
)

// Synthetic loopback entry used when the OS enumeration yields no loopback
// address of its own.
var (
	loopbackName = "localhost"
	loopbackIP   = net.IPv4(127, 0, 0, 1).To4()
	loopbackMask = net.IPv4Mask(255, 0, 0, 0)
)

// NetworkInterface describes one IPv4 interface address the library sends
// multicast datagrams from.
//
// Usually this type would not need to be part of the API, but it is helpful
// for testing because it is internally used.
type NetworkInterface struct {
	Name    string     `json:"name"`
	IP      net.IP     `json:"ip"`
	Netmask net.IPMask `json:"netmask"`
}

// Equal reports whether both interfaces carry the same name, address
// and netmask.
func (n NetworkInterface) Equal(other NetworkInterface) bool {
	return n.Name == other.Name &&
		n.IP.Equal(other.IP) &&
		bytes.Equal(n.Netmask, other.Netmask)
}

// IsLoopback reports whether the interface address is a loopback address.
func (n NetworkInterface) IsLoopback() bool {
	return n.IP.IsLoopback()
}

// sameSubnet reports whether addr lies in the network of this interface.
func (n NetworkInterface) sameSubnet(addr net.IP) bool {
	a4 := addr.To4()
	if a4 == nil {
		return false
	}
	return n.IP.Mask(n.Netmask).Equal(a4.Mask(n.Netmask))
}

// UpdateNetworkInterfaces re-enumerates the IPv4 interfaces of the host and
// compares them with the given snapshot. It returns the new snapshot and
// whether it differs from the old one; when nothing changed, the old
// snapshot is returned unchanged.
//
// Comparison is order-sensitive over the (name, ip, netmask) triple, which
// is sufficient because both sides come from the same OS enumeration in the
// same order.
func UpdateNetworkInterfaces(interfaces []NetworkInterface) ([]NetworkInterface, bool, error) {
	updated, err := enumerateInterfaces()
	if err != nil {
		return interfaces, false, err
	}
	if interfacesEqual(interfaces, updated) {
		return interfaces, false, nil
	}
	return updated, true, nil
}

// enumerateInterfaces collects every non-zero IPv4 address of every
// interface that is up. A loopback entry is guaranteed to be present: if
// the enumeration itself carries none, a synthetic localhost entry is
// prepended.
func enumerateInterfaces() ([]NetworkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("enumerating network interfaces failed: %w", err)
	}

	var result []NetworkInterface
	haveLoopback := false
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil || ip4.Equal(net.IPv4zero) {
				continue
			}
			if ip4.IsLoopback() {
				haveLoopback = true
			}
			result = append(result, NetworkInterface{
				Name:    iface.Name,
				IP:      ip4,
				Netmask: ipnet.Mask,
			})
		}
	}

	if !haveLoopback {
		result = append([]NetworkInterface{{
			Name:    loopbackName,
			IP:      loopbackIP,
			Netmask: loopbackMask,
		}}, result...)
	}

	return result, nil
}

// interfacesEqual compares two snapshots element by element.
func interfacesEqual(a, b []NetworkInterface) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
