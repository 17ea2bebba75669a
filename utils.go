// Package ssdp provides utility functions for parsing and validating the
// discovery URL that selects the SSDP multicast group and port.
package ssdp

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultDiscoveryURL is the standard SSDP multicast group and port.
const DefaultDiscoveryURL = "http://239.255.255.250:1900"

// parseDiscoveryURL splits a discovery URL of the form http://<ipv4>:<port>
// into the multicast group address and the SSDP port.
//
// The host must be an IPv4 literal and the port must be numeric. Whether the
// address actually lies in the multicast range is deliberately not verified.
func parseDiscoveryURL(rawURL string) (net.IP, int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, 0, fmt.Errorf("malformed discovery url %q: %w", rawURL, err)
	}

	host := u.Hostname()
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return nil, 0, fmt.Errorf("discovery url %q does not contain an IPv4 address for host", rawURL)
	}

	portStr := u.Port()
	if portStr == "" {
		return nil, 0, fmt.Errorf("discovery url %q does not contain a port", rawURL)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, 0, fmt.Errorf("discovery url %q does not contain a numeric port: %w", rawURL, err)
	}

	return ip.To4(), port, nil
}

// hostPort renders the HOST header value of an SSDP message.
func hostPort(group net.IP, port int) string {
	return net.JoinHostPort(group.String(), strconv.Itoa(port))
}

// drainSendErrors concatenates the buffered per-interface errors in key
// order and clears the map.
func drainSendErrors(errs map[string]string) string {
	if len(errs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(errs[k])
	}
	clear(errs)
	return b.String()
}
