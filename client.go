// Package ssdp implements the searching side of SSDP: ServiceFinder sends
// M-SEARCH requests and listens for the notifications and responses of
// services on the local network.
package ssdp

import (
	"net"
	"time"
)

// ServiceFinder discovers services announced over SSDP. It owns a
// multicast socket joined to the group of the discovery URL and delivers
// filtered notifications and responses as ServiceUpdateEvents.
type ServiceFinder struct {
	discoveryURL     string
	group            net.IP
	port             int
	searchTarget     string
	deviceTypeFilter string
	loopbackSend     bool

	mSearchMessage string

	interfaces   []NetworkInterface
	sock         *multicastConn
	reopenNeeded bool
	sendErrors   map[string]string
}

// NewServiceFinder creates a finder and immediately enumerates the network
// interfaces and opens the multicast socket for the given discovery URL.
//
// Without WithSearchTarget the finder searches for ssdp:all and delivers
// every notification and response it receives; with it, only messages of
// that search target are delivered. WithDeviceType additionally restricts
// delivery to messages carrying that exact DEV_TYPE.
func NewServiceFinder(discoveryURL, productName, productVersion string, opts ...Option) (*ServiceFinder, error) {
	group, port, err := parseDiscoveryURL(discoveryURL)
	if err != nil {
		return nil, err
	}
	conf := applyOptions(opts)

	searchTarget := conf.searchTarget
	if searchTarget == "" {
		searchTarget = SearchTargetAll
	}

	interfaces, _, err := UpdateNetworkInterfaces(nil)
	if err != nil {
		return nil, err
	}

	sock, err := openMulticastConn(group, port)
	if err != nil {
		return nil, err
	}

	return &ServiceFinder{
		discoveryURL:     discoveryURL,
		group:            group,
		port:             port,
		searchTarget:     searchTarget,
		deviceTypeFilter: conf.deviceType,
		loopbackSend:     conf.loopbackSend,
		mSearchMessage:   buildMSearch(hostPort(group, port), searchTarget, productName, productVersion),
		interfaces:       interfaces,
		sock:             sock,
		sendErrors:       make(map[string]string),
	}, nil
}

// Close releases the multicast socket. A receive loop running on the
// finder ends cleanly once the socket is closed.
func (f *ServiceFinder) Close() error {
	return f.sock.close()
}

// URL returns the discovery URL the finder was created with.
func (f *ServiceFinder) URL() string {
	return f.discoveryURL
}

// SendMSearch sends the M-SEARCH request from every enumerated interface.
// The interface snapshot is refreshed first, reopening the socket when it
// changed.
//
// It returns false when sending failed on at least one interface; the
// failures are available via LastSendErrors.
func (f *ServiceFinder) SendMSearch() bool {
	ok := f.refreshInterfaces()
	for _, iface := range f.interfaces {
		if !f.loopbackSend && iface.IsLoopback() {
			continue
		}
		if err := f.sock.sendFrom(f.mSearchMessage, iface.IP, f.sock.groupAddr()); err != nil {
			f.sendErrors[iface.IP.String()] = err.Error()
			ok = false
		}
	}
	return ok
}

// CheckNetworkChanges refreshes the interface snapshot explicitly and
// reopens the multicast socket when it changed. SendMSearch performs the
// same refresh; this is for callers that only listen for notifications
// without ever searching.
func (f *ServiceFinder) CheckNetworkChanges() error {
	updated, changed, err := UpdateNetworkInterfaces(f.interfaces)
	if err != nil {
		return err
	}
	f.interfaces = updated

	if changed || f.reopenNeeded {
		f.sock.close()
		sock, err := openMulticastConn(f.group, f.port)
		if err != nil {
			f.reopenNeeded = true
			return err
		}
		f.sock = sock
		f.reopenNeeded = false
	}
	return nil
}

func (f *ServiceFinder) refreshInterfaces() bool {
	if err := f.CheckNetworkChanges(); err != nil {
		f.sendErrors[f.discoveryURL] = err.Error()
		return false
	}
	return true
}

// CheckForServices receives notifications and responses for up to timeout
// and calls handler for every accepted message in arrival order.
//
// The loop wakes every 100 ms, so the minimum effective timeout is 100 ms.
// It returns false when receiving failed; the failure is available via
// LastSendErrors.
func (f *ServiceFinder) CheckForServices(handler ServiceUpdateHandler, timeout time.Duration) bool {
	err := f.sock.runReceiveLoop(timeout, func(pkt packet) {
		event, ok := f.eventFor(pkt)
		if !ok {
			return
		}
		if handler != nil {
			handler(event)
		}
	})
	if err != nil {
		f.sendErrors[f.discoveryURL] = err.Error()
		return false
	}
	return true
}

// eventFor filters one packet and converts it into a ServiceUpdateEvent.
//
// A NOTIFY without a known NTS value is treated as ssdp:alive; the NTS
// header is advisory in practice and absent in some SSDP stacks.
func (f *ServiceFinder) eventFor(pkt packet) (ServiceUpdateEvent, bool) {
	if f.deviceTypeFilter != "" && pkt.DeviceType != f.deviceTypeFilter {
		return ServiceUpdateEvent{}, false
	}
	if f.searchTarget != "" && f.searchTarget != SearchTargetAll && pkt.ST != f.searchTarget {
		return ServiceUpdateEvent{}, false
	}

	var event UpdateEvent
	switch pkt.Method {
	case methodNotify:
		event = EventNotifyAlive
		if pkt.NTS == ntsByeBye {
			event = EventNotifyByeBye
		}
	case methodResponse:
		event = EventResponse
	default:
		return ServiceUpdateEvent{}, false
	}

	return ServiceUpdateEvent{
		Event: event,
		Service: ServiceDescription{
			LocationURL:       pkt.Location,
			UniqueServiceName: pkt.USN,
			SearchTarget:      pkt.ST,
			SMID:              pkt.SMID,
			DeviceType:        pkt.DeviceType,
		},
	}, true
}

// LastSendErrors drains the buffered per-interface send errors and returns
// them as one string. It is empty when every send since the last call
// succeeded.
func (f *ServiceFinder) LastSendErrors() string {
	return drainSendErrors(f.sendErrors)
}
