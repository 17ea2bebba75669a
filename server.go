// Package ssdp provides a lightweight implementation of the Simple Service
// Discovery Protocol, allowing services to announce their availability on
// the local network and respond to search requests, and peers to discover
// them.
//
// Two symmetric participants are provided: Service announces and answers
// searches, ServiceFinder searches and listens. Both are driven
// cooperatively by the caller; neither spawns goroutines of its own, and an
// instance must not be shared across goroutines.
package ssdp

import (
	"net"
	"time"
)

// Service announces one discoverable service. It owns a multicast socket
// joined to the group of the discovery URL, keeps an interface snapshot
// current, and sends its NOTIFY advertisements from every enumerated
// interface.
type Service struct {
	desc         ServiceDescription
	discoveryURL string
	group        net.IP
	port         int
	loopbackSend bool

	notifyAliveMessage  string
	notifyByeByeMessage string
	responseMessage     string

	interfaces   []NetworkInterface
	sock         *multicastConn
	reopenNeeded bool
	sendErrors   map[string]string
}

// NewService creates a discoverable service and immediately enumerates the
// network interfaces and opens the multicast socket for the given discovery
// URL.
//
// maxAge is the advertised cache lifetime; the UPnP specification
// recommends a value of at least 1800 seconds. searchTarget is the
// notification type: the service advertises it and answers only search
// requests naming it or ssdp:all. The optional SM_ID and DEV_TYPE headers
// are configured via WithSMID and WithDeviceType.
func NewService(discoveryURL string, maxAge time.Duration, locationURL, uniqueServiceName,
	searchTarget, productName, productVersion string, opts ...Option) (*Service, error) {

	group, port, err := parseDiscoveryURL(discoveryURL)
	if err != nil {
		return nil, err
	}
	conf := applyOptions(opts)

	desc := ServiceDescription{
		LocationURL:       locationURL,
		UniqueServiceName: uniqueServiceName,
		SearchTarget:      searchTarget,
		SMID:              conf.smID,
		DeviceType:        conf.deviceType,
		ProductName:       productName,
		ProductVersion:    productVersion,
	}

	host := hostPort(group, port)
	maxAgeSeconds := int(maxAge / time.Second)

	interfaces, _, err := UpdateNetworkInterfaces(nil)
	if err != nil {
		return nil, err
	}

	sock, err := openMulticastConn(group, port)
	if err != nil {
		return nil, err
	}

	return &Service{
		desc:                desc,
		discoveryURL:        discoveryURL,
		group:               group,
		port:                port,
		loopbackSend:        conf.loopbackSend,
		notifyAliveMessage:  buildNotifyAlive(host, maxAgeSeconds, desc),
		notifyByeByeMessage: buildNotifyByeBye(host, desc),
		responseMessage:     buildResponse(maxAgeSeconds, desc),
		interfaces:          interfaces,
		sock:                sock,
		sendErrors:          make(map[string]string),
	}, nil
}

// Close releases the multicast socket. A receive loop running on the
// service ends cleanly once the socket is closed.
func (s *Service) Close() error {
	return s.sock.close()
}

// Description returns the setup of this service.
func (s *Service) Description() ServiceDescription {
	return s.desc
}

// Equal reports whether the given description names this service,
// comparing the SSDP identity (search target, unique service name).
func (s *Service) Equal(other ServiceDescription) bool {
	return s.desc.Equal(other)
}

// SendNotifyAlive advertises the service as alive on every network. It
// refreshes the interface snapshot first, reopening the socket when the
// snapshot changed.
//
// It returns false when sending failed on at least one interface; the
// failures are available via LastSendErrors.
func (s *Service) SendNotifyAlive() bool {
	return s.sendNotify(s.notifyAliveMessage)
}

// SendNotifyByeBye advertises on every network that the service is
// shutting down.
//
// It returns false when sending failed on at least one interface; the
// failures are available via LastSendErrors.
func (s *Service) SendNotifyByeBye() bool {
	return s.sendNotify(s.notifyByeByeMessage)
}

func (s *Service) sendNotify(message string) bool {
	ok := s.refreshInterfaces()
	for _, iface := range s.interfaces {
		if !s.loopbackSend && iface.IsLoopback() {
			continue
		}
		if err := s.sock.sendFrom(message, iface.IP, s.sock.groupAddr()); err != nil {
			s.sendErrors[iface.IP.String()] = err.Error()
			ok = false
		}
	}
	return ok
}

// refreshInterfaces re-enumerates the interfaces and reopens the multicast
// socket when the snapshot changed. A failed reopen is retried on the next
// refresh even if the snapshot stays stable.
func (s *Service) refreshInterfaces() bool {
	updated, changed, err := UpdateNetworkInterfaces(s.interfaces)
	if err != nil {
		s.sendErrors[s.discoveryURL] = err.Error()
		return false
	}
	s.interfaces = updated

	if changed || s.reopenNeeded {
		s.sock.close()
		sock, err := openMulticastConn(s.group, s.port)
		if err != nil {
			s.reopenNeeded = true
			s.sendErrors[s.discoveryURL] = err.Error()
			return false
		}
		s.sock = sock
		s.reopenNeeded = false
	}
	return true
}

// CheckForMSearchAndSendResponse receives M-SEARCH messages for up to
// timeout and answers every request whose search target matches this
// service or is ssdp:all. The response is sent unicast to the requester
// from the interface sharing its subnet; requests from unreachable
// networks are skipped silently.
//
// The loop wakes every 100 ms, so the minimum effective timeout is 100 ms.
// It returns false when receiving failed or when a response could not be
// sent; details are available via LastSendErrors.
func (s *Service) CheckForMSearchAndSendResponse(timeout time.Duration) bool {
	sendFailed := false
	err := s.sock.runReceiveLoop(timeout, func(pkt packet) {
		if pkt.Method != methodMSearch {
			return
		}
		if pkt.ST != SearchTargetAll && pkt.ST != s.desc.SearchTarget {
			return
		}
		if !s.sendResponse(pkt.ReceivedFrom) {
			sendFailed = true
		}
	})
	if err != nil {
		s.sendErrors[s.discoveryURL] = err.Error()
		return false
	}
	return !sendFailed
}

// sendResponse answers one M-SEARCH requester. The source interface is the
// one whose network contains the requester; without a match the response
// is skipped and the call succeeds.
func (s *Service) sendResponse(requester net.IP) bool {
	var source NetworkInterface
	found := false
	for _, iface := range s.interfaces {
		if iface.sameSubnet(requester) {
			source = iface
			found = true
		}
	}
	if !found {
		return true
	}

	dest := &net.UDPAddr{IP: requester, Port: s.port}
	if err := s.sock.sendFrom(s.responseMessage, source.IP, dest); err != nil {
		s.sendErrors[source.IP.String()] = err.Error()
		return false
	}
	return true
}

// LastSendErrors drains the buffered per-interface send errors and returns
// them as one string. It is empty when every send since the last call
// succeeded.
func (s *Service) LastSendErrors() string {
	return drainSendErrors(s.sendErrors)
}
