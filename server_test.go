package ssdp

import (
	"fmt"
	"net"
	"testing"
	"time"
)

// testDiscoveryURL builds a discovery URL on the standard SSDP group with a
// test-local port so the tests never collide with real SSDP traffic.
func testDiscoveryURL(port int) string {
	return fmt.Sprintf("http://239.255.255.250:%d", port)
}

// newTestService opens a service on the given port, skipping the test when
// the environment does not allow multicast sockets.
func newTestService(t *testing.T, port int, usn, searchTarget string, opts ...Option) *Service {
	t.Helper()
	s, err := NewService(testDiscoveryURL(port), 1800*time.Second,
		"http://localhost:9090", usn, searchTarget, "MyTest", "1.1", opts...)
	if err != nil {
		t.Skipf("multicast socket unavailable: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestFinder opens a finder on the given port, skipping the test when
// the environment does not allow multicast sockets.
func newTestFinder(t *testing.T, port int, opts ...Option) *ServiceFinder {
	t.Helper()
	f, err := NewServiceFinder(testDiscoveryURL(port), "MyTest", "1.1", opts...)
	if err != nil {
		t.Skipf("multicast socket unavailable: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestNewServiceRejectsBadURL(t *testing.T) {
	urls := []string{
		"http://example.com:1900",
		"http://239.255.255.250",
		"http://239.255.255.250:0",
		"://",
	}
	for _, url := range urls {
		_, err := NewService(url, 1800*time.Second, "http://localhost:9090",
			"service1", "my_search_target", "MyTest", "1.1")
		if err == nil {
			t.Errorf("NewService(%q) must fail", url)
		}
	}
}

func TestServiceDescriptionAccessor(t *testing.T) {
	s := newTestService(t, 18951, "service1", "my_search_target", WithSMID("sm_17"), WithDeviceType("gateway"))

	desc := s.Description()
	want := ServiceDescription{
		LocationURL:       "http://localhost:9090",
		UniqueServiceName: "service1",
		SearchTarget:      "my_search_target",
		SMID:              "sm_17",
		DeviceType:        "gateway",
		ProductName:       "MyTest",
		ProductVersion:    "1.1",
	}
	if desc != want {
		t.Errorf("Description() = %+v, want %+v", desc, want)
	}
	if !s.Equal(ServiceDescription{SearchTarget: "my_search_target", UniqueServiceName: "service1"}) {
		t.Error("Equal() must compare the SSDP identity only")
	}
}

// A response is only routed when some interface shares the requester's
// network; unmatched requesters are skipped without error.
func TestSendResponseRouting(t *testing.T) {
	s := newTestService(t, 18952, "service1", "my_search_target")

	if !s.sendResponse(net.IPv4(198, 51, 100, 77)) {
		t.Error("requester outside every interface network must be skipped successfully")
	}
	if errs := s.LastSendErrors(); errs != "" {
		t.Errorf("skipped response must not record errors, got %q", errs)
	}

	if !s.sendResponse(net.IPv4(127, 0, 0, 1)) {
		t.Errorf("response to loopback requester failed: %s", s.LastSendErrors())
	}
	if errs := s.LastSendErrors(); errs != "" {
		t.Errorf("loopback response recorded errors: %q", errs)
	}
}

func TestCheckForMSearchTimeout(t *testing.T) {
	s := newTestService(t, 18953, "service1", "timeout_test_target")

	begin := time.Now()
	ok := s.CheckForMSearchAndSendResponse(250 * time.Millisecond)
	elapsed := time.Since(begin)

	if !ok {
		t.Errorf("idle receive loop failed: %s", s.LastSendErrors())
	}
	if elapsed < 250*time.Millisecond {
		t.Errorf("returned after %v, before the %v timeout", elapsed, 250*time.Millisecond)
	}
	if elapsed > 700*time.Millisecond {
		t.Errorf("returned after %v, well past the timeout plus one tick", elapsed)
	}
}

// A timeout below the tick still performs one full tick.
func TestReceiveLoopMinimumTick(t *testing.T) {
	f := newTestFinder(t, 18954, WithSearchTarget("minimum_tick_target"))

	begin := time.Now()
	ok := f.CheckForServices(nil, 10*time.Millisecond)
	elapsed := time.Since(begin)

	if !ok {
		t.Errorf("idle receive loop failed: %s", f.LastSendErrors())
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("returned after %v, before one full tick", elapsed)
	}
}

func TestCheckForServicesIdle(t *testing.T) {
	f := newTestFinder(t, 18955, WithSearchTarget("idle_test_target"))

	calls := 0
	begin := time.Now()
	ok := f.CheckForServices(func(ServiceUpdateEvent) { calls++ }, 250*time.Millisecond)
	elapsed := time.Since(begin)

	if !ok {
		t.Errorf("idle receive loop failed: %s", f.LastSendErrors())
	}
	if calls != 0 {
		t.Errorf("callback invoked %d times without traffic", calls)
	}
	if elapsed < 250*time.Millisecond || elapsed > 700*time.Millisecond {
		t.Errorf("returned after %v, want within [250ms, 700ms]", elapsed)
	}
}

func TestLastSendErrorsDrains(t *testing.T) {
	s := newTestService(t, 18956, "service1", "my_search_target")

	s.sendErrors["192.168.1.34"] = "sendto failed"
	if errs := s.LastSendErrors(); errs != "sendto failed" {
		t.Errorf("LastSendErrors() = %q", errs)
	}
	if errs := s.LastSendErrors(); errs != "" {
		t.Errorf("second call = %q, want empty", errs)
	}
}
