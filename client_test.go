package ssdp

import (
	"testing"
)

func TestNewServiceFinderRejectsBadURL(t *testing.T) {
	urls := []string{
		"http://example.com:1900",
		"http://239.255.255.250",
		"not a url at all ://",
	}
	for _, url := range urls {
		if _, err := NewServiceFinder(url, "MyTest", "1.1"); err == nil {
			t.Errorf("NewServiceFinder(%q) must fail", url)
		}
	}
}

func TestEventForFilters(t *testing.T) {
	alive := packet{
		Method:     methodNotify,
		ST:         "my_search_target",
		USN:        "service1",
		NTS:        ntsAlive,
		DeviceType: "gateway",
	}

	tests := []struct {
		name   string
		finder ServiceFinder
		pkt    packet
		accept bool
		event  UpdateEvent
	}{
		{
			name:   "matching search target",
			finder: ServiceFinder{searchTarget: "my_search_target"},
			pkt:    alive,
			accept: true,
			event:  EventNotifyAlive,
		},
		{
			name:   "other search target",
			finder: ServiceFinder{searchTarget: "other_target"},
			pkt:    alive,
			accept: false,
		},
		{
			name:   "wildcard accepts any target",
			finder: ServiceFinder{searchTarget: SearchTargetAll},
			pkt:    alive,
			accept: true,
			event:  EventNotifyAlive,
		},
		{
			name:   "matching device type filter",
			finder: ServiceFinder{searchTarget: SearchTargetAll, deviceTypeFilter: "gateway"},
			pkt:    alive,
			accept: true,
			event:  EventNotifyAlive,
		},
		{
			name:   "other device type filter",
			finder: ServiceFinder{searchTarget: SearchTargetAll, deviceTypeFilter: "renderer"},
			pkt:    alive,
			accept: false,
		},
		{
			name:   "byebye notification",
			finder: ServiceFinder{searchTarget: SearchTargetAll},
			pkt:    packet{Method: methodNotify, ST: "x", USN: "u", NTS: ntsByeBye},
			accept: true,
			event:  EventNotifyByeBye,
		},
		{
			name:   "response",
			finder: ServiceFinder{searchTarget: SearchTargetAll},
			pkt:    packet{Method: methodResponse, ST: "x", USN: "u"},
			accept: true,
			event:  EventResponse,
		},
		{
			name:   "m-search is never delivered",
			finder: ServiceFinder{searchTarget: SearchTargetAll},
			pkt:    packet{Method: methodMSearch, ST: SearchTargetAll},
			accept: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok := tt.finder.eventFor(tt.pkt)
			if ok != tt.accept {
				t.Fatalf("eventFor() accepted = %v, want %v", ok, tt.accept)
			}
			if !ok {
				return
			}
			if event.Event != tt.event {
				t.Errorf("Event = %v, want %v", event.Event, tt.event)
			}
			if event.Service.UniqueServiceName != tt.pkt.USN {
				t.Errorf("USN = %q, want %q", event.Service.UniqueServiceName, tt.pkt.USN)
			}
			if event.Service.SearchTarget != tt.pkt.ST {
				t.Errorf("ST = %q, want %q", event.Service.SearchTarget, tt.pkt.ST)
			}
		})
	}
}

// A NOTIFY without a recognizable NTS value is delivered as notify_alive.
// That default mirrors how deployed SSDP stacks behave when the header is
// missing, even though a byebye without NTS is then misread as alive.
func TestEventForDefaultsUnknownNTSToAlive(t *testing.T) {
	finder := ServiceFinder{searchTarget: SearchTargetAll}

	for _, nts := range []string{"", "ssdp:update", "nonsense"} {
		event, ok := finder.eventFor(packet{Method: methodNotify, ST: "x", USN: "u", NTS: nts})
		if !ok {
			t.Fatalf("eventFor(NTS=%q) rejected the notification", nts)
		}
		if event.Event != EventNotifyAlive {
			t.Errorf("eventFor(NTS=%q) = %v, want %v", nts, event.Event, EventNotifyAlive)
		}
	}
}

func TestEventForCarriesDescription(t *testing.T) {
	finder := ServiceFinder{searchTarget: SearchTargetAll}
	pkt := packet{
		Method:     methodResponse,
		ST:         "my_search_target",
		USN:        "service1",
		Location:   "http://localhost:9090",
		SMID:       "sm_17",
		DeviceType: "gateway",
	}

	event, ok := finder.eventFor(pkt)
	if !ok {
		t.Fatal("eventFor() rejected the response")
	}
	want := ServiceDescription{
		LocationURL:       "http://localhost:9090",
		UniqueServiceName: "service1",
		SearchTarget:      "my_search_target",
		SMID:              "sm_17",
		DeviceType:        "gateway",
	}
	if event.Service != want {
		t.Errorf("Service = %+v, want %+v", event.Service, want)
	}
	if event.Service.ProductName != "" || event.Service.ProductVersion != "" {
		t.Error("product fields of received descriptions must stay empty")
	}
}

func TestServiceDescriptionEqual(t *testing.T) {
	a := ServiceDescription{SearchTarget: "st", UniqueServiceName: "usn", LocationURL: "http://a"}
	b := ServiceDescription{SearchTarget: "st", UniqueServiceName: "usn", LocationURL: "http://b"}
	c := ServiceDescription{SearchTarget: "st", UniqueServiceName: "other"}

	if !a.Equal(b) {
		t.Error("descriptions with equal (ST, USN) must be equal regardless of other fields")
	}
	if a.Equal(c) {
		t.Error("descriptions with different USN must not be equal")
	}
}
