package ssdp

// ServiceDescription carries the properties of an announced or discovered
// service. Descriptions received over the network are usually incomplete;
// depending on the message kind only some headers are present, but at least
// the search target (ST) and the unique service name (USN) are set.
type ServiceDescription struct {
	LocationURL       string `json:"location"`
	UniqueServiceName string `json:"usn"`
	SearchTarget      string `json:"st"`
	SMID              string `json:"sm_id,omitempty"`
	DeviceType        string `json:"dev_type,omitempty"`
	ProductName       string `json:"product_name,omitempty"`
	ProductVersion    string `json:"product_version,omitempty"`
}

// Equal reports whether both descriptions name the same service. The SSDP
// identity of a service is the (search target, unique service name) pair;
// all other properties are ignored.
func (d ServiceDescription) Equal(other ServiceDescription) bool {
	return d.SearchTarget == other.SearchTarget &&
		d.UniqueServiceName == other.UniqueServiceName
}

// String renders the description for logs.
func (d ServiceDescription) String() string {
	return "USN: " + d.UniqueServiceName + "\n" +
		"ST:" + d.SearchTarget + "\n" +
		"DEV_TYPE:" + d.DeviceType + "\n" +
		"LOCATION:" + d.LocationURL + "\n" +
		"PRODUCT:" + d.ProductName + "/" + d.ProductVersion + "\n"
}

// UpdateEvent is the kind of service update a ServiceFinder observed.
type UpdateEvent uint8

const (
	// EventNotifyAlive is a NOTIFY message with NTS ssdp:alive.
	EventNotifyAlive UpdateEvent = iota
	// EventNotifyByeBye is a NOTIFY message with NTS ssdp:byebye.
	EventNotifyByeBye
	// EventResponse is a 200 OK answer to an M-SEARCH.
	EventResponse
)

// String returns the event name.
func (e UpdateEvent) String() string {
	switch e {
	case EventNotifyAlive:
		return "notify_alive"
	case EventNotifyByeBye:
		return "notify_byebye"
	case EventResponse:
		return "response"
	}
	return "unknown"
}

// ServiceUpdateEvent is delivered by ServiceFinder.CheckForServices for
// every accepted notification or response.
type ServiceUpdateEvent struct {
	Service ServiceDescription
	Event   UpdateEvent
}

// String renders the event for logs.
func (e ServiceUpdateEvent) String() string {
	return e.Event.String() + " " + e.Service.String()
}

// ServiceUpdateHandler is called for each ServiceUpdateEvent a finder
// accepts. It runs on the goroutine driving CheckForServices.
type ServiceUpdateHandler func(ServiceUpdateEvent)

// options holds the defaulted construction parameters of both façades.
type options struct {
	smID         string
	deviceType   string
	searchTarget string
	loopbackSend bool
}

// Option configures a Service or ServiceFinder at construction time.
type Option func(*options)

// WithSMID adds the given service id to outbound messages as SM_ID.
func WithSMID(smID string) Option {
	return func(o *options) {
		o.smID = smID
	}
}

// WithDeviceType sets the device type. A Service adds it to outbound
// messages as DEV_TYPE; a ServiceFinder accepts only packets carrying this
// exact DEV_TYPE.
func WithDeviceType(deviceType string) Option {
	return func(o *options) {
		o.deviceType = deviceType
	}
}

// WithSearchTarget restricts a ServiceFinder to one search target: its
// M-SEARCH requests name it and only matching notifications and responses
// are delivered. Without this option the finder searches for ssdp:all.
func WithSearchTarget(searchTarget string) Option {
	return func(o *options) {
		o.searchTarget = searchTarget
	}
}

// WithLoopbackSend controls whether send rounds include the loopback
// interface. It is enabled by default so peers on the sending host observe
// the traffic.
func WithLoopbackSend(enabled bool) Option {
	return func(o *options) {
		o.loopbackSend = enabled
	}
}

// applyOptions returns the option defaults with all options applied.
func applyOptions(opts []Option) options {
	conf := options{
		loopbackSend: true,
	}
	for _, o := range opts {
		if o != nil {
			o(&conf)
		}
	}
	return conf
}
