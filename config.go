package arclytics

import (
	"net/http"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/arclytics/go-client-sdk/v2/interfaces"
)

// DefaultEndpoint is the collector URL events are posted to unless Config
// overrides it.
const DefaultEndpoint = "https://arclytics.com/api/v1/events/"

// Config exposes the optional settings for MakeClient.
//
// All of these settings are optional, so an empty Config struct is always
// valid. See the description of each field for the default behavior if it is
// not set.
type Config struct {
	// Endpoint is the collector URL to post events to. If empty,
	// DefaultEndpoint is used.
	Endpoint string

	// HTTPClient is the HTTP client used for event delivery. If nil, a client
	// with a 30-second request timeout is used. The client's timeout bounds
	// each individual delivery attempt.
	HTTPClient *http.Client

	// Loggers is the destination for SDK log output. The zero value is safe
	// and logs at Info level and above to standard error; use
	// ldlog.NewDisabledLoggers() to silence the SDK entirely.
	Loggers ldlog.Loggers

	// Connectivity is the platform's network reachability monitor. If nil,
	// the SDK assumes the device is always online and will attempt delivery
	// on every flush.
	Connectivity interfaces.ConnectivityMonitor

	// Lifecycle is the platform's app lifecycle monitor. If nil, the SDK
	// does not flush when the application is backgrounded.
	Lifecycle interfaces.LifecycleMonitor

	// Storage is a durable key-value store for queue persistence and the
	// generated user identifier. If nil, the queue is held in memory only
	// (unsent events are lost if the process exits) and Identify keeps the
	// user identifier for the process lifetime only.
	Storage interfaces.PersistentStorage

	// DeviceContext supplies the device properties stamped onto every event.
	// If nil, events carry the Android platform label and no device fields;
	// production integrations should always provide an implementation.
	DeviceContext interfaces.DeviceContext

	// FlushInterval is how often buffered events are delivered. If zero,
	// events.DefaultFlushInterval (30 seconds) is used.
	FlushInterval time.Duration

	// FlushThreshold is the queue length that triggers an immediate delivery
	// attempt. If zero, events.DefaultFlushThreshold (10) is used.
	FlushThreshold int

	// SessionTimeout is how long a session identifier remains valid before it
	// is rotated. If zero, events.DefaultSessionTimeout (2 hours) is used.
	SessionTimeout time.Duration
}

// NewStaticDeviceContext returns a DeviceContext that always reports the given
// values. It is the default device context (with the Android platform label
// and empty fields) and is also convenient in tests.
func NewStaticDeviceContext(
	platform interfaces.Platform,
	osVersion string,
	appVersion string,
	locale string,
	deviceType string,
) interfaces.DeviceContext {
	return staticDeviceContext{
		platform:   platform,
		osVersion:  osVersion,
		appVersion: appVersion,
		locale:     locale,
		deviceType: deviceType,
	}
}

type staticDeviceContext struct {
	platform   interfaces.Platform
	osVersion  string
	appVersion string
	locale     string
	deviceType string
}

func (d staticDeviceContext) Platform() interfaces.Platform { return d.platform }
func (d staticDeviceContext) OSVersion() string             { return d.osVersion }
func (d staticDeviceContext) AppVersion() string            { return d.appVersion }
func (d staticDeviceContext) Locale() string                { return d.locale }
func (d staticDeviceContext) DeviceType() string            { return d.deviceType }
