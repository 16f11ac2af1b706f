package interfaces

// Platform identifies the mobile operating system an event originated from.
// This is a closed set; the collector rejects any other value.
type Platform string

const (
	// PlatformIOS is the platform label for events from iOS devices.
	PlatformIOS Platform = "iOS"
	// PlatformAndroid is the platform label for events from Android devices.
	PlatformAndroid Platform = "Android"
)

// DeviceContext supplies the device and application properties that are
// stamped onto every event. Implementations are expected to be cheap to call;
// the SDK queries them on every tracked event.
//
// Any method other than Platform may return an empty string, in which case the
// corresponding field is omitted from the event payload.
type DeviceContext interface {
	// Platform returns the operating system label for this device.
	Platform() Platform
	// OSVersion returns the operating system version, such as "17.2".
	OSVersion() string
	// AppVersion returns the host application's version, such as "2.1.0".
	AppVersion() string
	// Locale returns the device locale, such as "en-US".
	Locale() string
	// DeviceType returns a coarse device class, such as "phone" or "tablet".
	DeviceType() string
}
