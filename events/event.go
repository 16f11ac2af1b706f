package events

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/arclytics/go-client-sdk/v2/interfaces"
)

// MaxEventNameLength is the longest event name the collector accepts,
// measured in characters rather than bytes.
const MaxEventNameLength = 100

// Event is a single analytics record. It is a value type and is never mutated
// after creation.
//
// The field set is a strict allowlist: every non-empty field is transmitted on
// the wire, and nothing else is. Custom properties are deliberately not
// supported. The collector stores one additional field (geographic origin)
// that it derives from the request's network origin; the client never sends
// or sees it.
type Event struct {
	// Name is the event name, 1 to MaxEventNameLength characters.
	Name string
	// Timestamp is the event creation time in ISO-8601 format.
	Timestamp string
	// SessionID is the 32-lowercase-hex-character session identifier that was
	// active when the event was created.
	SessionID string
	// Platform is the originating operating system label.
	Platform interfaces.Platform
	// Screen is the screen the event occurred on. Optional.
	Screen string
	// UserID is the generated user identifier, if the application has called
	// Identify. Optional.
	UserID string
	// OSVersion is the operating system version. Optional.
	OSVersion string
	// AppVersion is the host application version. Optional.
	AppVersion string
	// Locale is the device locale. Optional.
	Locale string
	// DeviceType is the coarse device class. Optional.
	DeviceType string
}

// ValidateEventName checks an event name against the collector's rules: it
// must be non-blank after trimming whitespace and no longer than
// MaxEventNameLength. A name of exactly MaxEventNameLength is valid.
func ValidateEventName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("event name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxEventNameLength {
		return fmt.Errorf("event name too long (max %d characters)", MaxEventNameLength)
	}
	return nil
}

func (e Event) writeJSON(w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("event_name").String(e.Name)
	obj.Name("timestamp").String(e.Timestamp)
	obj.Name("session_id").String(e.SessionID)
	obj.Name("platform").String(string(e.Platform))
	obj.Maybe("screen", e.Screen != "").String(e.Screen)
	obj.Maybe("user_id", e.UserID != "").String(e.UserID)
	obj.Maybe("os_version", e.OSVersion != "").String(e.OSVersion)
	obj.Maybe("app_version", e.AppVersion != "").String(e.AppVersion)
	obj.Maybe("locale", e.Locale != "").String(e.Locale)
	obj.Maybe("device_type", e.DeviceType != "").String(e.DeviceType)
	obj.End()
}

// marshalPayload produces the wire payload for a single event.
func (e Event) marshalPayload() ([]byte, error) {
	w := jwriter.NewWriter()
	e.writeJSON(&w)
	return w.Bytes(), w.Error()
}

// serializeEventQueue encodes an ordered event queue as a JSON array for
// durable storage.
func serializeEventQueue(events []Event) ([]byte, error) {
	w := jwriter.NewWriter()
	arr := w.Array()
	for _, e := range events {
		e.writeJSON(&w)
	}
	arr.End()
	return w.Bytes(), w.Error()
}

// parseEventQueue decodes a queue previously written by serializeEventQueue.
// Unrecognized fields are skipped so that queues written by a newer SDK
// version can still be read.
func parseEventQueue(data []byte) ([]Event, error) {
	r := jreader.NewReader(data)
	var events []Event
	for arr := r.Array(); arr.Next(); {
		var e Event
		for obj := r.Object(); obj.Next(); {
			switch string(obj.Name()) {
			case "event_name":
				e.Name = r.String()
			case "timestamp":
				e.Timestamp = r.String()
			case "session_id":
				e.SessionID = r.String()
			case "platform":
				e.Platform = interfaces.Platform(r.String())
			case "screen":
				e.Screen = r.String()
			case "user_id":
				e.UserID = r.String()
			case "os_version":
				e.OSVersion = r.String()
			case "app_version":
				e.AppVersion = r.String()
			case "locale":
				e.Locale = r.String()
			case "device_type":
				e.DeviceType = r.String()
			}
		}
		events = append(events, e)
	}
	if err := r.Error(); err != nil {
		return nil, err
	}
	return events, nil
}
