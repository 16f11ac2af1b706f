// Package events implements the SDK's buffering and delivery pipeline: the
// event queue with its flush triggers, the retrying HTTP delivery client, and
// the rotating session identifier that stamps every event.
package events

import (
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/arclytics/go-client-sdk/v2/interfaces"
)

const (
	// DefaultFlushInterval is how often the buffer attempts a periodic flush.
	DefaultFlushInterval = 30 * time.Second
	// DefaultFlushThreshold is the queue length that triggers an immediate
	// flush attempt. The queue can exceed it transiently while offline.
	DefaultFlushThreshold = 10
	// DefaultSessionTimeout is how long a session identifier remains valid
	// before it is rotated.
	DefaultSessionTimeout = 2 * time.Hour
	// DefaultRequestTimeout is the per-attempt HTTP timeout applied by the
	// default HTTP client.
	DefaultRequestTimeout = 30 * time.Second

	// EventQueueStorageKey is the persistence key under which the buffer
	// stores its queue as a JSON array.
	EventQueueStorageKey = "com.arclytics.eventQueue"
)

// EventSender delivers batches of events to the collector. The default
// implementation is created with NewEventSender; tests substitute their own.
type EventSender interface {
	// Configured reports whether the sender has a usable credential. The
	// buffer skips flushes while this is false so that no events are lost.
	Configured() bool

	// SendEvents delivers each event in the batch individually, in order. It
	// returns nil only if every event was delivered. On the first terminal
	// per-event failure it stops and returns a *DeliveryError; events not yet
	// attempted remain the caller's responsibility.
	SendEvents(events []Event) error
}

// EventsConfiguration contains the options for an EventBuffer. The zero value
// of every field other than Sender is usable.
type EventsConfiguration struct {
	// Sender performs event delivery. Required.
	Sender EventSender

	// Connectivity is the platform's network reachability monitor. If nil,
	// the buffer assumes the device is always online.
	Connectivity interfaces.ConnectivityMonitor

	// Lifecycle is the platform's app lifecycle monitor. If nil, the buffer
	// does not flush on backgrounding.
	Lifecycle interfaces.LifecycleMonitor

	// Storage is the durable store for queue persistence. If nil, the queue
	// is held in memory only and unsent events are lost on process exit.
	Storage interfaces.PersistentStorage

	// FlushInterval is the period of the flush timer. If zero,
	// DefaultFlushInterval is used.
	FlushInterval time.Duration

	// FlushThreshold is the queue length that triggers a flush. If zero,
	// DefaultFlushThreshold is used.
	FlushThreshold int

	// Loggers is the destination for log output.
	Loggers ldlog.Loggers
}
