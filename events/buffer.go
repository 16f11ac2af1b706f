package events

import (
	"sync"
	"time"

	"github.com/arclytics/go-client-sdk/v2/interfaces"
)

// EventBuffer owns the queue of pending events and decides when to hand a
// batch to the EventSender. Flushes are triggered by the queue reaching its
// threshold, by a periodic timer, by the device coming back online, and by the
// application moving to the background.
//
// Delivery failure is atomic at batch granularity: either the whole batch is
// considered delivered, or the whole batch goes back to the front of the
// queue. A prefix of the batch may already have reached the collector before a
// later event failed, so delivery is at-least-once and duplicates are possible
// on retry.
//
// If a PersistentStorage collaborator is configured, every queue mutation is
// mirrored to durable storage, and Start recovers whatever queue a previous
// process left behind.
type EventBuffer struct {
	config EventsConfiguration

	lock           sync.Mutex
	queue          []Event
	inFlight       bool
	online         bool
	started        bool
	recovered      bool
	stopCh         chan struct{}
	unsubConnect   func()
	unsubLifecycle func()
}

// NewEventBuffer creates an EventBuffer. Call Start to begin periodic flushing
// and monitor subscriptions.
func NewEventBuffer(config EventsConfiguration) *EventBuffer {
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultFlushInterval
	}
	if config.FlushThreshold <= 0 {
		config.FlushThreshold = DefaultFlushThreshold
	}
	return &EventBuffer{
		config: config,
		online: true,
	}
}

// Start loads any persisted queue, subscribes to the connectivity and
// lifecycle monitors, and starts the periodic flush timer. It is idempotent:
// calling it on a started buffer does nothing, so there is never more than one
// timer or one subscription per monitor. A buffer may be started again after
// Stop; persisted-queue recovery only happens on the first Start, since the
// in-memory queue already reflects durable state after that.
func (b *EventBuffer) Start() {
	b.lock.Lock()
	if b.started {
		b.lock.Unlock()
		return
	}
	b.started = true
	firstStart := !b.recovered
	b.recovered = true
	stopCh := make(chan struct{})
	b.stopCh = stopCh
	b.lock.Unlock()

	// Recovery happens once per buffer: after a restart the in-memory queue
	// is already mirrored to storage, so loading it again would duplicate it.
	if firstStart {
		if restored := b.loadPersistedQueue(); len(restored) > 0 {
			b.lock.Lock()
			b.queue = append(restored, b.queue...)
			b.lock.Unlock()
			b.config.Loggers.Infof("Recovered %d persisted event(s)", len(restored))
		}
	}

	var unsubConnect, unsubLifecycle func()
	if b.config.Connectivity != nil {
		unsubConnect = b.config.Connectivity.Subscribe(b.connectivityChanged)
	}
	if b.config.Lifecycle != nil {
		unsubLifecycle = b.config.Lifecycle.Subscribe(b.lifecycleChanged)
	}
	b.lock.Lock()
	b.unsubConnect = unsubConnect
	b.unsubLifecycle = unsubLifecycle
	b.lock.Unlock()

	go b.runFlushTimer(stopCh)
}

// Stop cancels the periodic flush timer and removes the monitor
// subscriptions. It is safe to call on a buffer that was never started, and
// safe to call more than once. It does not cancel an in-flight delivery
// attempt; that runs to completion or failure on its own.
func (b *EventBuffer) Stop() {
	b.lock.Lock()
	if !b.started {
		b.lock.Unlock()
		return
	}
	b.started = false
	close(b.stopCh)
	b.stopCh = nil
	unsubConnect, unsubLifecycle := b.unsubConnect, b.unsubLifecycle
	b.unsubConnect, b.unsubLifecycle = nil, nil
	b.lock.Unlock()

	if unsubConnect != nil {
		unsubConnect()
	}
	if unsubLifecycle != nil {
		unsubLifecycle()
	}
}

// Add appends an event to the tail of the queue. If durable storage is
// configured, the appended queue is persisted before Add returns, so a crash
// immediately afterward does not lose the event; a persistence failure is
// logged and the in-memory append still stands. Reaching the flush threshold
// triggers an asynchronous flush; Add never waits for delivery.
func (b *EventBuffer) Add(e Event) {
	b.lock.Lock()
	b.queue = append(b.queue, e)
	b.persistQueueLocked()
	shouldFlush := len(b.queue) >= b.config.FlushThreshold
	b.lock.Unlock()

	if shouldFlush {
		go b.Flush()
	}
}

// Flush attempts to deliver everything currently queued. It is a no-op when a
// flush is already in progress, the queue is empty, the device is known to be
// offline, or the sender has no credential; queued events are kept in all of
// those cases. Otherwise the queue is snapshotted as a batch, cleared, and
// handed to the sender; on any delivery failure the entire batch is put back
// in front of whatever arrived in the meantime. Flush returns when the attempt
// is over, whatever the outcome.
func (b *EventBuffer) Flush() {
	b.lock.Lock()
	if b.inFlight || len(b.queue) == 0 {
		b.lock.Unlock()
		return
	}
	if !b.online {
		b.lock.Unlock()
		b.config.Loggers.Debug("Offline, skipping flush")
		return
	}
	if b.config.Sender == nil || !b.config.Sender.Configured() {
		b.lock.Unlock()
		b.config.Loggers.Warn("SDK not configured, skipping flush")
		return
	}
	batch := b.queue
	b.queue = nil
	b.inFlight = true
	b.persistQueueLocked()
	b.lock.Unlock()

	err := b.config.Sender.SendEvents(batch)

	b.lock.Lock()
	b.inFlight = false
	if err != nil {
		// The failed batch goes back in front of events added during the
		// attempt, so it is first in line for the next flush.
		b.queue = append(batch, b.queue...)
		b.persistQueueLocked()
	}
	b.lock.Unlock()

	if err != nil {
		b.config.Loggers.Warnf("Failed to send events, will retry later: %s", err)
	} else {
		b.config.Loggers.Debugf("Flushed %d event(s)", len(batch))
	}
}

// QueueSize returns the number of events currently queued. It has no side
// effects; it exists for observability and tests.
func (b *EventBuffer) QueueSize() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.queue)
}

func (b *EventBuffer) runFlushTimer(stopCh <-chan struct{}) {
	ticker := time.NewTicker(b.config.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			b.Flush()
		}
	}
}

func (b *EventBuffer) connectivityChanged(online bool) {
	b.lock.Lock()
	wasOnline := b.online
	b.online = online
	b.lock.Unlock()

	if !wasOnline && online {
		b.config.Loggers.Info("Network restored, flushing queue")
		go b.Flush()
	}
}

func (b *EventBuffer) lifecycleChanged(state interfaces.AppState) {
	if state == interfaces.AppStateBackground || state == interfaces.AppStateInactive {
		go b.Flush()
	}
}

// loadPersistedQueue reads the queue a previous process left behind. Any
// failure here only costs durability, so it is logged and an empty queue is
// used instead.
func (b *EventBuffer) loadPersistedQueue() []Event {
	if b.config.Storage == nil {
		return nil
	}
	data, err := b.config.Storage.Get(EventQueueStorageKey)
	if err != nil {
		b.config.Loggers.Warnf("Failed to read persisted event queue: %s", err)
		return nil
	}
	if data == "" {
		return nil
	}
	events, err := parseEventQueue([]byte(data))
	if err != nil {
		b.config.Loggers.Warnf("Discarding malformed persisted event queue: %s", err)
		return nil
	}
	return events
}

// persistQueueLocked mirrors the current queue to durable storage. The caller
// must hold b.lock.
func (b *EventBuffer) persistQueueLocked() {
	if b.config.Storage == nil {
		return
	}
	data, err := serializeEventQueue(b.queue)
	if err != nil {
		b.config.Loggers.Errorf("Unexpected error serializing event queue: %s", err)
		return
	}
	if err := b.config.Storage.Set(EventQueueStorageKey, string(data)); err != nil {
		b.config.Loggers.Warnf("Failed to persist event queue: %s", err)
	}
}
