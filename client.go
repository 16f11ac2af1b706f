package arclytics

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/arclytics/go-client-sdk/v2/events"
	"github.com/arclytics/go-client-sdk/v2/interfaces"
)

// userIDStorageKey is the persistence key for the generated user identifier.
const userIDStorageKey = "com.arclytics.userId"

// timestampFormat renders event timestamps as millisecond-precision ISO-8601
// in UTC, e.g. "2025-08-30T12:34:56.789Z".
const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Client is an instance of the Arclytics SDK. The embedding application
// constructs one with MakeClient at startup, holds it for the process
// lifetime, and calls Close on shutdown. There is no hidden global instance.
//
// All methods are safe for concurrent use. Track, Flush, and Close never
// return an error to application code and never panic under normal misuse;
// problems are reported through the configured Loggers.
type Client struct {
	loggers  ldlog.Loggers
	device   interfaces.DeviceContext
	storage  interfaces.PersistentStorage
	sessions *events.SessionManager
	buffer   *events.EventBuffer
	timeFn   func() time.Time

	lock   sync.Mutex
	userID string

	closed    atomic.Bool
	closeOnce sync.Once
}

// MakeClient creates and starts an SDK instance. The SDK key is the
// application credential from the Arclytics dashboard; a blank key is the one
// configuration error MakeClient reports, since nothing could ever be
// delivered with it.
//
// Events tracked on the returned client are buffered and delivered in the
// background; see Config for the collaborators that control delivery.
func MakeClient(sdkKey string, config Config) (*Client, error) {
	if strings.TrimSpace(sdkKey) == "" {
		return nil, errors.New("SDK key cannot be empty")
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: events.DefaultRequestTimeout}
	}
	device := config.DeviceContext
	if device == nil {
		device = NewStaticDeviceContext(interfaces.PlatformAndroid, "", "", "", "")
	}

	sender := events.NewEventSender(httpClient, sdkKey, endpoint, config.Loggers)
	buffer := events.NewEventBuffer(events.EventsConfiguration{
		Sender:         sender,
		Connectivity:   config.Connectivity,
		Lifecycle:      config.Lifecycle,
		Storage:        config.Storage,
		FlushInterval:  config.FlushInterval,
		FlushThreshold: config.FlushThreshold,
		Loggers:        config.Loggers,
	})

	c := &Client{
		loggers:  config.Loggers,
		device:   device,
		storage:  config.Storage,
		sessions: events.NewSessionManager(config.SessionTimeout),
		buffer:   buffer,
		timeFn:   time.Now,
	}
	buffer.Start()
	config.Loggers.Infof("Arclytics SDK configured (endpoint: %s)", endpoint)
	return c, nil
}

// Track records an event. The name must be non-blank and no longer than 100
// characters; invalid names are reported through the loggers and ignored.
//
// Custom properties are not supported: the collector enforces a strict field
// allowlist, and the SDK sends exactly the allowlisted fields it stamps
// itself.
func (c *Client) Track(eventName string) {
	c.track(eventName, "")
}

// TrackScreen records an event with the screen it occurred on.
func (c *Client) TrackScreen(eventName string, screen string) {
	c.track(eventName, screen)
}

func (c *Client) track(eventName string, screen string) {
	if c.closed.Load() {
		c.loggers.Warn("Ignoring event tracked after Close")
		return
	}
	if err := events.ValidateEventName(eventName); err != nil {
		c.loggers.Warnf("Ignoring event: %s", err)
		return
	}
	c.buffer.Add(c.makeEvent(eventName, screen))
}

func (c *Client) makeEvent(name string, screen string) events.Event {
	c.lock.Lock()
	userID := c.userID
	c.lock.Unlock()
	return events.Event{
		Name:       name,
		Timestamp:  c.timeFn().UTC().Format(timestampFormat),
		SessionID:  c.sessions.SessionID(),
		Platform:   c.device.Platform(),
		Screen:     screen,
		UserID:     userID,
		OSVersion:  c.device.OSVersion(),
		AppVersion: c.device.AppVersion(),
		Locale:     c.device.Locale(),
		DeviceType: c.device.DeviceType(),
	}
}

// Flush attempts to deliver all buffered events immediately and returns when
// the attempt is over. Rarely needed: the SDK flushes on its own every 30
// seconds, when the queue reaches 10 events, when connectivity returns, and
// when the application is backgrounded. Callers that need delivery
// confirmation must watch the logs; Flush reports nothing.
func (c *Client) Flush() {
	if c.closed.Load() {
		return
	}
	c.buffer.Flush()
}

// Identify assigns this installation a generated user identifier, which is
// stamped onto subsequent events as user_id. The identifier cannot be
// supplied by the caller. If durable storage is configured the identifier is
// persisted, so repeated Identify calls across process restarts yield the
// same value until ResetIdentity is called.
func (c *Client) Identify() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.userID != "" {
		return
	}
	if c.storage != nil {
		stored, err := c.storage.Get(userIDStorageKey)
		if err != nil {
			c.loggers.Warnf("Failed to read user ID from storage: %s", err)
		}
		if stored != "" {
			c.userID = stored
			return
		}
	}
	id := newUserToken()
	if c.storage != nil {
		if err := c.storage.Set(userIDStorageKey, id); err != nil {
			c.loggers.Warnf("Failed to persist user ID: %s", err)
		}
	}
	c.userID = id
}

// ResetIdentity discards the generated user identifier, both in memory and in
// durable storage. Call it on logout. Subsequent events carry no user_id
// until Identify is called again.
func (c *Client) ResetIdentity() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.storage != nil {
		if err := c.storage.Remove(userIDStorageKey); err != nil {
			c.loggers.Warnf("Failed to remove user ID from storage: %s", err)
		}
	}
	c.userID = ""
}

// Close flushes buffered events once and then shuts the pipeline down,
// cancelling the periodic flush timer and the monitor subscriptions. It is
// safe to call more than once. Events tracked after Close are ignored.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.buffer.Flush()
		c.buffer.Stop()
	})
	return nil
}

// newUserToken returns a random 128-bit token as 32 lowercase hex characters,
// the same shape as a session identifier.
func newUserToken() string {
	u, _ := uuid.NewRandom()
	return strings.ReplaceAll(strings.ToLower(u.String()), "-", "")
}
