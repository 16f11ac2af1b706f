package interfaces

// AppState is an application lifecycle state as reported by a LifecycleMonitor.
type AppState string

const (
	// AppStateForeground means the application is active and visible.
	AppStateForeground AppState = "foreground"
	// AppStateBackground means the application has been backgrounded.
	AppStateBackground AppState = "background"
	// AppStateInactive means the application is transitioning or partially
	// obscured (for instance, during an incoming call overlay).
	AppStateInactive AppState = "inactive"
)

// LifecycleMonitor reports application lifecycle transitions.
//
// The SDK uses transitions to background or inactive as a signal to flush
// buffered events before the process may be suspended.
type LifecycleMonitor interface {
	// Subscribe registers a callback to be invoked on every lifecycle state
	// change. The returned function removes the subscription; it must be safe
	// to call more than once.
	Subscribe(callback func(state AppState)) (unsubscribe func())
}
