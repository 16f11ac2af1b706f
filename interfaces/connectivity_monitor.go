package interfaces

// ConnectivityMonitor reports the device's network reachability.
//
// The SDK subscribes once at startup and assumes the device is online until the
// first notification says otherwise. Implementations must invoke the callback
// on every transition; invoking it redundantly with an unchanged state is
// harmless.
type ConnectivityMonitor interface {
	// Subscribe registers a callback to be invoked with true when the device
	// is online and false when it is offline. The returned function removes
	// the subscription; it must be safe to call more than once.
	Subscribe(callback func(online bool)) (unsubscribe func())
}
