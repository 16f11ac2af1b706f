// Package arclytics is the main package for the Arclytics client-side
// analytics SDK.
//
// This package contains the SDK client ([Client]) and its configuration
// ([Config]). An application constructs one client at startup and tracks
// named events on it:
//
//	client, err := arclytics.MakeClient("your-sdk-key", arclytics.Config{})
//	if err != nil {
//		// the SDK key was blank
//	}
//	defer client.Close()
//
//	client.Track("purchase")
//
// Events are stamped with a rotating session identifier, buffered, and
// delivered to the collector in the background. Delivery tolerates offline
// periods and transient server failures; with a [Config.Storage]
// implementation supplied, the buffer also survives process termination.
//
// The [github.com/arclytics/go-client-sdk/v2/interfaces] package defines the
// platform collaborators (connectivity, lifecycle, storage, device context)
// that the host application provides through [Config]. The
// [github.com/arclytics/go-client-sdk/v2/events] package implements the
// buffering and delivery pipeline.
package arclytics
