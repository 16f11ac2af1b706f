// Package interfaces contains the types that the SDK consumes from its host
// application: platform monitors, durable storage, and device information.
//
// The SDK core never talks to the operating system directly. Instead, the host
// application (or the platform binding layer) supplies implementations of these
// interfaces in Config. This keeps the pipeline testable without a real device
// or emulator.
package interfaces
