// Package mirror copies device-reported settings into the external config
// store.
//
// A Middleware is active while a device id and an external identity are
// known and the connection is live to that same device. While active it holds exactly one
// subscription on the correlator's broadcast stream, filtered to the
// syncable response kinds, and turns each successful response into a
// store update.
//
// Updates are applied by a single worker goroutine from a bounded queue.
// The broadcast path only enqueues. A full queue, a failing store and a
// panicking store are all reported through OnFailure and never reach the
// broadcast stream.
package mirror
