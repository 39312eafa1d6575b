// Package tagbridge drives read and write sequences against a proxied NFC
// tag on the device's secondary radio.
//
// A read walks idle → reading → read. A write walks idle → creating →
// writing → updating → written. Any non-terminal phase can move to error,
// which ends the sequence.
//
// Phases that completed before an error are not undone. A write that fails
// in updating has already changed the tag, and a write that fails in
// writing leaves a pending record in the registry. Callers that retry must
// tolerate these at-least-once side effects.
package tagbridge
