// Package persistence keeps a controller's local memory between runs: the
// devices it has bound to, the last one it used and the external identity
// it mirrors settings for.
package persistence
