// Package connection manages the single link between the controller and a
// companion device.
//
// A Manager moves between three states:
//
//	DISCONNECTED -> CONNECTING -> CONNECTED
//	      ^              |            |
//	      +--------------+------------+
//
// Connect runs open, wait-ready and subscribe in that order and only then
// reports CONNECTED. A failure at any step returns to DISCONNECTED with
// nothing left subscribed. Disconnect always ends in DISCONNECTED; errors
// from the link teardown are logged and dropped. A link that drops on its
// own goes through the same teardown with reason "link lost".
//
// Consumers observe transitions through OnStateChange instead of polling
// IsConnected.
//
// The manager does not retry. Callers that want retries use Retry, which
// paces attempts with an exponential Backoff:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
package connection
