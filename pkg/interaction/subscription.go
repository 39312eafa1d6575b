package interaction

import (
	"fmt"

	"github.com/halo-device/halo-go/pkg/wire"
)

// Subscription is a passive listener on the response stream.
type Subscription struct {
	// ID is the unique subscription identifier.
	ID uint64

	// Kinds restricts delivery to these response kinds (empty = all).
	Kinds map[string]bool

	fn func(*wire.Response)
}

// IsSubscribedTo returns true if responses of kind are delivered.
func (s *Subscription) IsSubscribedTo(kind string) bool {
	return len(s.Kinds) == 0 || s.Kinds[kind]
}

// Subscribe registers fn for every decoded response whose kind is in kinds
// (all kinds when none are given), whether or not it resolved a wait.
//
// fn runs on the inbound frame path: it must return quickly and must not
// call Subscribe or the returned unsubscribe function. After unsubscribe
// returns, fn is not called again.
func (c *Client) Subscribe(fn func(*wire.Response), kinds ...string) (unsubscribe func()) {
	sub := &Subscription{fn: fn}
	if len(kinds) > 0 {
		sub.Kinds = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			sub.Kinds[k] = true
		}
	}

	c.subMu.Lock()
	c.nextSubID++
	sub.ID = c.nextSubID
	c.subscribers = append(c.subscribers, sub)
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		for i, s := range c.subscribers {
			if s == sub {
				c.subscribers = append(c.subscribers[:i:i], c.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of registered subscriptions.
func (c *Client) Subscribers() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscribers)
}

// broadcast delivers resp to every matching subscriber. A panicking
// subscriber is logged and skipped.
func (c *Client) broadcast(resp *wire.Response) {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	for _, s := range c.subscribers {
		if s.IsSubscribedTo(resp.Kind) {
			c.deliver(s, resp)
		}
	}
}

func (c *Client) deliver(s *Subscription, resp *wire.Response) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("subscriber panicked", "subscription", s.ID, "kind", resp.Kind, "panic", fmt.Sprint(r))
		}
	}()
	s.fn(resp)
}
