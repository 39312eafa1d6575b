// Package interaction correlates device responses with the commands that
// caused them.
//
// The wire format has no request identifier. A response is matched to a
// waiting caller by its kind alone:
//
//	resp, err := client.SendAndWait(ctx,
//	    wire.NewCommand(wire.KindGetBrightness, nil),
//	    wire.KindBrightnessGet, time.Second)
//
// Only one wait per kind exists at a time. Concurrent SendAndWait calls for
// the same kind are served one after the other. A response that arrives
// after its wait timed out is not attributed to anyone.
//
// Fire-and-forget commands use Send, which reports only whether the
// transport accepted the frame.
//
// Every decoded response is also broadcast to subscribers registered with
// Subscribe, whether or not it resolved a wait. Frames that fail to decode
// are logged and reach nobody.
package interaction
