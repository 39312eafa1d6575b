// Package fault defines the typed failures shared by every HALO protocol
// layer.
//
// Every operation that can fail returns an error whose concrete type is
// *Error. The Code field discriminates the outcome:
//
//   - LinkUnavailable: no active connection (returned before transport)
//   - ValidationFailed: local parameter check failed (returned before transport)
//   - Timeout: no matching response within the deadline
//   - DeviceReported: the device answered with status=error
//   - DecodeFailed: the device sent a malformed frame
//
// Callers branch with errors.Is against the exported sentinels:
//
//	_, err := dev.Brightness(ctx)
//	switch {
//	case errors.Is(err, fault.ErrTimeout):
//	    // retry later
//	case errors.Is(err, fault.ErrDeviceReported):
//	    show(fault.UserMessage(err)) // device text, verbatim
//	}
package fault
