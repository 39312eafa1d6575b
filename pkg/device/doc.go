// Package device is the command façade of a HALO controller.
//
// A Device validates parameters locally, builds a wire command from the
// model's command table and hands it to a Capability (the response
// correlator). Nothing reaches the link when validation fails.
//
// Operations come in two shapes. A Notify is fire-and-forget: it is only
// sent, and its result reports AckTransport. A Request names the response
// kind it waits for and reports AckDevice once the device answered. Only
// Request values are ever registered with the correlator.
//
// When the link is down and a config store plus a bound device and
// identity are available, setting commands are written to the store
// instead and report AckStored.
package device
