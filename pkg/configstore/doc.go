// Package configstore defines the external persistence boundary of a HALO
// controller and an in-process implementation of it.
//
// A Store accepts partial updates of a device's configuration record on
// behalf of an external identity. It is written to by the mirror (values
// the device reported) and by the command façade when the link is down.
// A TagRegistry tracks records of proxied tag writes.
//
// Remote implementations live in the grpcstore and mqttstore
// subpackages.
package configstore
