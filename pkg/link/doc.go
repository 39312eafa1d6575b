// Package link defines the physical connection between the controller and a
// companion device.
//
// Backends live in subpackages:
//
//   - bluez: BLE GATT over BlueZ D-Bus (one frame per notification)
//   - serial: USB-CDC or UART (newline-delimited frames)
//   - sim: an in-memory device simulator
//
// All backends deliver whole frames. Splitting a byte stream into frames is
// the backend's job; LineReader and LineWriter do it for stream links.
package link
