// Package log provides structured protocol logging for the HALO controller.
//
// It is separate from operational logging (slog): protocol capture records
// every frame, decoded message, pending-wait outcome and state change as a
// machine-readable trace.
//
// # Basic Usage
//
//	// Console, for development
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Binary file
//	fl, _ := log.NewFileLogger("/var/log/halo/controller.hlog")
//	cfg.ProtocolLogger = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # Event Types
//
//   - Link: raw frame bytes (FrameEvent)
//   - Wire: decoded commands and responses (MessageEvent)
//   - Service: correlation outcomes (CorrelationEvent) and state changes
//     (StateChangeEvent) for the connection, the mirror and tag operations
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .hlog extension.
// The halo-log CLI views, filters and summarises them.
package log
