// Package grpcstore implements configstore.Store and
// configstore.TagRegistry over gRPC.
//
// The service halo.config.v1.DeviceConfigService has four unary methods:
// UpdateDeviceConfig, GetDeviceConfig, CreateTag and MarkTagWritten.
// Messages travel as JSON (content subtype "json"), so no protobuf code is
// generated. Server wraps any store for serving; Client is the remote
// side used by a controller.
package grpcstore
