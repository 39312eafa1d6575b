package grpcstore

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/halo-device/halo-go/pkg/configstore"
)

// Client is a configstore.Store and configstore.TagRegistry backed by a
// remote DeviceConfigService.
type Client struct {
	cc    grpc.ClientConnInterface
	close func() error
}

// Dial connects to target without transport security. Extra options are
// appended, so callers can override credentials.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial config service %s: %w", target, err)
	}
	return &Client{cc: conn, close: conn.Close}, nil
}

// NewClient wraps an existing connection. Calls force the JSON codec.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc, close: func() error { return nil }}
}

// Close closes a connection created by Dial.
func (c *Client) Close() error {
	return c.close()
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	err := c.cc.Invoke(ctx, method, in, out, grpc.CallContentSubtype(codecName))
	if err != nil {
		return fromStatus(method, err)
	}
	return nil
}

// UpdateDeviceConfig implements configstore.Store.
func (c *Client) UpdateDeviceConfig(ctx context.Context, deviceID string, patch configstore.Patch, identity string) (configstore.Config, error) {
	if err := configstore.ValidateUpdate(deviceID, patch, identity); err != nil {
		return configstore.Config{}, err
	}
	out := new(ConfigResponse)
	req := &UpdateDeviceConfigRequest{DeviceID: deviceID, Patch: patch, Identity: identity}
	if err := c.invoke(ctx, methodUpdateDeviceConfig, req, out); err != nil {
		return configstore.Config{}, err
	}
	return out.Config, nil
}

// GetDeviceConfig implements configstore.Store.
func (c *Client) GetDeviceConfig(ctx context.Context, deviceID string) (configstore.Config, error) {
	out := new(ConfigResponse)
	if err := c.invoke(ctx, methodGetDeviceConfig, &GetDeviceConfigRequest{DeviceID: deviceID}, out); err != nil {
		return configstore.Config{}, err
	}
	return out.Config, nil
}

// CreateTag implements configstore.TagRegistry.
func (c *Client) CreateTag(ctx context.Context, deviceID, content string) (configstore.TagRecord, error) {
	out := new(TagResponse)
	if err := c.invoke(ctx, methodCreateTag, &CreateTagRequest{DeviceID: deviceID, Content: content}, out); err != nil {
		return configstore.TagRecord{}, err
	}
	return out.Record, nil
}

// MarkTagWritten implements configstore.TagRegistry.
func (c *Client) MarkTagWritten(ctx context.Context, id, uid string) (configstore.TagRecord, error) {
	out := new(TagResponse)
	if err := c.invoke(ctx, methodMarkTagWritten, &MarkTagWrittenRequest{ID: id, UID: uid}, out); err != nil {
		return configstore.TagRecord{}, err
	}
	return out.Record, nil
}

// fromStatus maps a status error back to the configstore sentinel its
// message names, so callers can keep using errors.Is.
func fromStatus(method string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s: %w", method, err)
	}
	switch st.Code() {
	case codes.Canceled:
		return fmt.Errorf("%s: %w", method, context.Canceled)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w", method, context.DeadlineExceeded)
	}
	for _, sc := range statusCodes {
		if sc.code == st.Code() && strings.Contains(st.Message(), sc.err.Error()) {
			return fmt.Errorf("%s: %w: %s", method, sc.err, st.Message())
		}
	}
	return fmt.Errorf("%s: %w", method, err)
}

var (
	_ configstore.Store       = (*Client)(nil)
	_ configstore.TagRegistry = (*Client)(nil)
)
