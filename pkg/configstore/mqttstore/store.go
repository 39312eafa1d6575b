package mqttstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/halo-device/halo-go/pkg/configstore"
)

// ErrPublishTimeout is returned when the broker does not confirm a publish
// in time.
var ErrPublishTimeout = errors.New("mqtt publish timeout")

// Publisher is the part of mqtt.Client the store uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Config configures a Store.
type Config struct {
	// Prefix is the topic root. Defaults to "halo".
	Prefix string

	// QoS for every publish (0, 1 or 2). DefaultConfig uses 1; a level
	// above 2 falls back to it.
	QoS byte

	// PublishTimeout bounds waiting for the broker. Defaults to 5s.
	PublishTimeout time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{Prefix: "halo", QoS: 1, PublishTimeout: 5 * time.Second}
}

// ConfigMessage is the retained payload on a device's config topic.
type ConfigMessage struct {
	DeviceID string             `json:"deviceId"`
	Identity string             `json:"identity"`
	Patch    configstore.Patch  `json:"patch"`
	Config   configstore.Config `json:"config"`
}

// Store publishes config and tag updates to MQTT.
type Store struct {
	pub    Publisher
	config Config
	logger *slog.Logger
	close  func()

	mu      sync.Mutex
	configs map[string]configstore.Config
	tags    map[string]configstore.TagRecord
	now     func() time.Time
}

// New creates a store publishing through pub.
func New(pub Publisher, config Config) *Store {
	def := DefaultConfig()
	if config.Prefix == "" {
		config.Prefix = def.Prefix
	}
	if config.QoS > 2 {
		config.QoS = def.QoS
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = def.PublishTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		pub:     pub,
		config:  config,
		logger:  logger,
		close:   func() {},
		configs: make(map[string]configstore.Config),
		tags:    make(map[string]configstore.TagRecord),
		now:     time.Now,
	}
}

// Connect dials broker (host:port) and returns a store using the
// connection. The client reconnects on its own after a loss.
func Connect(broker, clientID string, config Config) (*Store, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", broker))
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info("mqtt connected", "broker", broker, "client_id", clientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "broker", broker, "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("mqtt connect %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}

	s := New(client, config)
	s.close = func() { client.Disconnect(250) }
	return s, nil
}

// Close disconnects a store created by Connect.
func (s *Store) Close() {
	s.close()
}

// ConfigTopic returns the topic for a device's config.
func (s *Store) ConfigTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/config", s.config.Prefix, deviceID)
}

// TagTopic returns the topic for a tag record.
func (s *Store) TagTopic(deviceID, id string) string {
	return fmt.Sprintf("%s/%s/tags/%s", s.config.Prefix, deviceID, id)
}

// UpdateDeviceConfig implements configstore.Store. The local record only
// changes once the broker confirmed the publish.
func (s *Store) UpdateDeviceConfig(ctx context.Context, deviceID string, patch configstore.Patch, identity string) (configstore.Config, error) {
	if err := configstore.ValidateUpdate(deviceID, patch, identity); err != nil {
		return configstore.Config{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.configs[deviceID]
	if !ok {
		cur = configstore.Config{DeviceID: deviceID}
	}
	next, err := cur.Apply(patch)
	if err != nil {
		return configstore.Config{}, err
	}
	next.UpdatedAt = s.now()
	next.UpdatedBy = identity

	msg := ConfigMessage{DeviceID: deviceID, Identity: identity, Patch: patch, Config: next}
	if err := s.publish(ctx, s.ConfigTopic(deviceID), msg); err != nil {
		return configstore.Config{}, err
	}
	s.configs[deviceID] = next
	return next, nil
}

// GetDeviceConfig implements configstore.Store from the local record.
func (s *Store) GetDeviceConfig(ctx context.Context, deviceID string) (configstore.Config, error) {
	if err := ctx.Err(); err != nil {
		return configstore.Config{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[deviceID]
	if !ok {
		return configstore.Config{}, configstore.ErrDeviceNotFound
	}
	return c, nil
}

// CreateTag implements configstore.TagRegistry.
func (s *Store) CreateTag(ctx context.Context, deviceID, content string) (configstore.TagRecord, error) {
	if deviceID == "" {
		return configstore.TagRecord{}, configstore.ErrEmptyDeviceID
	}
	now := s.now()
	rec := configstore.TagRecord{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		Content:   content,
		State:     configstore.TagPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.publish(ctx, s.TagTopic(deviceID, rec.ID), rec); err != nil {
		return configstore.TagRecord{}, err
	}
	s.tags[rec.ID] = rec
	return rec, nil
}

// MarkTagWritten implements configstore.TagRegistry.
func (s *Store) MarkTagWritten(ctx context.Context, id, uid string) (configstore.TagRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tags[id]
	if !ok {
		return configstore.TagRecord{}, configstore.ErrTagNotFound
	}
	if rec.State == configstore.TagWritten {
		return configstore.TagRecord{}, configstore.ErrTagAlreadyWritten
	}
	rec.UID = uid
	rec.State = configstore.TagWritten
	rec.UpdatedAt = s.now()

	if err := s.publish(ctx, s.TagTopic(rec.DeviceID, rec.ID), rec); err != nil {
		return configstore.TagRecord{}, err
	}
	s.tags[id] = rec
	return rec, nil
}

func (s *Store) publish(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}

	timeout := s.config.PublishTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}

	token := s.pub.Publish(topic, s.config.QoS, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	s.logger.Debug("published", "topic", topic, "size", len(payload))
	return nil
}

var (
	_ configstore.Store       = (*Store)(nil)
	_ configstore.TagRegistry = (*Store)(nil)
)
