// Package interactive provides the interactive command-line interface
// for the HALO controller.
package interactive

import (
	"context"
	"errors"
	"time"

	"github.com/halo-device/halo-go/pkg/connection"
	"github.com/halo-device/halo-go/pkg/device"
	"github.com/halo-device/halo-go/pkg/interaction"
	"github.com/halo-device/halo-go/pkg/link"
	"github.com/halo-device/halo-go/pkg/mirror"
	"github.com/halo-device/halo-go/pkg/persistence"
	"github.com/halo-device/halo-go/pkg/tagbridge"
)

// ErrNoTarget is returned by connect when no device was named and none is
// remembered.
var ErrNoTarget = errors.New("no device given and none remembered")

// connectAttempts bounds "connect --retry".
const connectAttempts = 5

// Session is the set of live controller components the shell drives.
type Session struct {
	Manager *connection.Manager
	Client  *interaction.Client
	Device  *device.Device
	Tags    *tagbridge.Bridge
	Mirror  *mirror.Middleware

	// State is the persisted controller state. Required.
	State *persistence.ControllerState

	// Target is the device connect uses when given no argument.
	Target link.Descriptor

	// Now defaults to time.Now.
	Now func() time.Time
}

// Resolve turns a connect argument into a descriptor. An empty key means
// the configured target, then the last device. Other keys are looked up
// among known devices by id or name and otherwise taken as an address.
func (s *Session) Resolve(key string) (link.Descriptor, error) {
	if key == "" {
		if !s.Target.IsZero() {
			return s.Target, nil
		}
		if last, ok := s.State.Last(); ok {
			return last.Descriptor, nil
		}
		return link.Descriptor{}, ErrNoTarget
	}
	if known, ok := s.State.Find(key); ok {
		return known.Descriptor, nil
	}
	return link.Descriptor{ID: key, Address: key}, nil
}

// Connect connects to desc and binds the device and mirror to it.
func (s *Session) Connect(ctx context.Context, desc link.Descriptor, retry bool) error {
	var err error
	if retry {
		err = connection.Retry(ctx, s.Manager, desc, connection.NewBackoff(), connectAttempts)
	} else {
		err = s.Manager.Connect(ctx, desc)
	}
	if err != nil {
		return err
	}

	s.State.Remember(desc, s.Device.Model().Name(), s.now())
	_, identity := s.Device.Binding()
	s.Device.Bind(desc.ID, identity)
	s.Mirror.SetDevice(desc.ID)
	return nil
}

// SetIdentity changes the identity settings are mirrored for.
func (s *Session) SetIdentity(identity string) {
	deviceID, _ := s.Device.Binding()
	s.Device.Bind(deviceID, identity)
	s.Mirror.SetIdentity(identity)
	s.State.Identity = identity
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
