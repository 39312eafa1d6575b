package device

import (
	"github.com/halo-device/halo-go/pkg/configstore"
	"github.com/halo-device/halo-go/pkg/fault"
	"github.com/halo-device/halo-go/pkg/wire"
)

// commandTable builds the operations one model supports.
type commandTable struct {
	setBrightness   func(percent int) (Notify, error)
	getBrightness   func() (Request, error)
	setSleepTimeout func(seconds int) (Request, error)
	getSleepTimeout func() (Request, error)
	getStorage      func() (Request, error)
	setColor        func(hex string) (Notify, error)
	setEffect       func(name string) (Notify, error)
	reset           func() (Notify, error)
	readTag         func() (Request, error)
	writeTag        func(content string) (Request, error)
	ackTag          func() (Notify, error)
}

var haloTable = commandTable{
	setBrightness:   setBrightness,
	getBrightness:   getBrightness,
	setSleepTimeout: setSleepTimeout,
	getSleepTimeout: getSleepTimeout,
	getStorage:      getStorage,
	setColor:        setColor,
	setEffect:       effectSetter(haloEffects),
	reset:           reset,
	readTag:         readTag,
	writeTag:        writeTag,
	ackTag:          ackTag,
}

var miniTable = commandTable{
	setBrightness:   setBrightness,
	getBrightness:   getBrightness,
	setSleepTimeout: setSleepTimeout,
	getSleepTimeout: getSleepTimeout,
	getStorage:      unsupportedRequest(wire.KindGetStorage),
	setColor:        setColor,
	setEffect:       effectSetter(miniEffects),
	reset:           reset,
	readTag:         unsupportedRequest(wire.KindReadTag),
	writeTag: func(string) (Request, error) {
		return Request{}, unsupported(wire.KindWriteTag)
	},
	ackTag: func() (Notify, error) {
		return Notify{}, unsupported(wire.KindTagAck)
	},
}

func setBrightness(percent int) (Notify, error) {
	if err := ValidateBrightness(percent); err != nil {
		return Notify{}, err
	}
	return Notify{
		cmd:   wire.NewCommand(wire.KindBrightness, map[string]any{wire.FieldBrightness: percent}),
		patch: configstore.Patch{configstore.FieldBrightness: percent},
	}, nil
}

func getBrightness() (Request, error) {
	return Request{cmd: wire.NewCommand(wire.KindGetBrightness, nil), expect: wire.KindBrightnessGet}, nil
}

func setSleepTimeout(seconds int) (Request, error) {
	if err := ValidateSleepTimeout(seconds); err != nil {
		return Request{}, err
	}
	return Request{
		cmd:    wire.NewCommand(wire.KindSleepTimeout, map[string]any{wire.FieldTimeout: seconds}),
		expect: wire.KindSleepTimeoutSet,
		patch:  configstore.Patch{configstore.FieldSleepTimeout: seconds},
	}, nil
}

func getSleepTimeout() (Request, error) {
	return Request{cmd: wire.NewCommand(wire.KindGetSleepTimeout, nil), expect: wire.KindSleepTimeoutGet}, nil
}

func getStorage() (Request, error) {
	return Request{cmd: wire.NewCommand(wire.KindGetStorage, nil), expect: wire.KindStorageGet}, nil
}

func setColor(hex string) (Notify, error) {
	if err := ValidateColor(hex); err != nil {
		return Notify{}, err
	}
	return Notify{
		cmd:   wire.NewCommand(wire.KindColor, map[string]any{wire.FieldColor: hex}),
		patch: configstore.Patch{configstore.FieldColor: hex},
	}, nil
}

func effectSetter(effects []string) func(string) (Notify, error) {
	return func(name string) (Notify, error) {
		if err := ValidateEffect(name, effects); err != nil {
			return Notify{}, err
		}
		return Notify{
			cmd:   wire.NewCommand(wire.KindEffect, map[string]any{wire.FieldEffect: name}),
			patch: configstore.Patch{configstore.FieldEffect: name},
		}, nil
	}
}

func reset() (Notify, error) {
	return Notify{cmd: wire.NewCommand(wire.KindReset, nil)}, nil
}

func readTag() (Request, error) {
	return Request{cmd: wire.NewCommand(wire.KindReadTag, nil), expect: wire.KindTagRead}, nil
}

func writeTag(content string) (Request, error) {
	if err := ValidateTagContent(content); err != nil {
		return Request{}, err
	}
	return Request{
		cmd:    wire.NewCommand(wire.KindWriteTag, map[string]any{wire.FieldContent: content}),
		expect: wire.KindTagWritten,
	}, nil
}

func ackTag() (Notify, error) {
	return Notify{cmd: wire.NewCommand(wire.KindTagAck, nil)}, nil
}

func unsupported(kind string) error {
	return fault.Validation(kind, "not supported by this model")
}

func unsupportedRequest(kind string) func() (Request, error) {
	return func() (Request, error) { return Request{}, unsupported(kind) }
}
