package device

import (
	"fmt"
	"slices"
	"strings"
)

// Model is the hardware variant of a device. It is a closed set:
// ModelHalo or ModelHaloMini.
type Model interface {
	// Name is the model's short identifier.
	Name() string

	// Effects lists the light effects the model supports.
	Effects() []string

	commands() *commandTable
}

// ModelHalo is the full-featured device with storage and tag relay.
type ModelHalo struct{}

// ModelHaloMini has no storage, no tag relay and three effects.
type ModelHaloMini struct{}

var (
	haloEffects = []string{"solid", "breathe", "pulse", "rainbow", "chase", "sparkle"}
	miniEffects = []string{"solid", "breathe", "pulse"}
)

func (ModelHalo) Name() string            { return "halo" }
func (ModelHalo) Effects() []string       { return slices.Clone(haloEffects) }
func (ModelHalo) commands() *commandTable { return &haloTable }

func (ModelHaloMini) Name() string            { return "halo-mini" }
func (ModelHaloMini) Effects() []string       { return slices.Clone(miniEffects) }
func (ModelHaloMini) commands() *commandTable { return &miniTable }

// ParseModel returns the model with the given name.
func ParseModel(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "halo":
		return ModelHalo{}, nil
	case "halo-mini", "mini":
		return ModelHaloMini{}, nil
	}
	return nil, fmt.Errorf("unknown model %q", name)
}
