// Package commands implements the halo-log CLI commands.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/halo-device/halo-go/pkg/log"
)

var (
	layers     = []log.Layer{log.LayerLink, log.LayerWire, log.LayerService}
	directions = []log.Direction{log.DirectionIn, log.DirectionOut}
	categories = []log.Category{log.CategoryMessage, log.CategoryCorrelation, log.CategoryState, log.CategoryError}
)

// ParseLayer parses link, wire or service (any case).
func ParseLayer(s string) (log.Layer, error) { return parseName("layer", s, layers) }

// ParseDirection parses in or out (any case).
func ParseDirection(s string) (log.Direction, error) { return parseName("direction", s, directions) }

// ParseCategory parses message, correlation, state or error (any case).
func ParseCategory(s string) (log.Category, error) { return parseName("category", s, categories) }

func parseName[T label](what, s string, values []T) (T, error) {
	names := make([]string, len(values))
	for i, v := range values {
		if strings.EqualFold(v.String(), s) {
			return v, nil
		}
		names[i] = strings.ToLower(v.String())
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q (one of: %s)", what, s, strings.Join(names, ", "))
}

// FilterOptions are the textual filter flags shared by view and filter.
type FilterOptions struct {
	ConnID    string
	DeviceID  string
	Kind      string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
}

// Build converts the options to a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	filter := log.Filter{
		ConnectionID: o.ConnID,
		DeviceID:     o.DeviceID,
		Kind:         o.Kind,
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	if o.Layer != "" {
		l, err := ParseLayer(o.Layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if o.Direction != "" {
		d, err := ParseDirection(o.Direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if o.Category != "" {
		c, err := ParseCategory(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	return filter, nil
}
