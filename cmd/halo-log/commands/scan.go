package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/halo-device/halo-go/pkg/log"
)

func open(path string, filter log.Filter) (*log.Reader, error) {
	r, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	return r, nil
}

// each calls fn for every remaining event of r, stopping at the first
// error.
func each(r *log.Reader, fn func(log.Event) error) error {
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}

// summarize reduces an event to a type label, the kind it concerns and a
// one-line detail.
func summarize(event log.Event) (typ, kind, detail string) {
	switch {
	case event.Frame != nil:
		return "frame", "", fmt.Sprintf("%d bytes", event.Frame.Size)
	case event.Message != nil:
		detail = event.Message.Status
		if event.Message.ErrorText != "" {
			detail += ": " + event.Message.ErrorText
		}
		if event.Message.Type == log.MessageTypeCommand {
			return "command", event.Message.Kind, detail
		}
		return "response", event.Message.Kind, detail
	case event.StateChange != nil:
		return "state", "", event.StateChange.OldState + " -> " + event.StateChange.NewState
	case event.Correlation != nil:
		return "correlation", event.Correlation.ExpectedKind, event.Correlation.Outcome.String()
	case event.Error != nil:
		return "error", "", event.Error.Message
	}
	return "unknown", "", ""
}
