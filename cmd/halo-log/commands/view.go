package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/halo-device/halo-go/pkg/log"
)

// RunView writes every event matching filter to w in readable form.
func RunView(path string, filter log.Filter, w io.Writer) error {
	r, err := open(path, filter)
	if err != nil {
		return err
	}
	defer r.Close()

	formatHeader(w, r.Header())
	return each(r, func(e log.Event) error {
		formatEvent(w, e)
		return nil
	})
}

func formatHeader(w io.Writer, h log.Header) {
	fmt.Fprintf(w, "# capture v%d, started %s", h.Version, h.Created.Format("2006-01-02T15:04:05Z"))
	if h.Host != "" {
		fmt.Fprintf(w, " on %s", h.Host)
	}
	fmt.Fprintln(w)
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n",
		event.Timestamp.UTC().Format(timeLayout), shortenConnID(event.ConnectionID), event.Direction, event.Layer, typeLabel(event))

	if event.DeviceID != "" || event.Address != "" {
		fmt.Fprintf(w, "  Device: %s %s\n", event.DeviceID, event.Address)
	}

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Correlation != nil:
		fmt.Fprintf(w, "  Kind: %s\n", event.Correlation.ExpectedKind)
		fmt.Fprintf(w, "  Outcome: %s after %s\n", event.Correlation.Outcome, event.Correlation.Elapsed)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

func typeLabel(event log.Event) string {
	switch {
	case event.Frame != nil:
		return "Frame"
	case event.Message != nil:
		return event.Message.Type.String() + " " + event.Message.Kind
	case event.StateChange != nil:
		return "State " + event.StateChange.Entity.String()
	case event.Correlation != nil:
		return "Correlation"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

func shortenConnID(id string) string {
	switch {
	case id == "":
		return "-"
	case len(id) > 8:
		return id[:8]
	}
	return id
}

// formatFrameDetails prints the frame as text. Frames are JSON, so they are
// only hex-dumped when they are not valid UTF-8.
func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) == 0 {
		return
	}
	if utf8.Valid(frame.Data) {
		fmt.Fprintf(w, "  Data: %s", frame.Data)
	} else {
		fmt.Fprintf(w, "  Data: %x", frame.Data)
	}
	if frame.Truncated {
		fmt.Fprint(w, " (truncated)")
	}
	fmt.Fprintln(w)
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	if msg.Status != "" {
		fmt.Fprintf(w, "  Status: %s\n", msg.Status)
	}
	if msg.ErrorText != "" {
		fmt.Fprintf(w, "  Error: %s\n", msg.ErrorText)
	}
	if len(msg.Fields) > 0 {
		if data, err := json.Marshal(msg.Fields); err == nil {
			fmt.Fprintf(w, "  Fields: %s\n", data)
		}
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != "" {
		fmt.Fprintf(w, "  Code: %s\n", err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}
