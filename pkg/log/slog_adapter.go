package log

import (
	"context"
	"log/slog"
)

// SlogAdapter prints protocol events through an slog.Logger. Error events
// are logged at Warn, everything else at Debug.
type SlogAdapter struct {
	logger *slog.Logger
}

func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Log(event Event) {
	level := slog.LevelDebug
	if event.Category == CategoryError {
		level = slog.LevelWarn
	}
	ctx := context.Background()
	if !a.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, 12)
	attrs = append(attrs,
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
	)
	attrs = appendNonEmpty(attrs, "address", event.Address)
	attrs = appendNonEmpty(attrs, "device_id", event.DeviceID)

	msg := "protocol " + event.Category.String()
	switch {
	case event.Frame != nil:
		msg = "frame"
		attrs = append(attrs, slog.Int("size", event.Frame.Size), slog.Bool("truncated", event.Frame.Truncated))
	case event.Message != nil:
		msg = "message"
		attrs = messageAttrs(attrs, event.Message)
	case event.StateChange != nil:
		msg = "state change"
		attrs = stateAttrs(attrs, event.StateChange)
	case event.Correlation != nil:
		msg = "wait ended"
		attrs = append(attrs,
			slog.String("expected_kind", event.Correlation.ExpectedKind),
			slog.String("outcome", event.Correlation.Outcome.String()),
			slog.Duration("elapsed", event.Correlation.Elapsed),
		)
	case event.Error != nil:
		msg = "protocol error"
		attrs = append(attrs, slog.String("error", event.Error.Message))
		attrs = appendNonEmpty(attrs, "code", event.Error.Code)
		attrs = appendNonEmpty(attrs, "context", event.Error.Context)
	}

	a.logger.LogAttrs(ctx, level, msg, attrs...)
}

func messageAttrs(attrs []slog.Attr, m *MessageEvent) []slog.Attr {
	attrs = append(attrs, slog.String("msg_type", m.Type.String()), slog.String("kind", m.Kind))
	attrs = appendNonEmpty(attrs, "status", m.Status)
	return appendNonEmpty(attrs, "device_error", m.ErrorText)
}

func stateAttrs(attrs []slog.Attr, s *StateChangeEvent) []slog.Attr {
	attrs = append(attrs,
		slog.String("entity", s.Entity.String()),
		slog.String("from", s.OldState),
		slog.String("to", s.NewState),
	)
	return appendNonEmpty(attrs, "reason", s.Reason)
}

func appendNonEmpty(attrs []slog.Attr, key, value string) []slog.Attr {
	if value == "" {
		return attrs
	}
	return append(attrs, slog.String(key, value))
}

var _ Logger = (*SlogAdapter)(nil)
