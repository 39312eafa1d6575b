package log

import "testing"

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"DirectionIn", DirectionIn.String(), "IN"},
		{"DirectionOut", DirectionOut.String(), "OUT"},
		{"DirectionUnknown", Direction(99).String(), "UNKNOWN"},
		{"LayerLink", LayerLink.String(), "LINK"},
		{"LayerWire", LayerWire.String(), "WIRE"},
		{"LayerService", LayerService.String(), "SERVICE"},
		{"CategoryCorrelation", CategoryCorrelation.String(), "CORRELATION"},
		{"CategoryError", CategoryError.String(), "ERROR"},
		{"MessageTypeCommand", MessageTypeCommand.String(), "COMMAND"},
		{"MessageTypeResponse", MessageTypeResponse.String(), "RESPONSE"},
		{"EntitySync", StateEntitySync.String(), "SYNC"},
		{"EntityTag", StateEntityTag.String(), "TAG"},
		{"OutcomeTimeout", OutcomeTimeout.String(), "TIMEOUT"},
		{"OutcomeSendFailed", OutcomeSendFailed.String(), "SEND_FAILED"},
		{"OutcomeUnknown", Outcome(42).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestNewFrameEventTruncates(t *testing.T) {
	small := NewFrameEvent([]byte(`{"command":"RESET"}`))
	if small.Truncated || small.Size != 19 || len(small.Data) != 19 {
		t.Errorf("small frame: %+v", small)
	}

	big := make([]byte, MaxFrameDataSize+100)
	fe := NewFrameEvent(big)
	if !fe.Truncated {
		t.Error("expected Truncated")
	}
	if fe.Size != len(big) {
		t.Errorf("Size = %d, want %d", fe.Size, len(big))
	}
	if len(fe.Data) != MaxFrameDataSize {
		t.Errorf("len(Data) = %d, want %d", len(fe.Data), MaxFrameDataSize)
	}
}

func TestNewFrameEventCopies(t *testing.T) {
	data := []byte("abc")
	fe := NewFrameEvent(data)
	data[0] = 'x'
	if fe.Data[0] != 'a' {
		t.Error("FrameEvent must not alias the caller's buffer")
	}
}
