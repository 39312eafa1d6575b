package tagbridge

// Phase is a step of a tag operation.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseReading  Phase = "reading"
	PhaseRead     Phase = "read"
	PhaseCreating Phase = "creating"
	PhaseWriting  Phase = "writing"
	PhaseUpdating Phase = "updating"
	PhaseWritten  Phase = "written"
	PhaseError    Phase = "error"
)

// IsTerminal returns true for phases that end an operation.
func (p Phase) IsTerminal() bool {
	return p == PhaseRead || p == PhaseWritten || p == PhaseError
}

// ProgressSink receives every phase transition of an operation. It runs
// on the caller's goroutine.
type ProgressSink func(phase Phase, message string)

// validNext lists the allowed transitions. PhaseError is allowed from every
// non-terminal phase and is not listed.
var validNext = map[Phase][]Phase{
	PhaseIdle:     {PhaseReading, PhaseCreating},
	PhaseReading:  {PhaseRead},
	PhaseCreating: {PhaseWriting},
	PhaseWriting:  {PhaseUpdating},
	PhaseUpdating: {PhaseWritten},
}

func canMove(from, to Phase) bool {
	if from.IsTerminal() {
		return false
	}
	if to == PhaseError {
		return true
	}
	for _, p := range validNext[from] {
		if p == to {
			return true
		}
	}
	return false
}
