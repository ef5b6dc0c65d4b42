package entities

type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseOpen       Phase = "open"
	PhaseEvaluating Phase = "evaluating"
	PhaseAllocating Phase = "allocating"
	PhaseClaiming   Phase = "claiming"
	PhaseClosed     Phase = "closed"
	PhaseCancelled  Phase = "cancelled"
)

// Next returns the only legal forward transition from p.
func (p Phase) Next() (Phase, bool) {
	switch p {
	case PhaseSetup:
		return PhaseOpen, true
	case PhaseOpen:
		return PhaseEvaluating, true
	case PhaseEvaluating:
		return PhaseAllocating, true
	case PhaseAllocating:
		return PhaseClaiming, true
	case PhaseClaiming:
		return PhaseClosed, true
	default:
		return p, false
	}
}

func (p Phase) Terminal() bool {
	return p == PhaseClosed || p == PhaseCancelled
}

// Cancellable is false once reward computation has begun.
func (p Phase) Cancellable() bool {
	switch p {
	case PhaseSetup, PhaseOpen, PhaseEvaluating:
		return true
	default:
		return false
	}
}

func (p Phase) Valid() bool {
	switch p {
	case PhaseSetup, PhaseOpen, PhaseEvaluating, PhaseAllocating, PhaseClaiming, PhaseClosed, PhaseCancelled:
		return true
	default:
		return false
	}
}
