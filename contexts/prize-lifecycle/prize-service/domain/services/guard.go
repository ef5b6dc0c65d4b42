package services

import (
	"strings"

	"prizeforge/contexts/prize-lifecycle/prize-service/domain/entities"
	domainerrors "prizeforge/contexts/prize-lifecycle/prize-service/domain/errors"
)

type Role string

const (
	RoleOrganizer  Role = "organizer"
	RoleEvaluator  Role = "evaluator"
	RoleContestant Role = "contestant"
	// RoleParticipant is any identified caller outside the organizer and
	// evaluator roles.
	RoleParticipant Role = "participant"
)

// Rule is the access policy of one operation. A caller must hold at least one
// of Roles; an empty Phases list allows every non-terminal phase.
type Rule struct {
	Roles  []Role
	Phases []entities.Phase
}

// Guard runs the role check, then the phase check, before any mutation.
func Guard(prize entities.Prize, caller string, rule Rule) error {
	if err := CheckRole(prize, caller, rule.Roles...); err != nil {
		return err
	}
	return CheckPhase(prize, rule.Phases...)
}

func CheckRole(prize entities.Prize, caller string, roles ...Role) error {
	caller = entities.NormalizeAddress(caller)
	if caller == "" {
		return domainerrors.New(domainerrors.ErrUnauthorized, "caller", "")
	}
	if len(roles) == 0 {
		return nil
	}
	for _, role := range roles {
		if HasRole(prize, caller, role) {
			return nil
		}
	}
	return domainerrors.New(domainerrors.ErrUnauthorized, "caller", caller, "required", joinRoles(roles))
}

func CheckPhase(prize entities.Prize, phases ...entities.Phase) error {
	if len(phases) == 0 {
		if prize.Phase.Terminal() {
			return domainerrors.New(domainerrors.ErrInvalidPhase, "phase", string(prize.Phase))
		}
		return nil
	}
	for _, phase := range phases {
		if prize.Phase == phase {
			return nil
		}
	}
	return domainerrors.New(domainerrors.ErrInvalidPhase, "phase", string(prize.Phase), "allowed", joinPhases(phases))
}

func HasRole(prize entities.Prize, caller string, role Role) bool {
	switch role {
	case RoleOrganizer:
		return prize.IsOrganizer(caller)
	case RoleEvaluator:
		return prize.IsEvaluator(caller)
	case RoleContestant:
		_, ok := prize.Contribution(caller)
		return ok
	case RoleParticipant:
		return !prize.IsOrganizer(caller) && !prize.IsEvaluator(caller)
	default:
		return false
	}
}

func joinRoles(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, role := range roles {
		parts = append(parts, string(role))
	}
	return strings.Join(parts, "|")
}

func joinPhases(phases []entities.Phase) string {
	parts := make([]string, 0, len(phases))
	for _, phase := range phases {
		parts = append(parts, string(phase))
	}
	return strings.Join(parts, "|")
}
