package evaluation

import "fmt"

type Phase string

const (
	PhaseGoalSetting       Phase = "goal_setting"
	PhaseGoalReview        Phase = "goal_review"
	PhaseSelfEvaluation    Phase = "self_evaluation"
	PhaseSelfConfirmed     Phase = "self_confirmed"
	PhaseManagerEvaluation Phase = "manager_evaluation"
	PhaseManagerConfirmed  Phase = "manager_confirmed"
	PhaseHREvaluation      Phase = "hr_evaluation"
	PhaseFinalized         Phase = "finalized"
)

// PhaseOrder is the workflow sequence; PhaseFinalized is terminal.
var PhaseOrder = []Phase{
	PhaseGoalSetting,
	PhaseGoalReview,
	PhaseSelfEvaluation,
	PhaseSelfConfirmed,
	PhaseManagerEvaluation,
	PhaseManagerConfirmed,
	PhaseHREvaluation,
	PhaseFinalized,
}

var phaseIndex = func() map[Phase]int {
	index := make(map[Phase]int, len(PhaseOrder))
	for i, phase := range PhaseOrder {
		index[phase] = i
	}
	return index
}()

func ParsePhase(value string) (Phase, error) {
	if _, ok := phaseIndex[Phase(value)]; ok {
		return Phase(value), nil
	}
	return "", fmt.Errorf("unknown phase %q", value)
}

// Index returns the position of the phase in the workflow order.
func (p Phase) Index() int {
	return phaseIndex[p]
}

func (p Phase) AtOrAfter(target Phase) bool {
	return p.Index() >= target.Index()
}

// NextPhase returns the phase following p, or false at the terminal phase.
func NextPhase(p Phase) (Phase, bool) {
	index, ok := phaseIndex[p]
	if !ok || index == len(PhaseOrder)-1 {
		return "", false
	}
	return PhaseOrder[index+1], true
}

// Capabilities is the per-request edit permission tuple. Each flag is
// granted only when the period's phase allows the action class and the
// actor's relationship to the sheet passes the matching check.
type Capabilities struct {
	CanEditGoals             bool `json:"canEditGoals"`
	CanEditSelfEvaluation    bool `json:"canEditSelfEvaluation"`
	CanEditManagerEvaluation bool `json:"canEditManagerEvaluation"`
	CanEditHREvaluation      bool `json:"canEditHrEvaluation"`
}

// phaseCapabilities maps each phase to the single action class it
// opens. Review, confirmed, and finalized phases open none; they are
// read-only checkpoints between actionable phases.
var phaseCapabilities = map[Phase]Capabilities{
	PhaseGoalSetting:       {CanEditGoals: true},
	PhaseGoalReview:        {},
	PhaseSelfEvaluation:    {CanEditSelfEvaluation: true},
	PhaseSelfConfirmed:     {},
	PhaseManagerEvaluation: {CanEditManagerEvaluation: true},
	PhaseManagerConfirmed:  {},
	PhaseHREvaluation:      {CanEditHREvaluation: true},
	PhaseFinalized:         {},
}

// PhaseCapabilities returns the raw capability tuple for a phase,
// before any relationship checks are applied.
func PhaseCapabilities(p Phase) Capabilities {
	return phaseCapabilities[p]
}
