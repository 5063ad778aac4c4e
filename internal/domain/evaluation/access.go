package evaluation

// Actor is the authenticated caller as supplied by the identity layer.
// The resolver only authorizes; it never authenticates.
type Actor struct {
	UserID string
	Roles  []Role
}

func (a Actor) HasRole(role Role) bool {
	for _, candidate := range a.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

// Relationship is the actor's standing toward one sheet, re-derived
// from the assignment table on every request. Nothing here is cached
// beyond the request's lifetime.
type Relationship struct {
	IsOwner   bool
	IsManager bool
	IsViewer  bool
}

// ResolveCapabilities combines the period phase's capability tuple with
// the relationship checks. A capability holds only when both pass.
func ResolveCapabilities(periodPhase Phase, actor Actor, rel Relationship) Capabilities {
	base := PhaseCapabilities(periodPhase)
	return Capabilities{
		CanEditGoals:             base.CanEditGoals && rel.IsOwner,
		CanEditSelfEvaluation:    base.CanEditSelfEvaluation && rel.IsOwner,
		CanEditManagerEvaluation: base.CanEditManagerEvaluation && (rel.IsManager || actor.HasRole(RoleHR)),
		CanEditHREvaluation:      base.CanEditHREvaluation && actor.HasRole(RoleHR),
	}
}

// CanReadSheet: HR reads everything, a manager reads their reports'
// sheets, everyone reads their own sheet, additional viewers read the
// sheets they were granted.
func CanReadSheet(actor Actor, rel Relationship) bool {
	if actor.HasRole(RoleHR) {
		return true
	}
	if actor.HasRole(RoleManager) && rel.IsManager {
		return true
	}
	if rel.IsOwner {
		return true
	}
	return rel.IsViewer
}

// Redact strips the fields the actor must not see, in place. Owners
// without a manager or HR role never see manager evaluations through
// the read path; the manager/HR judgment zones of the total evaluation
// are visible only to HR and to managers viewing someone else's sheet.
func Redact(sheet *Sheet, actor Actor, rel Relationship) {
	showManagerEvaluation := !rel.IsOwner || actor.HasRole(RoleHR) || actor.HasRole(RoleManager)
	showJudgments := actor.HasRole(RoleHR) || (actor.HasRole(RoleManager) && !rel.IsOwner)

	if !showManagerEvaluation {
		for i := range sheet.Goals {
			sheet.Goals[i].ManagerEvaluation = nil
		}
	}

	if sheet.TotalEvaluation != nil && !showJudgments {
		total := sheet.TotalEvaluation
		total.MgrTreatment = nil
		total.MgrSalaryChange = nil
		total.MgrTreatmentComment = nil
		total.MgrGrade = nil
		total.MgrGradeComment = nil
		total.HRTreatment = nil
		total.HRSalaryChange = nil
		total.HRGrade = nil
	}
}
