package evaluation

import "testing"

func TestResolveCapabilitiesGatesByRelationship(t *testing.T) {
	owner := Actor{UserID: "u1", Roles: []Role{RoleEmployee}}
	manager := Actor{UserID: "m1", Roles: []Role{RoleManager}}
	hr := Actor{UserID: "h1", Roles: []Role{RoleHR}}

	cases := []struct {
		name  string
		phase Phase
		actor Actor
		rel   Relationship
		want  Capabilities
	}{
		{"owner edits goals in goal_setting", PhaseGoalSetting, owner, Relationship{IsOwner: true}, Capabilities{CanEditGoals: true}},
		{"manager cannot edit goals", PhaseGoalSetting, manager, Relationship{IsManager: true}, Capabilities{}},
		{"owner edits self evaluation in phase", PhaseSelfEvaluation, owner, Relationship{IsOwner: true}, Capabilities{CanEditSelfEvaluation: true}},
		{"owner blocked outside phase", PhaseGoalReview, owner, Relationship{IsOwner: true}, Capabilities{}},
		{"manager edits manager evaluation", PhaseManagerEvaluation, manager, Relationship{IsManager: true}, Capabilities{CanEditManagerEvaluation: true}},
		{"hr edits manager evaluation without assignment", PhaseManagerEvaluation, hr, Relationship{}, Capabilities{CanEditManagerEvaluation: true}},
		{"hr edits hr evaluation", PhaseHREvaluation, hr, Relationship{}, Capabilities{CanEditHREvaluation: true}},
		{"manager cannot edit hr evaluation", PhaseHREvaluation, manager, Relationship{IsManager: true}, Capabilities{}},
		{"nobody edits when finalized", PhaseFinalized, hr, Relationship{IsOwner: true, IsManager: true}, Capabilities{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveCapabilities(tc.phase, tc.actor, tc.rel); got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestCanReadSheet(t *testing.T) {
	hr := Actor{UserID: "h1", Roles: []Role{RoleHR}}
	manager := Actor{UserID: "m1", Roles: []Role{RoleManager}}
	employee := Actor{UserID: "u1", Roles: []Role{RoleEmployee}}

	if !CanReadSheet(hr, Relationship{}) {
		t.Error("hr reads everything")
	}
	if !CanReadSheet(manager, Relationship{IsManager: true}) {
		t.Error("manager reads a report's sheet")
	}
	if CanReadSheet(manager, Relationship{}) {
		t.Error("manager without assignment link gets nothing")
	}
	if !CanReadSheet(employee, Relationship{IsOwner: true}) {
		t.Error("owner reads own sheet")
	}
	if !CanReadSheet(employee, Relationship{IsViewer: true}) {
		t.Error("additional viewer reads granted sheet")
	}
	if CanReadSheet(employee, Relationship{}) {
		t.Error("unrelated employee gets nothing")
	}
}

func redactionFixture() *Sheet {
	comment := "needs work"
	treatment := TreatmentRaise
	change := 3
	grade := GradeG4
	level := CompetencyLevel30
	reason := "solid"
	return &Sheet{
		ID:     "sheet-1",
		UserID: "u1",
		Goals: []Goal{
			{ID: "g1", Weight: 40, ManagerEvaluation: &ManagerEvaluation{ID: "me1", GoalID: "g1", PerformanceComment: &comment}},
		},
		TotalEvaluation: &TotalEvaluation{
			ID:                    "te1",
			SheetID:               "sheet-1",
			CompetencyLevel:       &level,
			CompetencyLevelReason: &reason,
			MgrTreatment:          &treatment,
			MgrSalaryChange:       &change,
			MgrTreatmentComment:   &comment,
			MgrGrade:              &grade,
			MgrGradeComment:       &comment,
			HRTreatment:           &treatment,
			HRSalaryChange:        &change,
			HRGrade:               &grade,
		},
	}
}

func TestRedactHidesJudgmentsFromOwner(t *testing.T) {
	sheet := redactionFixture()
	owner := Actor{UserID: "u1", Roles: []Role{RoleEmployee}}
	Redact(sheet, owner, Relationship{IsOwner: true})

	if sheet.Goals[0].ManagerEvaluation != nil {
		t.Error("owner must not see the per-goal manager evaluation")
	}
	total := sheet.TotalEvaluation
	if total.MgrTreatment != nil || total.MgrSalaryChange != nil || total.MgrTreatmentComment != nil ||
		total.MgrGrade != nil || total.MgrGradeComment != nil {
		t.Error("owner must not see the manager judgment zone")
	}
	if total.HRTreatment != nil || total.HRSalaryChange != nil || total.HRGrade != nil {
		t.Error("owner must not see the hr judgment zone")
	}
	if total.CompetencyLevel == nil || total.CompetencyLevelReason == nil {
		t.Error("competency level stays visible to the owner")
	}
}

func TestRedactKeepsEverythingForHR(t *testing.T) {
	sheet := redactionFixture()
	hr := Actor{UserID: "h1", Roles: []Role{RoleHR}}
	Redact(sheet, hr, Relationship{})

	if sheet.Goals[0].ManagerEvaluation == nil {
		t.Error("hr sees manager evaluations")
	}
	if sheet.TotalEvaluation.MgrTreatment == nil || sheet.TotalEvaluation.HRGrade == nil {
		t.Error("hr sees both judgment zones")
	}
}

func TestRedactKeepsJudgmentsForManagerOnOthersSheet(t *testing.T) {
	sheet := redactionFixture()
	manager := Actor{UserID: "m1", Roles: []Role{RoleManager}}
	Redact(sheet, manager, Relationship{IsManager: true})

	if sheet.Goals[0].ManagerEvaluation == nil {
		t.Error("manager sees manager evaluations on a report's sheet")
	}
	if sheet.TotalEvaluation.MgrTreatment == nil {
		t.Error("manager sees the judgment zones on a report's sheet")
	}
}

func TestRedactHidesJudgmentsFromManagerOnOwnSheet(t *testing.T) {
	sheet := redactionFixture()
	// A manager looking at their own sheet is an owner first.
	actor := Actor{UserID: "u1", Roles: []Role{RoleEmployee, RoleManager}}
	Redact(sheet, actor, Relationship{IsOwner: true})

	if sheet.TotalEvaluation.MgrTreatment != nil || sheet.TotalEvaluation.HRGrade != nil {
		t.Error("judgment zones stay hidden on the actor's own sheet")
	}
	if sheet.Goals[0].ManagerEvaluation == nil {
		t.Error("a manager-role owner keeps the per-goal manager evaluation visible")
	}
}
