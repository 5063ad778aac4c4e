package evaluation

import "testing"

func TestPhaseCapabilitiesPerPhase(t *testing.T) {
	cases := []struct {
		phase Phase
		want  Capabilities
	}{
		{PhaseGoalSetting, Capabilities{CanEditGoals: true}},
		{PhaseGoalReview, Capabilities{}},
		{PhaseSelfEvaluation, Capabilities{CanEditSelfEvaluation: true}},
		{PhaseSelfConfirmed, Capabilities{}},
		{PhaseManagerEvaluation, Capabilities{CanEditManagerEvaluation: true}},
		{PhaseManagerConfirmed, Capabilities{}},
		{PhaseHREvaluation, Capabilities{CanEditHREvaluation: true}},
		{PhaseFinalized, Capabilities{}},
	}
	for _, tc := range cases {
		if got := PhaseCapabilities(tc.phase); got != tc.want {
			t.Errorf("PhaseCapabilities(%s) = %+v, want %+v", tc.phase, got, tc.want)
		}
	}
}

func TestNextPhaseWalksTheFullOrder(t *testing.T) {
	phase := PhaseGoalSetting
	for i := 0; i < len(PhaseOrder)-1; i++ {
		next, ok := NextPhase(phase)
		if !ok {
			t.Fatalf("NextPhase(%s) unexpectedly terminal", phase)
		}
		if next != PhaseOrder[i+1] {
			t.Fatalf("NextPhase(%s) = %s, want %s", phase, next, PhaseOrder[i+1])
		}
		phase = next
	}
	if _, ok := NextPhase(PhaseFinalized); ok {
		t.Error("NextPhase(finalized) should report terminal")
	}
}

func TestParsePhase(t *testing.T) {
	if _, err := ParsePhase("manager_evaluation"); err != nil {
		t.Errorf("ParsePhase(manager_evaluation) failed: %v", err)
	}
	if _, err := ParsePhase("bogus"); err == nil {
		t.Error("ParsePhase(bogus) should fail")
	}
}

func TestAtOrAfter(t *testing.T) {
	if !PhaseHREvaluation.AtOrAfter(PhaseSelfEvaluation) {
		t.Error("hr_evaluation should be at or after self_evaluation")
	}
	if PhaseGoalSetting.AtOrAfter(PhaseGoalReview) {
		t.Error("goal_setting should not be at or after goal_review")
	}
}
