package evaluation

import (
	"encoding/json"
	"testing"
)

func TestEvaluationInputsRejectUnknownEnumsOnDecode(t *testing.T) {
	cases := []struct {
		name    string
		target  any
		payload string
	}{
		{"self evaluation rating", &SelfEvaluationInput{}, `{"performanceRating":"ZZ"}`},
		{"self evaluation competency", &SelfEvaluationInput{}, `{"competencyRating":"LEVEL_9_9"}`},
		{"manager evaluation rating", &ManagerEvaluationInput{}, `{"performanceRating":"A+"}`},
		{"manager judgment treatment", &ManagerJudgment{}, `{"mgrTreatment":"promote"}`},
		{"manager judgment grade", &ManagerJudgment{}, `{"mgrGrade":"G9"}`},
		{"hr judgment treatment", &HRJudgment{}, `{"hrTreatment":"fire"}`},
		{"hr judgment grade", &HRJudgment{}, `{"hrGrade":"X1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := json.Unmarshal([]byte(tc.payload), tc.target); err == nil {
				t.Errorf("decoding %s should fail", tc.payload)
			}
		})
	}
}

func TestEvaluationInputsDecodeKnownEnums(t *testing.T) {
	var input SelfEvaluationInput
	if err := json.Unmarshal([]byte(`{"performanceRating":"SS","competencyRating":"LEVEL_3_0"}`), &input); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if input.PerformanceRating == nil || *input.PerformanceRating != RatingSS {
		t.Errorf("PerformanceRating = %v", input.PerformanceRating)
	}
	if input.CompetencyRating == nil || *input.CompetencyRating != CompetencyLevel30 {
		t.Errorf("CompetencyRating = %v", input.CompetencyRating)
	}

	var judgment ManagerJudgment
	if err := json.Unmarshal([]byte(`{"mgrTreatment":"maintain","mgrGrade":"G4"}`), &judgment); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if judgment.Treatment == nil || *judgment.Treatment != TreatmentMaintain {
		t.Errorf("Treatment = %v", judgment.Treatment)
	}
	if judgment.Grade == nil || *judgment.Grade != GradeG4 {
		t.Errorf("Grade = %v", judgment.Grade)
	}
}
