package evaluation

import (
	"encoding/json"
	"fmt"
)

// Enum values are stored as plain strings in the database; every value
// entering the domain is parsed at the boundary so business logic only
// ever sees the closed set below. Types that appear in request payloads
// validate themselves during JSON decoding.

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleHR       Role = "hr"
)

var Roles = []Role{RoleEmployee, RoleManager, RoleHR}

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleEmployee, RoleManager, RoleHR:
		return Role(value), nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

type Half string

const (
	HalfFirst  Half = "first"
	HalfSecond Half = "second"
)

func ParseHalf(value string) (Half, error) {
	switch Half(value) {
	case HalfFirst, HalfSecond:
		return Half(value), nil
	}
	return "", fmt.Errorf("unknown half %q", value)
}

type PerformanceRating string

const (
	RatingSS PerformanceRating = "SS"
	RatingS  PerformanceRating = "S"
	RatingA  PerformanceRating = "A"
	RatingB  PerformanceRating = "B"
	RatingC  PerformanceRating = "C"
)

var performanceRatingValues = map[PerformanceRating]int{
	RatingSS: 5,
	RatingS:  4,
	RatingA:  3,
	RatingB:  2,
	RatingC:  1,
}

func (r PerformanceRating) Value() int {
	return performanceRatingValues[r]
}

func (r PerformanceRating) Label() string {
	return fmt.Sprintf("%s (%d)", string(r), r.Value())
}

func ParsePerformanceRating(value string) (PerformanceRating, error) {
	if _, ok := performanceRatingValues[PerformanceRating(value)]; ok {
		return PerformanceRating(value), nil
	}
	return "", fmt.Errorf("unknown performance rating %q", value)
}

func (r *PerformanceRating) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePerformanceRating(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type CompetencyRating string

const (
	CompetencyLevel20      CompetencyRating = "LEVEL_2_0"
	CompetencyLevel25      CompetencyRating = "LEVEL_2_5"
	CompetencyLevel30Minus CompetencyRating = "LEVEL_3_0_MINUS"
	CompetencyLevel30      CompetencyRating = "LEVEL_3_0"
	CompetencyLevel35      CompetencyRating = "LEVEL_3_5"
	CompetencyLevel40      CompetencyRating = "LEVEL_4_0"
)

var competencyRatingLabels = map[CompetencyRating]string{
	CompetencyLevel20:      "2.0",
	CompetencyLevel25:      "2.5",
	CompetencyLevel30Minus: "3.0-",
	CompetencyLevel30:      "3.0",
	CompetencyLevel35:      "3.5",
	CompetencyLevel40:      "4.0",
}

func (r CompetencyRating) Label() string {
	return competencyRatingLabels[r]
}

func ParseCompetencyRating(value string) (CompetencyRating, error) {
	if _, ok := competencyRatingLabels[CompetencyRating(value)]; ok {
		return CompetencyRating(value), nil
	}
	return "", fmt.Errorf("unknown competency rating %q", value)
}

func (r *CompetencyRating) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseCompetencyRating(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type Grade string

const (
	GradeG1 Grade = "G1"
	GradeG2 Grade = "G2"
	GradeG3 Grade = "G3"
	GradeG4 Grade = "G4"
	GradeG5 Grade = "G5"
	GradeG6 Grade = "G6"
	GradeG7 Grade = "G7"
)

var Grades = []Grade{GradeG1, GradeG2, GradeG3, GradeG4, GradeG5, GradeG6, GradeG7}

func ParseGrade(value string) (Grade, error) {
	for _, grade := range Grades {
		if Grade(value) == grade {
			return grade, nil
		}
	}
	return "", fmt.Errorf("unknown grade %q", value)
}

func (g *Grade) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseGrade(raw)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

type Treatment string

const (
	TreatmentRaise    Treatment = "raise"
	TreatmentMaintain Treatment = "maintain"
	TreatmentReduce   Treatment = "reduce"
)

func ParseTreatment(value string) (Treatment, error) {
	switch Treatment(value) {
	case TreatmentRaise, TreatmentMaintain, TreatmentReduce:
		return Treatment(value), nil
	}
	return "", fmt.Errorf("unknown treatment %q", value)
}

func (t *Treatment) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTreatment(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
