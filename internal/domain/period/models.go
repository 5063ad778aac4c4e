package period

import (
	"time"

	"evalsheet/internal/domain/evaluation"
)

type Summary struct {
	evaluation.Period
	SheetsCount int `json:"sheetsCount"`
}

type Detail struct {
	evaluation.Period
	SheetsCount int                      `json:"sheetsCount"`
	PhaseStats  map[evaluation.Phase]int `json:"phaseStats"`
}

type CreateInput struct {
	Name      string          `json:"name"`
	Year      int             `json:"year"`
	Half      evaluation.Half `json:"half"`
	StartDate time.Time       `json:"startDate"`
	EndDate   time.Time       `json:"endDate"`
}

type AssignmentInput struct {
	UserID     string            `json:"userId"`
	Department *string           `json:"department"`
	ManagerID  *string           `json:"managerId"`
	Grade      *evaluation.Grade `json:"grade"`
}
