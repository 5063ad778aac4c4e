package evaluation

import "time"

type Period struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Year         int       `json:"year"`
	Half         Half      `json:"half"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	CurrentPhase Phase     `json:"currentPhase"`
	IsActive     bool      `json:"isActive"`
}

// Assignment places a user in a period's management hierarchy. At most
// one assignment exists per (user, period); the manager link is the
// ground truth for every isManager check.
type Assignment struct {
	ID         string  `json:"id"`
	PeriodID   string  `json:"periodId"`
	UserID     string  `json:"userId"`
	Department *string `json:"department"`
	ManagerID  *string `json:"managerId"`
	Grade      *Grade  `json:"grade"`
}

type SheetOwner struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmployeeNumber string `json:"employeeNumber"`
}

type SelfEvaluation struct {
	ID                    string             `json:"id"`
	GoalID                string             `json:"goalId"`
	PerformanceReflection *string            `json:"performanceReflection"`
	PerformanceRating     *PerformanceRating `json:"performanceRating"`
	CompetencyReflection1 *string            `json:"competencyReflection1"`
	CompetencyReflection2 *string            `json:"competencyReflection2"`
	CompetencyReflection3 *string            `json:"competencyReflection3"`
	CompetencyRating      *CompetencyRating  `json:"competencyRating"`
}

type ManagerEvaluation struct {
	ID                 string             `json:"id"`
	GoalID             string             `json:"goalId"`
	PerformanceComment *string            `json:"performanceComment"`
	PerformanceRating  *PerformanceRating `json:"performanceRating"`
	CompetencyComment  *string            `json:"competencyComment"`
	CompetencyRating   *CompetencyRating  `json:"competencyRating"`
}

type Goal struct {
	ID                  string             `json:"id"`
	SheetID             string             `json:"sheetId"`
	SortOrder           int                `json:"sortOrder"`
	Title               string             `json:"title"`
	Description         *string            `json:"description"`
	AchievementCriteria *string            `json:"achievementCriteria"`
	Weight              int                `json:"weight"`
	SelfEvaluation      *SelfEvaluation    `json:"selfEvaluation"`
	ManagerEvaluation   *ManagerEvaluation `json:"managerEvaluation"`
}

// TotalEvaluation holds two independently authored value groups: the
// manager judgment (competency level, treatment, grade) and the HR
// judgment. AverageScore is derived and refreshed on every write that
// can invalidate it.
type TotalEvaluation struct {
	ID                    string            `json:"id"`
	SheetID               string            `json:"sheetId"`
	AverageScore          *float64          `json:"averageScore"`
	CompetencyLevel       *CompetencyRating `json:"competencyLevel"`
	CompetencyLevelReason *string           `json:"competencyLevelReason"`
	MgrTreatment          *Treatment        `json:"mgrTreatment"`
	MgrSalaryChange       *int              `json:"mgrSalaryChange"`
	MgrTreatmentComment   *string           `json:"mgrTreatmentComment"`
	MgrGrade              *Grade            `json:"mgrGrade"`
	MgrGradeComment       *string           `json:"mgrGradeComment"`
	HRTreatment           *Treatment        `json:"hrTreatment"`
	HRSalaryChange        *int              `json:"hrSalaryChange"`
	HRGrade               *Grade            `json:"hrGrade"`
}

type Sheet struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	PeriodID        string           `json:"periodId"`
	Status          Phase            `json:"status"`
	User            SheetOwner       `json:"user"`
	Period          Period           `json:"period"`
	Goals           []Goal           `json:"goals"`
	TotalEvaluation *TotalEvaluation `json:"totalEvaluation"`
}

// SheetView is the redacted, capability-annotated shape served to
// callers.
type SheetView struct {
	Sheet
	EditPermissions  Capabilities     `json:"editPermissions"`
	IsOwner          bool             `json:"isOwner"`
	IsManager        bool             `json:"isManager"`
	WeightValidation WeightValidation `json:"weightValidation"`
}

type SheetSummary struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	PeriodID    string     `json:"periodId"`
	Status      Phase      `json:"status"`
	User        SheetOwner `json:"user"`
	PeriodName  string     `json:"periodName"`
	PeriodPhase Phase      `json:"periodPhase"`
	GoalsCount  int        `json:"goalsCount"`
	TotalWeight int        `json:"totalWeight"`
}

// AdditionalViewer grants one named user read access to one sheet
// outside the owner/manager/HR hierarchy. HR-managed.
type AdditionalViewer struct {
	ID         string     `json:"id"`
	SheetID    string     `json:"sheetId"`
	ViewerID   string     `json:"viewerId"`
	Viewer     SheetOwner `json:"viewer"`
	SheetOwner SheetOwner `json:"sheetOwner"`
	CreatedAt  time.Time  `json:"createdAt"`
}
