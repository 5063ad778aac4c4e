package evaluation

import "context"

type GoalInput struct {
	Title               string  `json:"title"`
	Description         *string `json:"description"`
	AchievementCriteria *string `json:"achievementCriteria"`
	Weight              int     `json:"weight"`
}

// GoalPatch is a partial update; nil fields are left untouched.
type GoalPatch struct {
	Title               *string `json:"title"`
	Description         *string `json:"description"`
	AchievementCriteria *string `json:"achievementCriteria"`
	Weight              *int    `json:"weight"`
	SortOrder           *int    `json:"sortOrder"`
}

type SelfEvaluationInput struct {
	PerformanceReflection *string            `json:"performanceReflection"`
	PerformanceRating     *PerformanceRating `json:"performanceRating"`
	CompetencyReflection1 *string            `json:"competencyReflection1"`
	CompetencyReflection2 *string            `json:"competencyReflection2"`
	CompetencyReflection3 *string            `json:"competencyReflection3"`
	CompetencyRating      *CompetencyRating  `json:"competencyRating"`
}

type ManagerEvaluationInput struct {
	PerformanceComment *string            `json:"performanceComment"`
	PerformanceRating  *PerformanceRating `json:"performanceRating"`
	CompetencyComment  *string            `json:"competencyComment"`
	CompetencyRating   *CompetencyRating  `json:"competencyRating"`
}

// ManagerJudgment and HRJudgment are the two authorship zones of the
// total evaluation. The write path accepts only the zone the caller is
// authorized for; nil fields are left untouched.
type ManagerJudgment struct {
	CompetencyLevel       *CompetencyRating `json:"competencyLevel"`
	CompetencyLevelReason *string           `json:"competencyLevelReason"`
	Treatment             *Treatment        `json:"mgrTreatment"`
	SalaryChange          *int              `json:"mgrSalaryChange"`
	TreatmentComment      *string           `json:"mgrTreatmentComment"`
	Grade                 *Grade            `json:"mgrGrade"`
	GradeComment          *string           `json:"mgrGradeComment"`
}

type HRJudgment struct {
	Treatment    *Treatment `json:"hrTreatment"`
	SalaryChange *int       `json:"hrSalaryChange"`
	Grade        *Grade     `json:"hrGrade"`
}

type StoreAPI interface {
	GetSheet(ctx context.Context, sheetID string) (*Sheet, error)
	SheetIDByGoal(ctx context.Context, goalID string) (string, error)
	IsManagerOf(ctx context.Context, periodID, ownerID, actorID string) (bool, error)
	IsAdditionalViewer(ctx context.Context, sheetID, userID string) (bool, error)
	ListSheetSummaries(ctx context.Context, periodID string, userIDs []string) ([]SheetSummary, error)
	ManagedUserIDs(ctx context.Context, managerID, periodID string) ([]string, error)
	InsertGoal(ctx context.Context, sheetID string, goal *Goal) error
	UpdateGoal(ctx context.Context, goalID string, patch GoalPatch) (*Goal, error)
	DeleteGoal(ctx context.Context, goalID, sheetID string) error
	UpsertSelfEvaluation(ctx context.Context, goalID string, input SelfEvaluationInput) (*SelfEvaluation, error)
	UpsertManagerEvaluation(ctx context.Context, goalID string, input ManagerEvaluationInput) (*ManagerEvaluation, error)
	UpsertTotalEvaluation(ctx context.Context, sheetID string, average *float64, mgr *ManagerJudgment, hr *HRJudgment) (*TotalEvaluation, error)
	SetAverageScore(ctx context.Context, sheetID string, average *float64) error
	UpdateSheetStatus(ctx context.Context, sheetID string, status Phase) error
	ListViewers(ctx context.Context, sheetID, periodID string) ([]AdditionalViewer, error)
	InsertViewer(ctx context.Context, viewer *AdditionalViewer) error
	DeleteViewer(ctx context.Context, viewerID string) error
}
