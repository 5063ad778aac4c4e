package reports

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"evalsheet/internal/domain/evaluation"
)

// RenderSheetPDF renders an unredacted sheet view into a PDF document.
// Callers are responsible for loading the view with an actor that is
// allowed to see everything on it.
func RenderSheetPDF(view *evaluation.SheetView) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Evaluation Sheet")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", view.User.Name, view.User.EmployeeNumber))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", view.User.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s (%d, %s)", view.Period.Name, view.Period.Year, view.Period.Half))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Phase: %s    Sheet status: %s", view.Period.CurrentPhase, view.Status))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Goals")
	pdf.Ln(9)
	for _, goal := range view.Goals {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s (weight %d%%)", goal.SortOrder, goal.Title, goal.Weight), "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		if goal.Description != nil {
			pdf.MultiCell(0, 6, *goal.Description, "", "L", false)
		}
		pdf.MultiCell(0, 6, fmt.Sprintf("Self: %s", formatEvaluation(ratingText(goal.SelfEvaluation), commentText(goal.SelfEvaluation))), "", "L", false)
		pdf.MultiCell(0, 6, fmt.Sprintf("Manager: %s", formatEvaluation(managerRatingText(goal.ManagerEvaluation), managerCommentText(goal.ManagerEvaluation))), "", "L", false)
		pdf.Ln(3)
	}

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Total Evaluation")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	if total := view.TotalEvaluation; total != nil {
		if total.AverageScore != nil {
			pdf.Cell(0, 6, fmt.Sprintf("Weighted average: %.2f", *total.AverageScore))
			pdf.Ln(6)
		}
		if total.CompetencyLevel != nil {
			pdf.Cell(0, 6, fmt.Sprintf("Competency level: %s", total.CompetencyLevel.Label()))
			pdf.Ln(6)
		}
		writeJudgment(pdf, "Manager", treatmentText(total.MgrTreatment), total.MgrTreatmentComment, gradeText(total.MgrGrade), total.MgrGradeComment)
		writeJudgment(pdf, "HR", treatmentText(total.HRTreatment), nil, gradeText(total.HRGrade), nil)
	} else {
		pdf.Cell(0, 6, "Not started")
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJudgment(pdf *gofpdf.Fpdf, zone, treatment string, treatmentComment *string, grade string, gradeComment *string) {
	pdf.Cell(0, 6, fmt.Sprintf("%s treatment: %s", zone, formatEvaluation(treatment, treatmentComment)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("%s grade: %s", zone, formatEvaluation(grade, gradeComment)))
	pdf.Ln(6)
}

func formatEvaluation(value string, comment *string) string {
	if value == "" {
		value = "-"
	}
	if comment != nil && *comment != "" {
		return fmt.Sprintf("%s  (%s)", value, *comment)
	}
	return value
}

func ratingText(se *evaluation.SelfEvaluation) string {
	if se == nil || se.PerformanceRating == nil {
		return ""
	}
	return string(*se.PerformanceRating)
}

func commentText(se *evaluation.SelfEvaluation) *string {
	if se == nil {
		return nil
	}
	return se.PerformanceReflection
}

func managerRatingText(me *evaluation.ManagerEvaluation) string {
	if me == nil || me.PerformanceRating == nil {
		return ""
	}
	return string(*me.PerformanceRating)
}

func managerCommentText(me *evaluation.ManagerEvaluation) *string {
	if me == nil {
		return nil
	}
	return me.PerformanceComment
}

func treatmentText(t *evaluation.Treatment) string {
	if t == nil {
		return ""
	}
	return string(*t)
}

func gradeText(g *evaluation.Grade) string {
	if g == nil {
		return ""
	}
	return string(*g)
}
