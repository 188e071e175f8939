package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	curriculaSheet = "Curricula"
	modulesSheet   = "Modules"
)

var (
	curriculaHeader = []any{"Title", "Slug", "Type", "Status", "Modules", "Completed", "Progress %", "Updated"}
	modulesHeader   = []any{"Curriculum", "Index", "Module", "Quiz score", "Quiz max", "Ratio", "Completed"}
)

// ProgressReport writes an XLSX workbook with a sheet of curricula and a
// sheet of module scores.
func (s *DashboardService) ProgressReport(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	progress, err := s.progress(ctx, userID)
	if err != nil {
		return NewServiceError(dashboardService, "progress_report", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeReport(f, progress, s.passingRatio); err != nil {
		return NewServiceError(dashboardService, "progress_report", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return NewServiceError(dashboardService, "progress_report", err)
	}
	s.logger.Info("progress report written", "user_id", userID, "curricula", len(progress))
	return nil
}

func writeReport(f *excelize.File, progress []CurriculumProgress, passingRatio float64) error {
	if err := f.SetSheetName("Sheet1", curriculaSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(modulesSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for sheet, header := range map[string][]any{curriculaSheet: curriculaHeader, modulesSheet: modulesHeader} {
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
	}

	moduleRow := 2
	for i, p := range progress {
		c := p.Curriculum
		row := []any{c.Title, c.Slug, string(c.Type), string(c.Status),
			p.ModulesTotal, p.ModulesCompleted, p.Percent, c.UpdatedAt.Format("2006-01-02 15:04")}
		if err := f.SetSheetRow(curriculaSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}

		for _, m := range p.modules {
			row := []any{c.Title, m.Index + 1, m.Title, m.QuizScore, m.QuizScoreMax, m.Ratio(), m.Completed(passingRatio)}
			if err := f.SetSheetRow(modulesSheet, fmt.Sprintf("A%d", moduleRow), &row); err != nil {
				return err
			}
			moduleRow++
		}
	}
	return nil
}
