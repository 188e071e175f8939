package service

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/store"
	"golang.org/x/sync/errgroup"
)

const dashboardService = "dashboard"

// maxProgressLoads bounds concurrent module reads per request.
const maxProgressLoads = 8

// CurriculumProgress is one curriculum with its module completion.
type CurriculumProgress struct {
	Curriculum       domain.Curriculum `json:"curriculum"`
	ModulesTotal     int               `json:"modules_total"`
	ModulesCompleted int               `json:"modules_completed"`
	Percent          int               `json:"percent"`

	modules []domain.Module
}

// Dashboard aggregates a learner's profile and progress.
type Dashboard struct {
	Profile          domain.Profile       `json:"profile"`
	Curricula        []CurriculumProgress `json:"curricula"`
	CurriculaCount   int                  `json:"curricula_count"`
	ModulesCount     int                  `json:"modules_count"`
	CompletedModules int                  `json:"completed_modules"`
	// AverageQuizRatio averages score/max over quizzed modules, 0 if none.
	AverageQuizRatio float64            `json:"average_quiz_ratio"`
	Current          *domain.Curriculum `json:"current,omitempty"`
}

// DashboardService builds dashboards and progress reports.
type DashboardService struct {
	repos        Repositories
	passingRatio float64
	logger       *slog.Logger
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(repos Repositories, passingRatio float64, logger *slog.Logger) *DashboardService {
	if passingRatio <= 0 || passingRatio > 1 {
		passingRatio = DefaultPassingRatio
	}
	return &DashboardService{
		repos:        repos,
		passingRatio: passingRatio,
		logger:       logger.With("component", "dashboard_service"),
	}
}

// progress loads every curriculum with its modules. Module lists load in
// parallel; the result keeps curriculum order.
func (s *DashboardService) progress(ctx context.Context, userID uuid.UUID) ([]CurriculumProgress, error) {
	curricula, err := s.repos.Curricula.GetAll(ctx, store.CurriculaPath(userID))
	if err != nil {
		return nil, err
	}

	out := make([]CurriculumProgress, len(curricula))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxProgressLoads)
	for i, c := range curricula {
		g.Go(func() error {
			modules, err := s.repos.Modules.GetAll(gctx, store.ModulesPath(userID, c.ID))
			if err != nil {
				return err
			}
			p := CurriculumProgress{Curriculum: c, ModulesTotal: len(modules), modules: modules}
			for _, m := range modules {
				if m.Completed(s.passingRatio) {
					p.ModulesCompleted++
				}
			}
			if p.ModulesTotal > 0 {
				p.Percent = p.ModulesCompleted * 100 / p.ModulesTotal
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Dashboard returns the learner's dashboard. It requires a profile.
func (s *DashboardService) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	profile, err := requireProfile(ctx, s.repos.Profiles, userID)
	if err != nil {
		return nil, NewServiceError(dashboardService, "dashboard", err)
	}
	progress, err := s.progress(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load progress", "user_id", userID, "error", err)
		return nil, NewServiceError(dashboardService, "dashboard", err)
	}

	d := &Dashboard{Profile: *profile, Curricula: progress, CurriculaCount: len(progress)}
	var ratioSum float64
	quizzed := 0
	for _, p := range progress {
		d.ModulesCount += p.ModulesTotal
		d.CompletedModules += p.ModulesCompleted
		for _, m := range p.modules {
			if m.Quizzed() {
				ratioSum += m.Ratio()
				quizzed++
			}
		}
		c := p.Curriculum
		if c.Status == domain.CurriculumStatusActive && (d.Current == nil || c.UpdatedAt.After(d.Current.UpdatedAt)) {
			d.Current = &c
		}
	}
	if quizzed > 0 {
		d.AverageQuizRatio = math.Round(ratioSum/float64(quizzed)*1000) / 1000
	}
	return d, nil
}
