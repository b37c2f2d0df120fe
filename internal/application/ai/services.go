package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/saringan/internal/domain/ai"
	"github.com/bryanwahyu/saringan/internal/domain/analyst"
)

type Service struct {
	client ai.Client
	store  analyst.Repository
}

func NewService(client ai.Client, store analyst.Repository) *Service {
	return &Service{client: client, store: store}
}

func (s *Service) AnalyzeReport(ctx context.Context, reportJSON string) (string, error) {
	return s.client.AnalyzeReport(ctx, reportJSON)
}

// AnalyzeFile summarizes a report document on disk and records the
// result when a store is configured.
func (s *Service) AnalyzeFile(ctx context.Context, jobID, reportPath string) (*analyst.Analysis, error) {
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	result, err := s.client.AnalyzeReport(ctx, string(data))
	if err != nil {
		return nil, err
	}
	rec := &analyst.Analysis{
		ID:         analyst.AnalysisID(uuid.New().String()),
		JobID:      jobID,
		ReportPath: reportPath,
		Result:     result,
		CreatedAt:  time.Now(),
	}
	if s.store != nil {
		if err := s.store.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("save analysis: %w", err)
		}
	}
	return rec, nil
}

// History pages through stored analyses.
func (s *Service) History(ctx context.Context, page, pageSize int) ([]*analyst.Analysis, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Paginate(ctx, page, pageSize)
}

// LatestFor returns the newest analysis for a job, nil when none exists.
func (s *Service) LatestFor(ctx context.Context, jobID string) (*analyst.Analysis, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.LatestByJob(ctx, jobID)
}
