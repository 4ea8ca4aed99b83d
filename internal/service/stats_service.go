package service

import (
	"context"
	"fmt"

	"apptracker/internal/model"
	"apptracker/internal/repository"
)

// StatsService aggregates application counts for the status board.
type StatsService interface {
	StatsFor(ctx context.Context, ownerID uint) (*model.Stats, error)
}

type statsService struct {
	repo repository.ApplicationRepository
}

// NewStatsService creates a new stats service.
func NewStatsService(repo repository.ApplicationRepository) StatsService {
	return &statsService{repo: repo}
}

// StatsFor counts the owner's applications per status. Every status appears
// in the result and Total is the sum of the counts.
func (s *statsService) StatsFor(ctx context.Context, ownerID uint) (*model.Stats, error) {
	rows, err := s.repo.CountByStatus(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}

	stats := model.NewStats()
	for _, row := range rows {
		if !row.Status.Valid() {
			continue
		}
		stats.ByStatus[row.Status] += row.Count
	}
	for _, n := range stats.ByStatus {
		stats.Total += n
	}
	return stats, nil
}
