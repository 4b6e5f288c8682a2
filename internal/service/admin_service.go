package service

import (
	"context"
	"storefront/internal/entity"
	"storefront/internal/repository"
)

type AdminService struct {
	stats repository.StatsRepository
}

func NewAdminService(stats repository.StatsRepository) *AdminService {
	return &AdminService{stats: stats}
}

func (s *AdminService) Stats(ctx context.Context, actor Actor) (*entity.Stats, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error loading dashboard stats")
		return nil, err
	}
	stats.TotalRevenue = stats.TotalRevenue.Round(2)
	return stats, nil
}
