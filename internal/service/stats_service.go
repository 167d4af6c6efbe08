package service

import (
	"context"
	"fmt"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/repository"
	"go.uber.org/zap"
)

// DefaultScanLimit is the number of most recent rows each reducer reads
const DefaultScanLimit = 1000

// StatsService aggregates the most recent rows of each entity
type StatsService struct {
	contactRepo *repository.ContactRepository
	requestRepo *repository.RequestRepository
	caseRepo    *repository.CaseRepository
	orderRepo   *repository.OrderRepository
	scanLimit   int
	logger      *zap.Logger
}

func NewStatsService(
	contactRepo *repository.ContactRepository,
	requestRepo *repository.RequestRepository,
	caseRepo *repository.CaseRepository,
	orderRepo *repository.OrderRepository,
	scanLimit int,
	logger *zap.Logger,
) *StatsService {
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &StatsService{
		contactRepo: contactRepo,
		requestRepo: requestRepo,
		caseRepo:    caseRepo,
		orderRepo:   orderRepo,
		scanLimit:   scanLimit,
		logger:      logger,
	}
}

func (s *StatsService) Contacts(ctx context.Context) (*domain.ContactStats, error) {
	contacts, err := s.contactRepo.ListRecent(ctx, s.scanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	stats := domain.ReduceContactStats(contacts)
	return &stats, nil
}

func (s *StatsService) Requests(ctx context.Context) (*domain.RequestStats, error) {
	requests, err := s.requestRepo.ListRecent(ctx, s.scanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}
	stats := domain.ReduceRequestStats(requests)
	return &stats, nil
}

func (s *StatsService) Cases(ctx context.Context) (*domain.CaseStats, error) {
	cases, err := s.caseRepo.ListRecent(ctx, s.scanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load cases: %w", err)
	}
	stats := domain.ReduceCaseStats(cases)
	return &stats, nil
}

func (s *StatsService) Orders(ctx context.Context) (*domain.OrderStats, error) {
	orders, err := s.orderRepo.ListRecent(ctx, s.scanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	stats := domain.ReduceOrderStats(orders)
	return &stats, nil
}

// Dashboard combines every reducer
func (s *StatsService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	contacts, err := s.Contacts(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.Requests(ctx)
	if err != nil {
		return nil, err
	}
	cases, err := s.Cases(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.Orders(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.DashboardStats{
		Contacts:  *contacts,
		Requests:  *requests,
		Cases:     *cases,
		Orders:    *orders,
		ScanLimit: s.scanLimit,
	}, nil
}
