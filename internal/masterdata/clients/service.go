package clients

import (
	"context"

	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Client, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Client, error) {
	if id <= 0 {
		return Client{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, client Client) (Client, error) {
	if err := s.validate(client); err != nil {
		return Client{}, err
	}
	client.IsActive = true
	return s.repo.Create(ctx, client)
}

func (s *Service) Update(ctx context.Context, id int64, client Client) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(client); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, client)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}
