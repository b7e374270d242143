package printers

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/shared"
	"github.com/inkwell-erp/inkwell-erp/internal/platform/httpx"
)

// ErrAlreadyAssigned is returned when a printer already sits at a client.
var ErrAlreadyAssigned = fmt.Errorf("printers: already assigned: %w", httpx.ErrConflict)

// ErrNotAssigned is returned when unassigning a printer with no open placement.
var ErrNotAssigned = fmt.Errorf("printers: not assigned: %w", httpx.ErrConflict)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Printer, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Printer, error) {
	if id <= 0 {
		return Printer{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, printer Printer) (Printer, error) {
	if err := s.validate(printer); err != nil {
		return Printer{}, err
	}
	printer.IsActive = true
	return s.repo.Create(ctx, printer)
}

func (s *Service) Update(ctx context.Context, id int64, printer Printer) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(printer); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, printer)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}

// History returns all placements of a printer, newest first.
func (s *Service) History(ctx context.Context, printerID int64) ([]Assignment, error) {
	if printerID <= 0 {
		return nil, shared.ErrInvalidID
	}
	if _, err := s.repo.Get(ctx, printerID); err != nil {
		return nil, err
	}
	return s.repo.Assignments(ctx, printerID)
}

// Assign places a printer at a client site. A printer holds at most one
// open placement; the unique index backs this up under concurrency.
func (s *Service) Assign(ctx context.Context, printerID, clientID int64) (Assignment, error) {
	if printerID <= 0 || clientID <= 0 {
		return Assignment{}, shared.ErrInvalidID
	}
	if _, err := s.repo.Get(ctx, printerID); err != nil {
		return Assignment{}, err
	}
	assignment, err := s.repo.OpenAssignment(ctx, printerID, clientID)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			return Assignment{}, fmt.Errorf("printer %d: %w", printerID, ErrAlreadyAssigned)
		}
		return Assignment{}, err
	}
	return assignment, nil
}

// Unassign closes the current placement of a printer.
func (s *Service) Unassign(ctx context.Context, printerID int64) error {
	if printerID <= 0 {
		return shared.ErrInvalidID
	}
	current, err := s.repo.CurrentAssignment(ctx, printerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("printer %d: %w", printerID, ErrNotAssigned)
		}
		return err
	}
	return s.repo.CloseAssignment(ctx, current.ID)
}
