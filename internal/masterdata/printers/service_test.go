package printers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/shared"
)

type memoryRepo struct {
	printers    map[int64]Printer
	assignments map[int64]Assignment
	nextID      int64
	nextAssign  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{printers: map[int64]Printer{}, assignments: map[int64]Assignment{}}
}

func (m *memoryRepo) List(_ context.Context, _ shared.ListFilters) ([]Printer, int, error) {
	var list []Printer
	for _, p := range m.printers {
		list = append(list, p)
	}
	return list, len(list), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Printer, error) {
	p, ok := m.printers[id]
	if !ok {
		return Printer{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(_ context.Context, p Printer) (Printer, error) {
	for _, existing := range m.printers {
		if existing.SerialNumber == p.SerialNumber {
			return Printer{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.printers[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, p Printer) error {
	if _, ok := m.printers[id]; !ok {
		return shared.ErrNotFound
	}
	p.ID = id
	m.printers[id] = p
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.printers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.printers, id)
	return nil
}

func (m *memoryRepo) Assignments(_ context.Context, printerID int64) ([]Assignment, error) {
	var list []Assignment
	for _, a := range m.assignments {
		if a.PrinterID == printerID {
			list = append(list, a)
		}
	}
	return list, nil
}

func (m *memoryRepo) CurrentAssignment(_ context.Context, printerID int64) (Assignment, error) {
	for _, a := range m.assignments {
		if a.PrinterID == printerID && a.UnassignedAt == nil {
			return a, nil
		}
	}
	return Assignment{}, shared.ErrNotFound
}

func (m *memoryRepo) OpenAssignment(_ context.Context, printerID, clientID int64) (Assignment, error) {
	for _, a := range m.assignments {
		if a.PrinterID == printerID && a.UnassignedAt == nil {
			return Assignment{}, shared.ErrDuplicate
		}
	}
	m.nextAssign++
	a := Assignment{ID: m.nextAssign, PrinterID: printerID, ClientID: clientID, AssignedAt: time.Now()}
	m.assignments[a.ID] = a
	return a, nil
}

func (m *memoryRepo) CloseAssignment(_ context.Context, assignmentID int64) error {
	a, ok := m.assignments[assignmentID]
	if !ok || a.UnassignedAt != nil {
		return shared.ErrNotFound
	}
	now := time.Now()
	a.UnassignedAt = &now
	m.assignments[assignmentID] = a
	return nil
}

func TestCreatePrinter(t *testing.T) {
	svc := NewService(newMemoryRepo())

	printer, err := svc.Create(context.Background(), Printer{SerialNumber: "PRN-001", ProductID: 7})
	require.NoError(t, err)
	require.NotZero(t, printer.ID)
	require.True(t, printer.IsActive)
}

func TestCreatePrinterValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Printer{ProductID: 7})
	require.ErrorIs(t, err, shared.ErrRequiredField)

	_, err = svc.Create(context.Background(), Printer{SerialNumber: "PRN-002"})
	require.ErrorIs(t, err, shared.ErrRequiredField)
}

func TestAssignPrinter(t *testing.T) {
	svc := NewService(newMemoryRepo())
	printer, err := svc.Create(context.Background(), Printer{SerialNumber: "PRN-010", ProductID: 7})
	require.NoError(t, err)

	assignment, err := svc.Assign(context.Background(), printer.ID, 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), assignment.ClientID)
	require.Nil(t, assignment.UnassignedAt)
}

func TestAssignPrinterTwiceRefused(t *testing.T) {
	svc := NewService(newMemoryRepo())
	printer, err := svc.Create(context.Background(), Printer{SerialNumber: "PRN-011", ProductID: 7})
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), printer.ID, 42)
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), printer.ID, 43)
	require.ErrorIs(t, err, ErrAlreadyAssigned)
}

func TestAssignUnknownPrinter(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Assign(context.Background(), 99, 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUnassignPrinter(t *testing.T) {
	svc := NewService(newMemoryRepo())
	printer, err := svc.Create(context.Background(), Printer{SerialNumber: "PRN-012", ProductID: 7})
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), printer.ID, 42)
	require.NoError(t, err)
	require.NoError(t, svc.Unassign(context.Background(), printer.ID))

	// The printer is free again.
	_, err = svc.Assign(context.Background(), printer.ID, 43)
	require.NoError(t, err)

	history, err := svc.History(context.Background(), printer.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestUnassignIdlePrinterRefused(t *testing.T) {
	svc := NewService(newMemoryRepo())
	printer, err := svc.Create(context.Background(), Printer{SerialNumber: "PRN-013", ProductID: 7})
	require.NoError(t, err)

	err = svc.Unassign(context.Background(), printer.ID)
	require.ErrorIs(t, err, ErrNotAssigned)
}
