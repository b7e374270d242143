package orders

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inkwell-erp/inkwell-erp/internal/reconcile"
)

type memoryOrderRepo struct {
	orders map[int64]Order
	lines  map[int64][]LineItem
	nextID int64
}

type memoryOrderTx struct {
	repo *memoryOrderRepo
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{
		orders: make(map[int64]Order),
		lines:  make(map[int64][]LineItem),
	}
}

func (r *memoryOrderRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryOrderTx{repo: r})
}

func (r *memoryOrderRepo) GetOrder(ctx context.Context, id int64) (Order, []LineItem, error) {
	order, ok := r.orders[id]
	if !ok {
		return Order{}, nil, ErrNotFound
	}
	return order, append([]LineItem(nil), r.lines[id]...), nil
}

func (r *memoryOrderRepo) ListOrders(ctx context.Context, limit, offset int, filters ListFilters) ([]ListItem, int, error) {
	var items []ListItem
	for _, order := range r.orders {
		if filters.Status != "" && string(order.Status) != filters.Status && string(order.FulfillmentStatus) != filters.Status {
			continue
		}
		if filters.SupplierID > 0 && order.SupplierID != filters.SupplierID {
			continue
		}
		if filters.Search != "" && !strings.Contains(order.Number, filters.Search) {
			continue
		}
		total := 0
		for _, line := range r.lines[order.ID] {
			total += line.OrderedQty
		}
		items = append(items, ListItem{
			ID: order.ID, Number: order.Number, SupplierID: order.SupplierID,
			Status: order.Status, FulfillmentStatus: order.FulfillmentStatus, TotalQty: total,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	total := len(items)
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items, total, nil
}

func (tx *memoryOrderTx) CreateOrder(ctx context.Context, order Order) (int64, error) {
	tx.repo.nextID++
	order.ID = tx.repo.nextID
	tx.repo.orders[order.ID] = order
	return order.ID, nil
}

func (tx *memoryOrderTx) InsertLineItem(ctx context.Context, line LineItem) (int64, error) {
	tx.repo.nextID++
	line.ID = tx.repo.nextID
	tx.repo.lines[line.OrderID] = append(tx.repo.lines[line.OrderID], line)
	return line.ID, nil
}

func (tx *memoryOrderTx) UpdateOrderStatus(ctx context.Context, id int64, status Status) error {
	order, ok := tx.repo.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.Status = status
	tx.repo.orders[id] = order
	return nil
}

type recordingLedger struct {
	calls []struct {
		LineItemID int64
		ProductID  int64
		Count      int
	}
}

func (l *recordingLedger) CreateOrderedUnits(ctx context.Context, lineItemID, productID int64, count int, specs ...reconcile.UnitSpec) ([]reconcile.OrderedUnit, error) {
	l.calls = append(l.calls, struct {
		LineItemID int64
		ProductID  int64
		Count      int
	}{lineItemID, productID, count})
	units := make([]reconcile.OrderedUnit, count)
	return units, nil
}

func TestCreateOrder(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, &recordingLedger{}, nil)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		SupplierID: 5,
		Lines: []LineInput{
			{ProductID: 7, Qty: 2, UnitPrice: 120},
			{ProductID: 8, Qty: 1, UnitPrice: 900},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)
	require.Equal(t, StatusDraft, order.Status)
	require.Equal(t, reconcile.StatusPending, order.FulfillmentStatus)
	require.True(t, strings.HasPrefix(order.Number, "PO-"))

	_, lines, err := repo.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewService(newMemoryOrderRepo(), &recordingLedger{}, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{SupplierID: 5})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		SupplierID: 5,
		Lines:      []LineInput{{ProductID: 7, Qty: 0}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestApproveOrderMaterializesUnits(t *testing.T) {
	repo := newMemoryOrderRepo()
	ledger := &recordingLedger{}
	svc := NewService(repo, ledger, nil)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		SupplierID: 5,
		Lines: []LineInput{
			{ProductID: 7, Qty: 3},
			{ProductID: 8, Qty: 1},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.ApproveOrder(context.Background(), order.ID))

	got, _, err := repo.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, got.Status)

	require.Len(t, ledger.calls, 2)
	require.Equal(t, 3, ledger.calls[0].Count)
	require.Equal(t, int64(7), ledger.calls[0].ProductID)
	require.Equal(t, 1, ledger.calls[1].Count)
}

func TestApproveOrderTwiceRefused(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, &recordingLedger{}, nil)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		SupplierID: 5,
		Lines:      []LineInput{{ProductID: 7, Qty: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.ApproveOrder(context.Background(), order.ID))
	require.ErrorIs(t, svc.ApproveOrder(context.Background(), order.ID), ErrInvalidState)
}

func TestCancelOrder(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, &recordingLedger{}, nil)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		SupplierID: 5,
		Lines:      []LineInput{{ProductID: 7, Qty: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelOrder(context.Background(), order.ID))
	require.ErrorIs(t, svc.ApproveOrder(context.Background(), order.ID), ErrInvalidState)
}

func TestListOrdersFilters(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, &recordingLedger{}, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
			SupplierID: int64(5 + i),
			Lines:      []LineInput{{ProductID: 7, Qty: 2}},
		})
		require.NoError(t, err)
	}

	all, total, err := svc.ListOrders(context.Background(), 20, 0, ListFilters{})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, all, 3)

	bySupplier, total, err := svc.ListOrders(context.Background(), 20, 0, ListFilters{SupplierID: 6})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, bySupplier, 1)
	require.Equal(t, int64(6), bySupplier[0].SupplierID)
}
