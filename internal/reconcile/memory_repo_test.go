package reconcile

import (
	"context"
	"sort"
	"time"
)

// memoryRepo implements RepositoryPort in memory for service level tests. The
// link uniqueness constraint is emulated in InsertLink the way the partial
// unique indexes behave in PostgreSQL.
type memoryRepo struct {
	lineItems      map[int64]OrderLineItem
	orderedUnits   map[int64]OrderedUnit
	deliveredUnits map[int64]DeliveredUnit
	links          map[int64]UnitLink
	fulfillment    map[int64]OrderStatus
	// delivery line item -> owning delivery and order
	dliDelivery map[int64]int64
	dliOrder    map[int64]int64
	nextID      int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		lineItems:      make(map[int64]OrderLineItem),
		orderedUnits:   make(map[int64]OrderedUnit),
		deliveredUnits: make(map[int64]DeliveredUnit),
		links:          make(map[int64]UnitLink),
		fulfillment:    make(map[int64]OrderStatus),
		dliDelivery:    make(map[int64]int64),
		dliOrder:       make(map[int64]int64),
	}
}

func (r *memoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memoryRepo) addOrder(orderID int64) {
	r.fulfillment[orderID] = StatusPending
}

func (r *memoryRepo) addLineItem(orderID, productID int64, qty int) OrderLineItem {
	item := OrderLineItem{ID: r.id(), OrderID: orderID, ProductID: productID, OrderedQty: qty}
	r.lineItems[item.ID] = item
	return item
}

func (r *memoryRepo) addOrderedUnit(lineItemID, productID int64, serial *string) OrderedUnit {
	unit := OrderedUnit{ID: r.id(), OrderLineItemID: lineItemID, ProductID: productID, SerialNumber: serial, Status: UnitStatusPending}
	r.orderedUnits[unit.ID] = unit
	return unit
}

func (r *memoryRepo) addDeliveryLine(deliveryID, orderID int64) int64 {
	id := r.id()
	r.dliDelivery[id] = deliveryID
	r.dliOrder[id] = orderID
	return id
}

func (r *memoryRepo) addDeliveredUnit(deliveryLineItemID, productID int64, serial *string) DeliveredUnit {
	unit := DeliveredUnit{ID: r.id(), DeliveryLineItemID: deliveryLineItemID, ProductID: productID, SerialNumber: serial, Status: UnitStatusPending}
	r.deliveredUnits[unit.ID] = unit
	return unit
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) OrderLineItems(ctx context.Context, orderID int64) ([]OrderLineItem, error) {
	var items []OrderLineItem
	for _, item := range r.lineItems {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *memoryRepo) OrderedUnitsForOrder(ctx context.Context, orderID int64) ([]OrderedUnit, error) {
	var units []OrderedUnit
	for _, unit := range r.orderedUnits {
		if item, ok := r.lineItems[unit.OrderLineItemID]; ok && item.OrderID == orderID {
			units = append(units, unit)
		}
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units, nil
}

func (r *memoryRepo) DeliveredUnitsForOrder(ctx context.Context, orderID int64) ([]DeliveredUnit, error) {
	var units []DeliveredUnit
	for _, unit := range r.deliveredUnits {
		if r.dliOrder[unit.DeliveryLineItemID] == orderID {
			units = append(units, unit)
		}
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units, nil
}

func (r *memoryRepo) ActiveLinksForOrder(ctx context.Context, orderID int64) ([]UnitLink, error) {
	var links []UnitLink
	for _, link := range r.links {
		unit, ok := r.orderedUnits[link.OrderedUnitID]
		if !ok {
			continue
		}
		if item, ok := r.lineItems[unit.OrderLineItemID]; ok && item.OrderID == orderID {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	return links, nil
}

func (r *memoryRepo) LinksForDelivery(ctx context.Context, deliveryID int64) ([]UnitLink, error) {
	var links []UnitLink
	for _, link := range r.links {
		unit, ok := r.deliveredUnits[link.DeliveredUnitID]
		if !ok {
			continue
		}
		if r.dliDelivery[unit.DeliveryLineItemID] == deliveryID {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	return links, nil
}

func (r *memoryRepo) GetOrderedUnit(ctx context.Context, id int64) (OrderedUnit, error) {
	unit, ok := r.orderedUnits[id]
	if !ok {
		return OrderedUnit{}, ErrNotFound
	}
	return unit, nil
}

func (r *memoryRepo) GetDeliveredUnit(ctx context.Context, id int64) (DeliveredUnit, error) {
	unit, ok := r.deliveredUnits[id]
	if !ok {
		return DeliveredUnit{}, ErrNotFound
	}
	return unit, nil
}

func (r *memoryRepo) GetLink(ctx context.Context, id int64) (UnitLink, error) {
	link, ok := r.links[id]
	if !ok {
		return UnitLink{}, ErrNotFound
	}
	return link, nil
}

func (r *memoryRepo) ActiveLinkForOrderedUnit(ctx context.Context, unitID int64) (UnitLink, error) {
	for _, link := range r.links {
		if link.OrderedUnitID == unitID {
			return link, nil
		}
	}
	return UnitLink{}, ErrNotFound
}

func (r *memoryRepo) ActiveLinkForDeliveredUnit(ctx context.Context, unitID int64) (UnitLink, error) {
	for _, link := range r.links {
		if link.DeliveredUnitID == unitID {
			return link, nil
		}
	}
	return UnitLink{}, ErrNotFound
}

func (r *memoryRepo) OrderForOrderedUnit(ctx context.Context, unitID int64) (int64, error) {
	unit, ok := r.orderedUnits[unitID]
	if !ok {
		return 0, ErrNotFound
	}
	item, ok := r.lineItems[unit.OrderLineItemID]
	if !ok {
		return 0, ErrNotFound
	}
	return item.OrderID, nil
}

func (r *memoryRepo) FulfillmentStatus(ctx context.Context, orderID int64) (OrderStatus, error) {
	status, ok := r.fulfillment[orderID]
	if !ok {
		return "", ErrNotFound
	}
	return status, nil
}

func (tx *memoryTx) InsertOrderedUnit(ctx context.Context, unit OrderedUnit) (int64, error) {
	unit.ID = tx.repo.id()
	tx.repo.orderedUnits[unit.ID] = unit
	return unit.ID, nil
}

func (tx *memoryTx) InsertDeliveredUnit(ctx context.Context, unit DeliveredUnit) (int64, error) {
	unit.ID = tx.repo.id()
	tx.repo.deliveredUnits[unit.ID] = unit
	return unit.ID, nil
}

func (tx *memoryTx) InsertLink(ctx context.Context, link UnitLink) (int64, error) {
	for _, existing := range tx.repo.links {
		if existing.OrderedUnitID == link.OrderedUnitID || existing.DeliveredUnitID == link.DeliveredUnitID {
			return 0, ErrAlreadyLinked
		}
	}
	link.ID = tx.repo.id()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	tx.repo.links[link.ID] = link
	return link.ID, nil
}

func (tx *memoryTx) UpdateLinkStatus(ctx context.Context, id int64, status LinkStatus) error {
	link, ok := tx.repo.links[id]
	if !ok {
		return ErrNotFound
	}
	link.Status = status
	tx.repo.links[id] = link
	return nil
}

func (tx *memoryTx) DeleteLink(ctx context.Context, id int64) error {
	if _, ok := tx.repo.links[id]; !ok {
		return ErrNotFound
	}
	delete(tx.repo.links, id)
	return nil
}

func (tx *memoryTx) SetOrderedUnitStatus(ctx context.Context, id int64, status UnitStatus) error {
	unit, ok := tx.repo.orderedUnits[id]
	if !ok {
		return ErrNotFound
	}
	unit.Status = status
	tx.repo.orderedUnits[id] = unit
	return nil
}

func (tx *memoryTx) SetDeliveredUnitStatus(ctx context.Context, id int64, status UnitStatus) error {
	unit, ok := tx.repo.deliveredUnits[id]
	if !ok {
		return ErrNotFound
	}
	unit.Status = status
	tx.repo.deliveredUnits[id] = unit
	return nil
}

func (tx *memoryTx) SetFulfillmentStatus(ctx context.Context, orderID int64, status OrderStatus) error {
	if _, ok := tx.repo.fulfillment[orderID]; !ok {
		return ErrNotFound
	}
	tx.repo.fulfillment[orderID] = status
	return nil
}

func strPtr(s string) *string { return &s }
