package reconcile

import "sort"

// BuildReport computes fulfillment for one order from already-loaded state.
// Granularity is the order line item, not the raw unit count: a line item is
// fulfilled only when every ordered unit is linked, so nine of ten delivered
// toners contribute nothing until the tenth arrives. This keeps a one-unit
// printer line from being drowned out by a hundred-unit toner line.
func BuildReport(orderID int64, items []OrderLineItem, ordered []OrderedUnit, delivered []DeliveredUnit, links []UnitLink) ReconciliationReport {
	report := ReconciliationReport{
		OrderID:                 orderID,
		UnmatchedOrderedUnits:   []int64{},
		UnmatchedDeliveredUnits: []int64{},
		MismatchedSerials:       []SerialMismatch{},
	}

	linkByOrdered := make(map[int64]UnitLink, len(links))
	linkByDelivered := make(map[int64]UnitLink, len(links))
	for _, link := range links {
		linkByOrdered[link.OrderedUnitID] = link
		linkByDelivered[link.DeliveredUnitID] = link
	}
	report.TotalLinked = len(links)

	unitsByItem := make(map[int64][]OrderedUnit, len(items))
	for _, unit := range ordered {
		if unit.Status == UnitStatusCancelled {
			continue
		}
		report.TotalOrdered++
		unitsByItem[unit.OrderLineItemID] = append(unitsByItem[unit.OrderLineItemID], unit)
	}

	for _, item := range items {
		if item.OrderedQty <= 0 {
			// A zero-quantity line cannot be fulfilled or unfulfilled; it
			// stays out of the denominator.
			continue
		}
		report.CountedLineItems++

		linked := 0
		for _, unit := range unitsByItem[item.ID] {
			if _, ok := linkByOrdered[unit.ID]; ok {
				linked++
			}
		}
		if linked >= item.OrderedQty {
			report.FulfilledLineItems++
			continue
		}
		for _, unit := range unitsByItem[item.ID] {
			if _, ok := linkByOrdered[unit.ID]; !ok {
				report.UnmatchedOrderedUnits = append(report.UnmatchedOrderedUnits, unit.ID)
			}
		}
	}

	orderedByID := make(map[int64]OrderedUnit, len(ordered))
	for _, unit := range ordered {
		orderedByID[unit.ID] = unit
	}
	for _, unit := range delivered {
		if unit.Status == UnitStatusCancelled {
			continue
		}
		report.TotalDelivered++
		if _, ok := linkByDelivered[unit.ID]; !ok {
			report.UnmatchedDeliveredUnits = append(report.UnmatchedDeliveredUnits, unit.ID)
		}
	}

	deliveredByID := make(map[int64]DeliveredUnit, len(delivered))
	for _, unit := range delivered {
		deliveredByID[unit.ID] = unit
	}
	for _, link := range links {
		// Disputed links are already flagged by a human; re-reporting their
		// serials would double-count the same problem.
		if link.Status == LinkStatusDisputed {
			continue
		}
		ou, okO := orderedByID[link.OrderedUnitID]
		du, okD := deliveredByID[link.DeliveredUnitID]
		if !okO || !okD || ou.SerialNumber == nil || du.SerialNumber == nil {
			continue
		}
		if *ou.SerialNumber != *du.SerialNumber {
			report.MismatchedSerials = append(report.MismatchedSerials, SerialMismatch{
				LinkID:          link.ID,
				OrderedUnitID:   ou.ID,
				DeliveredUnitID: du.ID,
				OrderedSerial:   *ou.SerialNumber,
				DeliveredSerial: *du.SerialNumber,
			})
		}
	}

	// Empty orders report zero, never NaN.
	if report.CountedLineItems > 0 {
		report.CompletionPercentage = 100 * float64(report.FulfilledLineItems) / float64(report.CountedLineItems)
	}

	// Deterministic ordering so repeated runs over unchanged state produce
	// identical reports.
	sort.Slice(report.UnmatchedOrderedUnits, func(i, j int) bool {
		return report.UnmatchedOrderedUnits[i] < report.UnmatchedOrderedUnits[j]
	})
	sort.Slice(report.UnmatchedDeliveredUnits, func(i, j int) bool {
		return report.UnmatchedDeliveredUnits[i] < report.UnmatchedDeliveredUnits[j]
	})
	sort.Slice(report.MismatchedSerials, func(i, j int) bool {
		return report.MismatchedSerials[i].LinkID < report.MismatchedSerials[j].LinkID
	})
	return report
}
