package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildReportEmptyOrder(t *testing.T) {
	report := BuildReport(1, nil, nil, nil, nil)

	require.Equal(t, int64(1), report.OrderID)
	require.Zero(t, report.TotalOrdered)
	require.Zero(t, report.CountedLineItems)
	require.Equal(t, 0.0, report.CompletionPercentage)
	require.Empty(t, report.UnmatchedOrderedUnits)
}

func TestBuildReportAllLinked(t *testing.T) {
	items := []OrderLineItem{{ID: 10, OrderID: 1, ProductID: 7, OrderedQty: 2}}
	ordered := []OrderedUnit{
		{ID: 100, OrderLineItemID: 10, ProductID: 7, Status: UnitStatusLinked},
		{ID: 101, OrderLineItemID: 10, ProductID: 7, Status: UnitStatusLinked},
	}
	delivered := []DeliveredUnit{
		{ID: 200, DeliveryLineItemID: 20, ProductID: 7, Status: UnitStatusLinked},
		{ID: 201, DeliveryLineItemID: 20, ProductID: 7, Status: UnitStatusLinked},
	}
	links := []UnitLink{
		{ID: 1, OrderedUnitID: 100, DeliveredUnitID: 200, Status: LinkStatusConfirmed},
		{ID: 2, OrderedUnitID: 101, DeliveredUnitID: 201, Status: LinkStatusUnconfirmed},
	}

	report := BuildReport(1, items, ordered, delivered, links)

	require.Equal(t, 2, report.TotalOrdered)
	require.Equal(t, 2, report.TotalDelivered)
	require.Equal(t, 2, report.TotalLinked)
	require.Equal(t, 1, report.FulfilledLineItems)
	require.Equal(t, 100.0, report.CompletionPercentage)
	require.Empty(t, report.UnmatchedOrderedUnits)
	require.Empty(t, report.UnmatchedDeliveredUnits)
}

// A line item is only fulfilled once every ordered unit is linked: nine out
// of ten delivered toners on a single line still count as zero percent.
func TestBuildReportNineOfTenLinked(t *testing.T) {
	items := []OrderLineItem{{ID: 10, OrderID: 1, ProductID: 7, OrderedQty: 10}}
	var ordered []OrderedUnit
	var delivered []DeliveredUnit
	var links []UnitLink
	for i := int64(0); i < 10; i++ {
		ordered = append(ordered, OrderedUnit{ID: 100 + i, OrderLineItemID: 10, ProductID: 7, Status: UnitStatusLinked})
	}
	for i := int64(0); i < 9; i++ {
		delivered = append(delivered, DeliveredUnit{ID: 200 + i, DeliveryLineItemID: 20, ProductID: 7, Status: UnitStatusLinked})
		links = append(links, UnitLink{ID: 1 + i, OrderedUnitID: 100 + i, DeliveredUnitID: 200 + i, Status: LinkStatusUnconfirmed})
	}

	report := BuildReport(1, items, ordered, delivered, links)

	require.Equal(t, 10, report.TotalOrdered)
	require.Equal(t, 9, report.TotalLinked)
	require.Zero(t, report.FulfilledLineItems)
	require.Equal(t, 0.0, report.CompletionPercentage)
	require.Equal(t, []int64{109}, report.UnmatchedOrderedUnits)
}

// Two-line order: a two-unit toner line fully linked plus a one-unit printer
// line with nothing delivered comes out at fifty percent.
func TestBuildReportMixedLines(t *testing.T) {
	items := []OrderLineItem{
		{ID: 10, OrderID: 1, ProductID: 7, OrderedQty: 2},
		{ID: 11, OrderID: 1, ProductID: 8, OrderedQty: 1},
	}
	ordered := []OrderedUnit{
		{ID: 100, OrderLineItemID: 10, ProductID: 7, Status: UnitStatusLinked},
		{ID: 101, OrderLineItemID: 10, ProductID: 7, Status: UnitStatusLinked},
		{ID: 102, OrderLineItemID: 11, ProductID: 8, Status: UnitStatusPending},
	}
	delivered := []DeliveredUnit{
		{ID: 200, DeliveryLineItemID: 20, ProductID: 7, Status: UnitStatusLinked},
		{ID: 201, DeliveryLineItemID: 20, ProductID: 7, Status: UnitStatusLinked},
	}
	links := []UnitLink{
		{ID: 1, OrderedUnitID: 100, DeliveredUnitID: 200, Status: LinkStatusConfirmed},
		{ID: 2, OrderedUnitID: 101, DeliveredUnitID: 201, Status: LinkStatusConfirmed},
	}

	report := BuildReport(1, items, ordered, delivered, links)

	require.Equal(t, 3, report.TotalOrdered)
	require.Equal(t, 2, report.TotalLinked)
	require.Equal(t, 2, report.CountedLineItems)
	require.Equal(t, 1, report.FulfilledLineItems)
	require.Equal(t, 50.0, report.CompletionPercentage)
	require.Equal(t, []int64{102}, report.UnmatchedOrderedUnits)
}

func TestBuildReportSkipsCancelledUnits(t *testing.T) {
	items := []OrderLineItem{{ID: 10, OrderID: 1, ProductID: 7, OrderedQty: 1}}
	ordered := []OrderedUnit{
		{ID: 100, OrderLineItemID: 10, ProductID: 7, Status: UnitStatusCancelled},
		{ID: 101, OrderLineItemID: 10, ProductID: 7, Status: UnitStatusLinked},
	}
	delivered := []DeliveredUnit{
		{ID: 200, DeliveryLineItemID: 20, ProductID: 7, Status: UnitStatusLinked},
		{ID: 201, DeliveryLineItemID: 20, ProductID: 7, Status: UnitStatusCancelled},
	}
	links := []UnitLink{{ID: 1, OrderedUnitID: 101, DeliveredUnitID: 200, Status: LinkStatusConfirmed}}

	report := BuildReport(1, items, ordered, delivered, links)

	require.Equal(t, 1, report.TotalOrdered)
	require.Equal(t, 1, report.TotalDelivered)
	require.Equal(t, 100.0, report.CompletionPercentage)
}

func TestBuildReportExcludesZeroQtyLines(t *testing.T) {
	items := []OrderLineItem{
		{ID: 10, OrderID: 1, ProductID: 7, OrderedQty: 0},
		{ID: 11, OrderID: 1, ProductID: 8, OrderedQty: 1},
	}
	ordered := []OrderedUnit{{ID: 100, OrderLineItemID: 11, ProductID: 8, Status: UnitStatusLinked}}
	delivered := []DeliveredUnit{{ID: 200, DeliveryLineItemID: 20, ProductID: 8, Status: UnitStatusLinked}}
	links := []UnitLink{{ID: 1, OrderedUnitID: 100, DeliveredUnitID: 200, Status: LinkStatusConfirmed}}

	report := BuildReport(1, items, ordered, delivered, links)

	require.Equal(t, 1, report.CountedLineItems)
	require.Equal(t, 100.0, report.CompletionPercentage)
}

func TestBuildReportFlagsSerialMismatches(t *testing.T) {
	items := []OrderLineItem{{ID: 10, OrderID: 1, ProductID: 7, OrderedQty: 1}}
	ordered := []OrderedUnit{{ID: 100, OrderLineItemID: 10, ProductID: 7, SerialNumber: strPtr("SN-100"), Status: UnitStatusLinked}}
	delivered := []DeliveredUnit{{ID: 200, DeliveryLineItemID: 20, ProductID: 7, SerialNumber: strPtr("SN-200"), Status: UnitStatusLinked}}
	links := []UnitLink{{ID: 1, OrderedUnitID: 100, DeliveredUnitID: 200, Status: LinkStatusUnconfirmed}}

	report := BuildReport(1, items, ordered, delivered, links)

	require.Len(t, report.MismatchedSerials, 1)
	require.Equal(t, "SN-100", report.MismatchedSerials[0].OrderedSerial)
	require.Equal(t, "SN-200", report.MismatchedSerials[0].DeliveredSerial)
}

func TestBuildReportIgnoresDisputedSerials(t *testing.T) {
	items := []OrderLineItem{{ID: 10, OrderID: 1, ProductID: 7, OrderedQty: 1}}
	ordered := []OrderedUnit{{ID: 100, OrderLineItemID: 10, ProductID: 7, SerialNumber: strPtr("SN-100"), Status: UnitStatusLinked}}
	delivered := []DeliveredUnit{{ID: 200, DeliveryLineItemID: 20, ProductID: 7, SerialNumber: strPtr("SN-200"), Status: UnitStatusLinked}}
	links := []UnitLink{{ID: 1, OrderedUnitID: 100, DeliveredUnitID: 200, Status: LinkStatusDisputed}}

	report := BuildReport(1, items, ordered, delivered, links)

	require.Empty(t, report.MismatchedSerials)
}

func TestBuildReportDeterministicOrdering(t *testing.T) {
	items := []OrderLineItem{{ID: 10, OrderID: 1, ProductID: 7, OrderedQty: 3}}
	ordered := []OrderedUnit{
		{ID: 103, OrderLineItemID: 10, ProductID: 7, Status: UnitStatusPending},
		{ID: 101, OrderLineItemID: 10, ProductID: 7, Status: UnitStatusPending},
		{ID: 102, OrderLineItemID: 10, ProductID: 7, Status: UnitStatusPending},
	}

	first := BuildReport(1, items, ordered, nil, nil)
	second := BuildReport(1, items, ordered, nil, nil)

	require.Equal(t, []int64{101, 102, 103}, first.UnmatchedOrderedUnits)
	require.Equal(t, first, second)
}
