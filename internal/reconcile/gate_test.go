package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func gateFixture(t *testing.T) (*Engine, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	return NewEngine(repo, nil, nil), repo
}

func TestValidateMatchingUnits(t *testing.T) {
	engine, repo := gateFixture(t)
	repo.addOrder(1)
	item := repo.addLineItem(1, 7, 1)
	ou := repo.addOrderedUnit(item.ID, 7, nil)
	dli := repo.addDeliveryLine(50, 1)
	du := repo.addDeliveredUnit(dli, 7, nil)

	result, err := engine.Validate(context.Background(), ou.ID, du.ID)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Empty(t, result.Errors)
	require.Empty(t, result.Warnings)
}

func TestValidateMissingUnitsAreDataNotErrors(t *testing.T) {
	engine, _ := gateFixture(t)

	result, err := engine.Validate(context.Background(), 404, 405)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	require.Contains(t, result.Errors[0], "ordered unit 404 not found")
	require.Contains(t, result.Errors[1], "delivered unit 405 not found")
}

func TestValidateProductMismatchBlocks(t *testing.T) {
	engine, repo := gateFixture(t)
	repo.addOrder(1)
	item := repo.addLineItem(1, 7, 1)
	ou := repo.addOrderedUnit(item.ID, 7, nil)
	dli := repo.addDeliveryLine(50, 1)
	du := repo.addDeliveredUnit(dli, 9, nil)

	result, err := engine.Validate(context.Background(), ou.ID, du.ID)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "product mismatch")
}

func TestValidateSerialMismatchWarnsOnly(t *testing.T) {
	engine, repo := gateFixture(t)
	repo.addOrder(1)
	item := repo.addLineItem(1, 7, 1)
	ou := repo.addOrderedUnit(item.ID, 7, strPtr("SN-100"))
	dli := repo.addDeliveryLine(50, 1)
	du := repo.addDeliveredUnit(dli, 7, strPtr("SN-200"))

	result, err := engine.Validate(context.Background(), ou.ID, du.ID)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], `serial number mismatch: ordered "SN-100", delivered "SN-200"`)
}

func TestValidateOneSidedSerialWarns(t *testing.T) {
	engine, repo := gateFixture(t)
	repo.addOrder(1)
	item := repo.addLineItem(1, 7, 1)
	ou := repo.addOrderedUnit(item.ID, 7, strPtr("SN-100"))
	dli := repo.addDeliveryLine(50, 1)
	du := repo.addDeliveredUnit(dli, 7, nil)

	result, err := engine.Validate(context.Background(), ou.ID, du.ID)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "only on the ordered unit")
}

func TestValidateAlreadyLinkedUnits(t *testing.T) {
	engine, repo := gateFixture(t)
	repo.addOrder(1)
	item := repo.addLineItem(1, 7, 2)
	ou1 := repo.addOrderedUnit(item.ID, 7, nil)
	ou2 := repo.addOrderedUnit(item.ID, 7, nil)
	dli := repo.addDeliveryLine(50, 1)
	du1 := repo.addDeliveredUnit(dli, 7, nil)

	_, err := engine.ProposeLink(context.Background(), ou1.ID, du1.ID)
	require.NoError(t, err)

	result, err := engine.Validate(context.Background(), ou2.ID, du1.ID)
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "already linked")
}

func TestValidateBatchMismatchWarns(t *testing.T) {
	engine, repo := gateFixture(t)
	repo.addOrder(1)
	item := repo.addLineItem(1, 7, 1)
	ou := repo.addOrderedUnit(item.ID, 7, nil)
	ou.BatchNumber = strPtr("B-1")
	repo.orderedUnits[ou.ID] = ou
	dli := repo.addDeliveryLine(50, 1)
	du := repo.addDeliveredUnit(dli, 7, nil)
	du.BatchNumber = strPtr("B-2")
	repo.deliveredUnits[du.ID] = du

	result, err := engine.Validate(context.Background(), ou.ID, du.ID)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "batch number mismatch")
}
