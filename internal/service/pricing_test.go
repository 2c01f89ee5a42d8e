package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xyz_store/internal/models"
)

func TestRecordIfChangedIgnoresStockOnlyChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.category(t, "Quincaillerie"), "Vis à bois 4x40", "2.10", "4.90", 100)

	after := p
	after.Stock = 80
	recorded, err := f.ledger.RecordIfChanged(ctx, &p, after, nil, "")
	require.NoError(t, err)
	assert.False(t, recorded)

	after.CostPrice = dec("2.30")
	recorded, err = f.ledger.RecordIfChanged(ctx, &p, after, ptr("gerant"), "")
	require.NoError(t, err)
	assert.True(t, recorded)

	history, err := f.ledger.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ReasonPriceUpdated, history[0].Reason)
	assert.True(t, history[0].CostPrice.Equal(dec("2.30")))
	assert.Equal(t, models.ReasonInitialPrice, history[1].Reason)
	assert.Nil(t, history[1].ChangedBy)
}

func TestHistoryOfUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.History(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteHistoryRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.category(t, "Peinture"), "Rouleau 180 mm", "3.00", "7.50", 12)

	history, err := f.ledger.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	require.NoError(t, f.ledger.Delete(ctx, p.ID, history[0].ID))
	assert.ErrorIs(t, f.ledger.Delete(ctx, p.ID, history[0].ID), models.ErrNotFound)

	history, err = f.ledger.History(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestBackfillOnlyProductsWithoutHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Jardin")

	f.product(t, cat, "Sécateur", "9.00", "18.00", 4)

	// l'écriture d'historique échoue : le produit est créé sans ligne initiale
	f.store.FailHistory = errors.New("scylla indisponible")
	orphan := f.product(t, cat, "Râteau", "6.00", "11.00", 7)
	f.store.FailHistory = nil

	created, err := f.ledger.Backfill(ctx, ptr("migration"))
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	history, err := f.ledger.History(ctx, orphan.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ReasonMigratedPrice, history[0].Reason)
	assert.True(t, history[0].SellingPrice.Equal(dec("11.00")))
	require.NotNil(t, history[0].ChangedBy)
	assert.Equal(t, "migration", *history[0].ChangedBy)

	created, err = f.ledger.Backfill(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, created)
}
