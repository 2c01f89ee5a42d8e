package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"xyz_store/internal/models"
)

// PricingLedger tient le journal append-only des prix de chaque produit
type PricingLedger struct {
	history PriceHistoryRepository
	catalog CatalogRepository
	opts    options
}

func NewPricingLedger(history PriceHistoryRepository, catalog CatalogRepository, opts ...Option) *PricingLedger {
	return &PricingLedger{history: history, catalog: catalog, opts: buildOptions(opts)}
}

// RecordIfChanged ajoute une ligne d'historique :
//   - toujours si before est nil (nouveau produit), raison "Initial price set"
//   - sinon seulement si price ou cost_price a changé, raison "Price updated"
//     ou celle fournie par l'appelant
func (l *PricingLedger) RecordIfChanged(ctx context.Context, before *models.Product, after models.Product, actor *string, reason string) (bool, error) {
	if before == nil {
		if reason == "" {
			reason = models.ReasonInitialPrice
		}
	} else {
		if !after.PriceChanged(*before) {
			return false, nil
		}
		if reason == "" {
			reason = models.ReasonPriceUpdated
		}
	}

	entry := models.ProductPriceHistory{
		ID:           uuid.Must(uuid.NewUUID()),
		ProductID:    after.ID,
		CostPrice:    after.CostPrice,
		SellingPrice: after.Price,
		ChangedBy:    actor,
		ChangedAt:    l.opts.now(),
		Reason:       reason,
	}
	if err := l.history.AppendPriceHistory(ctx, entry); err != nil {
		return false, fmt.Errorf("historique de prix %s: %w", after.ID, err)
	}

	log.Printf("💶 Prix enregistré pour %s: achat %s / vente %s (%s)",
		after.Name, after.CostPrice.StringFixed(2), after.Price.StringFixed(2), reason)
	return true, nil
}

func (l *PricingLedger) History(ctx context.Context, productID uuid.UUID) ([]models.ProductPriceHistory, error) {
	if _, err := l.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return l.history.ListPriceHistory(ctx, productID)
}

// Delete retire une ligne d'historique (nettoyage admin uniquement)
func (l *PricingLedger) Delete(ctx context.Context, productID, historyID uuid.UUID) error {
	if err := l.history.DeletePriceHistory(ctx, productID, historyID); err != nil {
		return err
	}
	log.Printf("🗑️ Ligne d'historique %s supprimée pour le produit %s", historyID, productID)
	return nil
}

// Backfill crée une ligne initiale pour chaque produit qui n'a aucun historique.
// Renvoie le nombre de lignes créées.
func (l *PricingLedger) Backfill(ctx context.Context, actor *string) (int, error) {
	products, err := l.catalog.ListProducts(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, p := range products {
		existing, err := l.history.ListPriceHistory(ctx, p.ID)
		if err != nil {
			return created, err
		}
		if len(existing) > 0 {
			continue
		}
		if _, err := l.RecordIfChanged(ctx, nil, p, actor, models.ReasonMigratedPrice); err != nil {
			return created, err
		}
		created++
	}

	log.Printf("✅ %d ligne(s) d'historique de prix créée(s)", created)
	return created, nil
}
