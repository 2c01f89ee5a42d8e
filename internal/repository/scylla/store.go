// Package scylla stocke le magasin dans ScyllaDB. Les conditions atomiques
// exigées par le cœur (version de produit, unicité des avis, bascule de
// paiement, lot de ventes unique par commande) reposent sur des
// transactions légères (LWT).
package scylla

import (
	"errors"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"xyz_store/internal/models"
)

// Store implémente les dépôts du cœur sur les keyspaces catalogue et commandes
type Store struct {
	products *gocql.Session
	orders   *gocql.Session
}

func New(products, orders *gocql.Session) *Store {
	return &Store{products: products, orders: orders}
}

// Les montants sont stockés en centimes (bigint)
func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func cqlUUID(id uuid.UUID) gocql.UUID {
	return gocql.UUID(id)
}

func optionalUUID(id *gocql.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	u := uuid.UUID(*id)
	return &u
}

func optionalString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// translate convertit l'absence de ligne gocql en erreur du cœur
func translate(err error) error {
	if errors.Is(err, gocql.ErrNotFound) {
		return models.ErrNotFound
	}
	return err
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
