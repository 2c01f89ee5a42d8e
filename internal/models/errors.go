package models

import "errors"

// Taxonomie des erreurs du cœur, à tester avec errors.Is
var (
	ErrNotFound           = errors.New("ressource introuvable")
	ErrDuplicateReview    = errors.New("avis déjà déposé pour ce produit")
	ErrEmptyCart          = errors.New("panier vide")
	ErrAlreadyPaid        = errors.New("commande déjà payée")
	ErrInvariantViolation = errors.New("donnée invalide")
	ErrConcurrentUpdate   = errors.New("modification concurrente, réessayez")
)
