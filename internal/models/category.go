package models

import (
	"github.com/google/uuid"
)

type Category struct {
	ID   uuid.UUID `json:"id" db:"category_id"`
	Name string    `json:"name" db:"name"`
	Slug string    `json:"slug" db:"slug"`
}
