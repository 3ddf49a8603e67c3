package entities

import (
	"github.com/google/uuid"
)

// Ingredient is read-mostly catalog data. The pair (name, measurement_unit)
// is unique catalog-wide, compared case-insensitively; the check lives in the
// ingredient service because the collation is not expressible as a plain
// unique index across both supported databases.
type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name            string    `gorm:"index" json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
}
