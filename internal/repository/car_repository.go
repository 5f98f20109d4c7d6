// internal/repository/car_repository.go
package repository

import (
	"errors"

	"github.com/google/uuid"

	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/utils"
)

var (
	// ErrNotFound is returned when an id or slug does not resolve.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a save violates a unique constraint.
	// Uniqueness is enforced by a database index, never by a check-then-write
	// query, so concurrent creates cannot race past it.
	ErrDuplicateKey = errors.New("duplicate key")
)

type CarSearchParams struct {
	utils.PaginationParams
	Brand        string
	Type         *models.CarType
	Fuel         *models.FuelType
	Transmission *models.TransmissionType
	PriceMin     *int64
	PriceMax     *int64
	Available    *bool
	Featured     *bool
}

// CarRepository persists car listings. Save is expected to write the listing
// and its image set atomically with respect to the record store.
type CarRepository interface {
	FindByID(id uuid.UUID) (*models.Car, error)
	FindBySlug(slug string) (*models.Car, error)
	Search(params CarSearchParams) ([]models.Car, int64, error)
	Save(car *models.Car) error
	Delete(id uuid.UUID) error
}
