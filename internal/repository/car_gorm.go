// internal/repository/car_gorm.go
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/utils"
)

type gormCarRepository struct {
	db *gorm.DB
}

func NewCarRepository(db *gorm.DB) CarRepository {
	return &gormCarRepository{db: db}
}

func (r *gormCarRepository) FindByID(id uuid.UUID) (*models.Car, error) {
	var car models.Car
	err := r.db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("car_images.sort_order ASC")
	}).First(&car, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find car by id: %w", err)
	}
	return &car, nil
}

func (r *gormCarRepository) FindBySlug(slug string) (*models.Car, error) {
	var car models.Car
	err := r.db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("car_images.sort_order ASC")
	}).First(&car, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find car by slug: %w", err)
	}
	return &car, nil
}

func (r *gormCarRepository) Search(params CarSearchParams) ([]models.Car, int64, error) {
	query := r.db.Model(&models.Car{})

	if params.Brand != "" {
		query = query.Where("LOWER(brand) = ?", strings.ToLower(params.Brand))
	}
	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}
	if params.Fuel != nil {
		query = query.Where("fuel = ?", *params.Fuel)
	}
	if params.Transmission != nil {
		query = query.Where("transmission = ?", *params.Transmission)
	}
	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}
	if params.Available != nil {
		query = query.Where("available = ?", *params.Available)
	}
	if params.Featured != nil {
		query = query.Where("featured = ?", *params.Featured)
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(description) LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count cars: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "brand", "price", "rating"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var cars []models.Car
	err := query.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("car_images.sort_order ASC")
	}).Find(&cars).Error
	if err != nil {
		return nil, 0, fmt.Errorf("fetch cars: %w", err)
	}

	return cars, total, nil
}

// Save writes the car and replaces its image set in one database
// transaction. Duplicate slug violations surface as ErrDuplicateKey.
func (r *gormCarRepository) Save(car *models.Car) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(car).Error; err != nil {
			return err
		}

		// Replace the image rows wholesale; the reconciled set is the source
		// of truth for ordering and the primary flag.
		if err := tx.Where("car_id = ?", car.ID).Delete(&models.CarImage{}).Error; err != nil {
			return err
		}
		for i := range car.Images {
			car.Images[i].CarID = car.ID
			car.Images[i].SortOrder = i
			if err := tx.Create(&car.Images[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("save car: %w", err)
	}
	return nil
}

func (r *gormCarRepository) Delete(id uuid.UUID) error {
	result := r.db.Select(clause.Associations).Delete(&models.Car{BaseModel: models.BaseModel{ID: id}})
	if result.Error != nil {
		return fmt.Errorf("delete car: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	// sqlite used in tests reports constraint failures as plain strings
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
