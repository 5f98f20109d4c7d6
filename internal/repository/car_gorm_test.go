// internal/repository/car_gorm_test.go
package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/utils"
)

func newTestRepo(t *testing.T) CarRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Car{}, &models.CarImage{}))
	return NewCarRepository(db)
}

func buildCar(name, brand string, price int64) *models.Car {
	id := uuid.New()
	return &models.Car{
		BaseModel:   models.BaseModel{ID: id},
		Name:        name,
		Brand:       brand,
		Type:        models.CarTypeSUV,
		Price:       price,
		Description: "test listing",
		Specs: models.CarSpecs{
			Seats:        5,
			Fuel:         models.FuelTypePetrol,
			Transmission: models.TransmissionAutomatic,
		},
		Available: true,
		Slug:      utils.GenerateSlug(brand, name, id.String()[:8]),
		Images: []models.CarImage{{
			ID:         uuid.New(),
			URL:        "https://cdn.test/cars/a.jpg",
			StoredName: "cars/a.jpg",
			IsPrimary:  true,
		}},
	}
}

func TestSaveAndFind(t *testing.T) {
	repo := newTestRepo(t)

	car := buildCar("X5", "BMW", 250)
	require.NoError(t, repo.Save(car))

	byID, err := repo.FindByID(car.ID)
	require.NoError(t, err)
	assert.Equal(t, car.Slug, byID.Slug)
	require.Len(t, byID.Images, 1)
	assert.True(t, byID.Images[0].IsPrimary)

	bySlug, err := repo.FindBySlug(car.Slug)
	require.NoError(t, err)
	assert.Equal(t, car.ID, bySlug.ID)
}

func TestFindNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindByID(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindBySlug("no-such-slug")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveReplacesImageSet(t *testing.T) {
	repo := newTestRepo(t)

	car := buildCar("X5", "BMW", 250)
	require.NoError(t, repo.Save(car))

	car.Images = []models.CarImage{
		{ID: uuid.New(), URL: "https://cdn.test/cars/b.jpg", StoredName: "cars/b.jpg", IsPrimary: true},
		{ID: uuid.New(), URL: "https://cdn.test/cars/c.jpg", StoredName: "cars/c.jpg"},
	}
	require.NoError(t, repo.Save(car))

	found, err := repo.FindByID(car.ID)
	require.NoError(t, err)
	require.Len(t, found.Images, 2)
	assert.Equal(t, "cars/b.jpg", found.Images[0].StoredName)
	assert.Equal(t, "cars/c.jpg", found.Images[1].StoredName)
	assert.Equal(t, 0, found.Images[0].SortOrder)
	assert.Equal(t, 1, found.Images[1].SortOrder)
}

func TestSaveDuplicateSlug(t *testing.T) {
	repo := newTestRepo(t)

	first := buildCar("X5", "BMW", 250)
	require.NoError(t, repo.Save(first))

	second := buildCar("X5", "BMW", 300)
	second.Slug = first.Slug

	err := repo.Save(second)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestSearchFilters(t *testing.T) {
	repo := newTestRepo(t)

	bmw := buildCar("X5", "BMW", 250)
	require.NoError(t, repo.Save(bmw))

	tesla := buildCar("Model 3", "Tesla", 180)
	tesla.Type = models.CarTypeSedan
	tesla.Specs.Fuel = models.FuelTypeElectric
	tesla.Featured = true
	require.NoError(t, repo.Save(tesla))

	params := CarSearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"},
	}

	all, total, err := repo.Search(params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	params.Brand = "tesla"
	byBrand, total, err := repo.Search(params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, byBrand, 1)
	assert.Equal(t, "Model 3", byBrand[0].Name)

	params.Brand = ""
	fuel := models.FuelTypeElectric
	params.Fuel = &fuel
	byFuel, _, err := repo.Search(params)
	require.NoError(t, err)
	require.Len(t, byFuel, 1)
	assert.Equal(t, "Tesla", byFuel[0].Brand)

	params.Fuel = nil
	max := int64(200)
	params.PriceMax = &max
	byPrice, _, err := repo.Search(params)
	require.NoError(t, err)
	require.Len(t, byPrice, 1)
	assert.Equal(t, int64(180), byPrice[0].Price)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)

	car := buildCar("X5", "BMW", 250)
	require.NoError(t, repo.Save(car))

	require.NoError(t, repo.Delete(car.ID))

	_, err := repo.FindByID(car.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(car.ID), ErrNotFound)
}
