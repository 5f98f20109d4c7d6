// internal/services/car_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/carlane/carlane-backend/internal/config"
	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/repository"
	"github.com/carlane/carlane-backend/internal/utils"
)

const (
	featuredCarsCachePrefix = "cars:featured"
	slugDisambiguatorLen    = 8
)

// BookingCollaborator is the booking lookup consumed by DeleteCar. The car
// service never reaches into booking storage directly.
type BookingCollaborator interface {
	CountActiveForCar(carID uuid.UUID) (int64, error)
	DeleteForCar(carID uuid.UUID) error
}

type CarService struct {
	repo     repository.CarRepository
	blobs    BlobStore
	bookings BookingCollaborator
	cache    *cache.Cache
	cfg      *config.Config
}

type CreateCarRequest struct {
	Name         string                  `json:"name" validate:"required"`
	Brand        string                  `json:"brand" validate:"required"`
	Type         models.CarType          `json:"type" validate:"required,oneof=Sedan SUV Hatchback Coupe Truck"`
	Price        int64                   `json:"price" validate:"gte=0"`
	Description  string                  `json:"description" validate:"required,max=1000"`
	Seats        int                     `json:"seats" validate:"gte=1,lte=50"`
	Fuel         models.FuelType         `json:"fuel" validate:"required,oneof=Petrol Diesel Electric Hybrid"`
	Transmission models.TransmissionType `json:"transmission" validate:"required,oneof=Automatic Manual"`
	Rating       float64                 `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount  int64                   `json:"review_count" validate:"gte=0"`
	Available    bool                    `json:"available"`
	Featured     bool                    `json:"featured"`
}

// UpdateCarRequest carries partial-update semantics: nil fields are left
// untouched, never reset to defaults.
type UpdateCarRequest struct {
	Name         *string                  `json:"name,omitempty" validate:"omitempty,min=1"`
	Brand        *string                  `json:"brand,omitempty" validate:"omitempty,min=1"`
	Type         *models.CarType          `json:"type,omitempty" validate:"omitempty,oneof=Sedan SUV Hatchback Coupe Truck"`
	Price        *int64                   `json:"price,omitempty" validate:"omitempty,gte=0"`
	Description  *string                  `json:"description,omitempty" validate:"omitempty,min=1,max=1000"`
	Seats        *int                     `json:"seats,omitempty" validate:"omitempty,gte=1,lte=50"`
	Fuel         *models.FuelType         `json:"fuel,omitempty" validate:"omitempty,oneof=Petrol Diesel Electric Hybrid"`
	Transmission *models.TransmissionType `json:"transmission,omitempty" validate:"omitempty,oneof=Automatic Manual"`
	Rating       *float64                 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	ReviewCount  *int64                   `json:"review_count,omitempty" validate:"omitempty,gte=0"`
	Available    *bool                    `json:"available,omitempty"`
	Featured     *bool                    `json:"featured,omitempty"`
}

func NewCarService(repo repository.CarRepository, blobs BlobStore, bookings BookingCollaborator, c *cache.Cache, cfg *config.Config) *CarService {
	return &CarService{
		repo:     repo,
		blobs:    blobs,
		bookings: bookings,
		cache:    c,
		cfg:      cfg,
	}
}

// CreateCar validates the request, uploads the image batch, reconciles the
// image set from empty, assigns a slug from a pre-allocated id and persists
// the listing. Any failure after the uploads succeeded deletes exactly the
// blobs created in this call.
func (s *CarService) CreateCar(req *CreateCarRequest, files []*multipart.FileHeader) (*models.Car, error) {
	// Validation runs before any I/O so a doomed request creates no state.
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, ErrMissingImage
	}

	uploads, err := s.uploadBatch(files)
	if err != nil {
		return nil, err
	}

	images, _, err := ReconcileImages(nil, nil, uploads, nil)
	if err != nil {
		s.rollbackBlobs(uploads)
		return nil, err
	}

	// The id is pre-allocated so the slug disambiguator exists before the
	// first save; no listing is ever persisted without a slug.
	id := uuid.New()
	car := &models.Car{
		BaseModel:   models.BaseModel{ID: id},
		Name:        req.Name,
		Brand:       req.Brand,
		Type:        req.Type,
		Price:       req.Price,
		Description: req.Description,
		Specs: models.CarSpecs{
			Seats:        req.Seats,
			Fuel:         req.Fuel,
			Transmission: req.Transmission,
		},
		Rating:      req.Rating,
		ReviewCount: req.ReviewCount,
		Available:   req.Available,
		Featured:    req.Featured,
		Slug:        utils.GenerateSlug(req.Brand, req.Name, id.String()[:slugDisambiguatorLen]),
		Images:      images,
	}
	car.Thumbnail = car.PrimaryImage().URL

	if err := s.repo.Save(car); err != nil {
		s.rollbackBlobs(uploads)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicate
		}
		return nil, &RepositoryError{Op: "save", Err: err}
	}

	s.cache.Flush()
	return car, nil
}

// UpdateCar applies scalar patches and reconciles the image set against the
// deletion requests and new uploads. Deletions are applied before appends;
// removed blobs are deleted best-effort after reconciliation succeeds.
func (s *CarService) UpdateCar(id uuid.UUID, req *UpdateCarRequest, files []*multipart.FileHeader, deletions []string, primaryIndex *int) (*models.Car, error) {
	car, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &RepositoryError{Op: "find", Err: err}
	}

	if err := s.validateUpdate(req); err != nil {
		return nil, err
	}

	uploads, err := s.uploadBatch(files)
	if err != nil {
		return nil, err
	}

	next, removed, err := ReconcileImages(car.Images, deletions, uploads, primaryIndex)
	if err != nil {
		s.rollbackBlobs(uploads)
		return nil, err
	}

	// Removed blobs are gone from the record either way; a dangling blob is
	// lower severity than failing the whole update here.
	for _, key := range removed {
		if err := s.blobs.Delete(key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to delete removed image blob")
		}
	}

	nameChanged := s.applyPatch(car, req)
	if nameChanged {
		car.Slug = utils.GenerateSlug(car.Brand, car.Name, car.ID.String()[:slugDisambiguatorLen])
	}

	car.Images = next
	car.Thumbnail = car.PrimaryImage().URL

	if err := s.repo.Save(car); err != nil {
		s.rollbackBlobs(uploads)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicate
		}
		return nil, &RepositoryError{Op: "save", Err: err}
	}

	s.cache.Flush()
	return car, nil
}

// DeleteCar removes a listing, its image blobs and, depending on the cascade
// policy, its bookings. With the default block-if-active policy a listing
// with active bookings is left untouched.
func (s *CarService) DeleteCar(id uuid.UUID) error {
	car, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return &RepositoryError{Op: "find", Err: err}
	}

	if s.cfg.Listings.CascadeBookings {
		if err := s.bookings.DeleteForCar(id); err != nil {
			return &RepositoryError{Op: "cascade bookings", Err: err}
		}
	} else {
		active, err := s.bookings.CountActiveForCar(id)
		if err != nil {
			return &RepositoryError{Op: "count bookings", Err: err}
		}
		if active > 0 {
			return fmt.Errorf("%w: %d active bookings reference this car", ErrConflict, active)
		}
	}

	for _, img := range car.Images {
		if err := s.blobs.Delete(img.StoredName); err != nil {
			logrus.WithError(err).WithField("key", img.StoredName).Warn("Failed to delete image blob")
		}
	}

	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return &RepositoryError{Op: "delete", Err: err}
	}

	s.cache.Flush()
	return nil
}

func (s *CarService) GetCar(id uuid.UUID) (*models.Car, error) {
	car, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &RepositoryError{Op: "find", Err: err}
	}
	return car, nil
}

func (s *CarService) GetCarBySlug(slug string) (*models.Car, error) {
	car, err := s.repo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &RepositoryError{Op: "find", Err: err}
	}
	return car, nil
}

func (s *CarService) SearchCars(params repository.CarSearchParams) ([]models.Car, int64, error) {
	cars, total, err := s.repo.Search(params)
	if err != nil {
		return nil, 0, &RepositoryError{Op: "search", Err: err}
	}
	return cars, total, nil
}

func (s *CarService) GetFeaturedCars(limit int) ([]models.Car, error) {
	// Cached per limit; a list cut off at 10 must not answer a limit=5 call.
	cacheKey := fmt.Sprintf("%s:%d", featuredCarsCachePrefix, limit)
	if cached, found := s.cache.Get(cacheKey); found {
		if cars, ok := cached.([]models.Car); ok {
			return cars, nil
		}
	}

	featured := true
	available := true
	cars, _, err := s.repo.Search(repository.CarSearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: limit, Sort: "created_at", Order: "desc"},
		Featured:         &featured,
		Available:        &available,
	})
	if err != nil {
		return nil, &RepositoryError{Op: "search", Err: err}
	}

	s.cache.Set(cacheKey, cars, cache.DefaultExpiration)
	return cars, nil
}

// uploadBatch stores every file through the blob store, which enforces the
// size, extension and image-signature checks. On any failure the files
// already stored in this batch are deleted again so a partial batch never
// leaks.
func (s *CarService) uploadBatch(files []*multipart.FileHeader) ([]models.CarImage, error) {
	options := DefaultUploadOptions("cars", s.cfg.Listings.MaxImageSize)

	uploads := make([]models.CarImage, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			s.rollbackBlobs(uploads)
			return nil, &StorageError{Op: "open upload", Err: err}
		}

		result, err := s.blobs.Upload(file, fileHeader, options)
		file.Close()
		if err != nil {
			s.rollbackBlobs(uploads)
			return nil, &StorageError{Op: "upload", Err: err}
		}

		uploads = append(uploads, models.CarImage{
			ID:         uuid.New(),
			URL:        result.URL,
			StoredName: result.StoredName,
			Filename:   fileHeader.Filename,
			SizeBytes:  result.Size,
			MimeType:   result.MimeType,
		})
	}

	return uploads, nil
}

// rollbackBlobs is the compensating action after a failed operation: it
// deletes only the blobs created by that operation, never pre-existing ones.
func (s *CarService) rollbackBlobs(uploads []models.CarImage) {
	for _, img := range uploads {
		if err := s.blobs.Delete(img.StoredName); err != nil {
			logrus.WithError(err).WithField("key", img.StoredName).Warn("Failed to roll back uploaded blob")
		}
	}
}

func (s *CarService) validateCreate(req *CreateCarRequest) error {
	fields := utils.GetValidationErrors(utils.ValidateStruct(req))
	fields = append(fields, s.validatePrice(req.Price)...)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *CarService) validateUpdate(req *UpdateCarRequest) error {
	fields := utils.GetValidationErrors(utils.ValidateStruct(req))
	if req.Price != nil {
		fields = append(fields, s.validatePrice(*req.Price)...)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *CarService) validatePrice(price int64) []utils.ValidationError {
	multiple := s.cfg.Listings.PriceMultiple
	if multiple > 1 && price%multiple != 0 {
		return []utils.ValidationError{{
			Field:   "price",
			Tag:     "multiple",
			Message: fmt.Sprintf("price must be a multiple of %d", multiple),
		}}
	}
	return nil
}

// applyPatch copies the present fields onto the car and reports whether name
// or brand changed, which forces slug regeneration.
func (s *CarService) applyPatch(car *models.Car, req *UpdateCarRequest) bool {
	nameChanged := false

	if req.Name != nil && *req.Name != car.Name {
		car.Name = *req.Name
		nameChanged = true
	}
	if req.Brand != nil && *req.Brand != car.Brand {
		car.Brand = *req.Brand
		nameChanged = true
	}
	if req.Type != nil {
		car.Type = *req.Type
	}
	if req.Price != nil {
		car.Price = *req.Price
	}
	if req.Description != nil {
		car.Description = *req.Description
	}
	if req.Seats != nil {
		car.Specs.Seats = *req.Seats
	}
	if req.Fuel != nil {
		car.Specs.Fuel = *req.Fuel
	}
	if req.Transmission != nil {
		car.Specs.Transmission = *req.Transmission
	}
	if req.Rating != nil {
		car.Rating = *req.Rating
	}
	if req.ReviewCount != nil {
		car.ReviewCount = *req.ReviewCount
	}
	if req.Available != nil {
		car.Available = *req.Available
	}
	if req.Featured != nil {
		car.Featured = *req.Featured
	}

	return nameChanged
}
