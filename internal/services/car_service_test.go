// internal/services/car_service_test.go
package services

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlane/carlane-backend/internal/config"
	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/repository"
)

// jpegMagic is enough of a JPEG header to pass signature sniffing.
var jpegMagic = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}

type fakeCarRepo struct {
	cars        map[uuid.UUID]*models.Car
	saveErr     error
	saveCalls   int
	searchCalls int
}

func newFakeCarRepo() *fakeCarRepo {
	return &fakeCarRepo{cars: make(map[uuid.UUID]*models.Car)}
}

func (r *fakeCarRepo) FindByID(id uuid.UUID) (*models.Car, error) {
	car, ok := r.cars[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *car
	copied.Images = append([]models.CarImage(nil), car.Images...)
	return &copied, nil
}

func (r *fakeCarRepo) FindBySlug(slug string) (*models.Car, error) {
	for _, car := range r.cars {
		if car.Slug == slug {
			copied := *car
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCarRepo) Search(params repository.CarSearchParams) ([]models.Car, int64, error) {
	r.searchCalls++
	cars := make([]models.Car, 0, len(r.cars))
	for _, car := range r.cars {
		cars = append(cars, *car)
	}
	if params.Limit > 0 && len(cars) > params.Limit {
		cars = cars[:params.Limit]
	}
	return cars, int64(len(r.cars)), nil
}

func (r *fakeCarRepo) Save(car *models.Car) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	copied := *car
	copied.Images = append([]models.CarImage(nil), car.Images...)
	r.cars[car.ID] = &copied
	return nil
}

func (r *fakeCarRepo) Delete(id uuid.UUID) error {
	if _, ok := r.cars[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.cars, id)
	return nil
}

type fakeBlobStore struct {
	uploaded []string
	deleted  []string
	failOn   int // 1-based index of the upload that fails, 0 disables
}

func (b *fakeBlobStore) Upload(file multipart.File, header *multipart.FileHeader, options UploadOptions) (*UploadResult, error) {
	if b.failOn > 0 && len(b.uploaded)+1 == b.failOn {
		return nil, fmt.Errorf("simulated upload failure")
	}
	key := fmt.Sprintf("%s/%03d_%s", options.Folder, len(b.uploaded), header.Filename)
	b.uploaded = append(b.uploaded, key)
	return &UploadResult{
		URL:        "https://cdn.test/" + key,
		StoredName: key,
		Size:       header.Size,
		MimeType:   "image/jpeg",
	}, nil
}

func (b *fakeBlobStore) Delete(storedName string) error {
	b.deleted = append(b.deleted, storedName)
	return nil
}

type stubBookings struct {
	active     int64
	countErr   error
	deletedFor []uuid.UUID
}

func (s *stubBookings) CountActiveForCar(carID uuid.UUID) (int64, error) {
	return s.active, s.countErr
}

func (s *stubBookings) DeleteForCar(carID uuid.UUID) error {
	s.deletedFor = append(s.deletedFor, carID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Listings: config.ListingsConfig{
			PriceMultiple: 1,
			MaxImageSize:  10 * 1024 * 1024,
		},
	}
}

func newTestCarService(repo *fakeCarRepo, blobs *fakeBlobStore, bookings *stubBookings, cfg *config.Config) *CarService {
	return NewCarService(repo, blobs, bookings, cache.New(time.Minute, time.Minute), cfg)
}

// makeFileHeaders builds real multipart file headers the way gin hands them to
// the service.
func makeFileHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range names {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(jpegMagic)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	return req.MultipartForm.File["images"]
}

func validCreateRequest() *CreateCarRequest {
	return &CreateCarRequest{
		Name:         "X5",
		Brand:        "BMW",
		Type:         models.CarTypeSUV,
		Price:        250,
		Description:  "Spacious family SUV",
		Seats:        5,
		Fuel:         models.FuelTypePetrol,
		Transmission: models.TransmissionAutomatic,
		Available:    true,
	}
}

func seedCar(repo *fakeCarRepo, images ...models.CarImage) *models.Car {
	id := uuid.New()
	car := &models.Car{
		BaseModel:   models.BaseModel{ID: id},
		Name:        "X5",
		Brand:       "BMW",
		Type:        models.CarTypeSUV,
		Price:       250,
		Description: "Spacious family SUV",
		Specs: models.CarSpecs{
			Seats:        5,
			Fuel:         models.FuelTypePetrol,
			Transmission: models.TransmissionAutomatic,
		},
		Available: true,
		Slug:      "bmw-x5-" + id.String()[:8],
		Images:    images,
	}
	if primary := car.PrimaryImage(); primary != nil {
		car.Thumbnail = primary.URL
	}
	repo.cars[id] = car
	return car
}

func TestCreateCar(t *testing.T) {
	repo := newFakeCarRepo()
	blobs := &fakeBlobStore{}
	svc := newTestCarService(repo, blobs, &stubBookings{}, testConfig())

	car, err := svc.CreateCar(validCreateRequest(), makeFileHeaders(t, "front.jpg", "rear.jpg"))
	require.NoError(t, err)

	assert.Equal(t, "bmw-x5-"+car.ID.String()[:8], car.Slug)
	require.Len(t, car.Images, 2)
	assert.True(t, car.Images[0].IsPrimary)
	assert.False(t, car.Images[1].IsPrimary)
	assert.Equal(t, car.Images[0].URL, car.Thumbnail)
	assert.Equal(t, 0, car.Images[0].SortOrder)
	assert.Equal(t, 1, car.Images[1].SortOrder)

	assert.Len(t, blobs.uploaded, 2)
	assert.Empty(t, blobs.deleted)

	stored, err := repo.FindByID(car.ID)
	require.NoError(t, err)
	assert.Equal(t, car.Slug, stored.Slug)
}

func TestCreateCarRequiresImage(t *testing.T) {
	repo := newFakeCarRepo()
	blobs := &fakeBlobStore{}
	svc := newTestCarService(repo, blobs, &stubBookings{}, testConfig())

	_, err := svc.CreateCar(validCreateRequest(), nil)
	assert.ErrorIs(t, err, ErrMissingImage)
	assert.Empty(t, blobs.uploaded)
	assert.Zero(t, repo.saveCalls)
}

func TestCreateCarValidationBeforeUpload(t *testing.T) {
	repo := newFakeCarRepo()
	blobs := &fakeBlobStore{}
	svc := newTestCarService(repo, blobs, &stubBookings{}, testConfig())

	req := validCreateRequest()
	req.Name = ""
	req.Type = models.CarType("Spaceship")
	req.Seats = 0

	_, err := svc.CreateCar(req, makeFileHeaders(t, "front.jpg"))

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.GreaterOrEqual(t, len(validationErr.Fields), 3)

	// Validation fails before any blob work happens.
	assert.Empty(t, blobs.uploaded)
	assert.Zero(t, repo.saveCalls)
}

func TestCreateCarPriceMultiplePolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Listings.PriceMultiple = 500

	repo := newFakeCarRepo()
	svc := newTestCarService(repo, &fakeBlobStore{}, &stubBookings{}, cfg)

	req := validCreateRequest()
	req.Price = 301
	_, err := svc.CreateCar(req, makeFileHeaders(t, "front.jpg"))

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Fields, 1)
	assert.Equal(t, "price", validationErr.Fields[0].Field)

	req.Price = 1000
	_, err = svc.CreateCar(req, makeFileHeaders(t, "front.jpg"))
	assert.NoError(t, err)
}

func TestCreateCarRollsBackBlobsOnSaveFailure(t *testing.T) {
	repo := newFakeCarRepo()
	repo.saveErr = errors.New("connection reset")
	blobs := &fakeBlobStore{}
	svc := newTestCarService(repo, blobs, &stubBookings{}, testConfig())

	_, err := svc.CreateCar(validCreateRequest(), makeFileHeaders(t, "front.jpg", "rear.jpg"))

	var repoErr *RepositoryError
	require.ErrorAs(t, err, &repoErr)

	// Exactly the blobs uploaded by this call are deleted again.
	assert.ElementsMatch(t, blobs.uploaded, blobs.deleted)
	assert.Empty(t, repo.cars)
}

func TestCreateCarDuplicateSlug(t *testing.T) {
	repo := newFakeCarRepo()
	repo.saveErr = repository.ErrDuplicateKey
	blobs := &fakeBlobStore{}
	svc := newTestCarService(repo, blobs, &stubBookings{}, testConfig())

	_, err := svc.CreateCar(validCreateRequest(), makeFileHeaders(t, "front.jpg"))
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.ElementsMatch(t, blobs.uploaded, blobs.deleted)
}

func TestCreateCarCleansPartialUploadBatch(t *testing.T) {
	repo := newFakeCarRepo()
	blobs := &fakeBlobStore{failOn: 2}
	svc := newTestCarService(repo, blobs, &stubBookings{}, testConfig())

	_, err := svc.CreateCar(validCreateRequest(), makeFileHeaders(t, "front.jpg", "rear.jpg"))

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)

	// The first file made it into storage and is deleted again.
	require.Len(t, blobs.uploaded, 1)
	assert.Equal(t, blobs.uploaded, blobs.deleted)
	assert.Zero(t, repo.saveCalls)
}

func TestUpdateCarReconcilesImages(t *testing.T) {
	repo := newFakeCarRepo()
	blobs := &fakeBlobStore{}
	svc := newTestCarService(repo, blobs, &stubBookings{}, testConfig())

	imgA := testImage("cars/a.jpg", true)
	imgB := testImage("cars/b.jpg", false)
	car := seedCar(repo, imgA, imgB)

	updated, err := svc.UpdateCar(car.ID, &UpdateCarRequest{}, makeFileHeaders(t, "side.jpg"), []string{imgA.ID.String()}, nil)
	require.NoError(t, err)

	require.Len(t, updated.Images, 2)
	assert.Equal(t, "cars/b.jpg", updated.Images[0].StoredName)
	assert.True(t, updated.Images[0].IsPrimary)
	assert.False(t, updated.Images[1].IsPrimary)
	assert.Equal(t, updated.Images[0].URL, updated.Thumbnail)

	// The removed image's blob is deleted, the new upload is kept.
	assert.Contains(t, blobs.deleted, "cars/a.jpg")
	assert.NotContains(t, blobs.deleted, blobs.uploaded[0])

	// Name and brand are untouched, so the slug stays stable.
	assert.Equal(t, car.Slug, updated.Slug)
}

func TestUpdateCarPrimaryHint(t *testing.T) {
	repo := newFakeCarRepo()
	svc := newTestCarService(repo, &fakeBlobStore{}, &stubBookings{}, testConfig())

	imgA := testImage("cars/a.jpg", true)
	imgB := testImage("cars/b.jpg", false)
	car := seedCar(repo, imgA, imgB)

	hint := 1
	updated, err := svc.UpdateCar(car.ID, &UpdateCarRequest{}, nil, nil, &hint)
	require.NoError(t, err)

	assert.False(t, updated.Images[0].IsPrimary)
	assert.True(t, updated.Images[1].IsPrimary)
	assert.Equal(t, updated.Images[1].URL, updated.Thumbnail)
}

func TestUpdateCarRegeneratesSlugOnRename(t *testing.T) {
	repo := newFakeCarRepo()
	svc := newTestCarService(repo, &fakeBlobStore{}, &stubBookings{}, testConfig())

	car := seedCar(repo, testImage("cars/a.jpg", true))

	name := "X7"
	updated, err := svc.UpdateCar(car.ID, &UpdateCarRequest{Name: &name}, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "bmw-x7-"+car.ID.String()[:8], updated.Slug)
}

func TestUpdateCarKeepsSlugWithoutRename(t *testing.T) {
	repo := newFakeCarRepo()
	svc := newTestCarService(repo, &fakeBlobStore{}, &stubBookings{}, testConfig())

	car := seedCar(repo, testImage("cars/a.jpg", true))

	price := int64(999)
	updated, err := svc.UpdateCar(car.ID, &UpdateCarRequest{Price: &price}, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, car.Slug, updated.Slug)
	assert.Equal(t, int64(999), updated.Price)
}

func TestUpdateCarRejectsEmptyImageSet(t *testing.T) {
	repo := newFakeCarRepo()
	blobs := &fakeBlobStore{}
	svc := newTestCarService(repo, blobs, &stubBookings{}, testConfig())

	imgA := testImage("cars/a.jpg", true)
	car := seedCar(repo, imgA)

	_, err := svc.UpdateCar(car.ID, &UpdateCarRequest{}, nil, []string{imgA.ID.String()}, nil)
	assert.ErrorIs(t, err, ErrEmptyImageSet)

	// The listing is untouched, nothing was saved and no blob was deleted.
	assert.Zero(t, repo.saveCalls)
	assert.Empty(t, blobs.deleted)

	stored, err := repo.FindByID(car.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Images, 1)
}

func TestUpdateCarNotFound(t *testing.T) {
	svc := newTestCarService(newFakeCarRepo(), &fakeBlobStore{}, &stubBookings{}, testConfig())

	_, err := svc.UpdateCar(uuid.New(), &UpdateCarRequest{}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCarBlockedByActiveBookings(t *testing.T) {
	repo := newFakeCarRepo()
	blobs := &fakeBlobStore{}
	svc := newTestCarService(repo, blobs, &stubBookings{active: 2}, testConfig())

	car := seedCar(repo, testImage("cars/a.jpg", true))

	err := svc.DeleteCar(car.ID)
	assert.ErrorIs(t, err, ErrConflict)

	// Blocked deletes leave the record and its blobs untouched.
	assert.Empty(t, blobs.deleted)
	_, err = repo.FindByID(car.ID)
	assert.NoError(t, err)
}

func TestDeleteCarCascadesBookings(t *testing.T) {
	cfg := testConfig()
	cfg.Listings.CascadeBookings = true

	repo := newFakeCarRepo()
	blobs := &fakeBlobStore{}
	bookings := &stubBookings{active: 2}
	svc := newTestCarService(repo, blobs, bookings, cfg)

	car := seedCar(repo, testImage("cars/a.jpg", true), testImage("cars/b.jpg", false))

	require.NoError(t, svc.DeleteCar(car.ID))

	assert.Equal(t, []uuid.UUID{car.ID}, bookings.deletedFor)
	assert.ElementsMatch(t, []string{"cars/a.jpg", "cars/b.jpg"}, blobs.deleted)

	_, err := repo.FindByID(car.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCarWithoutActiveBookings(t *testing.T) {
	repo := newFakeCarRepo()
	blobs := &fakeBlobStore{}
	svc := newTestCarService(repo, blobs, &stubBookings{active: 0}, testConfig())

	car := seedCar(repo, testImage("cars/a.jpg", true))

	require.NoError(t, svc.DeleteCar(car.ID))
	assert.Equal(t, []string{"cars/a.jpg"}, blobs.deleted)
}

func TestDeleteCarNotFound(t *testing.T) {
	svc := newTestCarService(newFakeCarRepo(), &fakeBlobStore{}, &stubBookings{}, testConfig())

	err := svc.DeleteCar(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetFeaturedCarsCached(t *testing.T) {
	repo := newFakeCarRepo()
	seedCar(repo, testImage("cars/a.jpg", true))
	svc := newTestCarService(repo, &fakeBlobStore{}, &stubBookings{}, testConfig())

	first, err := svc.GetFeaturedCars(6)
	require.NoError(t, err)
	second, err := svc.GetFeaturedCars(6)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.searchCalls)
}

func TestGetFeaturedCarsCachedPerLimit(t *testing.T) {
	repo := newFakeCarRepo()
	for i := 0; i < 3; i++ {
		seedCar(repo, testImage(fmt.Sprintf("cars/%d.jpg", i), true))
	}
	svc := newTestCarService(repo, &fakeBlobStore{}, &stubBookings{}, testConfig())

	wide, err := svc.GetFeaturedCars(3)
	require.NoError(t, err)
	assert.Len(t, wide, 3)

	// A smaller limit must not be answered from the larger cached list.
	narrow, err := svc.GetFeaturedCars(2)
	require.NoError(t, err)
	assert.Len(t, narrow, 2)
	assert.Equal(t, 2, repo.searchCalls)

	// Each limit's list is cached independently afterwards.
	again, err := svc.GetFeaturedCars(3)
	require.NoError(t, err)
	assert.Len(t, again, 3)
	assert.Equal(t, 2, repo.searchCalls)
}

func TestGetCarBySlug(t *testing.T) {
	repo := newFakeCarRepo()
	svc := newTestCarService(repo, &fakeBlobStore{}, &stubBookings{}, testConfig())

	car := seedCar(repo, testImage("cars/a.jpg", true))

	found, err := svc.GetCarBySlug(car.Slug)
	require.NoError(t, err)
	assert.Equal(t, car.ID, found.ID)

	_, err = svc.GetCarBySlug("no-such-slug")
	assert.ErrorIs(t, err, ErrNotFound)
}
