// internal/handlers/car.go
package handlers

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carlane/carlane-backend/internal/models"
	"github.com/carlane/carlane-backend/internal/repository"
	"github.com/carlane/carlane-backend/internal/services"
	"github.com/carlane/carlane-backend/internal/utils"
)

type CarHandler struct {
	carService *services.CarService
}

func NewCarHandler(carService *services.CarService) *CarHandler {
	return &CarHandler{carService: carService}
}

// GET /cars
func (h *CarHandler) GetCars(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := repository.CarSearchParams{
		PaginationParams: params,
		Brand:            c.Query("brand"),
	}

	if t := c.Query("type"); t != "" {
		carType := models.CarType(t)
		searchParams.Type = &carType
	}
	if f := c.Query("fuel"); f != "" {
		fuel := models.FuelType(f)
		searchParams.Fuel = &fuel
	}
	if t := c.Query("transmission"); t != "" {
		transmission := models.TransmissionType(t)
		searchParams.Transmission = &transmission
	}
	if priceMinStr := c.Query("price_min"); priceMinStr != "" {
		if priceMin, err := strconv.ParseInt(priceMinStr, 10, 64); err == nil {
			searchParams.PriceMin = &priceMin
		}
	}
	if priceMaxStr := c.Query("price_max"); priceMaxStr != "" {
		if priceMax, err := strconv.ParseInt(priceMaxStr, 10, 64); err == nil {
			searchParams.PriceMax = &priceMax
		}
	}
	if availableStr := c.Query("available"); availableStr != "" {
		if available, err := strconv.ParseBool(availableStr); err == nil {
			searchParams.Available = &available
		}
	}
	if featuredStr := c.Query("featured"); featuredStr != "" {
		if featured, err := strconv.ParseBool(featuredStr); err == nil {
			searchParams.Featured = &featured
		}
	}

	cars, total, err := h.carService.SearchCars(searchParams)
	if err != nil {
		handleServiceError(c, "Car", err)
		return
	}

	result := utils.CreatePaginationResult(cars, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /cars/featured
func (h *CarHandler) GetFeaturedCars(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 50 {
		limit = 10
	}

	cars, err := h.carService.GetFeaturedCars(limit)
	if err != nil {
		handleServiceError(c, "Car", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"cars": cars,
	})
}

// GET /cars/:id
func (h *CarHandler) GetCar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid car ID", nil)
		return
	}

	car, err := h.carService.GetCar(id)
	if err != nil {
		handleServiceError(c, "Car", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"car": car,
	})
}

// GET /cars/slug/:slug
func (h *CarHandler) GetCarBySlug(c *gin.Context) {
	car, err := h.carService.GetCarBySlug(c.Param("slug"))
	if err != nil {
		handleServiceError(c, "Car", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"car": car,
	})
}

// POST /cars (multipart/form-data)
func (h *CarHandler) CreateCar(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Expected multipart form data", err.Error())
		return
	}

	req, err := parseCreateCarForm(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	car, err := h.carService.CreateCar(req, form.File["images"])
	if err != nil {
		handleServiceError(c, "Car", err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Car listing created",
		"car":     car,
	})
}

// PUT /cars/:id (multipart/form-data)
func (h *CarHandler) UpdateCar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid car ID", nil)
		return
	}

	req, err := parseUpdateCarForm(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		files = form.File["images"]
	}

	deletions := parseDeletionList(c.PostForm("imagesToDelete"))
	primaryIndex := parsePrimaryIndex(c.PostForm("primaryIndex"))

	car, err := h.carService.UpdateCar(id, req, files, deletions, primaryIndex)
	if err != nil {
		handleServiceError(c, "Car", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Car listing updated",
		"car":     car,
	})
}

// DELETE /cars/:id
func (h *CarHandler) DeleteCar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid car ID", nil)
		return
	}

	if err := h.carService.DeleteCar(id); err != nil {
		handleServiceError(c, "Car", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Car listing deleted",
	})
}

// The admin dashboard submits stringly multipart fields; everything is
// coerced into typed requests here so the service layer only sees
// normalized input.

type carSpecsForm struct {
	Seats        int                     `json:"seats"`
	Fuel         models.FuelType         `json:"fuel"`
	Transmission models.TransmissionType `json:"transmission"`
}

func parseCreateCarForm(c *gin.Context) (*services.CreateCarRequest, error) {
	price, err := parseFormInt64(c.PostForm("price"))
	if err != nil {
		return nil, err
	}

	req := &services.CreateCarRequest{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Brand:       strings.TrimSpace(c.PostForm("brand")),
		Type:        models.CarType(c.PostForm("type")),
		Price:       price,
		Description: strings.TrimSpace(c.PostForm("description")),
		Available:   parseFormBool(c.DefaultPostForm("available", "true")),
		Featured:    parseFormBool(c.PostForm("featured")),
	}

	if ratingStr := c.PostForm("rating"); ratingStr != "" {
		rating, err := strconv.ParseFloat(ratingStr, 64)
		if err != nil {
			return nil, errInvalidField("rating")
		}
		req.Rating = rating
	}
	if reviewsStr := c.PostForm("review_count"); reviewsStr != "" {
		reviews, err := strconv.ParseInt(reviewsStr, 10, 64)
		if err != nil {
			return nil, errInvalidField("review_count")
		}
		req.ReviewCount = reviews
	}

	specs, err := parseSpecsForm(c)
	if err != nil {
		return nil, err
	}
	if specs != nil {
		req.Seats = specs.Seats
		req.Fuel = specs.Fuel
		req.Transmission = specs.Transmission
	}

	return req, nil
}

func parseUpdateCarForm(c *gin.Context) (*services.UpdateCarRequest, error) {
	req := &services.UpdateCarRequest{}

	if v, ok := c.GetPostForm("name"); ok {
		name := strings.TrimSpace(v)
		req.Name = &name
	}
	if v, ok := c.GetPostForm("brand"); ok {
		brand := strings.TrimSpace(v)
		req.Brand = &brand
	}
	if v, ok := c.GetPostForm("type"); ok {
		carType := models.CarType(v)
		req.Type = &carType
	}
	if v, ok := c.GetPostForm("price"); ok {
		price, err := parseFormInt64(v)
		if err != nil {
			return nil, err
		}
		req.Price = &price
	}
	if v, ok := c.GetPostForm("description"); ok {
		description := strings.TrimSpace(v)
		req.Description = &description
	}
	if v, ok := c.GetPostForm("rating"); ok {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errInvalidField("rating")
		}
		req.Rating = &rating
	}
	if v, ok := c.GetPostForm("review_count"); ok {
		reviews, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errInvalidField("review_count")
		}
		req.ReviewCount = &reviews
	}
	if v, ok := c.GetPostForm("available"); ok {
		available := parseFormBool(v)
		req.Available = &available
	}
	if v, ok := c.GetPostForm("featured"); ok {
		featured := parseFormBool(v)
		req.Featured = &featured
	}

	specs, err := parseSpecsForm(c)
	if err != nil {
		return nil, err
	}
	if specs != nil {
		req.Seats = &specs.Seats
		req.Fuel = &specs.Fuel
		req.Transmission = &specs.Transmission
	}

	return req, nil
}

// parseSpecsForm accepts either a JSON-encoded "specs" field or the flat
// seats/fuel/transmission fields.
func parseSpecsForm(c *gin.Context) (*carSpecsForm, error) {
	if specsJSON, ok := c.GetPostForm("specs"); ok && specsJSON != "" {
		var specs carSpecsForm
		if err := json.Unmarshal([]byte(specsJSON), &specs); err != nil {
			return nil, errInvalidField("specs")
		}
		return &specs, nil
	}

	seatsStr, hasSeats := c.GetPostForm("seats")
	fuel, hasFuel := c.GetPostForm("fuel")
	transmission, hasTransmission := c.GetPostForm("transmission")
	if !hasSeats && !hasFuel && !hasTransmission {
		return nil, nil
	}

	specs := &carSpecsForm{
		Fuel:         models.FuelType(fuel),
		Transmission: models.TransmissionType(transmission),
	}
	if seatsStr != "" {
		seats, err := strconv.Atoi(seatsStr)
		if err != nil {
			return nil, errInvalidField("seats")
		}
		specs.Seats = seats
	}
	return specs, nil
}

// parseDeletionList accepts a JSON array or a comma-separated list of image
// ids / stored keys.
func parseDeletionList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return list
		}
	}

	parts := strings.Split(raw, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}

func parsePrimaryIndex(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &idx
}

func parseFormInt64(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errInvalidField("price")
	}
	return v, nil
}

func parseFormBool(raw string) bool {
	v, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return false
	}
	return v
}

type invalidFieldError string

func errInvalidField(field string) error {
	return invalidFieldError(field)
}

func (e invalidFieldError) Error() string {
	return "invalid value for field " + string(e)
}
