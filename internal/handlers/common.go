// internal/handlers/common.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/carlane/carlane-backend/internal/services"
	"github.com/carlane/carlane-backend/internal/utils"
)

// handleServiceError translates service error kinds into HTTP responses.
// Raw repository and storage errors are never forwarded to clients.
func handleServiceError(c *gin.Context, resource string, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		utils.ValidationErrorResponse(c, validationErr.Fields)
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, resource)
	case errors.Is(err, services.ErrMissingImage):
		utils.BadRequestResponse(c, "At least one image is required", nil)
	case errors.Is(err, services.ErrEmptyImageSet):
		utils.BadRequestResponse(c, "The update would leave the listing without images", nil)
	case errors.Is(err, services.ErrInvalidUpload):
		utils.BadRequestResponse(c, "The uploaded file is not an accepted image", nil)
	case errors.Is(err, services.ErrDuplicate):
		utils.ConflictResponse(c, "A listing with this slug already exists")
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, err.Error())
	default:
		var storageErr *services.StorageError
		if errors.As(err, &storageErr) {
			utils.ServiceUnavailableResponse(c, "")
			return
		}
		utils.InternalErrorResponse(c, "")
	}
}
