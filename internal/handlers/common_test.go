// internal/handlers/common_test.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/carlane/carlane-backend/internal/services"
	"github.com/carlane/carlane-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "not found",
			err:      services.ErrNotFound,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "missing image",
			err:      services.ErrMissingImage,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "empty image set",
			err:      services.ErrEmptyImageSet,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "duplicate",
			err:      services.ErrDuplicate,
			wantCode: http.StatusConflict,
		},
		{
			name:     "conflict with context",
			err:      fmt.Errorf("%w: 2 active bookings reference this car", services.ErrConflict),
			wantCode: http.StatusConflict,
		},
		{
			name: "validation",
			err: &services.ValidationError{Fields: []utils.ValidationError{
				{Field: "price", Tag: "gte", Message: "price must be at least 0"},
			}},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "rejected upload wrapped in storage error",
			err:      &services.StorageError{Op: "upload", Err: fmt.Errorf("%w: file type .sh is not allowed", services.ErrInvalidUpload)},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "storage failure",
			err:      &services.StorageError{Op: "upload", Err: errors.New("connection refused")},
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "repository failure",
			err:      &services.RepositoryError{Op: "save", Err: errors.New("connection reset")},
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "unknown error",
			err:      errors.New("something else"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			handleServiceError(c, "Car", tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
