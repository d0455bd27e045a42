package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/okaracan/coursebook/internal/app/models/dto"
	"github.com/okaracan/coursebook/internal/pkg/apperrors"
)

// HandleAPIError maps service errors onto HTTP responses. Messages carried by
// a CustomError reach the caller; everything unrecognized collapses into a
// 500 without leaking internals.
func HandleAPIError(c *gin.Context, err error) {
	message := func(fallback string) string {
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Message != "" {
			return custom.Message
		}
		return fallback
	}

	switch {
	case errors.Is(err, apperrors.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, dto.APIResponse{
			Error:     dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message("Course not found")),
			Timestamp: time.Now(),
		})
	case errors.Is(err, apperrors.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, dto.APIResponse{
			Error:     dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message("Validation failed")),
			Timestamp: time.Now(),
		})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, dto.APIResponse{
			Error:     dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, message("Conflicting change")),
			Timestamp: time.Now(),
		})
	case errors.Is(err, apperrors.ErrBadRequest):
		c.JSON(http.StatusBadRequest, dto.APIResponse{
			Error:     dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message("Bad request")),
			Timestamp: time.Now(),
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.APIResponse{
			Error:     dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
			Timestamp: time.Now(),
		})
	}
}
