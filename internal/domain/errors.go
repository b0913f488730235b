package domain

import (
	"errors"
	"fmt"
)

// Pipeline sentinel errors. The orchestrator demotes every one of them to a
// fallback-path selection; none of them may surface to the caller as long as
// an image was supplied.
var (
	ErrProbeTimeout     = errors.New("backend probe timed out")
	ErrRemoteHTTP       = errors.New("remote inference http error")
	ErrRemoteLogic      = errors.New("remote inference rejected request")
	ErrModelLoad        = errors.New("landmark model load failed")
	ErrNoFaceDetected   = errors.New("no face detected")
	ErrLandmarkGeometry = errors.New("landmark geometry computation failed")
	ErrImageDecode      = errors.New("image decode failed")
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrNoImage = &AppError{
		Code:       "NO_IMAGE",
		Message:    "No image data provided",
		StatusCode: 400,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrScanNotFound = &AppError{
		Code:       "SCAN_NOT_FOUND",
		Message:    "Scan not found",
		StatusCode: 404,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}
)
