package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Image store errors
var (
	ErrUpload        = errors.New("image upload failed")
	ErrUploadRefused = errors.New("image upload refused")
)

// Configuration & Environment Errors
var (
	ErrConfigMissing = errors.New("configuration missing")
)

// NewUploadError wraps a non-success response or transport failure from the image store.
func NewUploadError(service string, statusCode int, cause error) *ApiErr {
	details := fmt.Sprintf("%s upload failed", service)
	if statusCode > 0 {
		details = fmt.Sprintf("%s upload failed with status %d", service, statusCode)
	}
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrUpload,
		Details:    details,
		Cause:      cause,
	}
}

// NewUploadRefusedError is returned before any network call when the store is not configured.
func NewUploadRefusedError(service string, missing ...string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        fmt.Errorf("%w: %w: %w", ErrUpload, ErrUploadRefused, ErrConfigMissing),
		Details:    fmt.Sprintf("Please configure %s settings: %v", service, missing),
	}
}

func NewConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration error for %s", configName),
		Cause:      cause,
	}
}

func IsUpload(err error) bool {
	return errors.Is(err, ErrUpload)
}

func IsUploadRefused(err error) bool {
	return errors.Is(err, ErrUploadRefused)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}
