package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrCloudDisabled   = errors.New("cloud sync disabled")
	ErrProviderFailure = errors.New("provider failure")
)
