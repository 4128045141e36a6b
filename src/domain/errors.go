package domain

import (
	"github.com/cockroachdb/errors"
)

// Markers for the three failure classes of the upload pipeline and search.
// Callers test them with errors.Is or the Is* helpers below.
var (
	ErrValidation  = errors.New("validation error")
	ErrUpload      = errors.New("upload error")
	ErrPersistence = errors.New("persistence error")
	ErrJobNotFound = errors.New("job not found")
)

// NewValidationError marks err as a ValidationError.
func NewValidationError(err error) error {
	return errors.Mark(errors.Wrap(err, "invalid job submission"), ErrValidation)
}

// NewUploadError marks a blob store failure. No record is written after it.
func NewUploadError(err error) error {
	return errors.Mark(errors.Wrap(err, "blob upload failed"), ErrUpload)
}

// NewPersistenceError marks a job record store failure.
func NewPersistenceError(err error) error {
	return errors.Mark(errors.Wrap(err, "job record store failed"), ErrPersistence)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsUploadError(err error) bool {
	return errors.Is(err, ErrUpload)
}

func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrPersistence)
}
