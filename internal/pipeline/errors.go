package pipeline

import (
	"errors"

	"keeling-pipeline/internal/models"
)

// ErrorKind names the class of a stage failure for metrics labels
func ErrorKind(err error) string {
	var (
		netErr          *models.NetworkError
		schemaErr       *models.SchemaError
		insufficientErr *models.InsufficientDataError
		missingErr      *models.MissingInputError
	)

	switch {
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.As(err, &insufficientErr):
		return "insufficient_data"
	case errors.As(err, &missingErr):
		return "missing_input"
	default:
		return "internal"
	}
}

// IsTransient reports whether the failure may succeed on a later run
func IsTransient(err error) bool {
	var t interface{ IsTransient() bool }
	if errors.As(err, &t) {
		return t.IsTransient()
	}
	return false
}
