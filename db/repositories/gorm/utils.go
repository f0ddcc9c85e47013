package repositories_gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/challenge-infra/submission-runner/db/repositories"
)

// handleDBError is a utility function that translates GORM database errors into custom repository errors.
// It takes a GORM database error as input and returns a corresponding custom error from the repositories package.
func handleDBError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.NotFoundError
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidField), errors.Is(err, gorm.ErrInvalidValue):
		return repositories.InvalidDataError
	default:
		zlog.Sugar().Debugf("database error: %v", err)
		return repositories.DatabaseError
	}
}
