package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned for missing rows and for rows owned by another user.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a natural-key unique constraint rejects an insert.
	ErrConflict = errors.New("record already exists")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}
