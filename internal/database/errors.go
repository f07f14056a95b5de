package database

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrSlotTaken              = errors.New("slot overlaps an existing booking")
	ErrConcurrentModification = errors.New("row was modified concurrently")
	ErrDuplicateEmail         = errors.New("email already registered")
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
