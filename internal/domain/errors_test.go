package domain

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExpected(t *testing.T) {
	assert.True(t, IsExpected(ErrNotFound))
	assert.True(t, IsExpected(fmt.Errorf("%w: booking 7", ErrNotFound)))
	assert.True(t, IsExpected(ErrInvalidTransition))
	assert.True(t, IsExpected(ErrSlotNotAvailable))
	assert.True(t, IsExpected(ErrDuplicateEmail))
	assert.True(t, IsExpected(ErrRateLimited))
	assert.False(t, IsExpected(sql.ErrConnDone))
	assert.False(t, IsExpected(errors.New("disk full")))
}

func TestSentinelHierarchy(t *testing.T) {
	assert.ErrorIs(t, ErrInvalidTransition, ErrInvalidInput)
	assert.ErrorIs(t, ErrSlotNotAvailable, ErrConflict)
	assert.ErrorIs(t, ErrDuplicateEmail, ErrConflict)
	assert.NotErrorIs(t, ErrSlotNotAvailable, ErrNotFound)
}
