package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	db, mock, cleanup := newGradingRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS grading_systems")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaError(t *testing.T) {
	db, mock, cleanup := newGradingRepoMock(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE").WillReturnError(assert.AnError)

	err := EnsureSchema(context.Background(), db)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
