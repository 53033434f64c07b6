// Package testutil provides shared helpers for unit and integration tests.
package testutil

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/pastrypal/pastrypal-backend/pkg/database"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

// MockDB bundles a mocked database handle with its expectation recorder.
type MockDB struct {
	DB   *database.DB
	Mock sqlmock.Sqlmock
}

// NewMockDB creates a sqlmock-backed database for repository tests.
// Expectations are verified and the handle closed on test cleanup.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	wrapped := database.NewFromSqlx(sqlxDB, NewTestLogger())

	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		sqlxDB.Close()
	})

	return &MockDB{DB: wrapped, Mock: mock}
}

// NewTestLogger returns a logger suitable for tests.
func NewTestLogger() *logger.Logger {
	return logger.New("test", "development")
}
