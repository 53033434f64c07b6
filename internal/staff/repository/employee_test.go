package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/testutil"
)

func TestNextEmployeeCodeStartsAtOne(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := NewEmployeeRepository(mock.DB)

	mock.Mock.ExpectQuery(`SELECT employee_code FROM employees`).
		WithArgs("EMP-2024-%").
		WillReturnError(sql.ErrNoRows)

	code, err := repo.NextEmployeeCode(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, "EMP-2024-000001", code)
}

func TestNextEmployeeCodeIncrementsLatest(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := NewEmployeeRepository(mock.DB)

	mock.Mock.ExpectQuery(`SELECT employee_code FROM employees`).
		WithArgs("EMP-2024-%").
		WillReturnRows(sqlmock.NewRows([]string{"employee_code"}).AddRow("EMP-2024-000041"))

	code, err := repo.NextEmployeeCode(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, "EMP-2024-000042", code)
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := NewEmployeeRepository(mock.DB)

	// Code generation keys off the current year.
	year := time.Now().UTC().Year()

	// First attempt loses a race on the code, second succeeds with the
	// next sequence number.
	mock.Mock.ExpectQuery(`SELECT employee_code FROM employees`).
		WillReturnRows(sqlmock.NewRows([]string{"employee_code"}).AddRow(fmt.Sprintf("EMP-%d-000007", year)))
	mock.Mock.ExpectQuery(`INSERT INTO employees`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "employees_employee_code_uq"})
	mock.Mock.ExpectQuery(`SELECT employee_code FROM employees`).
		WillReturnRows(sqlmock.NewRows([]string{"employee_code"}).AddRow(fmt.Sprintf("EMP-%d-000008", year)))
	mock.Mock.ExpectQuery(`INSERT INTO employees`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	emp := &Employee{
		FirstName:   "Ana",
		LastName:    "Reyes",
		HourlyRate:  15,
		PasskeyHash: sql.NullString{String: "hash", Valid: true},
	}
	require.NoError(t, repo.Create(context.Background(), emp))
	assert.Equal(t, fmt.Sprintf("EMP-%d-000009", year), emp.EmployeeCode)
}

func TestCreateSurfacesOtherUniqueViolations(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := NewEmployeeRepository(mock.DB)

	mock.Mock.ExpectQuery(`INSERT INTO employees`).
		WillReturnError(&pq.Error{Code: "23514", Constraint: "employees_hourly_rate_valid"})

	emp := &Employee{
		EmployeeCode: "EMP-2024-000001",
		FirstName:    "Ana",
		LastName:     "Reyes",
		HourlyRate:   -1,
	}
	err := repo.Create(context.Background(), emp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestGetByCodeNotFound(t *testing.T) {
	mock := testutil.NewMockDB(t)
	repo := NewEmployeeRepository(mock.DB)

	mock.Mock.ExpectQuery(`SELECT .+ FROM employees WHERE employee_code`).
		WithArgs("EMP-2024-999999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByCode(context.Background(), "EMP-2024-999999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
