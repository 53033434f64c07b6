package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pastrypal/pastrypal-backend/pkg/database"
)

// SeedEmployee inserts an active employee with the given code and rate and
// returns its ID. The kiosk passkey is set to passkey.
func SeedEmployee(t *testing.T, db *database.DB, code string, hourlyRate float64, passkey string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(passkey), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash passkey: %v", err)
	}

	id := uuid.New().String()
	_, err = db.ExecContext(context.Background(), `
		INSERT INTO employees (id, employee_code, first_name, last_name, hourly_rate, status, passkey_hash)
		VALUES ($1, $2, 'Test', 'Employee', $3, 'ACTIVE', $4)
	`, id, code, hourlyRate, string(hash))
	if err != nil {
		t.Fatalf("failed to seed employee: %v", err)
	}

	return id
}

// SeedUser inserts a login account with the given role and returns its ID.
func SeedUser(t *testing.T, db *database.DB, email, role string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	id := uuid.New().String()
	_, err = db.ExecContext(context.Background(), `
		INSERT INTO users (id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
	`, id, email, string(hash), role)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return id
}

// SeedClosedShift inserts a closed attendance log and returns its ID.
func SeedClosedShift(t *testing.T, db *database.DB, employeeID string, timeIn, timeOut time.Time) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO attendance_logs (id, employee_id, time_in, time_out, source)
		VALUES ($1, $2, $3, $4, 'QR')
	`, id, employeeID, timeIn, timeOut)
	if err != nil {
		t.Fatalf("failed to seed attendance log: %v", err)
	}

	return id
}
