package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastrypal/pastrypal-backend/internal/attendance/repository"
	kiosksvc "github.com/pastrypal/pastrypal-backend/internal/kiosk/service"
	staffrepo "github.com/pastrypal/pastrypal-backend/internal/staff/repository"
	"github.com/pastrypal/pastrypal-backend/pkg/actor"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

type fakeLogStore struct {
	logs map[string]*repository.Log
	seq  int
}

func newFakeLogStore() *fakeLogStore {
	return &fakeLogStore{logs: map[string]*repository.Log{}}
}

func (s *fakeLogStore) Create(_ context.Context, log *repository.Log) error {
	for _, existing := range s.logs {
		if existing.EmployeeID == log.EmployeeID && existing.TimeOut == nil {
			return errors.Conflict("open shift exists, please time out first")
		}
	}
	s.seq++
	log.ID = fmt.Sprintf("log-%d", s.seq)
	log.CreatedAt = log.TimeIn
	copied := *log
	s.logs[log.ID] = &copied
	return nil
}

func (s *fakeLogStore) GetByID(_ context.Context, id string) (*repository.Log, error) {
	log, ok := s.logs[id]
	if !ok {
		return nil, errors.NotFound("attendance log")
	}
	copied := *log
	return &copied, nil
}

func (s *fakeLogStore) GetOpenShift(_ context.Context, employeeID string) (*repository.Log, error) {
	for _, log := range s.logs {
		if log.EmployeeID == employeeID && log.TimeOut == nil {
			copied := *log
			return &copied, nil
		}
	}
	return nil, errors.NotFound("open shift")
}

func (s *fakeLogStore) CloseShift(_ context.Context, id string, timeOut time.Time, deviceInfo, timeOutPhoto sql.NullString) error {
	log, ok := s.logs[id]
	if !ok || log.TimeOut != nil {
		return errors.Conflict("no open shift to time out")
	}
	log.TimeOut = &timeOut
	if deviceInfo.Valid {
		log.DeviceInfo = deviceInfo
	}
	log.TimeOutPhoto = timeOutPhoto
	return nil
}

func (s *fakeLogStore) List(_ context.Context, _ *repository.LogFilter) ([]*repository.LogWithEmployee, int, error) {
	return nil, 0, nil
}

func (s *fakeLogStore) Update(_ context.Context, log *repository.Log) error {
	stored, ok := s.logs[log.ID]
	if !ok {
		return errors.NotFound("attendance log")
	}
	*stored = *log
	return nil
}

func (s *fakeLogStore) Delete(_ context.Context, id string) error {
	if _, ok := s.logs[id]; !ok {
		return errors.NotFound("attendance log")
	}
	delete(s.logs, id)
	return nil
}

func (s *fakeLogStore) GetPhoto(_ context.Context, id, kind string) (string, error) {
	log, ok := s.logs[id]
	if !ok {
		return "", errors.NotFound("attendance log")
	}
	photo := log.TimeInPhoto
	if kind == "timeOut" {
		photo = log.TimeOutPhoto
	}
	if !photo.Valid || photo.String == "" {
		return "", errors.NotFound("photo")
	}
	return photo.String, nil
}

type fakeEmployeeStore struct {
	byID map[string]*staffrepo.Employee
}

func newFakeEmployeeStore(employees ...*staffrepo.Employee) *fakeEmployeeStore {
	s := &fakeEmployeeStore{byID: map[string]*staffrepo.Employee{}}
	for _, e := range employees {
		s.byID[e.ID] = e
	}
	return s
}

func (s *fakeEmployeeStore) GetByID(_ context.Context, id string) (*staffrepo.Employee, error) {
	if e, ok := s.byID[id]; ok {
		return e, nil
	}
	return nil, errors.NotFound("employee")
}

func (s *fakeEmployeeStore) GetByCode(_ context.Context, code string) (*staffrepo.Employee, error) {
	for _, e := range s.byID {
		if e.EmployeeCode == code {
			return e, nil
		}
	}
	return nil, errors.NotFound("employee")
}

type stubPasskey struct {
	ok          bool
	lockedUntil *time.Time
}

func (s *stubPasskey) Check(_ context.Context, _, _, _ string) (*kiosksvc.CheckResult, error) {
	return &kiosksvc.CheckResult{OK: s.ok, LockedUntil: s.lockedUntil}, nil
}

type stubQR struct {
	valid bool
}

func (s *stubQR) Verify(_ string, _ int64, _ string) bool {
	return s.valid
}

type captureEvents struct {
	timeIns  int
	timeOuts int
	filed    int
	reviewed []string
}

func (c *captureEvents) TimeIn(_ context.Context, _, _, _ string, _ time.Time, _ string) {
	c.timeIns++
}

func (c *captureEvents) TimeOut(_ context.Context, _, _, _ string, _, _ time.Time, _ string) {
	c.timeOuts++
}

func (c *captureEvents) CorrectionRequested(_ context.Context, _, _, _ string) {
	c.filed++
}

func (c *captureEvents) CorrectionReviewed(_ context.Context, _, _, _, _, status string) {
	c.reviewed = append(c.reviewed, status)
}

type captureAudit struct {
	actions []string
}

func (c *captureAudit) Record(_ context.Context, _, action, _, _ string, _ any) {
	c.actions = append(c.actions, action)
}

type fakeCorrectionStore struct {
	corrections map[string]*repository.Correction
	logs        *fakeLogStore
	seq         int
}

func newFakeCorrectionStore(logs *fakeLogStore) *fakeCorrectionStore {
	return &fakeCorrectionStore{corrections: map[string]*repository.Correction{}, logs: logs}
}

func (s *fakeCorrectionStore) Create(_ context.Context, c *repository.Correction) error {
	s.seq++
	c.ID = fmt.Sprintf("corr-%d", s.seq)
	c.Status = repository.CorrectionPending
	copied := *c
	s.corrections[c.ID] = &copied
	return nil
}

func (s *fakeCorrectionStore) HasPendingForRequester(_ context.Context, logID, requesterID string) (bool, error) {
	for _, c := range s.corrections {
		if c.AttendanceLogID == logID && c.RequestedBy == requesterID && c.Status == repository.CorrectionPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeCorrectionStore) GetByID(_ context.Context, id string) (*repository.Correction, error) {
	c, ok := s.corrections[id]
	if !ok {
		return nil, errors.NotFound("correction request")
	}
	copied := *c
	return &copied, nil
}

func (s *fakeCorrectionStore) ListPending(_ context.Context, requesterID string) ([]*repository.Correction, error) {
	var out []*repository.Correction
	for _, c := range s.corrections {
		if c.Status != repository.CorrectionPending {
			continue
		}
		if requesterID != "" && c.RequestedBy != requesterID {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeCorrectionStore) Approve(ctx context.Context, c *repository.Correction, reviewerID, reviewNotes string, reviewedAt time.Time) error {
	stored, ok := s.corrections[c.ID]
	if !ok || stored.Status != repository.CorrectionPending {
		return errors.Conflict("correction request already reviewed")
	}
	stored.Status = repository.CorrectionApproved

	log, err := s.logs.GetByID(ctx, c.AttendanceLogID)
	if err != nil {
		return err
	}
	log.TimeIn = c.RequestedTimeIn
	log.TimeOut = c.RequestedTimeOut
	return s.logs.Update(ctx, log)
}

func (s *fakeCorrectionStore) Reject(_ context.Context, id, _, _ string, _ time.Time) error {
	stored, ok := s.corrections[id]
	if !ok || stored.Status != repository.CorrectionPending {
		return errors.Conflict("correction request already reviewed")
	}
	stored.Status = repository.CorrectionRejected
	return nil
}

type fixture struct {
	attendance  *AttendanceService
	corrections *CorrectionService
	logs        *fakeLogStore
	store       *fakeCorrectionStore
	passkeys    *stubPasskey
	qr          *stubQR
	events      *captureEvents
	audit       *captureAudit
	now         time.Time
}

func newFixture(employees ...*staffrepo.Employee) *fixture {
	f := &fixture{
		logs:     newFakeLogStore(),
		passkeys: &stubPasskey{ok: true},
		qr:       &stubQR{valid: true},
		events:   &captureEvents{},
		audit:    &captureAudit{},
		now:      time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
	}
	f.store = newFakeCorrectionStore(f.logs)

	log := logger.New("test", "development")
	f.attendance = NewAttendanceService(f.logs, newFakeEmployeeStore(employees...), f.passkeys, f.qr, f.events, f.audit, log)
	f.attendance.now = func() time.Time { return f.now }
	f.corrections = NewCorrectionService(f.store, f.events, f.audit, log)
	f.corrections.now = func() time.Time { return f.now }
	return f
}

func activeEmployee(id, code string) *staffrepo.Employee {
	return &staffrepo.Employee{
		ID:           id,
		EmployeeCode: code,
		FirstName:    "Ana",
		LastName:     "Reyes",
		HourlyRate:   15,
		Status:       staffrepo.StatusActive,
		PasskeyHash:  sql.NullString{String: "$2a$04$hash", Valid: true},
	}
}

func adminCtx() context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{ID: "admin-1", Email: "admin@example.com", Role: actor.RoleAdmin})
}

func supervisorCtx(id string) context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{ID: id, Email: id + "@example.com", Role: actor.RoleSupervisor})
}

func TestTimeInCreatesOpenShift(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	log, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{
		EmployeeCode: "EMP-2024-000001",
		Passkey:      "482913",
		DeviceInfo:   "kiosk-tablet",
	})
	require.NoError(t, err)
	assert.Equal(t, "emp-1", log.EmployeeID)
	assert.Equal(t, f.now, log.TimeIn)
	assert.Nil(t, log.TimeOut)
	assert.Equal(t, "QR", log.Source)
	assert.Equal(t, 1, f.events.timeIns)
}

func TestTimeInRejectsSecondOpenShift(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))
	req := &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"}

	_, err := f.attendance.TimeIn(context.Background(), req)
	require.NoError(t, err)

	_, err = f.attendance.TimeIn(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestTimeInUnknownAndInactiveLookAlike(t *testing.T) {
	inactive := activeEmployee("emp-2", "EMP-2024-000002")
	inactive.Status = staffrepo.StatusInactive
	f := newFixture(inactive)

	_, unknownErr := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-999999", Passkey: "482913"})
	_, inactiveErr := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000002", Passkey: "482913"})

	require.Error(t, unknownErr)
	require.Error(t, inactiveErr)
	assert.True(t, errors.Is(unknownErr, errors.ErrNotFound))
	assert.True(t, errors.Is(inactiveErr, errors.ErrNotFound))
}

func TestTimeInWrongPasskey(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))
	f.passkeys.ok = false

	_, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "000001"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestTimeInLockedOutCarriesExpiry(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))
	lockedUntil := f.now.Add(5 * time.Minute)
	f.passkeys.ok = false
	f.passkeys.lockedUntil = &lockedUntil

	_, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"})
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "LOCKED", appErr.Code)
	assert.Equal(t, lockedUntil.Format(time.RFC3339), appErr.Details["locked_until"])
}

func TestTimeOutClosesShift(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	_, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"})
	require.NoError(t, err)

	f.now = f.now.Add(8 * time.Hour)
	log, err := f.attendance.TimeOut(context.Background(), &TimeOutRequest{
		EmployeeID: "emp-1",
		Slot:       1,
		Signature:  "deadbeef",
		Passkey:    "482913",
	})
	require.NoError(t, err)
	require.NotNil(t, log.TimeOut)
	assert.Equal(t, f.now, *log.TimeOut)
	assert.Equal(t, 1, f.events.timeOuts)
}

func TestTimeOutRejectsExpiredQR(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))
	f.qr.valid = false

	_, err := f.attendance.TimeOut(context.Background(), &TimeOutRequest{
		EmployeeID: "emp-1", Slot: 1, Signature: "deadbeef", Passkey: "482913",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestTimeOutWithoutOpenShift(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	_, err := f.attendance.TimeOut(context.Background(), &TimeOutRequest{
		EmployeeID: "emp-1", Slot: 1, Signature: "deadbeef", Passkey: "482913",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestAdminEditAppliesDirectly(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	created, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"})
	require.NoError(t, err)

	newIn := time.Date(2024, 1, 15, 7, 30, 0, 0, time.UTC)
	newOut := time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC)
	outcome, err := f.attendance.Edit(adminCtx(), f.corrections, created.ID, &EditRequest{
		TimeIn:  newIn,
		TimeOut: &newOut,
		Reason:  "forgot to clock out",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	require.NotNil(t, outcome.Log)
	assert.Equal(t, newIn, outcome.Log.TimeIn)
	require.NotNil(t, outcome.Log.TimeOut)
	assert.Equal(t, newOut, *outcome.Log.TimeOut)
	assert.Equal(t, "admin-1", outcome.Log.EditedBy.String)
	assert.Contains(t, f.audit.actions, "ATTENDANCE_EDIT")
}

func TestEditRejectsInvertedInterval(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	created, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"})
	require.NoError(t, err)

	timeIn := time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC)
	timeOut := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	_, err = f.attendance.Edit(adminCtx(), f.corrections, created.ID, &EditRequest{
		TimeIn: timeIn, TimeOut: &timeOut, Reason: "typo",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestSupervisorEditFilesCorrection(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	created, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"})
	require.NoError(t, err)

	outcome, err := f.attendance.Edit(supervisorCtx("sup-1"), f.corrections, created.ID, &EditRequest{
		TimeIn: created.TimeIn.Add(-time.Hour),
		Reason: "arrived earlier",
	})
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	require.NotNil(t, outcome.Correction)
	assert.Equal(t, repository.CorrectionPending, outcome.Correction.Status)
	assert.Equal(t, 1, f.events.filed)

	// The log itself is untouched until review.
	stored, err := f.logs.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.TimeIn, stored.TimeIn)
}

func TestSupervisorSecondPendingConflicts(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	created, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"})
	require.NoError(t, err)

	req := &EditRequest{TimeIn: created.TimeIn.Add(-time.Hour), Reason: "arrived earlier"}
	_, err = f.attendance.Edit(supervisorCtx("sup-1"), f.corrections, created.ID, req)
	require.NoError(t, err)

	_, err = f.attendance.Edit(supervisorCtx("sup-1"), f.corrections, created.ID, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	// Another supervisor is not blocked by the first one's request.
	_, err = f.attendance.Edit(supervisorCtx("sup-2"), f.corrections, created.ID, req)
	assert.NoError(t, err)
}

func TestApproveAppliesRequestedTimes(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	created, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"})
	require.NoError(t, err)

	requestedIn := created.TimeIn.Add(-time.Hour)
	requestedOut := created.TimeIn.Add(7 * time.Hour)
	outcome, err := f.attendance.Edit(supervisorCtx("sup-1"), f.corrections, created.ID, &EditRequest{
		TimeIn: requestedIn, TimeOut: &requestedOut, Reason: "missed scan",
	})
	require.NoError(t, err)

	reviewed, err := f.corrections.Review(adminCtx(), outcome.Correction.ID, &ReviewRequest{Action: "approve", Notes: "ok"})
	require.NoError(t, err)
	assert.Equal(t, repository.CorrectionApproved, reviewed.Status)
	assert.Equal(t, "admin-1", reviewed.ReviewedBy.String)

	stored, err := f.logs.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, requestedIn, stored.TimeIn)
	require.NotNil(t, stored.TimeOut)
	assert.Equal(t, requestedOut, *stored.TimeOut)

	assert.Contains(t, f.audit.actions, "ATTENDANCE_CORRECTION_APPROVED")
	assert.Equal(t, []string{repository.CorrectionApproved}, f.events.reviewed)
}

func TestReviewTerminalStateConflicts(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	created, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"})
	require.NoError(t, err)

	outcome, err := f.attendance.Edit(supervisorCtx("sup-1"), f.corrections, created.ID, &EditRequest{
		TimeIn: created.TimeIn.Add(-time.Hour), Reason: "missed scan",
	})
	require.NoError(t, err)

	_, err = f.corrections.Review(adminCtx(), outcome.Correction.ID, &ReviewRequest{Action: "reject"})
	require.NoError(t, err)

	_, err = f.corrections.Review(adminCtx(), outcome.Correction.ID, &ReviewRequest{Action: "approve"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestRejectionFreesTheSlot(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	created, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"})
	require.NoError(t, err)

	req := &EditRequest{TimeIn: created.TimeIn.Add(-time.Hour), Reason: "missed scan"}
	outcome, err := f.attendance.Edit(supervisorCtx("sup-1"), f.corrections, created.ID, req)
	require.NoError(t, err)

	_, err = f.corrections.Review(adminCtx(), outcome.Correction.ID, &ReviewRequest{Action: "reject", Notes: "insufficient detail"})
	require.NoError(t, err)

	// The same supervisor can file a fresh request after a rejection.
	_, err = f.attendance.Edit(supervisorCtx("sup-1"), f.corrections, created.ID, req)
	assert.NoError(t, err)
}

func TestReviewRequiresAdmin(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	created, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"})
	require.NoError(t, err)

	outcome, err := f.attendance.Edit(supervisorCtx("sup-1"), f.corrections, created.ID, &EditRequest{
		TimeIn: created.TimeIn.Add(-time.Hour), Reason: "missed scan",
	})
	require.NoError(t, err)

	_, err = f.corrections.Review(supervisorCtx("sup-1"), outcome.Correction.ID, &ReviewRequest{Action: "approve"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestListPendingScopesByRole(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	created, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{EmployeeCode: "EMP-2024-000001", Passkey: "482913"})
	require.NoError(t, err)

	req := &EditRequest{TimeIn: created.TimeIn.Add(-time.Hour), Reason: "missed scan"}
	_, err = f.attendance.Edit(supervisorCtx("sup-1"), f.corrections, created.ID, req)
	require.NoError(t, err)
	_, err = f.attendance.Edit(supervisorCtx("sup-2"), f.corrections, created.ID, req)
	require.NoError(t, err)

	all, err := f.corrections.ListPending(adminCtx())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.corrections.ListPending(supervisorCtx("sup-1"))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "sup-1", own[0].RequestedBy)
}

func TestGetPhotoDecodesDataURL(t *testing.T) {
	f := newFixture(activeEmployee("emp-1", "EMP-2024-000001"))

	payload := []byte("fake-jpeg-bytes")
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)
	log, err := f.attendance.TimeIn(context.Background(), &TimeInRequest{
		EmployeeCode: "EMP-2024-000001", Passkey: "482913", Photo: dataURL,
	})
	require.NoError(t, err)

	photo, err := f.attendance.GetPhoto(context.Background(), log.ID, "timeIn")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", photo.ContentType)
	assert.Equal(t, payload, photo.Data)

	_, err = f.attendance.GetPhoto(context.Background(), log.ID, "timeOut")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = f.attendance.GetPhoto(context.Background(), log.ID, "sideways")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}
