package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	attendancerepo "github.com/pastrypal/pastrypal-backend/internal/attendance/repository"
	"github.com/pastrypal/pastrypal-backend/internal/payroll/repository"
	staffrepo "github.com/pastrypal/pastrypal-backend/internal/staff/repository"
	"github.com/pastrypal/pastrypal-backend/pkg/actor"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

type memRunStore struct {
	runs        map[string]*repository.Run
	items       map[string]map[string]*repository.Item
	adjustments map[string][]*repository.Adjustment
	identities  map[string][3]string
	seq         int
}

func newMemRunStore() *memRunStore {
	return &memRunStore{
		runs:        map[string]*repository.Run{},
		items:       map[string]map[string]*repository.Item{},
		adjustments: map[string][]*repository.Adjustment{},
		identities:  map[string][3]string{},
	}
}

func (s *memRunStore) identify(emp *staffrepo.Employee) {
	s.identities[emp.ID] = [3]string{emp.EmployeeCode, emp.FirstName, emp.LastName}
}

func (s *memRunStore) GetRunByStatus(_ context.Context, month, year int, status string) (*repository.Run, error) {
	for _, run := range s.runs {
		if run.Month == month && run.Year == year && run.Status == status {
			copied := *run
			return &copied, nil
		}
	}
	return nil, errors.NotFound("payroll run")
}

func (s *memRunStore) GetRunByID(_ context.Context, id string) (*repository.Run, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, errors.NotFound("payroll run")
	}
	copied := *run
	return &copied, nil
}

func (s *memRunStore) GetLatestRun(_ context.Context, month, year int) (*repository.Run, error) {
	var latest *repository.Run
	for _, run := range s.runs {
		if run.Month != month || run.Year != year {
			continue
		}
		if latest == nil || run.CreatedAt.After(latest.CreatedAt) {
			latest = run
		}
	}
	if latest == nil {
		return nil, errors.NotFound("payroll run")
	}
	copied := *latest
	return &copied, nil
}

func (s *memRunStore) ListRuns(_ context.Context) ([]*repository.Run, error) {
	var out []*repository.Run
	for _, run := range s.runs {
		copied := *run
		out = append(out, &copied)
	}
	return out, nil
}

func (s *memRunStore) GetOrCreateDraft(ctx context.Context, month, year int, createdBy string) (*repository.Run, error) {
	if existing, err := s.GetRunByStatus(ctx, month, year, repository.RunDraft); err == nil {
		return existing, nil
	}
	s.seq++
	run := &repository.Run{
		ID:        fmt.Sprintf("run-%d", s.seq),
		Month:     month,
		Year:      year,
		Status:    repository.RunDraft,
		CreatedBy: createdBy,
		CreatedAt: time.Now().Add(time.Duration(s.seq) * time.Second),
	}
	s.runs[run.ID] = run
	s.items[run.ID] = map[string]*repository.Item{}
	copied := *run
	return &copied, nil
}

func (s *memRunStore) CountItems(_ context.Context, runID string) (int, error) {
	return len(s.items[runID]), nil
}

func (s *memRunStore) DeleteRun(_ context.Context, id string) error {
	if _, ok := s.runs[id]; !ok {
		return errors.NotFound("payroll run")
	}
	delete(s.runs, id)
	delete(s.items, id)
	delete(s.adjustments, id)
	return nil
}

func (s *memRunStore) UpsertItem(_ context.Context, item *repository.Item) error {
	if s.items[item.PayrollRunID] == nil {
		s.items[item.PayrollRunID] = map[string]*repository.Item{}
	}
	copied := *item
	if copied.ID == "" {
		copied.ID = fmt.Sprintf("item-%s-%s", item.PayrollRunID, item.EmployeeID)
	}
	s.items[item.PayrollRunID][item.EmployeeID] = &copied
	return nil
}

func (s *memRunStore) UpdateItemAdjustments(_ context.Context, runID, employeeID string, adjustmentsTotal, netPay float64) error {
	item, ok := s.items[runID][employeeID]
	if !ok {
		return nil
	}
	item.AdjustmentsTotal = adjustmentsTotal
	item.NetPay = netPay
	return nil
}

func (s *memRunStore) ListItems(_ context.Context, runID string) ([]*repository.ItemWithEmployee, error) {
	var out []*repository.ItemWithEmployee
	for _, item := range s.items[runID] {
		identity, ok := s.identities[item.EmployeeID]
		if !ok {
			identity = [3]string{"DELETED", "Deleted", "Employee"}
		}
		out = append(out, &repository.ItemWithEmployee{
			Item:         *item,
			EmployeeCode: identity[0],
			FirstName:    identity[1],
			LastName:     identity[2],
		})
	}
	return out, nil
}

func (s *memRunStore) CreateAdjustment(_ context.Context, adj *repository.Adjustment) error {
	copied := *adj
	if copied.ID == "" {
		copied.ID = fmt.Sprintf("adj-%d", len(s.adjustments[adj.PayrollRunID])+1)
	}
	s.adjustments[adj.PayrollRunID] = append(s.adjustments[adj.PayrollRunID], &copied)
	return nil
}

func (s *memRunStore) ListAdjustments(_ context.Context, runID string) ([]*repository.Adjustment, error) {
	return s.adjustments[runID], nil
}

func (s *memRunStore) Finalize(_ context.Context, id string) (*repository.Run, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, errors.NotFound("payroll run")
	}
	if run.Status == repository.RunFinal {
		return nil, errors.Conflict("payroll run already finalized")
	}
	run.Status = repository.RunFinal
	copied := *run
	return &copied, nil
}

type memShiftSource struct {
	logs []*attendancerepo.Log
}

func (s *memShiftSource) addShift(employeeID string, timeIn, timeOut time.Time) {
	s.logs = append(s.logs, &attendancerepo.Log{
		EmployeeID: employeeID,
		TimeIn:     timeIn,
		TimeOut:    &timeOut,
	})
}

func (s *memShiftSource) ListClosedInRange(_ context.Context, from, to time.Time, employeeID string) ([]*attendancerepo.Log, error) {
	var out []*attendancerepo.Log
	for _, log := range s.logs {
		if log.TimeOut == nil {
			continue
		}
		if log.TimeIn.Before(from) || !log.TimeIn.Before(to) {
			continue
		}
		if employeeID != "" && log.EmployeeID != employeeID {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

type memEmployeeSource struct {
	employees []*staffrepo.Employee
}

func (s *memEmployeeSource) ListActive(_ context.Context) ([]*staffrepo.Employee, error) {
	var out []*staffrepo.Employee
	for _, e := range s.employees {
		if e.Status == staffrepo.StatusActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memEmployeeSource) GetByCode(_ context.Context, code string) (*staffrepo.Employee, error) {
	for _, e := range s.employees {
		if e.EmployeeCode == code {
			return e, nil
		}
	}
	return nil, errors.NotFound("employee")
}

type captureRunEvents struct {
	computed  int
	finalized int
}

func (c *captureRunEvents) RunComputed(_ context.Context, _ string, _, _, _ int) { c.computed++ }
func (c *captureRunEvents) RunFinalized(_ context.Context, _ string, _, _ int)  { c.finalized++ }

type captureAudit struct {
	actions []string
}

func (c *captureAudit) Record(_ context.Context, _, action, _, _ string, _ any) {
	c.actions = append(c.actions, action)
}

type payrollFixture struct {
	service   *PayrollService
	runs      *memRunStore
	shifts    *memShiftSource
	employees *memEmployeeSource
	events    *captureRunEvents
	audit     *captureAudit
}

func newPayrollFixture(employees ...*staffrepo.Employee) *payrollFixture {
	f := &payrollFixture{
		runs:      newMemRunStore(),
		shifts:    &memShiftSource{},
		employees: &memEmployeeSource{employees: employees},
		events:    &captureRunEvents{},
		audit:     &captureAudit{},
	}
	for _, e := range employees {
		f.runs.identify(e)
	}
	f.service = NewPayrollService(f.runs, f.shifts, f.employees, f.events, f.audit, logger.New("test", "development"))
	return f
}

func payrollEmployee(id, code string, rate float64) *staffrepo.Employee {
	return &staffrepo.Employee{
		ID:           id,
		EmployeeCode: code,
		FirstName:    "Ana",
		LastName:     "Reyes",
		HourlyRate:   rate,
		Status:       staffrepo.StatusActive,
	}
}

func payrollAdminCtx() context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{ID: "admin-1", Email: "admin@example.com", Role: actor.RoleAdmin})
}

func payrollSupervisorCtx() context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{ID: "sup-1", Email: "sup@example.com", Role: actor.RoleSupervisor})
}

func TestComputeDerivesPayFromClosedShifts(t *testing.T) {
	f := newPayrollFixture(payrollEmployee("emp-1", "EMP-2024-000001", 15))
	jan := func(day, hour int) time.Time { return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC) }
	f.shifts.addShift("emp-1", jan(3, 8), jan(3, 12))
	f.shifts.addShift("emp-1", jan(4, 8), jan(4, 8).Add(8*time.Hour+30*time.Minute))

	result, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{
		Month: 1,
		Year:  2024,
		Adjustments: []AdjustmentInput{
			{EmployeeID: "emp-1", Amount: 20, Reason: "holiday bonus"},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.Finalized)
	assert.Equal(t, repository.RunDraft, result.Run.Status)

	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.Equal(t, 2, item.TotalShifts)
	assert.Equal(t, 12.5, item.TotalHours)
	assert.Equal(t, 187.5, item.BasePay)
	assert.Equal(t, 20.0, item.AdjustmentsTotal)
	assert.Equal(t, 207.5, item.NetPay)
	assert.Equal(t, 1, f.events.computed)
}

func TestComputeRoundsHoursBeforePay(t *testing.T) {
	f := newPayrollFixture(payrollEmployee("emp-1", "EMP-2024-000001", 12.50))
	timeIn := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)
	f.shifts.addShift("emp-1", timeIn, timeIn.Add(8*time.Hour+20*time.Minute))

	result, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{Month: 1, Year: 2024})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	// 8h20m is 8.3333h; hours round to cents first, pay derives from the
	// rounded figure.
	assert.Equal(t, 8.33, result.Items[0].TotalHours)
	assert.Equal(t, 104.13, result.Items[0].BasePay)
}

func TestComputeIgnoresNegativeIntervals(t *testing.T) {
	f := newPayrollFixture(payrollEmployee("emp-1", "EMP-2024-000001", 15))
	timeIn := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)
	// Edited shift whose time out precedes its time in contributes no hours
	// but still counts as a shift.
	f.shifts.addShift("emp-1", timeIn, timeIn.Add(-time.Hour))
	f.shifts.addShift("emp-1", timeIn.Add(24*time.Hour), timeIn.Add(28*time.Hour))

	result, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{Month: 1, Year: 2024})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, 2, result.Items[0].TotalShifts)
	assert.Equal(t, 4.0, result.Items[0].TotalHours)
	assert.Equal(t, 60.0, result.Items[0].BasePay)
}

func TestComputeExcludesShiftsOutsideMonth(t *testing.T) {
	f := newPayrollFixture(payrollEmployee("emp-1", "EMP-2024-000001", 15))
	dec := time.Date(2023, 12, 31, 22, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	f.shifts.addShift("emp-1", dec, dec.Add(4*time.Hour))
	f.shifts.addShift("emp-1", feb, feb.Add(4*time.Hour))

	result, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{Month: 1, Year: 2024})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, 0, result.Items[0].TotalShifts)
	assert.Equal(t, 0.0, result.Items[0].NetPay)
}

func TestComputeRecomputeIsIdempotent(t *testing.T) {
	f := newPayrollFixture(payrollEmployee("emp-1", "EMP-2024-000001", 15))
	timeIn := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)
	f.shifts.addShift("emp-1", timeIn, timeIn.Add(4*time.Hour))

	first, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{
		Month: 1, Year: 2024,
		Adjustments: []AdjustmentInput{{EmployeeID: "emp-1", Amount: 20, Reason: "bonus"}},
	})
	require.NoError(t, err)

	second, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{Month: 1, Year: 2024})
	require.NoError(t, err)

	assert.Equal(t, first.Run.ID, second.Run.ID)
	require.Len(t, second.Items, 1)
	assert.Equal(t, 20.0, second.Items[0].AdjustmentsTotal)
	assert.Equal(t, 80.0, second.Items[0].NetPay)
}

func TestComputeUnknownEmployeeCodeCoversNobody(t *testing.T) {
	f := newPayrollFixture(payrollEmployee("emp-1", "EMP-2024-000001", 15))
	timeIn := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)
	f.shifts.addShift("emp-1", timeIn, timeIn.Add(4*time.Hour))

	result, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{
		Month: 1, Year: 2024, EmployeeCode: "EMP-2024-999999",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestComputeFinalizedPeriodIsFrozen(t *testing.T) {
	f := newPayrollFixture(payrollEmployee("emp-1", "EMP-2024-000001", 15))
	timeIn := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)
	f.shifts.addShift("emp-1", timeIn, timeIn.Add(4*time.Hour))

	first, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{Month: 1, Year: 2024})
	require.NoError(t, err)
	_, err = f.service.Finalize(payrollAdminCtx(), first.Run.ID)
	require.NoError(t, err)

	// Attendance changes after finalization must not leak into the run.
	f.shifts.addShift("emp-1", timeIn.Add(48*time.Hour), timeIn.Add(56*time.Hour))

	result, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{Month: 1, Year: 2024})
	require.NoError(t, err)
	assert.True(t, result.Finalized)
	assert.Equal(t, "Payroll already finalized for this period", result.Notice)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 60.0, result.Items[0].NetPay)
}

func TestComputeRecoversFromEmptyFinalRun(t *testing.T) {
	f := newPayrollFixture(payrollEmployee("emp-1", "EMP-2024-000001", 15))
	timeIn := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)
	f.shifts.addShift("emp-1", timeIn, timeIn.Add(4*time.Hour))

	// A finalized run with no pay lines can only come from an interrupted
	// earlier compute.
	f.runs.runs["stale"] = &repository.Run{
		ID: "stale", Month: 1, Year: 2024, Status: repository.RunFinal, CreatedBy: "admin-1",
	}
	f.runs.items["stale"] = map[string]*repository.Item{}

	result, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{Month: 1, Year: 2024})
	require.NoError(t, err)
	assert.False(t, result.Finalized)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 60.0, result.Items[0].NetPay)

	_, exists := f.runs.runs["stale"]
	assert.False(t, exists)
}

func TestFinalizeIsTerminal(t *testing.T) {
	f := newPayrollFixture(payrollEmployee("emp-1", "EMP-2024-000001", 15))

	result, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{Month: 1, Year: 2024})
	require.NoError(t, err)

	run, err := f.service.Finalize(payrollAdminCtx(), result.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.RunFinal, run.Status)
	assert.Equal(t, 1, f.events.finalized)

	_, err = f.service.Finalize(payrollAdminCtx(), result.Run.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestFinalizeRequiresAdmin(t *testing.T) {
	f := newPayrollFixture(payrollEmployee("emp-1", "EMP-2024-000001", 15))

	result, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{Month: 1, Year: 2024})
	require.NoError(t, err)

	_, err = f.service.Finalize(payrollSupervisorCtx(), result.Run.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestResetDeletesRun(t *testing.T) {
	f := newPayrollFixture(payrollEmployee("emp-1", "EMP-2024-000001", 15))

	result, err := f.service.Compute(payrollAdminCtx(), &ComputeRequest{Month: 1, Year: 2024})
	require.NoError(t, err)

	require.NoError(t, f.service.Reset(payrollAdminCtx(), result.Run.ID))
	assert.Contains(t, f.audit.actions, "PAYROLL_RESET")

	_, err = f.service.GetPeriod(payrollAdminCtx(), 1, 2024)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestItemsSortNumericallyByCode(t *testing.T) {
	items := []*repository.ItemWithEmployee{
		{EmployeeCode: "EMP-2024-000010"},
		{EmployeeCode: "EMP-2024-000002"},
		{EmployeeCode: "EMP-2023-000100"},
	}
	sortItems(items)

	assert.Equal(t, "EMP-2023-000100", items[0].EmployeeCode)
	assert.Equal(t, "EMP-2024-000002", items[1].EmployeeCode)
	assert.Equal(t, "EMP-2024-000010", items[2].EmployeeCode)
}
