package service

import (
	"context"
	"math"
	"sort"
	"time"

	attendancerepo "github.com/pastrypal/pastrypal-backend/internal/attendance/repository"
	"github.com/pastrypal/pastrypal-backend/internal/payroll/repository"
	staffrepo "github.com/pastrypal/pastrypal-backend/internal/staff/repository"
	"github.com/pastrypal/pastrypal-backend/pkg/actor"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

// RunStore is the persistence surface for payroll runs.
type RunStore interface {
	GetRunByStatus(ctx context.Context, month, year int, status string) (*repository.Run, error)
	GetRunByID(ctx context.Context, id string) (*repository.Run, error)
	GetLatestRun(ctx context.Context, month, year int) (*repository.Run, error)
	ListRuns(ctx context.Context) ([]*repository.Run, error)
	GetOrCreateDraft(ctx context.Context, month, year int, createdBy string) (*repository.Run, error)
	CountItems(ctx context.Context, runID string) (int, error)
	DeleteRun(ctx context.Context, id string) error
	UpsertItem(ctx context.Context, item *repository.Item) error
	UpdateItemAdjustments(ctx context.Context, runID, employeeID string, adjustmentsTotal, netPay float64) error
	ListItems(ctx context.Context, runID string) ([]*repository.ItemWithEmployee, error)
	CreateAdjustment(ctx context.Context, adj *repository.Adjustment) error
	ListAdjustments(ctx context.Context, runID string) ([]*repository.Adjustment, error)
	Finalize(ctx context.Context, id string) (*repository.Run, error)
}

// ShiftSource provides the closed shifts payroll is computed from.
type ShiftSource interface {
	ListClosedInRange(ctx context.Context, from, to time.Time, employeeID string) ([]*attendancerepo.Log, error)
}

// EmployeeSource resolves the employees a run covers.
type EmployeeSource interface {
	ListActive(ctx context.Context) ([]*staffrepo.Employee, error)
	GetByCode(ctx context.Context, code string) (*staffrepo.Employee, error)
}

// RunEventPublisher publishes payroll run events.
type RunEventPublisher interface {
	RunComputed(ctx context.Context, runID string, month, year, itemCount int)
	RunFinalized(ctx context.Context, runID string, month, year int)
}

// Auditor records administrative actions.
type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, metadata any)
}

// PayrollService computes, finalizes and exports payroll runs
type PayrollService struct {
	runs      RunStore
	shifts    ShiftSource
	employees EmployeeSource
	events    RunEventPublisher
	audit     Auditor
	logger    *logger.Logger
}

// NewPayrollService creates a new payroll service
func NewPayrollService(runs RunStore, shifts ShiftSource, employees EmployeeSource, events RunEventPublisher, auditor Auditor, log *logger.Logger) *PayrollService {
	return &PayrollService{
		runs:      runs,
		shifts:    shifts,
		employees: employees,
		events:    events,
		audit:     auditor,
		logger:    log,
	}
}

// AdjustmentInput is a manual pay delta supplied with a compute request
type AdjustmentInput struct {
	EmployeeID string  `json:"employee_id" validate:"required,uuid"`
	Amount     float64 `json:"amount" validate:"required"`
	Reason     string  `json:"reason" validate:"required,min=3,max=500"`
}

// ComputeRequest asks for a payroll run over one calendar month
type ComputeRequest struct {
	Month        int               `json:"month" validate:"required,gte=1,lte=12"`
	Year         int               `json:"year" validate:"required,gte=2000,lte=2100"`
	EmployeeCode string            `json:"employee_code" validate:"omitempty"`
	Adjustments  []AdjustmentInput `json:"adjustments" validate:"omitempty,dive"`
}

// ComputeResult is a computed run with its pay lines
type ComputeResult struct {
	Run       *repository.Run                `json:"run"`
	Items     []*repository.ItemWithEmployee `json:"items"`
	Finalized bool                           `json:"finalized"`
	Notice    string                         `json:"notice,omitempty"`
}

// round2 rounds to cents, halves away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// monthRange returns the UTC half-open interval covering the month.
func monthRange(month, year int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// Compute builds or rebuilds the draft run for a period. Recomputing is
// idempotent: pay lines are derived from attendance and replaced wholesale,
// and persisted adjustments are folded back in every time. A finalized
// period returns its frozen lines untouched, unless the final run has no
// lines at all, which can only mean an interrupted earlier compute; that
// husk is deleted and the period computed fresh.
func (s *PayrollService) Compute(ctx context.Context, req *ComputeRequest) (*ComputeResult, error) {
	a := actor.FromContext(ctx)
	if a == nil {
		return nil, errors.Unauthorized("authentication required")
	}

	final, err := s.runs.GetRunByStatus(ctx, req.Month, req.Year, repository.RunFinal)
	if err == nil {
		count, err := s.runs.CountItems(ctx, final.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			items, err := s.runs.ListItems(ctx, final.ID)
			if err != nil {
				return nil, err
			}
			sortItems(items)
			return &ComputeResult{
				Run:       final,
				Items:     items,
				Finalized: true,
				Notice:    "Payroll already finalized for this period",
			}, nil
		}

		s.logger.Warn().
			Str("run_id", final.ID).
			Int("month", req.Month).
			Int("year", req.Year).
			Msg("finalized run has no pay lines, deleting and recomputing")
		if err := s.runs.DeleteRun(ctx, final.ID); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	run, err := s.runs.GetOrCreateDraft(ctx, req.Month, req.Year, a.ID)
	if err != nil {
		return nil, err
	}

	for _, input := range req.Adjustments {
		adj := &repository.Adjustment{
			PayrollRunID: run.ID,
			EmployeeID:   input.EmployeeID,
			Amount:       input.Amount,
			Reason:       input.Reason,
			CreatedBy:    a.ID,
		}
		if err := s.runs.CreateAdjustment(ctx, adj); err != nil {
			return nil, err
		}
	}

	if err := s.computeItems(ctx, run, req.EmployeeCode); err != nil {
		return nil, err
	}
	if err := s.applyAdjustments(ctx, run.ID); err != nil {
		return nil, err
	}

	items, err := s.runs.ListItems(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	sortItems(items)

	s.logger.Info().
		Str("run_id", run.ID).
		Int("month", req.Month).
		Int("year", req.Year).
		Int("items", len(items)).
		Msg("payroll run computed")
	s.audit.Record(ctx, a.ID, "PAYROLL_COMPUTED", "payroll_run", run.ID, map[string]any{
		"month": req.Month,
		"year":  req.Year,
	})
	s.events.RunComputed(ctx, run.ID, req.Month, req.Year, len(items))

	return &ComputeResult{Run: run, Items: items}, nil
}

// computeItems derives pay lines from closed shifts for every covered
// employee. An unknown employee code narrows the run to nobody rather
// than failing, matching the filter-style semantics of the endpoint.
func (s *PayrollService) computeItems(ctx context.Context, run *repository.Run, employeeCode string) error {
	from, to := monthRange(run.Month, run.Year)

	var covered []*staffrepo.Employee
	filterID := ""
	if employeeCode != "" {
		emp, err := s.employees.GetByCode(ctx, employeeCode)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				return nil
			}
			return err
		}
		if emp.Status != staffrepo.StatusActive {
			return nil
		}
		covered = []*staffrepo.Employee{emp}
		filterID = emp.ID
	} else {
		all, err := s.employees.ListActive(ctx)
		if err != nil {
			return err
		}
		covered = all
	}

	logs, err := s.shifts.ListClosedInRange(ctx, from, to, filterID)
	if err != nil {
		return err
	}

	byEmployee := make(map[string][]*attendancerepo.Log, len(covered))
	for _, log := range logs {
		byEmployee[log.EmployeeID] = append(byEmployee[log.EmployeeID], log)
	}

	for _, emp := range covered {
		shifts := byEmployee[emp.ID]

		var totalMs int64
		for _, log := range shifts {
			if log.TimeOut == nil {
				continue
			}
			diff := log.TimeOut.Sub(log.TimeIn).Milliseconds()
			if diff > 0 {
				totalMs += diff
			}
		}

		totalHours := round2(float64(totalMs) / 3_600_000)
		basePay := round2(totalHours * emp.HourlyRate)

		item := &repository.Item{
			PayrollRunID:     run.ID,
			EmployeeID:       emp.ID,
			TotalShifts:      len(shifts),
			TotalHours:       totalHours,
			BasePay:          basePay,
			AdjustmentsTotal: 0,
			NetPay:           basePay,
		}
		if err := s.runs.UpsertItem(ctx, item); err != nil {
			return err
		}
	}

	return nil
}

// applyAdjustments folds every persisted adjustment back into the run's
// pay lines. Adjustments for employees without a line are held until a
// compute covers them.
func (s *PayrollService) applyAdjustments(ctx context.Context, runID string) error {
	adjustments, err := s.runs.ListAdjustments(ctx, runID)
	if err != nil {
		return err
	}
	if len(adjustments) == 0 {
		return nil
	}

	sums := map[string]float64{}
	for _, adj := range adjustments {
		sums[adj.EmployeeID] += adj.Amount
	}

	items, err := s.runs.ListItems(ctx, runID)
	if err != nil {
		return err
	}

	for _, item := range items {
		total, ok := sums[item.EmployeeID]
		if !ok {
			continue
		}
		adjTotal := round2(total)
		netPay := round2(item.BasePay + adjTotal)
		if err := s.runs.UpdateItemAdjustments(ctx, runID, item.EmployeeID, adjTotal, netPay); err != nil {
			return err
		}
	}

	return nil
}

// GetPeriod returns the latest run for a period with its pay lines.
func (s *PayrollService) GetPeriod(ctx context.Context, month, year int) (*ComputeResult, error) {
	run, err := s.runs.GetLatestRun(ctx, month, year)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NotFound("payroll run for selected period")
		}
		return nil, err
	}

	items, err := s.runs.ListItems(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	sortItems(items)

	return &ComputeResult{
		Run:       run,
		Items:     items,
		Finalized: run.Status == repository.RunFinal,
	}, nil
}

// ListRuns returns every payroll run, newest period first.
func (s *PayrollService) ListRuns(ctx context.Context) ([]*repository.Run, error) {
	return s.runs.ListRuns(ctx)
}

// Finalize freezes a draft run. Finalized lines never change again.
func (s *PayrollService) Finalize(ctx context.Context, runID string) (*repository.Run, error) {
	a := actor.FromContext(ctx)
	if a == nil {
		return nil, errors.Unauthorized("authentication required")
	}
	if !a.Role.CanFinalizePayroll() {
		return nil, errors.Forbidden("only admins can finalize payroll")
	}

	run, err := s.runs.Finalize(ctx, runID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("run_id", run.ID).
		Int("month", run.Month).
		Int("year", run.Year).
		Msg("payroll run finalized")
	s.audit.Record(ctx, a.ID, "PAYROLL_FINALIZED", "payroll_run", run.ID, map[string]any{
		"month": run.Month,
		"year":  run.Year,
	})
	s.events.RunFinalized(ctx, run.ID, run.Month, run.Year)

	return run, nil
}

// Reset deletes a run so the period can be computed from scratch. Pay
// lines and adjustments go with it.
func (s *PayrollService) Reset(ctx context.Context, runID string) error {
	a := actor.FromContext(ctx)
	if a == nil {
		return errors.Unauthorized("authentication required")
	}
	if !a.Role.CanFinalizePayroll() {
		return errors.Forbidden("only admins can reset payroll")
	}

	run, err := s.runs.GetRunByID(ctx, runID)
	if err != nil {
		return err
	}

	if err := s.runs.DeleteRun(ctx, run.ID); err != nil {
		return err
	}

	s.logger.Info().
		Str("run_id", run.ID).
		Int("month", run.Month).
		Int("year", run.Year).
		Str("status", run.Status).
		Msg("payroll run reset")
	s.audit.Record(ctx, a.ID, "PAYROLL_RESET", "payroll_run", run.ID, map[string]any{
		"month":  run.Month,
		"year":   run.Year,
		"status": run.Status,
	})

	return nil
}

// sortItems orders pay lines by employee code, comparing digit runs
// numerically so EMP-2024-000010 sorts after EMP-2024-000002.
func sortItems(items []*repository.ItemWithEmployee) {
	sort.Slice(items, func(i, j int) bool {
		return compareCodes(items[i].EmployeeCode, items[j].EmployeeCode) < 0
	})
}

func compareCodes(a, b string) int {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			ai, a2 := takeNumber(a)
			bi, b2 := takeNumber(b)
			if ai != bi {
				if ai < bi {
					return -1
				}
				return 1
			}
			a, b = a2, b2
			continue
		}
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		a, b = a[1:], b[1:]
	}
	return len(a) - len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func takeNumber(s string) (int64, string) {
	var n int64
	i := 0
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + int64(s[i]-'0')
		i++
	}
	return n, s[i:]
}
