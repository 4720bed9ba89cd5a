package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"attendance_payroll/models"
	"attendance_payroll/types"
	"attendance_payroll/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Defaults used when the constructor receives unusable values.
const (
	DefaultTaxRate            = 0.15
	DefaultOvertimeMultiplier = 1.5
)

// PayrollResult is one employee's computed payroll for a period. Every
// monetary and hour field is rounded to two decimals at the computation
// boundary; intermediates are never accumulated in rounded form.
type PayrollResult struct {
	EmployeeID    uint    `json:"employee_id"`
	FullName      string  `json:"full_name"`
	Period        string  `json:"period"`
	HourlyRate    float64 `json:"hourly_rate"`
	RegularHours  float64 `json:"regular_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	Gross         float64 `json:"gross"`
	Adjustments   float64 `json:"adjustments"`
	Tax           float64 `json:"tax"`
	Net           float64 `json:"net"`
}

// DayHoursResult is the per-day breakdown returned by the daily hours view.
type DayHoursResult struct {
	Date          string  `json:"date"`
	RegularHours  float64 `json:"regular_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	TotalHours    float64 `json:"total_hours"`
}

// PayrollService derives payroll from attendance events: it pairs
// sign_in/sign_out events into per-day hours, splits them into regular and
// overtime at 8 hours per calendar day, prices them with the employee's
// hourly rate, applies period adjustments and tax, and keeps at most one
// persisted payroll run per (employee, year, month).
type PayrollService struct {
	DB                 *gorm.DB
	TaxRate            float64
	OvertimeMultiplier float64
}

// NewPayrollService wires the service with explicit policy values; a
// negative tax rate or non-positive multiplier falls back to the defaults.
func NewPayrollService(db *gorm.DB, taxRate, overtimeMultiplier float64) *PayrollService {
	if taxRate < 0 {
		taxRate = DefaultTaxRate
	}
	if overtimeMultiplier <= 0 {
		overtimeMultiplier = DefaultOvertimeMultiplier
	}
	return &PayrollService{
		DB:                 db,
		TaxRate:            taxRate,
		OvertimeMultiplier: overtimeMultiplier,
	}
}

// ComputeForEmployee computes payroll for one employee and period without
// persisting anything. Zero worked hours is a valid result, not an error.
// Fails with types.ErrEmployeeNotFound when the employee is missing or
// inactive.
func (s *PayrollService) ComputeForEmployee(employeeID uint, year, month int) (*PayrollResult, error) {
	return s.compute(s.DB, employeeID, year, month, nil)
}

// PersistForEmployee computes payroll and upserts the payroll run, all
// inside one transaction. Re-running it for the same period overwrites the
// stored row in place.
func (s *PayrollService) PersistForEmployee(employeeID uint, year, month int) (*PayrollResult, error) {
	var result *PayrollResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		pr, err := s.compute(tx, employeeID, year, month, nil)
		if err != nil {
			return err
		}
		if err := upsertRun(tx, pr, year, month); err != nil {
			return err
		}
		result = pr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateForMonth computes and persists payroll for every active employee.
// One employee's failure is logged and skipped; partial success is the
// expected outcome, so only the initial employee listing can fail the batch.
func (s *PayrollService) GenerateForMonth(year, month int) ([]PayrollResult, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}

	var employees []models.Employee
	if err := s.DB.Where("active = ?", true).Order("id").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}

	results := make([]PayrollResult, 0, len(employees))
	for _, emp := range employees {
		rate := emp.HourlyRate
		var pr *PayrollResult
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			computed, err := s.compute(tx, emp.ID, year, month, &rate)
			if err != nil {
				return err
			}
			if err := upsertRun(tx, computed, year, month); err != nil {
				return err
			}
			pr = computed
			return nil
		})
		if err != nil {
			utils.Logger.Error("payroll generation failed for employee",
				zap.Uint("employee_id", emp.ID),
				zap.Int("year", year),
				zap.Int("month", month),
				zap.Error(err))
			continue
		}
		results = append(results, *pr)
	}
	return results, nil
}

// DayHours pairs one calendar day's events for an employee and reports the
// regular/overtime split for that day. A pair whose sign_out falls outside
// the day contributes nothing, same as in the monthly computation an
// unmatched sign_in bills zero.
func (s *PayrollService) DayHours(employeeID uint, date string) (*DayHoursResult, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q, want YYYY-MM-DD", types.ErrMalformedInput, date)
	}

	start := day.Format(models.TimestampLayout)
	end := day.AddDate(0, 0, 1).Format(models.TimestampLayout)
	events, err := eventsInWindow(s.DB, employeeID, start, end)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, h := range pairDailyHours(events) {
		total += h
	}
	total = round2(total)
	return &DayHoursResult{
		Date:          date,
		RegularHours:  round2(math.Min(8, total)),
		OvertimeHours: round2(math.Max(0, total-8)),
		TotalHours:    total,
	}, nil
}

// RunsForPeriod returns the stored payroll runs for one period, ordered by
// employee.
func (s *PayrollService) RunsForPeriod(year, month int) ([]models.PayrollRun, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}
	var runs []models.PayrollRun
	err := s.DB.Where("year = ? AND month = ?", year, month).
		Order("employee_id").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list payroll runs: %w", err)
	}
	return runs, nil
}

// compute runs the full pipeline on the given handle (plain DB or
// transaction). rateOverride carries the rate already loaded by the batch
// path; otherwise the rate is read from the employee row now, so rate
// changes apply retroactively to periods not yet generated.
func (s *PayrollService) compute(db *gorm.DB, employeeID uint, year, month int, rateOverride *float64) (*PayrollResult, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}

	emp, err := activeEmployee(db, employeeID)
	if err != nil {
		return nil, err
	}
	rate := emp.HourlyRate
	if rateOverride != nil {
		rate = *rateOverride
	}

	start, end := monthWindow(year, month)
	events, err := eventsInWindow(db, employeeID, start, end)
	if err != nil {
		return nil, err
	}
	regular, overtime := splitRegularOvertime(pairDailyHours(events))

	adjustmentsSum, err := sumAdjustments(db, employeeID, year, month)
	if err != nil {
		return nil, err
	}

	gross := round2(regular*rate + overtime*rate*s.OvertimeMultiplier)
	adjustments := round2(adjustmentsSum)
	netBeforeTax := gross + adjustments
	tax := round2(netBeforeTax * s.TaxRate)
	net := round2(netBeforeTax - tax)

	return &PayrollResult{
		EmployeeID:    employeeID,
		FullName:      emp.FullName,
		Period:        fmt.Sprintf("%04d-%02d", year, month),
		HourlyRate:    round2(rate),
		RegularHours:  round2(regular),
		OvertimeHours: round2(overtime),
		Gross:         gross,
		Adjustments:   adjustments,
		Tax:           tax,
		Net:           net,
	}, nil
}

// upsertRun writes the period snapshot with a single INSERT ... ON CONFLICT
// DO UPDATE, so the existence check cannot race a concurrent writer for the
// same key. The unique index on (employee_id, year, month) backstops the
// one-row-per-period invariant regardless.
func upsertRun(db *gorm.DB, pr *PayrollResult, year, month int) error {
	run := models.PayrollRun{
		EmployeeID:       pr.EmployeeID,
		Year:             year,
		Month:            month,
		RegularHours:     pr.RegularHours,
		OvertimeHours:    pr.OvertimeHours,
		HourlyRate:       pr.HourlyRate,
		GrossPay:         pr.Gross,
		TotalAdjustments: pr.Adjustments,
		NetPay:           pr.Net,
		GeneratedAt:      time.Now(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}, {Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"regular_hours", "overtime_hours", "hourly_rate",
			"gross_pay", "total_adjustments", "net_pay", "generated_at",
		}),
	}).Create(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w for employee %d period %04d-%02d: %v",
				types.ErrPersistenceConflict, pr.EmployeeID, year, month, err)
		}
		return fmt.Errorf("upsert payroll run: %w", err)
	}
	return nil
}

func activeEmployee(db *gorm.DB, employeeID uint) (*models.Employee, error) {
	var emp models.Employee
	err := db.Where("id = ? AND active = ?", employeeID, true).First(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load employee %d: %w", employeeID, err)
	}
	return &emp, nil
}

// eventsInWindow loads one employee's events with timestamps in
// [start, end), ordered by timestamp then insertion order. The bounds are
// ISO strings, which compare lexicographically in chronological order.
func eventsInWindow(db *gorm.DB, employeeID uint, start, end string) ([]models.AttendanceEvent, error) {
	var events []models.AttendanceEvent
	err := db.Where("employee_id = ? AND timestamp >= ? AND timestamp < ?", employeeID, start, end).
		Order("timestamp, id").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("load attendance events: %w", err)
	}
	return events, nil
}

func sumAdjustments(db *gorm.DB, employeeID uint, year, month int) (float64, error) {
	var total float64
	err := db.Model(&models.Adjustment{}).
		Where("employee_id = ? AND year = ? AND month = ?", employeeID, year, month).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum adjustments: %w", err)
	}
	return total, nil
}

type timedEvent struct {
	kind string
	at   time.Time
}

// pairDailyHours scans chronologically ordered events with a single cursor
// and returns hours worked keyed by YYYY-MM-DD date.
//
// A sign_in matches the next sign_out strictly after it, skipping stray
// sign_ins and correction markers in between; the pair's duration lands in
// the bucket of the sign_in's calendar date, so an overnight shift belongs
// wholly to the day it started. A sign_in with no later sign_out, or whose
// matched sign_out is not strictly after it (clock skew, malformed
// correction), bills zero and the cursor advances by one. A sign_out with no
// pending sign_in is ignored. Rows with unparseable timestamps are dropped
// up front.
func pairDailyHours(events []models.AttendanceEvent) map[string]float64 {
	parsed := make([]timedEvent, 0, len(events))
	for _, ev := range events {
		at, err := parseTimestamp(ev.Timestamp)
		if err != nil {
			continue
		}
		parsed = append(parsed, timedEvent{kind: ev.Kind, at: at})
	}

	dayHours := make(map[string]float64)
	i := 0
	for i < len(parsed) {
		if parsed[i].kind != models.EventSignIn {
			i++
			continue
		}
		in := parsed[i]
		j := i + 1
		for j < len(parsed) && parsed[j].kind != models.EventSignOut {
			j++
		}
		if j == len(parsed) || !parsed[j].at.After(in.at) {
			i++
			continue
		}
		day := in.at.Format(models.DateLayout)
		dayHours[day] += parsed[j].at.Sub(in.at).Hours()
		i = j + 1
	}
	return dayHours
}

// splitRegularOvertime sums the per-day 8-hour split across all days
// present. There is no weekly overtime rule; the split is strictly per
// calendar day, and days absent from the map contribute nothing.
func splitRegularOvertime(dayHours map[string]float64) (regular, overtime float64) {
	for _, h := range dayHours {
		regular += math.Min(8, h)
		overtime += math.Max(0, h-8)
	}
	return regular, overtime
}

// monthWindow returns [start, end) ISO bounds for the period, rolling
// December over into January of the next year.
func monthWindow(year, month int) (start, end string) {
	start = fmt.Sprintf("%04d-%02d-01T00:00:00", year, month)
	if month == 12 {
		end = fmt.Sprintf("%04d-01-01T00:00:00", year+1)
	} else {
		end = fmt.Sprintf("%04d-%02d-01T00:00:00", year, month+1)
	}
	return start, end
}

func parseTimestamp(ts string) (time.Time, error) {
	if at, err := time.Parse(models.TimestampLayout, ts); err == nil {
		return at, nil
	}
	return time.Parse(models.LegacyTimestampLayout, ts)
}

func validatePeriod(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d out of range 1-12", types.ErrMalformedInput, month)
	}
	if year < 1 {
		return fmt.Errorf("%w: year %d", types.ErrMalformedInput, year)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
