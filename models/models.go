package models

import (
	"time"
)

// Timestamp layouts accepted on attendance events. Events are written with
// TimestampLayout; LegacyTimestampLayout covers rows imported from older
// exports. Anything else is skipped during pairing.
const (
	TimestampLayout       = "2006-01-02T15:04:05"
	LegacyTimestampLayout = "2006-01-02 15:04:05"
	DateLayout            = "2006-01-02"
)

// Attendance event kinds.
const (
	EventSignIn     = "sign_in"
	EventSignOut    = "sign_out"
	EventCorrection = "correction"
)

type Employee struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FullName   string    `gorm:"not null" json:"full_name"`
	Role       string    `gorm:"not null" json:"role"`
	Department string    `json:"department"`
	Contact    string    `json:"contact"`
	HourlyRate float64   `gorm:"not null" json:"hourly_rate"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// User is a login account. HR accounts manage employees and payroll;
// non-HR accounts are linked to one employee and limited to it.
type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsHR         bool      `gorm:"not null;default:false" json:"is_hr"`
	EmployeeID   *uint     `json:"employee_id,omitempty"`
	Employee     *Employee `gorm:"foreignKey:EmployeeID" json:"-"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AttendanceEvent is append-only. Admin corrections are new rows flagged
// CorrectedByAdmin, never edits. The autoincrement ID breaks ordering ties
// between events sharing a timestamp.
//
// Timestamp is TEXT (ISO, second precision, no zone) rather than a time
// column: ordering and month-window range scans stay correct
// lexicographically, and a malformed value in an old row degrades to a
// skipped event instead of a scan error.
type AttendanceEvent struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	EmployeeID       uint   `gorm:"not null;index" json:"employee_id"`
	Kind             string `gorm:"not null" json:"kind"` // sign_in, sign_out, correction
	Timestamp        string `gorm:"not null;index" json:"timestamp"`
	CorrectedByAdmin bool   `gorm:"not null;default:false" json:"corrected_by_admin"`
	Note             string `json:"note"`
}

// Adjustment is a signed monetary correction for one period: positive
// amounts are allowances, negative are deductions.
type Adjustment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployeeID uint      `gorm:"not null;index" json:"employee_id"`
	Year       int       `gorm:"not null" json:"year"`
	Month      int       `gorm:"not null" json:"month"`
	Amount     float64   `gorm:"not null" json:"amount"`
	Kind       string    `json:"kind"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

// PayrollRun is the persisted snapshot of one payroll computation. The
// composite unique index holds the at-most-one-row-per-period invariant even
// if application-level coordination fails; regeneration upserts in place.
type PayrollRun struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	EmployeeID       uint      `gorm:"not null;uniqueIndex:idx_payroll_runs_period" json:"employee_id"`
	Year             int       `gorm:"not null;uniqueIndex:idx_payroll_runs_period" json:"year"`
	Month            int       `gorm:"not null;uniqueIndex:idx_payroll_runs_period" json:"month"`
	RegularHours     float64   `gorm:"not null" json:"regular_hours"`
	OvertimeHours    float64   `gorm:"not null" json:"overtime_hours"`
	HourlyRate       float64   `gorm:"not null" json:"hourly_rate"`
	GrossPay         float64   `gorm:"not null" json:"gross_pay"`
	TotalAdjustments float64   `gorm:"not null" json:"total_adjustments"`
	NetPay           float64   `gorm:"not null" json:"net_pay"`
	GeneratedAt      time.Time `json:"generated_at"`
}
