package handlers

import (
	"fmt"

	"attendance_payroll/models"
	"attendance_payroll/types"
	"attendance_payroll/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MonthlyReport is the HR summary of one period. The event counts read the
// raw attendance rows inside the month window; the money totals aggregate the
// stored payroll runs.
type MonthlyReport struct {
	Period           string          `json:"period"`
	ActiveEmployees  int64           `json:"active_employees"`
	EventCount       int64           `json:"event_count"`
	CorrectionCount  int64           `json:"correction_count"`
	RunCount         int64           `json:"run_count"`
	TotalHours       float64         `json:"total_hours"`
	TotalGross       float64         `json:"total_gross"`
	TotalAdjustments float64         `json:"total_adjustments"`
	TotalNet         float64         `json:"total_net"`
	TopHours         []EmployeeHours `json:"top_hours"`
}

// EmployeeHours ranks one employee's stored run within the period.
type EmployeeHours struct {
	EmployeeID uint    `json:"employee_id"`
	FullName   string  `json:"full_name"`
	TotalHours float64 `json:"total_hours"`
	NetPay     float64 `json:"net_pay"`
	Rank       int     `json:"rank"`
}

// GetMonthlyReport summarizes a period. Run totals stay zero until the
// month's payroll has been generated.
func GetMonthlyReport(c *fiber.Ctx) error {
	year := c.QueryInt("year")
	month := c.QueryInt("month")
	if year < 1 || month < 1 || month > 12 {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   fmt.Sprintf("invalid period %d-%d", year, month),
		})
	}

	start := fmt.Sprintf("%04d-%02d-01T00:00:00", year, month)
	end := fmt.Sprintf("%04d-%02d-01T00:00:00", year, month+1)
	if month == 12 {
		end = fmt.Sprintf("%04d-01-01T00:00:00", year+1)
	}

	report := MonthlyReport{
		Period:   fmt.Sprintf("%04d-%02d", year, month),
		TopHours: []EmployeeHours{},
	}

	if err := DB.Model(&models.Employee{}).
		Where("active = ?", true).
		Count(&report.ActiveEmployees).Error; err != nil {
		return reportError(c, err)
	}
	if err := DB.Model(&models.AttendanceEvent{}).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Count(&report.EventCount).Error; err != nil {
		return reportError(c, err)
	}
	if err := DB.Model(&models.AttendanceEvent{}).
		Where("timestamp >= ? AND timestamp < ? AND corrected_by_admin = ?", start, end, true).
		Count(&report.CorrectionCount).Error; err != nil {
		return reportError(c, err)
	}

	var totals struct {
		RunCount         int64
		TotalHours       float64
		TotalGross       float64
		TotalAdjustments float64
		TotalNet         float64
	}
	if err := DB.Model(&models.PayrollRun{}).
		Where("year = ? AND month = ?", year, month).
		Select("COUNT(*) AS run_count, " +
			"COALESCE(SUM(regular_hours + overtime_hours), 0) AS total_hours, " +
			"COALESCE(SUM(gross_pay), 0) AS total_gross, " +
			"COALESCE(SUM(total_adjustments), 0) AS total_adjustments, " +
			"COALESCE(SUM(net_pay), 0) AS total_net").
		Scan(&totals).Error; err != nil {
		return reportError(c, err)
	}
	report.RunCount = totals.RunCount
	report.TotalHours = totals.TotalHours
	report.TotalGross = totals.TotalGross
	report.TotalAdjustments = totals.TotalAdjustments
	report.TotalNet = totals.TotalNet

	if err := DB.Raw(`
		SELECT
			p.employee_id,
			e.full_name,
			p.regular_hours + p.overtime_hours AS total_hours,
			p.net_pay
		FROM payroll_runs p
		JOIN employees e ON e.id = p.employee_id
		WHERE p.year = ? AND p.month = ?
		ORDER BY total_hours DESC, p.employee_id
		LIMIT 5
	`, year, month).Scan(&report.TopHours).Error; err != nil {
		return reportError(c, err)
	}
	for i := range report.TopHours {
		report.TopHours[i].Rank = i + 1
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    report,
	})
}

func reportError(c *fiber.Ctx, err error) error {
	utils.Logger.Error("failed to build monthly report", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
		Success: false,
		Error:   types.ErrDatabaseError,
	})
}
