package handlers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"attendance_payroll/types"
	"attendance_payroll/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PersistPayrollRequest struct {
	EmployeeID uint `json:"employee_id"`
	Year       int  `json:"year"`
	Month      int  `json:"month"`
}

type GeneratePayrollRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// ComputePayroll previews one employee's payroll for a period. Nothing is
// written; use PersistPayroll to store the result.
func ComputePayroll(c *fiber.Ctx) error {
	employeeID := c.QueryInt("employee_id")
	if employeeID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   "employee_id is required",
		})
	}

	result, err := Payroll.ComputeForEmployee(uint(employeeID), c.QueryInt("year"), c.QueryInt("month"))
	if err != nil {
		return payrollError(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    result,
	})
}

// PersistPayroll computes and stores one employee's payroll run. Repeat
// calls for the same period overwrite the stored row.
func PersistPayroll(c *fiber.Ctx) error {
	var req PersistPayrollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}
	if req.EmployeeID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   "employee_id is required",
		})
	}

	result, err := Payroll.PersistForEmployee(req.EmployeeID, req.Year, req.Month)
	if err != nil {
		return payrollError(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "payroll run persisted",
		Data:    result,
	})
}

// GeneratePayroll runs the whole month's batch. Employees that fail are
// logged and skipped, so the response carries only the successes.
func GeneratePayroll(c *fiber.Ctx) error {
	var req GeneratePayrollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	results, err := Payroll.GenerateForMonth(req.Year, req.Month)
	if err != nil {
		return payrollError(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: fmt.Sprintf("generated payroll for %d employees", len(results)),
		Data: fiber.Map{
			"count":   len(results),
			"results": results,
		},
	})
}

// ListPayrollRuns returns the stored runs for a period.
func ListPayrollRuns(c *fiber.Ctx) error {
	runs, err := Payroll.RunsForPeriod(c.QueryInt("year"), c.QueryInt("month"))
	if err != nil {
		return payrollError(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    runs,
	})
}

// ExportMonthlyCSV generates and persists the month's payroll, then streams
// it as CSV, one row per employee.
func ExportMonthlyCSV(c *fiber.Ctx) error {
	year := c.QueryInt("year")
	month := c.QueryInt("month")

	results, err := Payroll.GenerateForMonth(year, month)
	if err != nil {
		return payrollError(c, err)
	}
	if len(results) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(types.APIResponse{
			Success: false,
			Error:   fmt.Sprintf("no payroll data for %04d-%02d", year, month),
		})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"employee_id", "full_name", "period", "hourly_rate",
		"regular_hours", "overtime_hours", "gross", "adjustments", "tax", "net"})
	for _, r := range results {
		_ = w.Write([]string{
			strconv.FormatUint(uint64(r.EmployeeID), 10),
			r.FullName,
			r.Period,
			money(r.HourlyRate),
			money(r.RegularHours),
			money(r.OvertimeHours),
			money(r.Gross),
			money(r.Adjustments),
			money(r.Tax),
			money(r.Net),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		utils.Logger.Error("failed to write payroll csv", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInternalError,
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="payroll_%04d-%02d.csv"`, year, month))
	return c.Send(buf.Bytes())
}

// Payslip renders one employee's computed payroll as key/value CSV rows.
// It previews only; the stored run is untouched.
func Payslip(c *fiber.Ctx) error {
	employeeID := c.QueryInt("employee_id")
	if employeeID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   "employee_id is required",
		})
	}
	year := c.QueryInt("year")
	month := c.QueryInt("month")

	result, err := Payroll.ComputeForEmployee(uint(employeeID), year, month)
	if err != nil {
		return payrollError(c, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll([][]string{
		{"field", "value"},
		{"employee_id", strconv.FormatUint(uint64(result.EmployeeID), 10)},
		{"full_name", result.FullName},
		{"period", result.Period},
		{"hourly_rate", money(result.HourlyRate)},
		{"regular_hours", money(result.RegularHours)},
		{"overtime_hours", money(result.OvertimeHours)},
		{"gross", money(result.Gross)},
		{"adjustments", money(result.Adjustments)},
		{"tax", money(result.Tax)},
		{"net", money(result.Net)},
	})
	if err := w.Error(); err != nil {
		utils.Logger.Error("failed to write payslip csv", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInternalError,
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="payslip_%d_%04d-%02d.csv"`, employeeID, year, month))
	return c.Send(buf.Bytes())
}

// payrollError maps service failures onto HTTP statuses.
func payrollError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, types.ErrEmployeeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(types.APIResponse{
			Success: false,
			Error:   err.Error(),
		})
	case errors.Is(err, types.ErrMalformedInput):
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   err.Error(),
		})
	case errors.Is(err, types.ErrPersistenceConflict):
		return c.Status(fiber.StatusConflict).JSON(types.APIResponse{
			Success: false,
			Error:   err.Error(),
		})
	default:
		utils.Logger.Error("payroll operation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInternalError,
		})
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
