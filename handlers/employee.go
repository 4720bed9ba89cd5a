package handlers

import (
	"errors"

	"attendance_payroll/models"
	"attendance_payroll/types"
	"attendance_payroll/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateEmployeeRequest struct {
	FullName   string  `json:"full_name"`
	Role       string  `json:"role"`
	Department string  `json:"department"`
	Contact    string  `json:"contact"`
	HourlyRate float64 `json:"hourly_rate"`
}

type UpdateEmployeeRequest struct {
	FullName   *string  `json:"full_name"`
	Role       *string  `json:"role"`
	Department *string  `json:"department"`
	Contact    *string  `json:"contact"`
	HourlyRate *float64 `json:"hourly_rate"`
	Active     *bool    `json:"active"`
}

type AddAdjustmentRequest struct {
	EmployeeID uint    `json:"employee_id"`
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Amount     float64 `json:"amount"`
	Kind       string  `json:"kind"`
	Note       string  `json:"note"`
}

// CreateEmployee registers a new employee record.
func CreateEmployee(c *fiber.Ctx) error {
	var req CreateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}
	if req.FullName == "" || req.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   "full_name and role are required",
		})
	}
	if req.HourlyRate < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   "hourly_rate must not be negative",
		})
	}

	emp := models.Employee{
		FullName:   req.FullName,
		Role:       req.Role,
		Department: req.Department,
		Contact:    req.Contact,
		HourlyRate: req.HourlyRate,
		Active:     true,
	}
	if err := DB.Create(&emp).Error; err != nil {
		utils.Logger.Error("failed to create employee", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(types.APIResponse{
		Success: true,
		Message: "employee created",
		Data:    emp,
	})
}

// ListEmployees returns all employees, or only active ones with ?active=true.
func ListEmployees(c *fiber.Ctx) error {
	query := DB.Order("id")
	if c.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	var employees []models.Employee
	if err := query.Find(&employees).Error; err != nil {
		utils.Logger.Error("failed to list employees", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    employees,
	})
}

// GetEmployee returns one employee record, active or not.
func GetEmployee(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	var emp models.Employee
	if err := DB.First(&emp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.APIResponse{
				Success: false,
				Error:   types.ErrEmployeeNotFound.Error(),
			})
		}
		utils.Logger.Error("failed to load employee", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    emp,
	})
}

// UpdateEmployee applies a partial update. Rate changes are not retroactive
// to already persisted payroll runs; re-persisting a period recomputes with
// the new rate.
func UpdateEmployee(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	var req UpdateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		if *req.FullName == "" {
			return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
				Success: false,
				Error:   "full_name must not be empty",
			})
		}
		updates["full_name"] = *req.FullName
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.Department != nil {
		updates["department"] = *req.Department
	}
	if req.Contact != nil {
		updates["contact"] = *req.Contact
	}
	if req.HourlyRate != nil {
		if *req.HourlyRate < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
				Success: false,
				Error:   "hourly_rate must not be negative",
			})
		}
		updates["hourly_rate"] = *req.HourlyRate
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   "no fields to update",
		})
	}

	var emp models.Employee
	if err := DB.First(&emp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.APIResponse{
				Success: false,
				Error:   types.ErrEmployeeNotFound.Error(),
			})
		}
		utils.Logger.Error("failed to load employee", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}
	if err := DB.Model(&emp).Updates(updates).Error; err != nil {
		utils.Logger.Error("failed to update employee", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "employee updated",
		Data:    emp,
	})
}

// DeactivateEmployee flips the active flag off. Rows are never deleted, so
// history stays computable for already worked periods.
func DeactivateEmployee(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	result := DB.Model(&models.Employee{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		utils.Logger.Error("failed to deactivate employee", zap.Error(result.Error))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrEmployeeNotFound.Error(),
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "employee deactivated",
	})
}

// AddAdjustment records a signed pre-tax amount against one employee's
// period. Negative amounts are deductions.
func AddAdjustment(c *fiber.Ctx) error {
	var req AddAdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   "year and month must form a valid period",
		})
	}

	var emp models.Employee
	if err := DB.Where("id = ? AND active = ?", req.EmployeeID, true).First(&emp).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrEmployeeNotFound.Error(),
		})
	}

	adj := models.Adjustment{
		EmployeeID: req.EmployeeID,
		Year:       req.Year,
		Month:      req.Month,
		Amount:     req.Amount,
		Kind:       req.Kind,
		Note:       req.Note,
	}
	if err := DB.Create(&adj).Error; err != nil {
		utils.Logger.Error("failed to create adjustment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(types.APIResponse{
		Success: true,
		Message: "adjustment recorded",
		Data:    adj,
	})
}

// ListAdjustments returns one employee's adjustments for a period.
func ListAdjustments(c *fiber.Ctx) error {
	employeeID := c.QueryInt("employee_id")
	year := c.QueryInt("year")
	month := c.QueryInt("month")
	if employeeID <= 0 || year < 1 || month < 1 || month > 12 {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   "employee_id, year and month are required",
		})
	}

	var adjustments []models.Adjustment
	err := DB.Where("employee_id = ? AND year = ? AND month = ?", employeeID, year, month).
		Order("id").
		Find(&adjustments).Error
	if err != nil {
		utils.Logger.Error("failed to list adjustments", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    adjustments,
	})
}
