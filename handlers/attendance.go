package handlers

import (
	"errors"
	"time"

	"attendance_payroll/models"
	"attendance_payroll/types"
	"attendance_payroll/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SignRequest struct {
	EmployeeID uint   `json:"employee_id"`
	Note       string `json:"note"`
}

type CorrectionRequest struct {
	EmployeeID uint   `json:"employee_id"`
	Kind       string `json:"kind"`
	Timestamp  string `json:"timestamp"`
	Note       string `json:"note"`
}

// resolveActor decides which employee an attendance request applies to. An
// omitted employee_id falls back to the caller's linked employee; non-HR
// callers may never act on anyone else's record.
func resolveActor(c *fiber.Ctx, requested uint) (uint, bool) {
	isHR, _ := c.Locals("is_hr").(bool)
	linked, hasLinked := c.Locals("employee_id").(uint)
	if requested == 0 {
		return linked, hasLinked
	}
	if !isHR && (!hasLinked || linked != requested) {
		return 0, false
	}
	return requested, true
}

// SignIn appends a sign_in event stamped with the current time.
func SignIn(c *fiber.Ctx) error {
	return recordEvent(c, models.EventSignIn)
}

// SignOut appends a sign_out event stamped with the current time, then
// refreshes the stored payroll run for the sign-out month. A refresh failure
// is logged and must not void the sign out.
func SignOut(c *fiber.Ctx) error {
	return recordEvent(c, models.EventSignOut)
}

func recordEvent(c *fiber.Ctx, kind string) error {
	var req SignRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
				Success: false,
				Error:   types.ErrInvalidInput,
			})
		}
	}

	employeeID, ok := resolveActor(c, req.EmployeeID)
	if !ok {
		if req.EmployeeID == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
				Success: false,
				Error:   "employee_id is required for accounts without a linked employee",
			})
		}
		return c.Status(fiber.StatusForbidden).JSON(types.APIResponse{
			Success: false,
			Error:   "cannot record attendance for another employee",
		})
	}

	var emp models.Employee
	if err := DB.Where("id = ? AND active = ?", employeeID, true).First(&emp).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrEmployeeNotFound.Error(),
		})
	}

	now := time.Now()
	event := models.AttendanceEvent{
		EmployeeID: employeeID,
		Kind:       kind,
		Timestamp:  now.Format(models.TimestampLayout),
		Note:       req.Note,
	}
	if err := DB.Create(&event).Error; err != nil {
		utils.Logger.Error("failed to record attendance event",
			zap.String("kind", kind),
			zap.Uint("employee_id", employeeID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	if kind == models.EventSignOut {
		if _, err := Payroll.PersistForEmployee(employeeID, now.Year(), int(now.Month())); err != nil {
			utils.Logger.Warn("post sign-out payroll refresh failed",
				zap.Uint("employee_id", employeeID),
				zap.Error(err))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(types.APIResponse{
		Success: true,
		Message: "attendance recorded",
		Data:    event,
	})
}

// AddCorrection appends an HR-issued event at an explicit timestamp. The
// original rows stay untouched; the correction is a new row flagged
// corrected_by_admin.
func AddCorrection(c *fiber.Ctx) error {
	var req CorrectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}
	if req.Kind != models.EventSignIn && req.Kind != models.EventSignOut && req.Kind != models.EventCorrection {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   "kind must be sign_in, sign_out or correction",
		})
	}
	ts, err := parseEventTimestamp(req.Timestamp)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrMalformedInput.Error() + ": timestamp must be YYYY-MM-DDTHH:MM:SS",
		})
	}

	var emp models.Employee
	if err := DB.Where("id = ? AND active = ?", req.EmployeeID, true).First(&emp).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrEmployeeNotFound.Error(),
		})
	}

	event := models.AttendanceEvent{
		EmployeeID:       req.EmployeeID,
		Kind:             req.Kind,
		Timestamp:        ts.Format(models.TimestampLayout),
		CorrectedByAdmin: true,
		Note:             req.Note,
	}
	if err := DB.Create(&event).Error; err != nil {
		utils.Logger.Error("failed to record correction", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(types.APIResponse{
		Success: true,
		Message: "correction recorded",
		Data:    event,
	})
}

// ListEvents returns attendance events ordered by timestamp then insertion
// order. Non-HR callers see only their own; HR may pass any employee_id or
// none for all employees. Optional start/end bound the window as [start, end).
func ListEvents(c *fiber.Ctx) error {
	requested := c.QueryInt("employee_id")
	if requested < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	isHR, _ := c.Locals("is_hr").(bool)
	var employeeID uint
	if isHR {
		// 0 means all employees.
		employeeID = uint(requested)
	} else {
		var ok bool
		employeeID, ok = resolveActor(c, uint(requested))
		if !ok {
			if requested == 0 {
				return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
					Success: false,
					Error:   "employee_id is required for accounts without a linked employee",
				})
			}
			return c.Status(fiber.StatusForbidden).JSON(types.APIResponse{
				Success: false,
				Error:   "cannot view another employee's attendance",
			})
		}
	}

	query := DB.Order("timestamp, id")
	if employeeID != 0 {
		query = query.Where("employee_id = ?", employeeID)
	}
	if start := c.Query("start"); start != "" {
		bound, err := parseWindowBound(start, false)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
				Success: false,
				Error:   types.ErrMalformedInput.Error() + ": start",
			})
		}
		query = query.Where("timestamp >= ?", bound)
	}
	if end := c.Query("end"); end != "" {
		bound, err := parseWindowBound(end, true)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
				Success: false,
				Error:   types.ErrMalformedInput.Error() + ": end",
			})
		}
		query = query.Where("timestamp < ?", bound)
	}

	var events []models.AttendanceEvent
	if err := query.Find(&events).Error; err != nil {
		utils.Logger.Error("failed to list attendance events", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    events,
	})
}

// DeleteEvent removes one attendance event row. HR only; this is the single
// destructive operation on the event log.
func DeleteEvent(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	result := DB.Delete(&models.AttendanceEvent{}, id)
	if result.Error != nil {
		utils.Logger.Error("failed to delete attendance event", zap.Error(result.Error))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(types.APIResponse{
			Success: false,
			Error:   "attendance event not found",
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "attendance event deleted",
	})
}

// DailyHours reports one day's worked hours with the 8-hour regular and
// overtime split. Non-HR callers may only query themselves.
func DailyHours(c *fiber.Ctx) error {
	requested := c.QueryInt("employee_id")
	if requested < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	employeeID, ok := resolveActor(c, uint(requested))
	if !ok {
		if requested == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
				Success: false,
				Error:   "employee_id is required for accounts without a linked employee",
			})
		}
		return c.Status(fiber.StatusForbidden).JSON(types.APIResponse{
			Success: false,
			Error:   "cannot view another employee's attendance",
		})
	}

	result, err := Payroll.DayHours(employeeID, c.Query("date"))
	if err != nil {
		if errors.Is(err, types.ErrMalformedInput) {
			return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
				Success: false,
				Error:   err.Error(),
			})
		}
		utils.Logger.Error("failed to compute daily hours",
			zap.Uint("employee_id", employeeID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    result,
	})
}

func parseEventTimestamp(ts string) (time.Time, error) {
	if at, err := time.Parse(models.TimestampLayout, ts); err == nil {
		return at, nil
	}
	return time.Parse(models.LegacyTimestampLayout, ts)
}

// parseWindowBound accepts a full timestamp or a bare date. A date as the end
// bound means through the end of that day, so it expands to the next
// midnight for the exclusive comparison.
func parseWindowBound(value string, endBound bool) (string, error) {
	if at, err := parseEventTimestamp(value); err == nil {
		return at.Format(models.TimestampLayout), nil
	}
	day, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return "", err
	}
	if endBound {
		day = day.AddDate(0, 0, 1)
	}
	return day.Format(models.TimestampLayout), nil
}
