package handlers

import (
	"errors"
	"strconv"
	"strings"

	"attendance_payroll/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Shared handler dependencies, assigned once at startup.
var (
	DB      *gorm.DB
	Payroll *services.PayrollService
)

// InitHandlers wires the database handle and the payroll service into the
// handler package.
func InitHandlers(db *gorm.DB, payroll *services.PayrollService) {
	DB = db
	Payroll = payroll
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// isUniqueViolation also matches on the raw SQLite message because the
// driver does not translate every constraint error to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
