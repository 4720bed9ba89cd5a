package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"attendance_payroll/config"
	"attendance_payroll/middleware"
	"attendance_payroll/models"
	"attendance_payroll/services"
	"attendance_payroll/types"
	"attendance_payroll/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	os.Setenv("JWT_SECRET", "handlers-test-secret")
	config.LoadConfig()
	utils.InitLogger()
}

// setupApp builds a fresh in-memory database and a fiber app with the same
// route table main mounts.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Employee{},
		&models.User{},
		&models.AttendanceEvent{},
		&models.Adjustment{},
		&models.PayrollRun{},
	))

	InitHandlers(db, services.NewPayrollService(db, 0.15, 1.5))

	app := fiber.New()

	auth := app.Group("/auth")
	auth.Post("/login", Login)
	auth.Post("/register", middleware.RequireAuth(), middleware.RequireHR(), Register)

	employees := app.Group("/employees", middleware.RequireAuth(), middleware.RequireHR())
	employees.Get("/", ListEmployees)
	employees.Post("/", CreateEmployee)
	employees.Get("/:id", GetEmployee)
	employees.Patch("/:id", UpdateEmployee)
	employees.Delete("/:id", DeactivateEmployee)

	attendance := app.Group("/attendance", middleware.RequireAuth())
	attendance.Post("/sign-in", SignIn)
	attendance.Post("/sign-out", SignOut)
	attendance.Post("/corrections", middleware.RequireHR(), AddCorrection)
	attendance.Get("/events", ListEvents)
	attendance.Delete("/events/:id", middleware.RequireHR(), DeleteEvent)
	attendance.Get("/hours", DailyHours)

	adjustments := app.Group("/adjustments", middleware.RequireAuth(), middleware.RequireHR())
	adjustments.Post("/", AddAdjustment)
	adjustments.Get("/", ListAdjustments)

	payroll := app.Group("/payroll", middleware.RequireAuth(), middleware.RequireHR())
	payroll.Get("/compute", ComputePayroll)
	payroll.Post("/persist", PersistPayroll)
	payroll.Post("/generate", GeneratePayroll)
	payroll.Get("/runs", ListPayrollRuns)
	payroll.Get("/export", ExportMonthlyCSV)
	payroll.Get("/payslip", Payslip)

	reports := app.Group("/reports", middleware.RequireAuth(), middleware.RequireHR())
	reports.Get("/monthly", GetMonthlyReport)

	return app, db
}

func createEmployeeRecord(t *testing.T, db *gorm.DB, name string, rate float64) models.Employee {
	t.Helper()
	emp := models.Employee{FullName: name, Role: "staff", HourlyRate: rate, Active: true}
	require.NoError(t, db.Create(&emp).Error)
	return emp
}

func seedEvent(t *testing.T, db *gorm.DB, employeeID uint, kind, ts string) models.AttendanceEvent {
	t.Helper()
	ev := models.AttendanceEvent{EmployeeID: employeeID, Kind: kind, Timestamp: ts}
	require.NoError(t, db.Create(&ev).Error)
	return ev
}

func createUser(t *testing.T, db *gorm.DB, username, password string, isHR bool, employeeID *uint) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		IsHR:         isHR,
		EmployeeID:   employeeID,
		Active:       true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func mintToken(t *testing.T, user models.User) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"is_hr":   user.IsHR,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	if user.EmployeeID != nil {
		claims["employee_id"] = *user.EmployeeID
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(config.AppConfig.JWTSecret))
	require.NoError(t, err)
	return token
}

func hrToken(t *testing.T, db *gorm.DB) string {
	t.Helper()
	return mintToken(t, createUser(t, db, "hr_"+uuid.New().String()[:8], "secret123", true, nil))
}

func doRequest(t *testing.T, app *fiber.App, method, target, token string, body interface{}) *http.Response {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) types.APIResponse {
	t.Helper()
	var out types.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
