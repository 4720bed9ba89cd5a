package main

import (
	"attendance_payroll/config"
	"attendance_payroll/handlers"
	"attendance_payroll/middleware"
	"attendance_payroll/models"
	"attendance_payroll/services"
	"attendance_payroll/types"
	"attendance_payroll/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	config.LoadConfig()
	utils.InitLogger()
	defer utils.Logger.Sync()

	db, err := gorm.Open(sqlite.Open(config.AppConfig.DBPath), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		utils.Logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.Employee{},
		&models.User{},
		&models.AttendanceEvent{},
		&models.Adjustment{},
		&models.PayrollRun{},
	); err != nil {
		utils.Logger.Fatal("failed to migrate database", zap.Error(err))
	}
	if err := seedAdmin(db); err != nil {
		utils.Logger.Fatal("failed to seed admin account", zap.Error(err))
	}

	payroll := services.NewPayrollService(db, config.AppConfig.TaxRate, config.AppConfig.OvertimeMultiplier)
	handlers.InitHandlers(db, payroll)

	app := fiber.New(fiber.Config{
		AppName: "attendance_payroll",
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New())
	setupRoutes(app)

	utils.Logger.Info("starting server", zap.String("port", config.AppConfig.Port))
	if err := app.Listen(":" + config.AppConfig.Port); err != nil {
		utils.Logger.Fatal("server stopped", zap.Error(err))
	}
}

func setupRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(types.APIResponse{Success: true, Message: "ok"})
	})

	auth := app.Group("/auth")
	auth.Post("/login", handlers.Login)
	auth.Post("/register", middleware.RequireAuth(), middleware.RequireHR(), handlers.Register)

	employees := app.Group("/employees", middleware.RequireAuth(), middleware.RequireHR())
	employees.Get("/", handlers.ListEmployees)
	employees.Post("/", handlers.CreateEmployee)
	employees.Get("/:id", handlers.GetEmployee)
	employees.Patch("/:id", handlers.UpdateEmployee)
	employees.Delete("/:id", handlers.DeactivateEmployee)

	attendance := app.Group("/attendance", middleware.RequireAuth())
	attendance.Post("/sign-in", handlers.SignIn)
	attendance.Post("/sign-out", handlers.SignOut)
	attendance.Post("/corrections", middleware.RequireHR(), handlers.AddCorrection)
	attendance.Get("/events", handlers.ListEvents)
	attendance.Delete("/events/:id", middleware.RequireHR(), handlers.DeleteEvent)
	attendance.Get("/hours", handlers.DailyHours)

	adjustments := app.Group("/adjustments", middleware.RequireAuth(), middleware.RequireHR())
	adjustments.Post("/", handlers.AddAdjustment)
	adjustments.Get("/", handlers.ListAdjustments)

	payroll := app.Group("/payroll", middleware.RequireAuth(), middleware.RequireHR())
	payroll.Get("/compute", handlers.ComputePayroll)
	payroll.Post("/persist", handlers.PersistPayroll)
	payroll.Post("/generate", handlers.GeneratePayroll)
	payroll.Get("/runs", handlers.ListPayrollRuns)
	payroll.Get("/export", handlers.ExportMonthlyCSV)
	payroll.Get("/payslip", handlers.Payslip)

	reports := app.Group("/reports", middleware.RequireAuth(), middleware.RequireHR())
	reports.Get("/monthly", handlers.GetMonthlyReport)
}

// seedAdmin creates the bootstrap HR account on an empty users table so a
// fresh deployment can log in and register real accounts.
func seedAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		ID:           uuid.New().String(),
		Username:     "admin",
		PasswordHash: string(hash),
		IsHR:         true,
		Active:       true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	utils.Logger.Warn("seeded default admin account, change its password",
		zap.String("username", admin.Username))
	return nil
}
