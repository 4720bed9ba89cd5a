package handlers

import (
	"time"

	"attendance_payroll/config"
	"attendance_payroll/models"
	"attendance_payroll/types"
	"attendance_payroll/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	IsHR       bool   `json:"is_hr"`
	EmployeeID *uint  `json:"employee_id"`
}

// Login checks the credentials and returns a signed token. A deactivated
// account, or one linked to a deactivated employee, fails the same way as a
// wrong password.
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}
	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   "username and password are required",
		})
	}

	var user models.User
	if err := DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return invalidCredentials(c)
	}
	if !user.Active {
		return invalidCredentials(c)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return invalidCredentials(c)
	}
	if user.EmployeeID != nil {
		var emp models.Employee
		if err := DB.First(&emp, *user.EmployeeID).Error; err != nil || !emp.Active {
			return invalidCredentials(c)
		}
	}

	token, err := issueToken(&user)
	if err != nil {
		utils.Logger.Error("failed to sign token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInternalError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "login successful",
		Data: fiber.Map{
			"token":       token,
			"user_id":     user.ID,
			"username":    user.Username,
			"is_hr":       user.IsHR,
			"employee_id": user.EmployeeID,
		},
	})
}

// Register creates a login account, optionally linked to an employee
// record. HR only.
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}
	if req.Username == "" || len(req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   "username and a password of at least 6 characters are required",
		})
	}
	if req.EmployeeID != nil {
		var emp models.Employee
		if err := DB.Where("id = ? AND active = ?", *req.EmployeeID, true).First(&emp).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(types.APIResponse{
				Success: false,
				Error:   types.ErrEmployeeNotFound.Error(),
			})
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.Logger.Error("failed to hash password", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInternalError,
		})
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: string(hash),
		IsHR:         req.IsHR,
		EmployeeID:   req.EmployeeID,
		Active:       true,
	}
	if err := DB.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(types.APIResponse{
				Success: false,
				Error:   "username already taken",
			})
		}
		utils.Logger.Error("failed to create user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(types.APIResponse{
		Success: true,
		Message: "account created",
		Data: fiber.Map{
			"user_id":     user.ID,
			"username":    user.Username,
			"is_hr":       user.IsHR,
			"employee_id": user.EmployeeID,
		},
	})
}

func issueToken(user *models.User) (string, error) {
	expiry, err := time.ParseDuration(config.AppConfig.TokenExpiryDuration)
	if err != nil {
		expiry = 24 * time.Hour
	}
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"is_hr":   user.IsHR,
		"exp":     time.Now().Add(expiry).Unix(),
	}
	if user.EmployeeID != nil {
		claims["employee_id"] = *user.EmployeeID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(config.AppConfig.JWTSecret))
}

func invalidCredentials(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(types.APIResponse{
		Success: false,
		Error:   "invalid credentials",
	})
}
