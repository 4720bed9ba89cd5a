package middleware

import (
	"strings"

	"attendance_payroll/config"
	"attendance_payroll/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RequireAuth validates the Bearer token and stashes the caller's identity
// in request locals: user_id (string), is_hr (bool) and, when the account is
// linked to an employee record, employee_id (uint).
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(types.APIResponse{
				Success: false,
				Error:   types.ErrUnauthorized,
			})
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(config.AppConfig.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(types.APIResponse{
				Success: false,
				Error:   types.ErrUnauthorized,
			})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(types.APIResponse{
				Success: false,
				Error:   types.ErrUnauthorized,
			})
		}
		userID, _ := claims["user_id"].(string)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.APIResponse{
				Success: false,
				Error:   types.ErrUnauthorized,
			})
		}

		c.Locals("user_id", userID)
		isHR, _ := claims["is_hr"].(bool)
		c.Locals("is_hr", isHR)
		// JSON numbers decode as float64.
		if v, ok := claims["employee_id"].(float64); ok && v > 0 {
			c.Locals("employee_id", uint(v))
		}
		return c.Next()
	}
}

// RequireHR rejects non-HR callers. Mount it after RequireAuth.
func RequireHR() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isHR, _ := c.Locals("is_hr").(bool)
		if !isHR {
			return c.Status(fiber.StatusForbidden).JSON(types.APIResponse{
				Success: false,
				Error:   "HR access required",
			})
		}
		return c.Next()
	}
}
