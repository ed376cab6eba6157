package handler

import "github.com/gofiber/fiber/v3"

// GET /health
func Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": "MediScribe API is running",
	})
}
