package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-contentdb/internal/config"
	"github.com/localnerve/jam-build-contentdb/internal/services"
	"github.com/localnerve/jam-build-contentdb/internal/utils"
	"gorm.io/gorm"
)

// HealthHandler serves the health endpoint
type HealthHandler struct {
	DB     *gorm.DB
	Config *config.Config
}

// Health handles GET /health
// @Summary Health check
// @Description Report database connectivity and migration state
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.DB)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return utils.SuccessResponse(c, result, status)
}
