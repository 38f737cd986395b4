package services

import (
	"context"
	"fmt"
	"time"

	"github.com/localnerve/jam-build-contentdb/internal/config"
	"github.com/localnerve/jam-build-contentdb/internal/models"
	"github.com/localnerve/jam-build-contentdb/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Schema       string            `json:"schema"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck pings the database and verifies the engine tables are migrated
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Network databases must answer on their port before the pool is pinged
	if !cfg.IsSQLite() {
		if err := utils.PingHost(ctx, cfg.DBHost, cfg.DBPort); err != nil {
			result.Status = "unhealthy"
			result.Database = "unreachable"
			result.Details["database_host_error"] = err.Error()
			result.ErrorMessage = fmt.Sprintf("Database host unreachable: %v", err)
			zap.L().Warn("health check failed - database host", zap.Error(err))
			return result
		}
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Status = "unhealthy"
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		result.ErrorMessage = fmt.Sprintf("Database connection error: %v", err)
		zap.L().Warn("health check failed - database connection", zap.Error(err))
		return result
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		result.Status = "unhealthy"
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		result.ErrorMessage = fmt.Sprintf("Database ping failed: %v", err)
		zap.L().Warn("health check failed - database ping", zap.Error(err))
		return result
	}
	result.Database = "ok"
	result.Details["database_type"] = cfg.DBType
	result.Details["database_name"] = cfg.DBDatabase

	// Check the engine tables exist
	migrator := db.WithContext(ctx).Migrator()
	for _, m := range models.All() {
		if !migrator.HasTable(m) {
			result.Status = "unhealthy"
			result.Schema = "missing"
			result.ErrorMessage = "Schema check failed: run migrations"
			zap.L().Warn("health check failed - tables missing")
			return result
		}
	}
	result.Schema = "ok"

	zap.L().Debug("health check passed - all systems operational")
	return result
}
