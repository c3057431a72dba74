package handlers

import (
	"strconv"

	"hospital-system/internal/database"
	"hospital-system/internal/middleware"
	"hospital-system/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// logger is shared by the handlers; SetupRouter replaces it.
var logger = zap.NewNop()

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func isJSON(c *gin.Context) bool {
	return c.ContentType() == "application/json"
}

// audit records an action of the current user. Failures are logged and otherwise ignored.
func audit(c *gin.Context, action, details string) {
	entry := models.AuditLog{
		IPAddress: c.ClientIP(),
		Acao:      action,
		Detalhes:  details,
	}
	if id := middleware.CurrentUserID(c); id != 0 {
		entry.UsuarioID = &id
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
