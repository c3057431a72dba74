package database

import (
	"errors"
	"fmt"
	"time"

	"hospital-system/internal/models"
	"hospital-system/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedAdmin creates the default administrator account when it does not exist.
func SeedAdmin(db *gorm.DB, log *zap.Logger, password string) error {
	var admin models.User
	err := db.Where("username = ?", "admin").First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin = models.User{
		Username:             "admin",
		Password:             hashed,
		Nome:                 "Administrador",
		Email:                "admin@sistema.com",
		Tipo:                 "admin",
		Ativo:                true,
		UltimaAlteracaoSenha: time.Now().UTC(),
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("default admin user created")
	return nil
}
