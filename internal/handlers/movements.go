package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hospital-system/internal/database"
	"hospital-system/internal/middleware"
	"hospital-system/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateMovementRequest struct {
	PacienteID              uint    `json:"paciente_id"`
	Tipo                    string  `json:"tipo"`
	Status                  string  `json:"status"`
	Prioridade              *string `json:"prioridade"`
	ProfissionalResponsavel *string `json:"profissional_responsavel"`
	Observacoes             *string `json:"observacoes"`
}

// UpdateMovementRequest carries only the fields to change.
type UpdateMovementRequest struct {
	Status                  *string `json:"status"`
	Prioridade              *string `json:"prioridade"`
	ProfissionalResponsavel *string `json:"profissional_responsavel"`
	Observacoes             *string `json:"observacoes"`
	DataSaida               *string `json:"data_saida"`
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func CreateMovement(c *gin.Context) {
	if !isJSON(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type deve ser application/json"})
		return
	}
	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados não fornecidos"})
		return
	}
	switch {
	case req.PacienteID == 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID do paciente é obrigatório"})
		return
	case req.Tipo == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo de movimentação é obrigatório"})
		return
	case req.Status == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status é obrigatório"})
		return
	}

	var patient models.Patient
	if err := database.DB.First(&patient, req.PacienteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Paciente não encontrado"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno: " + err.Error()})
		return
	}

	movement := models.Movement{
		PacienteID:              req.PacienteID,
		Tipo:                    req.Tipo,
		Status:                  req.Status,
		Prioridade:              blankToNil(req.Prioridade),
		ProfissionalResponsavel: blankToNil(req.ProfissionalResponsavel),
		Observacoes:             blankToNil(req.Observacoes),
		DataEntrada:             time.Now().UTC(),
		UsuarioID:               middleware.CurrentUserID(c),
		Ativo:                   true,
	}
	if err := database.DB.Create(&movement).Error; err != nil {
		logger.Error("create movement failed", zap.Uint("paciente_id", req.PacienteID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno: " + err.Error()})
		return
	}

	audit(c, "MOVIMENTACAO_CRIADA", fmt.Sprintf("Nova movimentação criada para paciente %s (ID: %d)", patient.Nome, patient.ID))
	logger.Info("movement created", zap.Uint("id", movement.ID), zap.Uint("paciente_id", patient.ID))
	c.JSON(http.StatusCreated, movement)
}

// ListPatientMovements returns a patient's movements, newest entry first.
func ListPatientMovements(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de paciente inválido"})
		return
	}
	var patient models.Patient
	if err := database.DB.First(&patient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Paciente não encontrado"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno: " + err.Error()})
		return
	}

	movements := []models.Movement{}
	if err := database.DB.Where("paciente_id = ?", id).Order("data_entrada DESC").Order("id DESC").Find(&movements).Error; err != nil {
		logger.Error("list movements failed", zap.Uint("paciente_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, movements)
}

func UpdateMovement(c *gin.Context) {
	if !isJSON(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type deve ser application/json"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de movimentação inválido"})
		return
	}
	var req UpdateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados não fornecidos"})
		return
	}

	var movement models.Movement
	if err := database.DB.First(&movement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Movimentação não encontrada"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno: " + err.Error()})
		return
	}

	if req.Status != nil {
		movement.Status = *req.Status
	}
	if req.Prioridade != nil {
		movement.Prioridade = req.Prioridade
	}
	if req.ProfissionalResponsavel != nil {
		movement.ProfissionalResponsavel = req.ProfissionalResponsavel
	}
	if req.Observacoes != nil {
		movement.Observacoes = req.Observacoes
	}
	if req.DataSaida != nil && *req.DataSaida != "" {
		exit, err := time.Parse(time.RFC3339, *req.DataSaida)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Formato de data_saida inválido"})
			return
		}
		exit = exit.UTC()
		movement.DataSaida = &exit
	}

	if err := database.DB.Save(&movement).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno: " + err.Error()})
		return
	}
	audit(c, "MOVIMENTACAO_ATUALIZADA", fmt.Sprintf("Movimentação ID %d atualizada", movement.ID))
	c.JSON(http.StatusOK, movement)
}

// DeleteMovement removes a movement permanently. Finalised movements are kept.
func DeleteMovement(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de movimentação inválido"})
		return
	}

	var movement models.Movement
	if err := database.DB.Preload("Paciente").First(&movement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Movimentação não encontrada"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno: " + err.Error()})
		return
	}
	if movement.Status == models.StatusFinalizado {
		logger.Warn("refused to delete finalised movement", zap.Uint("id", id))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Não é possível excluir movimentações finalizadas"})
		return
	}

	if err := database.DB.Delete(&models.Movement{}, id).Error; err != nil {
		logger.Error("delete movement failed", zap.Uint("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno: " + err.Error()})
		return
	}

	patientName := "Desconhecido"
	if movement.Paciente != nil {
		patientName = movement.Paciente.Nome
	}
	audit(c, "MOVIMENTACAO_EXCLUIDA", fmt.Sprintf("Movimentação ID %d excluída permanentemente para paciente %s", id, patientName))
	c.JSON(http.StatusOK, gin.H{
		"message":   "Movimentação excluída permanentemente",
		"id":        id,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
