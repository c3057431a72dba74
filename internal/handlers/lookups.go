package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"hospital-system/internal/database"
	"hospital-system/internal/models"
	"hospital-system/internal/utils"
	"hospital-system/internal/viacep"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CEPLookup resolves a postal code to an address.
type CEPLookup interface {
	Lookup(ctx context.Context, cep string) (*viacep.Address, error)
}

type validateCPFRequest struct {
	CPF string `json:"cpf"`
}

// ValidateCPF checks the verifier digits and rejects CPFs already registered.
func ValidateCPF(c *gin.Context) {
	var req validateCPFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "message": "Dados não fornecidos"})
		return
	}
	if ok, msg := utils.ValidCPF(req.CPF); !ok {
		c.JSON(http.StatusOK, gin.H{"valid": false, "message": msg})
		return
	}

	digits := utils.OnlyDigits(req.CPF)
	var existing models.Patient
	err := database.DB.Where("cpf = ? OR cpf = ?", digits, req.CPF).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"valid":   false,
			"message": fmt.Sprintf("CPF já cadastrado para %s (Prontuário: %s)", existing.Nome, existing.Prontuario),
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "message": "Erro na validação: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "message": "CPF válido"})
}

// ConsultCEP proxies the ViaCEP lookup used to autofill the address.
func ConsultCEP(lookup CEPLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		cep := utils.OnlyDigits(c.Param("cep"))
		if len(cep) != 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "CEP deve conter 8 dígitos"})
			return
		}

		addr, err := lookup.Lookup(c.Request.Context(), cep)
		if err != nil {
			if errors.Is(err, viacep.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "CEP não encontrado"})
				return
			}
			logger.Warn("cep lookup failed", zap.String("cep", cep), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro de conexão com o serviço de CEP"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"cep":         cep[:5] + "-" + cep[5:],
			"logradouro":  addr.Logradouro,
			"bairro":      addr.Bairro,
			"cidade":      addr.Localidade,
			"estado":      addr.UF,
			"complemento": addr.Complemento,
			"success":     true,
		})
	}
}

func NextRecordNumber(c *gin.Context) {
	number, err := nextRecordNumber(database.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao gerar prontuário: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"numero": number, "success": true})
}
