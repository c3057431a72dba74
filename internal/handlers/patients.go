package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hospital-system/internal/database"
	"hospital-system/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- Structs for Request Binding ---

// PatientRequest is the JSON body of create and update. Address fields are
// stored in the principal address row when cep is present.
type PatientRequest struct {
	Nome            string  `json:"nome"`
	DataNascimento  string  `json:"data_nascimento"`
	CPF             *string `json:"cpf"`
	RG              *string `json:"rg"`
	Sexo            string  `json:"sexo"`
	Raca            string  `json:"raca"`
	Nacionalidade   string  `json:"nacionalidade"`
	NomeMae         *string `json:"nome_mae"`
	MaeDesconhecida bool    `json:"mae_desconhecida"`
	NomePai         *string `json:"nome_pai"`
	Email           *string `json:"email"`
	Telefone        *string `json:"telefone"`
	Convenio        string  `json:"convenio"`
	NumeroCartao    *string `json:"numero_cartao"`
	TitularCartao   *string `json:"titular_cartao"`

	CEP             string  `json:"cep"`
	Estado          string  `json:"estado"`
	Cidade          string  `json:"cidade"`
	Bairro          string  `json:"bairro"`
	Logradouro      string  `json:"logradouro"`
	Numero          string  `json:"numero"`
	Complemento     *string `json:"complemento"`
	PontoReferencia *string `json:"ponto_referencia"`
}

// PatientDetail is a patient merged with its principal address.
type PatientDetail struct {
	models.Patient
	CEP             string  `json:"cep,omitempty"`
	Estado          string  `json:"estado,omitempty"`
	Cidade          string  `json:"cidade,omitempty"`
	Bairro          string  `json:"bairro,omitempty"`
	Logradouro      string  `json:"logradouro,omitempty"`
	Numero          string  `json:"numero,omitempty"`
	Complemento     *string `json:"complemento,omitempty"`
	PontoReferencia *string `json:"ponto_referencia,omitempty"`
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// apply copies the request onto a patient, filling the registration defaults.
func (r *PatientRequest) apply(p *models.Patient) {
	p.Nome = r.Nome
	p.CPF = r.CPF
	p.RG = r.RG
	p.Sexo = orDefault(r.Sexo, "M")
	p.Raca = orDefault(r.Raca, "NÃO INFORMADA")
	p.Nacionalidade = orDefault(r.Nacionalidade, "BRASILEIRA")
	p.NomeMae = r.NomeMae
	p.MaeDesconhecida = r.MaeDesconhecida
	if r.MaeDesconhecida {
		mother := models.MotherUnknownName
		p.NomeMae = &mother
	}
	p.NomePai = r.NomePai
	p.Email = r.Email
	p.Telefone = r.Telefone
	p.Convenio = orDefault(r.Convenio, "sus")
	p.NumeroCartao = r.NumeroCartao
	p.TitularCartao = r.TitularCartao
}

func (r *PatientRequest) applyAddress(a *models.Address) {
	a.CEP = r.CEP
	a.Estado = r.Estado
	a.Cidade = r.Cidade
	a.Bairro = orDefault(r.Bairro, "NÃO INFORMADO")
	a.Logradouro = orDefault(r.Logradouro, "NÃO INFORMADO")
	a.Numero = orDefault(r.Numero, "S/N")
	a.Complemento = r.Complemento
	a.PontoReferencia = r.PontoReferencia
	a.Principal = true
}

func validBirthDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// nextRecordNumber derives the next prontuário from the most recent patient.
func nextRecordNumber(tx *gorm.DB) (string, error) {
	var last models.Patient
	err := tx.Order("id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "000001", nil
	}
	if err != nil {
		return "", err
	}
	n, convErr := strconv.Atoi(last.Prontuario)
	if convErr != nil {
		n = 0
	}
	return fmt.Sprintf("%06d", n+1), nil
}

// --- Handler Functions ---

// SearchPatients matches nome, cpf or prontuario; without a term it lists active patients.
func SearchPatients(c *gin.Context) {
	search := c.Query("search")

	var patients []models.Patient
	query := database.DB.Order("nome")
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(nome) LIKE LOWER(?) OR cpf LIKE ? OR prontuario LIKE ?", like, like, like)
	} else {
		query = query.Where("ativo = ?", true)
	}
	if err := query.Find(&patients).Error; err != nil {
		logger.Error("patient search failed", zap.String("search", search), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Debug("patient search", zap.String("search", search), zap.Int("found", len(patients)))
	c.JSON(http.StatusOK, patients)
}

func CreatePatient(c *gin.Context) {
	if !isJSON(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type deve ser application/json"})
		return
	}
	var req PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados não fornecidos"})
		return
	}
	if req.Nome == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nome é obrigatório"})
		return
	}
	if req.DataNascimento == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Data de nascimento é obrigatória"})
		return
	}
	if !validBirthDate(req.DataNascimento) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Formato de data inválido. Use YYYY-MM-DD"})
		return
	}
	if req.CEP != "" && (req.Estado == "" || req.Cidade == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Campo obrigatório ausente: estado/cidade"})
		return
	}

	var patient models.Patient
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		number, err := nextRecordNumber(tx)
		if err != nil {
			return err
		}
		patient = models.Patient{Prontuario: number, DataNascimento: req.DataNascimento, Ativo: true}
		req.apply(&patient)
		if err := tx.Create(&patient).Error; err != nil {
			return err
		}
		if req.CEP != "" {
			addr := models.Address{PacienteID: patient.ID}
			req.applyAddress(&addr)
			if err := tx.Create(&addr).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("create patient failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno: " + err.Error()})
		return
	}

	audit(c, "PACIENTE_CADASTRADO", fmt.Sprintf("Paciente %s (ID: %d) cadastrado", patient.Nome, patient.ID))
	c.JSON(http.StatusCreated, patient)
}

func loadPatientDetail(id uint) (*PatientDetail, error) {
	var patient models.Patient
	if err := database.DB.First(&patient, id).Error; err != nil {
		return nil, err
	}
	detail := &PatientDetail{Patient: patient}

	var addr models.Address
	err := database.DB.Where("paciente_id = ? AND principal = ?", id, true).First(&addr).Error
	switch {
	case err == nil:
		detail.CEP = addr.CEP
		detail.Estado = addr.Estado
		detail.Cidade = addr.Cidade
		detail.Bairro = addr.Bairro
		detail.Logradouro = addr.Logradouro
		detail.Numero = addr.Numero
		detail.Complemento = addr.Complemento
		detail.PontoReferencia = addr.PontoReferencia
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return detail, nil
}

func GetPatient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de paciente inválido"})
		return
	}
	detail, err := loadPatientDetail(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Paciente não encontrado"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao buscar paciente: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdatePatient rewrites the patient fields and upserts the principal address.
// The prontuário is never changed; an omitted birth date keeps the stored one.
func UpdatePatient(c *gin.Context) {
	if !isJSON(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type deve ser application/json"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de paciente inválido"})
		return
	}
	var req PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados não fornecidos"})
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
	if req.Nome == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nome é obrigatório"})
		return
	}
	if req.DataNascimento != "" {
		if !validBirthDate(req.DataNascimento) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Formato de data inválido. Use YYYY-MM-DD"})
			return
		}
		patient.DataNascimento = req.DataNascimento
	}
	if req.CEP != "" && (req.Estado == "" || req.Cidade == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Campo obrigatório ausente: estado/cidade"})
		return
	}
	req.apply(&patient)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&patient).Error; err != nil {
			return err
		}
		if req.CEP == "" {
			return nil
		}
		var addr models.Address
		err := tx.Where("paciente_id = ? AND principal = ?", patient.ID, true).First(&addr).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		addr.PacienteID = patient.ID
		req.applyAddress(&addr)
		return tx.Save(&addr).Error
	})
	if err != nil {
		logger.Error("update patient failed", zap.Uint("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno: " + err.Error()})
		return
	}

	audit(c, "PACIENTE_ATUALIZADO", fmt.Sprintf("Paciente %s (ID: %d) foi atualizado", patient.Nome, patient.ID))
	c.JSON(http.StatusOK, patient)
}
