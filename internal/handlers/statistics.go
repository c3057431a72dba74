package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hospital-system/internal/database"
	"hospital-system/internal/format"
	"hospital-system/internal/models"
	"hospital-system/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxSearchLimit caps the rows of one search page and of the detailed report.
const maxSearchLimit = 1000

// statsNow is replaced in tests.
var statsNow = time.Now

type ConvenioCount struct {
	Convenio string `json:"convenio"`
	Total    int64  `json:"total"`
}

type AgeBandCount struct {
	FaixaEtaria string `json:"faixa_etaria"`
	Total       int64  `json:"total"`
}

// Statistics is the aggregate returned by endpoint=statistics.
type Statistics struct {
	TotalPacientes       int64           `json:"total_pacientes"`
	PacientesHoje        int64           `json:"pacientes_hoje"`
	PacientesPorConvenio []ConvenioCount `json:"pacientes_por_convenio"`
	PacientesPorIdade    []AgeBandCount  `json:"pacientes_por_idade"`
	IdadeMedia           float64         `json:"idade_media"`
	IdadeDesvioPadrao    float64         `json:"idade_desvio_padrao"`
}

// SearchRow is a patient joined with the city and state of its address.
type SearchRow struct {
	models.Patient
	Cidade *string `json:"cidade" gorm:"column:cidade"`
	Estado *string `json:"estado" gorm:"column:estado"`
}

// SearchFilters narrows endpoint=search.
type SearchFilters struct {
	Nome       string
	Convenio   string
	Cidade     string
	DataInicio *time.Time
	DataFim    *time.Time
	Limit      int
	Offset     int
}

func statsFail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// HospitalStatistics serves the read-only reporting API.
func HospitalStatistics(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		// cross-origin preflights are answered by statsCORS; this is a bare OPTIONS
		c.Status(http.StatusOK)
		return
	case http.MethodGet:
	default:
		statsFail(c, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	switch c.Query("endpoint") {
	case "statistics":
		stats, err := computeStatistics(statsNow())
		if err != nil {
			logger.Error("statistics query failed", zap.Error(err))
			statsFail(c, http.StatusInternalServerError, "Erro interno: "+err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
	case "search":
		filters, err := parseSearchFilters(c)
		if err != nil {
			statsFail(c, http.StatusBadRequest, err.Error())
			return
		}
		rows, err := searchPatientRows(filters)
		if err != nil {
			logger.Error("statistics search failed", zap.Error(err))
			statsFail(c, http.StatusInternalServerError, "Erro interno: "+err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": rows, "total": len(rows)})
	case "report":
		report(c)
	default:
		statsFail(c, http.StatusNotFound, "Endpoint não encontrado")
	}
}

func report(c *gin.Context) {
	switch c.DefaultQuery("type", "summary") {
	case "summary":
		stats, err := computeStatistics(statsNow())
		if err != nil {
			statsFail(c, http.StatusInternalServerError, "Erro interno: "+err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
	case "detailed":
		rows, err := searchPatientRows(SearchFilters{Limit: maxSearchLimit})
		if err != nil {
			statsFail(c, http.StatusInternalServerError, "Erro interno: "+err.Error())
			return
		}
		generated := statsNow()
		if c.Query("format") == "xlsx" {
			book, err := DetailedReportXLSX(rows, generated)
			if err != nil {
				statsFail(c, http.StatusInternalServerError, "Erro interno: "+err.Error())
				return
			}
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=relatorio-pacientes-%s.xlsx", generated.Format("20060102-150405")))
			c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", book)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
			"total_pacientes": len(rows),
			"pacientes":       rows,
			"gerado_em":       generated.Format("2006-01-02 15:04:05"),
			"tipo":            "Relatório Detalhado de Pacientes",
		}})
	default:
		statsFail(c, http.StatusOK, "Tipo de relatório não suportado")
	}
}

func computeStatistics(now time.Time) (*Statistics, error) {
	db := database.DB
	stats := &Statistics{}

	if err := db.Model(&models.Patient{}).Count(&stats.TotalPacientes).Error; err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).UTC()
	if err := db.Model(&models.Patient{}).
		Where("data_cadastro >= ? AND data_cadastro < ?", dayStart, dayStart.Add(24*time.Hour)).
		Count(&stats.PacientesHoje).Error; err != nil {
		return nil, fmt.Errorf("count today: %w", err)
	}

	stats.PacientesPorConvenio = []ConvenioCount{}
	if err := db.Model(&models.Patient{}).
		Select("convenio, COUNT(*) AS total").
		Group("convenio").
		Order("total DESC").
		Scan(&stats.PacientesPorConvenio).Error; err != nil {
		return nil, fmt.Errorf("group by convenio: %w", err)
	}

	var births []string
	if err := db.Model(&models.Patient{}).Where("data_nascimento <> ''").Pluck("data_nascimento", &births).Error; err != nil {
		return nil, fmt.Errorf("load birth dates: %w", err)
	}
	counts := map[string]int64{}
	ages := make([]float64, 0, len(births))
	for _, b := range births {
		birth, ok := format.ParseDate(b)
		if !ok {
			continue
		}
		age := format.Age(birth, now)
		counts[utils.AgeBand(age)]++
		ages = append(ages, float64(age))
	}
	stats.PacientesPorIdade = []AgeBandCount{}
	for _, band := range []string{"Menor de 18", "18-64 anos", "65+ anos"} {
		if counts[band] > 0 {
			stats.PacientesPorIdade = append(stats.PacientesPorIdade, AgeBandCount{FaixaEtaria: band, Total: counts[band]})
		}
	}
	stats.IdadeMedia, stats.IdadeDesvioPadrao = utils.CalculateStats(ages)
	return stats, nil
}

func parseSearchFilters(c *gin.Context) (SearchFilters, error) {
	f := SearchFilters{
		Nome:     c.Query("nome"),
		Convenio: c.Query("convenio"),
		Cidade:   c.Query("cidade"),
		Limit:    50,
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("Parâmetro limit inválido")
		}
		f.Limit = min(n, maxSearchLimit)
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("Parâmetro offset inválido")
		}
		f.Offset = n
	}
	if v := c.Query("data_inicio"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("Data inválida: %s", v)
		}
		f.DataInicio = &t
	}
	if v := c.Query("data_fim"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("Data inválida: %s", v)
		}
		f.DataFim = &t
	}
	return f, nil
}

func searchPatientRows(f SearchFilters) ([]SearchRow, error) {
	query := database.DB.Table("pacientes AS p").
		Select("p.*, e.cidade, e.estado").
		Joins("LEFT JOIN enderecos e ON p.id = e.paciente_id")

	if f.Nome != "" {
		query = query.Where("LOWER(p.nome) LIKE LOWER(?)", "%"+f.Nome+"%")
	}
	if f.Convenio != "" {
		query = query.Where("p.convenio = ?", f.Convenio)
	}
	if f.Cidade != "" {
		query = query.Where("LOWER(e.cidade) LIKE LOWER(?)", "%"+f.Cidade+"%")
	}
	if f.DataInicio != nil {
		query = query.Where("p.data_cadastro >= ?", *f.DataInicio)
	}
	if f.DataFim != nil {
		query = query.Where("p.data_cadastro < ?", f.DataFim.Add(24*time.Hour))
	}

	rows := []SearchRow{}
	err := query.Order("p.data_cadastro DESC").Limit(f.Limit).Offset(f.Offset).Scan(&rows).Error
	return rows, err
}
