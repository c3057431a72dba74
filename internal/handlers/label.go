package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hospital-system/internal/database"
	"hospital-system/internal/format"
	"hospital-system/internal/middleware"
	"hospital-system/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// Label holds the fields printed on a patient identification label.
type Label struct {
	Prontuario     string `json:"prontuario"`
	Nome           string `json:"nome"`
	DataNascimento string `json:"data_nascimento"`
	Idade          string `json:"idade"`
	Sexo           string `json:"sexo"`
	NomeMae        string `json:"nome_mae"`
	DataImpressao  string `json:"data_impressao"`
	Usuario        string `json:"usuario"`
}

// labelNow is replaced in tests.
var labelNow = time.Now

func buildLabel(p *models.Patient, user string, now time.Time) Label {
	mother := deref(p.NomeMae)
	if mother == "" {
		mother = "Não informado"
	}
	return Label{
		Prontuario:     p.Prontuario,
		Nome:           p.Nome,
		DataNascimento: format.FormatDate(p.DataNascimento),
		Idade:          format.AgeLabel(p.DataNascimento, now),
		Sexo:           format.SexLabel(p.Sexo),
		NomeMae:        mother,
		DataImpressao:  now.Format("02/01/2006 15:04"),
		Usuario:        user,
	}
}

// PrintLabel returns the label fields, or a printable PDF with ?format=pdf.
func PrintLabel(c *gin.Context) {
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao gerar etiqueta: " + err.Error()})
		return
	}

	label := buildLabel(&patient, c.GetString(middleware.ContextUserNome), labelNow())
	if c.Query("format") != "pdf" {
		c.JSON(http.StatusOK, label)
		return
	}

	doc, err := LabelPDF(label)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao gerar etiqueta: " + err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=etiqueta-%s.pdf", label.Prontuario))
	c.Data(http.StatusOK, "application/pdf", doc)
}

// LabelPDF renders a 100x50 mm label with a QR code of the prontuário.
func LabelPDF(l Label) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 100, Ht: 50},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	qrPNG, err := qrcode.Encode(l.Prontuario, qrcode.Medium, 128)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	pdf.RegisterImageOptionsReader("qr", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 72, 4, 24, 24, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(66, 6, tr(l.Nome), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(66, 5, tr("Prontuário: "+l.Prontuario), "", 1, "L", false, 0, "")
	pdf.CellFormat(66, 5, tr(fmt.Sprintf("Nasc.: %s (%s)", l.DataNascimento, l.Idade)), "", 1, "L", false, 0, "")
	pdf.CellFormat(66, 5, tr("Sexo: "+l.Sexo), "", 1, "L", false, 0, "")
	pdf.CellFormat(66, 5, tr("Mãe: "+l.NomeMae), "", 1, "L", false, 0, "")
	pdf.SetY(42)
	pdf.SetFont("Helvetica", "I", 6)
	pdf.CellFormat(0, 4, tr(fmt.Sprintf("Impresso em %s por %s", l.DataImpressao, l.Usuario)), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
