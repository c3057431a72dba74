package handlers

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"hospital-system/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCPF(t *testing.T) {
	env := newTestEnv(t)
	cpf := "52998224725"
	createPatient(t, models.Patient{Prontuario: "000001", Nome: "Ana Costa", DataNascimento: "1990-01-01", CPF: &cpf})

	cases := []struct {
		cpf   string
		valid bool
		msg   string
	}{
		{"111.111.111-11", false, "CPF inválido"},
		{"123", false, "CPF deve conter 11 dígitos"},
		{"529.982.247-25", false, "CPF já cadastrado para Ana Costa (Prontuário: 000001)"},
		{"111.444.777-35", true, "CPF válido"},
	}
	for _, tc := range cases {
		w := env.do(http.MethodPost, "/api/validar-cpf", map[string]string{"cpf": tc.cpf})
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[map[string]any](t, w)
		assert.Equal(t, tc.valid, got["valid"], tc.cpf)
		assert.Equal(t, tc.msg, got["message"], tc.cpf)
	}
}

func TestConsultCEP(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/consultar-cep/01001-000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "01001-000", got["cep"])
	assert.Equal(t, "São Paulo", got["cidade"])
	assert.Equal(t, "SP", got["estado"])
	assert.Equal(t, true, got["success"])

	w = env.do(http.MethodGet, "/api/consultar-cep/99999999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CEP não encontrado", decode[map[string]string](t, w)["error"])

	w = env.do(http.MethodGet, "/api/consultar-cep/123", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNextRecordNumber(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/proximo-prontuario", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"numero":"000001","success":true}`, w.Body.String())

	createPatient(t, models.Patient{Prontuario: "000041", Nome: "A", DataNascimento: "1990-01-01"})
	w = env.do(http.MethodGet, "/api/proximo-prontuario", nil)
	assert.JSONEq(t, `{"numero":"000042","success":true}`, w.Body.String())
}

func TestPrintLabel(t *testing.T) {
	env := newTestEnv(t)
	labelNow = func() time.Time { return time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { labelNow = time.Now })

	p := createPatient(t, models.Patient{Prontuario: "000007", Nome: "Beatriz", DataNascimento: "1990-06-16", Sexo: "F"})

	w := env.do(http.MethodGet, "/api/imprimir-etiqueta/"+itoa(p.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	label := decode[Label](t, w)
	assert.Equal(t, "16/06/1990", label.DataNascimento)
	assert.Equal(t, "33 anos", label.Idade)
	assert.Equal(t, "Feminino", label.Sexo)
	assert.Equal(t, "Não informado", label.NomeMae)
	assert.Equal(t, "15/06/2024 09:30", label.DataImpressao)
	assert.Equal(t, env.user.Nome, label.Usuario)

	w = env.do(http.MethodGet, "/api/imprimir-etiqueta/"+itoa(p.ID)+"?format=pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = env.do(http.MethodGet, "/api/imprimir-etiqueta/777", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
