package handlers

import (
	"net/http"
	"testing"

	"hospital-system/internal/database"
	"hospital-system/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.send(http.MethodGet, "/api/pacientes?search=ma", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Usuário não autenticado","status":"auth_required"}`, w.Body.String())
}

func TestCreatePatient(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/pacientes", map[string]any{
		"nome":             "Maria da Silva",
		"data_nascimento":  "1985-04-12",
		"mae_desconhecida": true,
		"nome_mae":         "Alguém",
		"cep":              "01001-000",
		"estado":           "SP",
		"cidade":           "São Paulo",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[models.Patient](t, w)
	assert.Equal(t, "000001", created.Prontuario)
	assert.Equal(t, "M", created.Sexo)
	assert.Equal(t, "NÃO INFORMADA", created.Raca)
	assert.Equal(t, "BRASILEIRA", created.Nacionalidade)
	assert.Equal(t, "sus", created.Convenio)
	require.NotNil(t, created.NomeMae)
	assert.Equal(t, models.MotherUnknownName, *created.NomeMae)

	var addr models.Address
	require.NoError(t, database.DB.Where("paciente_id = ?", created.ID).First(&addr).Error)
	assert.Equal(t, "S/N", addr.Numero)
	assert.Equal(t, "NÃO INFORMADO", addr.Bairro)
	assert.True(t, addr.Principal)

	w = env.do(http.MethodPost, "/api/pacientes", map[string]any{"nome": "João", "data_nascimento": "2001-01-01"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "000002", decode[models.Patient](t, w).Prontuario)

	var audits int64
	database.DB.Model(&models.AuditLog{}).Where("acao = ?", "PACIENTE_CADASTRADO").Count(&audits)
	assert.Equal(t, int64(2), audits)
}

func TestCreatePatientValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body any
		want string
	}{
		{"missing name", map[string]any{"data_nascimento": "1990-01-01"}, "Nome é obrigatório"},
		{"missing birth date", map[string]any{"nome": "Ana"}, "Data de nascimento é obrigatória"},
		{"bad birth date", map[string]any{"nome": "Ana", "data_nascimento": "01/01/1990"}, "Formato de data inválido. Use YYYY-MM-DD"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/pacientes", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, decode[map[string]string](t, w)["error"])
		})
	}

	req := env.send(http.MethodPost, "/api/pacientes", nil, env.session)
	assert.Equal(t, http.StatusBadRequest, req.Code)
}

func TestGetPatientMergesAddress(t *testing.T) {
	env := newTestEnv(t)
	p := createPatient(t, models.Patient{Prontuario: "2024000123", Nome: "Maria Souza", DataNascimento: "1970-02-03"})
	require.NoError(t, database.DB.Create(&models.Address{
		PacienteID: p.ID, CEP: "01001-000", Estado: "SP", Cidade: "São Paulo",
		Bairro: "Sé", Logradouro: "Praça da Sé", Numero: "10", Principal: true,
	}).Error)

	w := env.do(http.MethodGet, "/api/paciente/"+itoa(p.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, float64(p.ID), got["id"])
	assert.Equal(t, "2024000123", got["prontuario"])
	assert.Equal(t, "São Paulo", got["cidade"])
	assert.Equal(t, "10", got["numero"])

	w = env.do(http.MethodGet, "/api/paciente/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePatient(t *testing.T) {
	env := newTestEnv(t)
	p := createPatient(t, models.Patient{Prontuario: "000010", Nome: "Carlos", DataNascimento: "1960-07-07"})

	w := env.do(http.MethodPut, "/api/paciente/"+itoa(p.ID), map[string]any{
		"nome":       "Carlos Alberto",
		"prontuario": "999999",
		"cpf":        "123.456.789-00",
		"cep":        "01001-000",
		"estado":     "SP",
		"cidade":     "São Paulo",
		"numero":     "42",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Patient](t, w)
	assert.Equal(t, "Carlos Alberto", updated.Nome)
	assert.Equal(t, "000010", updated.Prontuario)
	assert.Equal(t, "1960-07-07", updated.DataNascimento)
	require.NotNil(t, updated.CPF)
	assert.Equal(t, "123.456.789-00", *updated.CPF)

	w = env.do(http.MethodPut, "/api/paciente/"+itoa(p.ID), map[string]any{
		"nome": "Carlos Alberto", "cep": "01001-000", "estado": "SP", "cidade": "São Paulo", "numero": "43",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var addrs []models.Address
	require.NoError(t, database.DB.Where("paciente_id = ?", p.ID).Find(&addrs).Error)
	require.Len(t, addrs, 1)
	assert.Equal(t, "43", addrs[0].Numero)

	w = env.do(http.MethodPut, "/api/paciente/"+itoa(p.ID), map[string]any{"nome": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/paciente/4242", map[string]any{"nome": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchPatients(t *testing.T) {
	env := newTestEnv(t)
	createPatient(t, models.Patient{Prontuario: "2024000123", Nome: "Maria Souza", DataNascimento: "1970-02-03"})
	createPatient(t, models.Patient{Prontuario: "2024000124", Nome: "José Lima", DataNascimento: "1980-02-03"})

	w := env.do(http.MethodGet, "/api/pacientes?search=maria", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]models.Patient](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, "2024000123", found[0].Prontuario)

	w = env.do(http.MethodGet, "/api/pacientes?search=000124", nil)
	assert.Len(t, decode[[]models.Patient](t, w), 1)

	w = env.do(http.MethodGet, "/api/pacientes", nil)
	assert.Len(t, decode[[]models.Patient](t, w), 2)
}
