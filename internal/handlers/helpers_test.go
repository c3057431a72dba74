package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"hospital-system/internal/config"
	"hospital-system/internal/database"
	"hospital-system/internal/middleware"
	"hospital-system/internal/models"
	"hospital-system/internal/utils"
	"hospital-system/internal/viacep"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCEP struct {
	addrs map[string]*viacep.Address
	err   error
}

func (f *fakeCEP) Lookup(_ context.Context, cep string) (*viacep.Address, error) {
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.addrs[cep]; ok {
		return a, nil
	}
	return nil, viacep.ErrNotFound
}

type testEnv struct {
	router  *gin.Engine
	user    models.User
	session *http.Cookie
}

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := database.Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	database.DB = db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	setupTestDB(t)

	cfg := &config.Config{
		SecretKey:       testSecret,
		SessionLifetime: 30 * time.Minute,
		CORSOrigins:     []string{"*"},
	}
	cep := &fakeCEP{addrs: map[string]*viacep.Address{
		"01001000": {CEP: "01001-000", Logradouro: "Praça da Sé", Bairro: "Sé", Localidade: "São Paulo", UF: "SP"},
	}}
	router := SetupRouter(cfg, zap.NewNop(), cep, middleware.NewMemoryLimiter(5, time.Minute))

	user := createUser(t, "recepcao", "Senha@123", "recepcionista")
	token, err := utils.BuildSessionToken([]byte(testSecret), user.ID, user.Nome, user.Tipo, time.Minute)
	require.NoError(t, err)

	return &testEnv{
		router:  router,
		user:    user,
		session: &http.Cookie{Name: middleware.SessionCookie, Value: token},
	}
}

func createUser(t *testing.T, username, password, tipo string) models.User {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	require.NoError(t, err)
	u := models.User{
		Username: username,
		Password: hashed,
		Nome:     "Usuário " + username,
		Email:    username + "@hospital.test",
		Tipo:     tipo,
		Ativo:    true,
	}
	require.NoError(t, database.DB.Create(&u).Error)
	return u
}

func createPatient(t *testing.T, p models.Patient) models.Patient {
	t.Helper()
	if p.Sexo == "" {
		p.Sexo = "F"
	}
	if p.Raca == "" {
		p.Raca = "PARDA"
	}
	if p.Convenio == "" {
		p.Convenio = "sus"
	}
	p.Ativo = true
	require.NoError(t, database.DB.Create(&p).Error)
	return p
}

// do sends an authenticated request; body may be nil, a string or a value encoded as JSON.
func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	return e.send(method, path, body, e.session)
}

func (e *testEnv) send(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
