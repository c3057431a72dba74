package handlers

import (
	"net/http"
	"time"

	"hospital-system/internal/config"
	"hospital-system/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter wires every route of the hospital API.
func SetupRouter(cfg *config.Config, log *zap.Logger, cep CEPLookup, limiter middleware.Limiter) *gin.Engine {
	logger = log

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log), middleware.Recovery(log))

	// The reporting API answers any origin.
	r.Any("/api/hospital", cors.New(statsCORS()), HospitalStatistics)

	app := r.Group("/", cors.New(corsConfig(cfg.CORSOrigins)))

	auth := &Auth{
		Secret:       []byte(cfg.SecretKey),
		Lifetime:     cfg.SessionLifetime,
		SecureCookie: cfg.Environment == "production",
	}
	app.POST("/login", middleware.RateLimit(limiter, log), auth.Login)
	app.GET("/logout", auth.Logout)
	app.POST("/login/certificado", auth.CertificateLogin)

	session := middleware.RequireSession(auth.Secret)
	app.POST("/alterar-senha", session, auth.ChangePassword)

	api := app.Group("/api", session)
	{
		api.GET("/modulos", ListModules)
		api.GET("/modulos/:id", GetModule)

		api.GET("/pacientes", SearchPatients)
		api.POST("/pacientes", CreatePatient)
		api.GET("/paciente/:id", GetPatient)
		api.PUT("/paciente/:id", UpdatePatient)

		api.POST("/validar-cpf", ValidateCPF)
		api.GET("/consultar-cep/:cep", ConsultCEP(cep))
		api.GET("/proximo-prontuario", NextRecordNumber)
		api.GET("/imprimir-etiqueta/:id", PrintLabel)

		api.POST("/movimentacoes", CreateMovement)
		api.GET("/movimentacoes/paciente/:id", ListPatientMovements)
		api.PUT("/movimentacoes/:id", UpdateMovement)
		api.DELETE("/movimentacoes/:id", DeleteMovement)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func statsCORS() cors.Config {
	return cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:              []string{"Origin", "Content-Type", "Authorization"},
		OptionsResponseStatusCode: http.StatusOK,
	}
}
