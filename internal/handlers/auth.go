package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"hospital-system/internal/database"
	"hospital-system/internal/middleware"
	"hospital-system/internal/models"
	"hospital-system/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxLoginAttempts = 3
	lockoutDuration  = 15 * time.Minute
)

// Auth serves the session endpoints.
type Auth struct {
	Secret       []byte
	Lifetime     time.Duration
	SecureCookie bool
	now          func() time.Time
}

type loginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

type changePasswordRequest struct {
	SenhaAtual string `form:"senha_atual" json:"senha_atual"`
	NovaSenha  string `form:"nova_senha" json:"nova_senha"`
}

func (a *Auth) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

func authError(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"status": "error", "message": msg})
}

// Login checks the credentials and issues the session cookie.
// Three consecutive failures lock the account for fifteen minutes.
func (a *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil || req.Username == "" || req.Password == "" {
		authError(c, "Todos os campos são obrigatórios!")
		return
	}

	var user models.User
	if err := database.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("login with unknown user", zap.String("username", req.Username))
			authError(c, "Usuário ou senha inválidos!")
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Erro interno"})
		return
	}

	now := a.clock()
	if !user.Ativo {
		authError(c, "Esta conta está desativada. Entre em contato com o administrador.")
		return
	}
	if user.IsLocked(now) {
		remaining := int(math.Ceil(user.BloqueadoAte.Sub(now).Minutes()))
		authError(c, fmt.Sprintf("Conta temporariamente bloqueada. Tente novamente em %d minutos.", remaining))
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		user.TentativasLogin++
		if user.TentativasLogin >= maxLoginAttempts {
			until := now.Add(lockoutDuration)
			user.BloqueadoAte = &until
		}
		if err := database.DB.Model(&user).Select("TentativasLogin", "BloqueadoAte").Updates(&user).Error; err != nil {
			logger.Error("failed to record login attempt", zap.Uint("user_id", user.ID), zap.Error(err))
		}
		msg := "Usuário ou senha inválidos!"
		if user.TentativasLogin == maxLoginAttempts-1 {
			msg += " Mais 1 tentativa(s) antes do bloqueio temporário."
		}
		authError(c, msg)
		return
	}

	ip := c.ClientIP()
	user.TentativasLogin = 0
	user.BloqueadoAte = nil
	user.UltimoLogin = &now
	user.UltimoIP = &ip
	if err := database.DB.Model(&user).Select("TentativasLogin", "BloqueadoAte", "UltimoLogin", "UltimoIP").Updates(&user).Error; err != nil {
		logger.Error("failed to record login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	token, err := utils.BuildSessionToken(a.Secret, user.ID, user.Nome, user.Tipo, a.Lifetime)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Erro interno"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(a.Lifetime.Seconds()), "/", "", a.SecureCookie, true)
	c.Set(middleware.ContextUserID, user.ID)
	audit(c, "LOGIN", "Login bem-sucedido")

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Login realizado com sucesso!",
		"tipo":    user.Tipo,
	})
}

func (a *Auth) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", a.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Logout realizado com sucesso!"})
}

// ChangePassword requires an authenticated session.
func (a *Auth) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	_ = c.ShouldBind(&req)

	var user models.User
	if err := database.DB.First(&user, middleware.CurrentUserID(c)).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado", "status": "auth_required"})
		return
	}
	if !utils.CheckPassword(req.SenhaAtual, user.Password) {
		authError(c, "Senha atual incorreta!")
		return
	}
	if ok, msg := utils.ValidatePasswordPolicy(req.NovaSenha); !ok {
		authError(c, msg)
		return
	}

	hashed, err := utils.HashPassword(req.NovaSenha)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Erro interno"})
		return
	}
	if err := database.DB.Model(&user).Updates(map[string]any{
		"password":               hashed,
		"ultima_alteracao_senha": a.clock().UTC(),
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Erro interno"})
		return
	}
	audit(c, "SENHA_ALTERADA", "Senha alterada pelo usuário")
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Senha alterada com sucesso!"})
}

// CertificateLogin is the digital-certificate entry point; it only acknowledges the request.
func (a *Auth) CertificateLogin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Login com certificado realizado com sucesso!"})
}
