package models

import "time"

// User defines the structure for staff accounts.
type User struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	Username             string     `json:"username" gorm:"size:80;uniqueIndex;not null"`
	Password             string     `json:"-" gorm:"size:120;not null"`
	Nome                 string     `json:"nome" gorm:"size:100;not null"`
	Email                string     `json:"email" gorm:"size:120;uniqueIndex;not null"`
	Tipo                 string     `json:"tipo" gorm:"size:20;not null"` // admin, medico, enfermeiro, recepcionista...
	UltimoLogin          *time.Time `json:"ultimo_login"`
	TentativasLogin      int        `json:"-" gorm:"default:0"`
	BloqueadoAte         *time.Time `json:"-"`
	Ativo                bool       `json:"ativo" gorm:"default:true"`
	DataCriacao          time.Time  `json:"data_criacao" gorm:"autoCreateTime"`
	UltimaAlteracaoSenha time.Time  `json:"-"`
	UltimoIP             *string    `json:"-" gorm:"size:45"`
}

func (User) TableName() string { return "usuario" }

// IsLocked reports whether the account is inside a temporary lockout window.
func (u *User) IsLocked(now time.Time) bool {
	return u.BloqueadoAte != nil && u.BloqueadoAte.After(now)
}

// AuditLog records a user action.
type AuditLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	DataHora  time.Time `json:"data_hora" gorm:"autoCreateTime"`
	UsuarioID *uint     `json:"usuario_id" gorm:"index"`
	IPAddress string    `json:"ip_address" gorm:"size:45"`
	Acao      string    `json:"acao" gorm:"size:50"`
	Detalhes  string    `json:"detalhes" gorm:"type:text"`
}

func (AuditLog) TableName() string { return "log_auditoria" }
