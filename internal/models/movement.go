package models

import (
	"encoding/json"
	"time"
)

// StatusFinalizado is the terminal movement status; such movements cannot be deleted.
const StatusFinalizado = "finalizado"

// Movement is a timestamped status/event record attached to a patient's visit.
type Movement struct {
	ID                      uint       `json:"id" gorm:"primaryKey"`
	PacienteID              uint       `json:"paciente_id" gorm:"not null;index"`
	Tipo                    string     `json:"tipo" gorm:"size:50;not null"`
	Status                  string     `json:"status" gorm:"size:50;not null"`
	Prioridade              *string    `json:"prioridade" gorm:"size:50"`
	ProfissionalResponsavel *string    `json:"profissional_responsavel" gorm:"size:100"`
	Observacoes             *string    `json:"observacoes" gorm:"type:text"`
	DataEntrada             time.Time  `json:"data_entrada" gorm:"not null;index"`
	DataSaida               *time.Time `json:"data_saida"`
	CriadoEm                time.Time  `json:"criado_em" gorm:"autoCreateTime"`
	AtualizadoEm            time.Time  `json:"atualizado_em" gorm:"autoUpdateTime"`
	UsuarioID               uint       `json:"usuario_id" gorm:"not null"`
	Ativo                   bool       `json:"ativo" gorm:"default:true"`

	Paciente *Patient `json:"-" gorm:"foreignKey:PacienteID"`
}

func (Movement) TableName() string { return "movimentacoes" }

// MarshalJSON adds the data_movimentacao alias read by older clients.
func (m Movement) MarshalJSON() ([]byte, error) {
	type alias Movement
	return json.Marshal(struct {
		alias
		DataMovimentacao time.Time `json:"data_movimentacao"`
	}{alias(m), m.DataEntrada})
}
