package models

import "time"

// MotherUnknownName is stored in nome_mae when mae_desconhecida is set.
const MotherUnknownName = "MÃE DESCONHECIDA"

// Patient defines the structure for patient records.
// DataNascimento is kept as an ISO date string (YYYY-MM-DD), the format the
// primary system writes into the shared database.
type Patient struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Prontuario      string    `json:"prontuario" gorm:"size:20;uniqueIndex;not null"`
	Nome            string    `json:"nome" gorm:"size:100;not null;index"`
	DataNascimento  string    `json:"data_nascimento" gorm:"size:10;not null"`
	RG              *string   `json:"rg" gorm:"size:20"`
	CPF             *string   `json:"cpf" gorm:"size:14;index"`
	Sexo            string    `json:"sexo" gorm:"size:1;not null"`
	Raca            string    `json:"raca" gorm:"size:20;not null"`
	Nacionalidade   string    `json:"nacionalidade" gorm:"size:50;not null;default:brasileiro"`
	NomeMae         *string   `json:"nome_mae" gorm:"size:100"`
	MaeDesconhecida bool      `json:"mae_desconhecida" gorm:"default:false"`
	NomePai         *string   `json:"nome_pai" gorm:"size:100"`
	Email           *string   `json:"email" gorm:"size:100"`
	Telefone        *string   `json:"telefone" gorm:"size:20"`
	Convenio        string    `json:"convenio" gorm:"size:50;default:sus"`
	NumeroCartao    *string   `json:"numero_cartao" gorm:"size:50"`
	TitularCartao   *string   `json:"titular_cartao" gorm:"size:100"`
	DataCadastro    time.Time `json:"data_cadastro" gorm:"autoCreateTime;index"`
	AtualizadoEm    time.Time `json:"-" gorm:"autoUpdateTime"`
	Ativo           bool      `json:"ativo" gorm:"default:true;index"`
}

func (Patient) TableName() string { return "pacientes" }

// Address is a patient's postal address. Only the principal one is exposed by the API.
type Address struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	PacienteID      uint      `json:"paciente_id" gorm:"not null;index"`
	CEP             string    `json:"cep" gorm:"size:9;not null"`
	Estado          string    `json:"estado" gorm:"size:2;not null"`
	Cidade          string    `json:"cidade" gorm:"size:100;not null"`
	Bairro          string    `json:"bairro" gorm:"size:100;not null"`
	Logradouro      string    `json:"logradouro" gorm:"size:100;not null"`
	Numero          string    `json:"numero" gorm:"size:10;not null"`
	Complemento     *string   `json:"complemento" gorm:"size:100"`
	PontoReferencia *string   `json:"ponto_referencia" gorm:"size:200"`
	Principal       bool      `json:"principal" gorm:"default:true"`
	CriadoEm        time.Time `json:"-" gorm:"autoCreateTime"`
	AtualizadoEm    time.Time `json:"-" gorm:"autoUpdateTime"`
}

func (Address) TableName() string { return "enderecos" }
