// Package reception is the patient reception workflow: the registration form
// and its modes, patient search, the persisted selection and the movement
// history of the selected patient. It is UI agnostic; a View renders it.
package reception

import (
	"context"
	"errors"
)

// SelectionKey is the localstate key holding the last selected patient.
const SelectionKey = "pacienteSelecionado"

// MotherUnknownName replaces nome_mae when the mother is unknown.
const MotherUnknownName = "MÃE DESCONHECIDA"

var (
	ErrUnauthorized       = errors.New("sessão expirada")
	ErrNoSelection        = errors.New("nenhum paciente selecionado")
	ErrQueryTooShort      = errors.New("consulta muito curta")
	ErrMissingField       = errors.New("campo obrigatório ausente")
	ErrNotImplemented     = errors.New("funcionalidade não implementada")
	ErrStale              = errors.New("resposta descartada: requisição mais recente em andamento")
	ErrFormReadOnly       = errors.New("formulário em modo de visualização")
	ErrInvalidTransition  = errors.New("transição de modo inválida")
	ErrInvalidPatient     = errors.New("dados do paciente inválidos")
	ErrConfirmationClosed = errors.New("confirmação já respondida")
)

// FieldError reports a required field left blank.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func (e *FieldError) Unwrap() error { return ErrMissingField }

// Patient is the client copy of a patient record merged with its principal address.
type Patient struct {
	ID              uint   `json:"id,omitempty"`
	Prontuario      string `json:"prontuario,omitempty"`
	Nome            string `json:"nome,omitempty"`
	DataNascimento  string `json:"data_nascimento,omitempty"`
	CPF             string `json:"cpf,omitempty"`
	RG              string `json:"rg,omitempty"`
	Sexo            string `json:"sexo,omitempty"`
	Raca            string `json:"raca,omitempty"`
	Nacionalidade   string `json:"nacionalidade,omitempty"`
	NomeMae         string `json:"nome_mae,omitempty"`
	MaeDesconhecida bool   `json:"mae_desconhecida,omitempty"`
	NomePai         string `json:"nome_pai,omitempty"`
	Email           string `json:"email,omitempty"`
	Telefone        string `json:"telefone,omitempty"`
	Convenio        string `json:"convenio,omitempty"`
	NumeroCartao    string `json:"numero_cartao,omitempty"`
	TitularCartao   string `json:"titular_cartao,omitempty"`

	CEP             string `json:"cep,omitempty"`
	Estado          string `json:"estado,omitempty"`
	Cidade          string `json:"cidade,omitempty"`
	Bairro          string `json:"bairro,omitempty"`
	Logradouro      string `json:"logradouro,omitempty"`
	Numero          string `json:"numero,omitempty"`
	Complemento     string `json:"complemento,omitempty"`
	PontoReferencia string `json:"ponto_referencia,omitempty"`

	DataCadastro string `json:"data_cadastro,omitempty"`
}

// Movement is a status record of a patient's visit as returned by the server.
type Movement struct {
	ID                      uint   `json:"id"`
	PacienteID              uint   `json:"paciente_id"`
	Tipo                    string `json:"tipo"`
	Status                  string `json:"status"`
	Prioridade              string `json:"prioridade"`
	ProfissionalResponsavel string `json:"profissional_responsavel"`
	Observacoes             string `json:"observacoes"`
	DataEntrada             string `json:"data_entrada"`
	DataMovimentacao        string `json:"data_movimentacao"`
}

// MovementInput is the body of a new movement.
type MovementInput struct {
	PacienteID              uint   `json:"paciente_id"`
	Tipo                    string `json:"tipo"`
	Status                  string `json:"status"`
	Prioridade              string `json:"prioridade,omitempty"`
	ProfissionalResponsavel string `json:"profissional_responsavel,omitempty"`
	Observacoes             string `json:"observacoes,omitempty"`
}

type CEPResult struct {
	Success     bool   `json:"success"`
	CEP         string `json:"cep"`
	Estado      string `json:"estado"`
	Cidade      string `json:"cidade"`
	Bairro      string `json:"bairro"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Error       string `json:"error"`
}

type CPFResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// LabelData holds the fields of a patient identification label.
type LabelData struct {
	Prontuario     string `json:"prontuario"`
	Nome           string `json:"nome"`
	DataNascimento string `json:"data_nascimento"`
	Idade          string `json:"idade"`
	Sexo           string `json:"sexo"`
	NomeMae        string `json:"nome_mae"`
	DataImpressao  string `json:"data_impressao"`
	Usuario        string `json:"usuario"`
}

// Backend is the hospital API as seen by the workflow.
// Calls rejected for lack of a session return an error wrapping ErrUnauthorized.
type Backend interface {
	SearchPatients(ctx context.Context, query string) ([]Patient, error)
	GetPatient(ctx context.Context, id uint) (*Patient, error)
	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	UpdatePatient(ctx context.Context, id uint, p Patient) (*Patient, error)
	LookupCEP(ctx context.Context, cep string) (*CEPResult, error)
	ValidateCPF(ctx context.Context, cpf string) (*CPFResult, error)
	NextRecordNumber(ctx context.Context) (string, error)
	Label(ctx context.Context, patientID uint) (*LabelData, error)
	CreateMovement(ctx context.Context, in MovementInput) (*Movement, error)
	ListMovements(ctx context.Context, patientID uint) ([]Movement, error)
	DeleteMovement(ctx context.Context, id uint) error
}

// Notifier shows toasts. *toast.Service implements it.
type Notifier interface {
	Success(title, message string) int
	Error(title, message string) int
	Warning(title, message string) int
	Info(title, message string) int
	Confirm(title, message string, onConfirm, onCancel func()) int
	Remove(id int) bool
}

// Mode is the state of the registration form.
type Mode int

const (
	ModeCreate Mode = iota
	ModeView
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeView:
		return "visualização"
	case ModeEdit:
		return "edição"
	default:
		return "cadastro"
	}
}

// FormState is what the registration form shows. The record number is
// read-only in every mode; ReadOnly covers the remaining fields.
type FormState struct {
	Mode           Mode
	Values         Patient
	ReadOnly       bool
	MotherRequired bool
}

// SearchResultItem is one line of the search result list.
type SearchResultItem struct {
	ID         uint
	Nome       string
	Prontuario string
	CPF        string
	Nascimento string
	Sexo       string
}

// MovementRow is one rendered line of the movement history.
type MovementRow struct {
	ID           uint
	Data         string
	Tipo         string
	TipoLabel    string
	TipoClass    string
	Status       string
	StatusLabel  string
	StatusClass  string
	Profissional string
	Observacoes  string
	// Actions is false once the movement reached a terminal status.
	Actions bool
}

// PatientStatus is the status summary shown in the movement panel.
type PatientStatus struct {
	Status      string
	StatusLabel string
	StatusClass string
	LastType    string
	At          string
}

type Tab int

const (
	TabRegistration Tab = iota
	TabMovements
)

// View renders the workflow. Its methods may be called with the workflow
// lock held and must not call back into the Workflow synchronously.
type View interface {
	RenderForm(s FormState)
	SetFieldValidity(field string, valid bool, message string)
	ShowSearchLoading()
	// ShowSearchResults renders the list; an empty slice is the "no results" state.
	ShowSearchResults(items []SearchResultItem)
	HideSearchResults()
	// ShowMovementPanel shows the selected patient in the movement tab; nil hides it.
	ShowMovementPanel(p *Patient)
	// ShowMovements renders the history, or emptyMessage when rows is empty.
	ShowMovements(rows []MovementRow, emptyMessage string)
	ShowPatientStatus(s PatientStatus)
	Focus(field string)
	ActivateTab(t Tab)
	RedirectToLogin()
	PrintLabel(l LabelData)
}

// Timer is the part of *time.Timer the debounce uses.
type Timer interface {
	Stop() bool
}
