package reception

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"hospital-system/internal/format"
)

const guidedSelectionMessage = "Para criar uma movimentação, você precisa:\n" +
	"1. Ir para a aba \"Cadastro de Paciente\"\n" +
	"2. Pesquisar e selecionar um paciente existente\n" +
	"3. Voltar para a aba \"Movimentação\"\n" +
	"4. Clicar em \"Adicionar\" novamente"

// DeleteWarning is the text of the movement deletion prompt.
const DeleteWarning = "ATENÇÃO: Esta ação irá EXCLUIR PERMANENTEMENTE a movimentação do banco de dados. " +
	"A movimentação será removida completamente e NÃO PODERÁ ser recuperada. Deseja realmente continuar?"

// CreateMovement records a movement for the selected patient and reloads its history.
func (w *Workflow) CreateMovement(ctx context.Context, in MovementInput) (*Movement, error) {
	sel := w.Selected()
	if sel == nil {
		w.notify.Error("Nenhum Paciente Selecionado", guidedSelectionMessage)
		return nil, ErrNoSelection
	}
	if strings.TrimSpace(in.Tipo) == "" {
		return nil, w.requireField("tipo", "Tipo de movimentação é obrigatório")
	}
	if strings.TrimSpace(in.Status) == "" {
		return nil, w.requireField("status", "Status é obrigatório")
	}
	in.PacienteID = sel.ID

	m, err := w.backend.CreateMovement(ctx, in)
	if err != nil {
		w.fail("Erro ao Criar Movimentação", err.Error(), err)
		return nil, err
	}
	w.notify.Success("Movimentação Criada!", fmt.Sprintf("Movimentação de %s criada com sucesso para %s! Status: %s",
		format.TypeLabel(in.Tipo), sel.Nome, format.StatusLabel(in.Status)))

	w.mu.Lock()
	delete(w.movements, sel.ID)
	if w.selected != nil && w.selected.ID == sel.ID {
		w.status = &PatientStatus{
			Status:      in.Status,
			StatusLabel: format.StatusLabel(in.Status),
			StatusClass: format.StatusClass(in.Status),
			LastType:    format.TypeLabel(in.Tipo),
			At:          w.now().Format("02/01/2006 15:04"),
		}
		w.view.ShowPatientStatus(*w.status)
	}
	w.mu.Unlock()

	w.ListMovements(ctx, sel.ID, true)
	return m, nil
}

func (w *Workflow) requireField(field, message string) error {
	w.view.SetFieldValidity(field, false, message)
	w.view.Focus(field)
	w.notify.Error("Campos Obrigatórios", message)
	return &FieldError{Field: field, Message: message}
}

// Status returns the status summary set by the last movement created here.
func (w *Workflow) Status() *PatientStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == nil {
		return nil
	}
	s := *w.status
	return &s
}

// ListMovements shows the history of a patient, from cache unless force is set.
func (w *Workflow) ListMovements(ctx context.Context, patientID uint, force bool) ([]MovementRow, error) {
	w.mu.Lock()
	if cached, ok := w.movements[patientID]; ok && !force {
		defer w.mu.Unlock()
		return w.showMovementsLocked(patientID, cached), nil
	}
	w.listSeq++
	token := w.listSeq
	w.mu.Unlock()

	list, err := w.backend.ListMovements(ctx, patientID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.listSeq {
		return nil, ErrStale
	}
	if err != nil {
		w.fail("Erro", "Erro ao carregar histórico de movimentações: "+err.Error(), err)
		return nil, err
	}
	w.movements[patientID] = list
	return w.showMovementsLocked(patientID, list), nil
}

// showMovementsLocked renders rows in server order. Only the selected
// patient's history reaches the view.
func (w *Workflow) showMovementsLocked(patientID uint, list []Movement) []MovementRow {
	rows := make([]MovementRow, 0, len(list))
	for _, m := range list {
		when := m.DataEntrada
		if when == "" {
			when = m.DataMovimentacao
		}
		rows = append(rows, MovementRow{
			ID:           m.ID,
			Data:         format.FormatDateTime(when),
			Tipo:         m.Tipo,
			TipoLabel:    format.TypeLabel(m.Tipo),
			TipoClass:    format.TypeClass(m.Tipo),
			Status:       m.Status,
			StatusLabel:  format.StatusLabel(m.Status),
			StatusClass:  format.StatusClass(m.Status),
			Profissional: orDash(m.ProfissionalResponsavel),
			Observacoes:  orDash(m.Observacoes),
			Actions:      !format.IsTerminalStatus(m.Status),
		})
	}
	if w.selected != nil && w.selected.ID == patientID {
		w.view.ShowMovements(rows, noMovementsMessage)
	}
	return rows
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Confirmation is a pending movement deletion. Exactly one of Confirm or
// Cancel takes effect.
type Confirmation struct {
	Message string

	w          *Workflow
	movementID uint
	patientID  uint
	toastID    int

	mu     sync.Mutex
	closed bool
}

// RequestDeleteMovement asks for confirmation before deleting a movement.
// The prompt is also offered as a sticky toast bound to the same decision.
func (w *Workflow) RequestDeleteMovement(movementID uint) *Confirmation {
	c := &Confirmation{
		Message:    DeleteWarning,
		w:          w,
		movementID: movementID,
		patientID:  w.ownerOf(movementID),
	}
	c.toastID = w.notify.Confirm("Excluir Movimentação", DeleteWarning, func() {
		_ = c.Confirm(context.Background())
	}, c.Cancel)
	return c
}

// ownerOf finds the patient of a cached movement, falling back to the selection.
func (w *Workflow) ownerOf(movementID uint) uint {
	w.mu.Lock()
	defer w.mu.Unlock()
	for pid, list := range w.movements {
		for _, m := range list {
			if m.ID == movementID {
				return pid
			}
		}
	}
	if w.selected != nil {
		return w.selected.ID
	}
	return 0
}

func (c *Confirmation) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	return true
}

// Confirm deletes the movement and reloads the owner's history.
func (c *Confirmation) Confirm(ctx context.Context) error {
	if !c.close() {
		return ErrConfirmationClosed
	}
	w := c.w
	w.notify.Remove(c.toastID)

	if err := w.backend.DeleteMovement(ctx, c.movementID); err != nil {
		w.fail("Erro", err.Error(), err)
		return err
	}
	w.notify.Success("Sucesso", "Movimentação excluída permanentemente!")

	if c.patientID == 0 {
		return nil
	}
	w.mu.Lock()
	delete(w.movements, c.patientID)
	w.mu.Unlock()
	w.ListMovements(ctx, c.patientID, true)
	return nil
}

// Cancel drops the request without contacting the server.
func (c *Confirmation) Cancel() {
	if c.close() {
		c.w.notify.Remove(c.toastID)
	}
}

// EditMovement is not available yet.
func (w *Workflow) EditMovement(movementID uint) error {
	w.notify.Info("Edição", "Funcionalidade de edição em desenvolvimento")
	return ErrNotImplemented
}

// SwitchPatient leaves the movement tab and clears the selection so another
// patient can be picked.
func (w *Workflow) SwitchPatient(ctx context.Context) error {
	w.mu.Lock()
	w.view.ActivateTab(TabRegistration)
	token := w.clearLocked()
	w.mu.Unlock()

	if err := w.forget(ctx); err != nil {
		return err
	}
	w.notify.Info("Trocar Paciente", "Selecione outro paciente para movimentação")
	return w.loadRecordNumber(ctx, token)
}
