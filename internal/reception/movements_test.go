package reception

import (
	"context"
	"errors"
	"testing"

	"hospital-system/internal/toast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMovements(h *harness) {
	h.backend.movements[55] = []Movement{
		{ID: 1, PacienteID: 55, Tipo: "consulta", Status: "em_atendimento", ProfissionalResponsavel: "Dra. Lima", DataEntrada: "2025-03-09T08:30:00Z"},
		{ID: 2, PacienteID: 55, Tipo: "exame", Status: "finalizado", DataEntrada: "2025-03-01 14:00:00"},
	}
	h.backend.nextMovID = 3
}

func TestCreateMovementWithoutSelection(t *testing.T) {
	h := newHarness(t)

	_, err := h.wf.CreateMovement(context.Background(), MovementInput{Tipo: "consulta", Status: "em_atendimento"})
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Zero(t, h.backend.count("createMovement"))

	tt, ok := h.findToast(toast.Error, "Nenhum Paciente Selecionado")
	require.True(t, ok)
	assert.Contains(t, tt.Message, "Pesquisar e selecionar um paciente existente")
}

func TestCreateMovementRequiresTypeAndStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.selectMaria(t)

	_, err := h.wf.CreateMovement(ctx, MovementInput{Status: "em_atendimento"})
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "tipo", fe.Field)

	_, err = h.wf.CreateMovement(ctx, MovementInput{Tipo: "consulta", Status: "  "})
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "status", fe.Field)

	assert.Equal(t, []string{"tipo", "status"}, h.view.focus)
	assert.False(t, h.view.validity["tipo"])
	assert.False(t, h.view.validity["status"])
	assert.Zero(t, h.backend.count("createMovement"))
}

func TestCreateMovementRefreshesHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.selectMaria(t)

	assert.Empty(t, h.view.rows)
	assert.Equal(t, noMovementsMessage, h.view.emptyMsg)

	_, err := h.wf.ListMovements(ctx, 55, false)
	require.NoError(t, err)
	assert.Equal(t, 1, h.backend.count("movements:55"))

	m, err := h.wf.CreateMovement(ctx, MovementInput{Tipo: "consulta", Status: "em_atendimento"})
	require.NoError(t, err)
	assert.Equal(t, uint(55), m.PacienteID)
	assert.Equal(t, 2, h.backend.count("movements:55"))

	require.Len(t, h.view.rows, 1)
	row := h.view.rows[0]
	assert.Equal(t, "Consulta", row.TipoLabel)
	assert.Equal(t, "Em Atendimento", row.StatusLabel)
	assert.Equal(t, "10/03/2025 10:00", row.Data)
	assert.Equal(t, "-", row.Profissional)
	assert.True(t, row.Actions)

	require.Len(t, h.view.status, 1)
	assert.Equal(t, "Em Atendimento", h.view.status[0].StatusLabel)
	assert.Equal(t, "Consulta", h.view.status[0].LastType)
	require.NotNil(t, h.wf.Status())
	assert.True(t, h.hasToast(toast.Success, "Movimentação Criada!"))

	rows, err := h.wf.ListMovements(ctx, 55, false)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2, h.backend.count("movements:55"))
}

func TestMovementRowsKeepServerOrderAndHideTerminalActions(t *testing.T) {
	h := newHarness(t)
	seedMovements(h)
	h.selectMaria(t)

	require.Len(t, h.view.rows, 2)
	assert.Equal(t, uint(1), h.view.rows[0].ID)
	assert.True(t, h.view.rows[0].Actions)
	assert.Equal(t, "09/03/2025 08:30", h.view.rows[0].Data)
	assert.Equal(t, uint(2), h.view.rows[1].ID)
	assert.False(t, h.view.rows[1].Actions)
	assert.Equal(t, "bg-success", h.view.rows[1].StatusClass)
}

func TestDeleteMovementNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seedMovements(h)
	h.selectMaria(t)

	c := h.wf.RequestDeleteMovement(1)
	assert.Contains(t, c.Message, "PERMANENTEMENTE")
	assert.Contains(t, c.Message, "NÃO PODERÁ ser recuperada")
	prompt, ok := h.findToast(toast.Warning, "Excluir Movimentação")
	require.True(t, ok)
	assert.True(t, prompt.Confirmable())
	assert.Zero(t, h.backend.count("deleteMovement:1"))

	c.Cancel()
	assert.False(t, h.hasToast(toast.Warning, "Excluir Movimentação"))
	assert.ErrorIs(t, c.Confirm(ctx), ErrConfirmationClosed)
	assert.Zero(t, h.backend.count("deleteMovement:1"))

	c = h.wf.RequestDeleteMovement(1)
	require.NoError(t, c.Confirm(ctx))
	assert.Equal(t, 1, h.backend.count("deleteMovement:1"))
	assert.False(t, h.hasToast(toast.Warning, "Excluir Movimentação"))
	assert.True(t, h.hasToast(toast.Success, "Sucesso"))
	require.Len(t, h.view.rows, 1)
	assert.Equal(t, uint(2), h.view.rows[0].ID)
	assert.ErrorIs(t, c.Confirm(ctx), ErrConfirmationClosed)
}

func TestDeleteMovementThroughToast(t *testing.T) {
	h := newHarness(t)
	seedMovements(h)
	h.selectMaria(t)

	h.wf.RequestDeleteMovement(2)
	prompt, ok := h.findToast(toast.Warning, "Excluir Movimentação")
	require.True(t, ok)
	assert.True(t, h.toasts.Resolve(prompt.ID, true))

	assert.Equal(t, 1, h.backend.count("deleteMovement:2"))
	tt, ok := h.findToast(toast.Error, "Erro")
	require.True(t, ok)
	assert.Equal(t, "Não é possível excluir movimentações finalizadas", tt.Message)
	assert.Len(t, h.view.rows, 2)
}

func TestEditMovementIsNotImplemented(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.wf.EditMovement(1), ErrNotImplemented)
	tt, ok := h.findToast(toast.Info, "Edição")
	require.True(t, ok)
	assert.Equal(t, "Funcionalidade de edição em desenvolvimento", tt.Message)
}

func TestSwitchPatient(t *testing.T) {
	h := newHarness(t)
	h.selectMaria(t)

	require.NoError(t, h.wf.SwitchPatient(context.Background()))

	assert.Equal(t, []Tab{TabRegistration}, h.view.tabs)
	assert.Nil(t, h.wf.Selected())
	assert.Nil(t, h.view.panel)
	assert.Equal(t, ModeCreate, h.wf.Mode())
	assert.Equal(t, "000042", h.view.lastForm(t).Values.Prontuario)
	_, ok := h.persisted(t)
	assert.False(t, ok)
	assert.True(t, h.hasToast(toast.Info, "Trocar Paciente"))
}
