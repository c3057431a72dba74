package reception

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"hospital-system/internal/format"

	"go.uber.org/zap"
)

// EnterEdit unlocks the fields of the selected patient.
func (w *Workflow) EnterEdit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.selected == nil {
		w.notify.Warning("Nenhum Paciente Selecionado", "Selecione um paciente para editar primeiro.")
		return ErrNoSelection
	}
	if w.mode != ModeView {
		return ErrInvalidTransition
	}
	w.mode = ModeEdit
	w.renderLocked()
	w.notify.Info("Modo Edição", fmt.Sprintf("Editando dados de %s. Faça as alterações necessárias e clique em \"Atualizar\".", w.selected.Nome))
	return nil
}

// CancelEdit discards the draft and shows the selected patient again.
func (w *Workflow) CancelEdit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mode != ModeEdit || w.selected == nil {
		return ErrInvalidTransition
	}
	w.mode = ModeView
	w.form = *w.selected
	w.renderLocked()
	w.notify.Info("Modo Edição Cancelado", "Dados originais restaurados")
	return nil
}

// NewPatient clears selection and search and opens an empty form with a fresh record number.
func (w *Workflow) NewPatient(ctx context.Context) error {
	w.mu.Lock()
	w.stopDebounceLocked()
	w.searchSeq++
	w.view.HideSearchResults()
	token := w.clearLocked()
	w.mu.Unlock()

	if err := w.forget(ctx); err != nil {
		w.logger.Warn("forget selection failed", zap.Error(err))
	}
	w.notify.Info("Novo Cadastro", "Formulário limpo para novo cadastro")
	return w.loadRecordNumber(ctx, token)
}

func (w *Workflow) loadRecordNumber(ctx context.Context, token uint64) error {
	number, err := w.backend.NextRecordNumber(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.fetchSeq || w.mode != ModeCreate {
		return ErrStale
	}
	if err != nil {
		w.fail("Erro", "Não foi possível gerar o número do prontuário: "+err.Error(), err)
		return err
	}
	w.form.Prontuario = number
	w.renderLocked()
	return nil
}

// UpdateDraft stores what the operator typed. The record number is kept.
func (w *Workflow) UpdateDraft(values Patient) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mode == ModeView {
		return ErrFormReadOnly
	}
	w.form = w.draftLocked(values)
	return nil
}

func (w *Workflow) draftLocked(values Patient) Patient {
	values.ID = w.form.ID
	values.Prontuario = w.form.Prontuario
	if values.MaeDesconhecida {
		values.NomeMae = MotherUnknownName
	}
	return values
}

// SetMotherUnknown toggles the unknown-mother flag. While set, nome_mae holds
// the fixed marker and is not required.
func (w *Workflow) SetMotherUnknown(unknown bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mode == ModeView {
		return ErrFormReadOnly
	}
	w.form.MaeDesconhecida = unknown
	if unknown {
		w.form.NomeMae = MotherUnknownName
	} else if w.form.NomeMae == MotherUnknownName {
		w.form.NomeMae = ""
	}
	w.renderLocked()
	return nil
}

// Submit creates the patient in create mode or saves the edit in edit mode.
func (w *Workflow) Submit(ctx context.Context, values Patient) (*Patient, error) {
	if err := w.checkRequired(values); err != nil {
		return nil, err
	}

	w.mu.Lock()
	mode := w.mode
	if mode == ModeView {
		w.mu.Unlock()
		return nil, ErrFormReadOnly
	}
	values = w.draftLocked(values)
	w.form = values
	var id uint
	if mode == ModeEdit {
		id = w.selected.ID
		values.ID = id
		values.Prontuario = w.selected.Prontuario
	}
	w.mu.Unlock()

	if mode == ModeCreate {
		values.ID = 0
		values.Prontuario = ""
		return w.create(ctx, values)
	}
	return w.update(ctx, id, values)
}

func (w *Workflow) checkRequired(values Patient) error {
	var missing *FieldError
	if strings.TrimSpace(values.DataNascimento) == "" {
		missing = &FieldError{Field: "data_nascimento", Message: "Data de nascimento é obrigatória"}
		w.view.SetFieldValidity(missing.Field, false, missing.Message)
	}
	if strings.TrimSpace(values.Nome) == "" {
		missing = &FieldError{Field: "nome", Message: "Nome é obrigatório"}
		w.view.SetFieldValidity(missing.Field, false, missing.Message)
	}
	if missing == nil {
		return nil
	}
	w.notify.Warning("Campos Obrigatórios", "Por favor, preencha pelo menos o nome e a data de nascimento.")
	return missing
}

func (w *Workflow) create(ctx context.Context, values Patient) (*Patient, error) {
	created, err := w.backend.CreatePatient(ctx, values)
	if err != nil {
		w.fail("Erro na Operação", "Não foi possível realizar a operação: "+err.Error(), err)
		return nil, err
	}
	w.logger.Info("patient created", zap.Uint("patient_id", created.ID), zap.String("prontuario", created.Prontuario))

	w.notify.Success("Cadastro Realizado!", fmt.Sprintf("Paciente %s foi cadastrado com sucesso! Prontuário: %s", created.Nome, created.Prontuario))
	id := created.ID
	w.notify.Confirm("Imprimir Etiqueta?", fmt.Sprintf("Deseja imprimir a etiqueta para %s?", created.Nome), func() {
		_ = w.PrintLabel(context.Background(), id)
	}, nil)

	w.mu.Lock()
	if w.mode != ModeCreate {
		w.mu.Unlock()
		return created, nil
	}
	w.fetchSeq++
	token := w.fetchSeq
	w.form = Patient{}
	w.renderLocked()
	w.mu.Unlock()

	if err := w.loadRecordNumber(ctx, token); err != nil && !errors.Is(err, ErrStale) {
		w.logger.Warn("record number after create failed", zap.Error(err))
	}
	return created, nil
}

func (w *Workflow) update(ctx context.Context, id uint, values Patient) (*Patient, error) {
	w.mu.Lock()
	w.fetchSeq++
	token := w.fetchSeq
	w.mu.Unlock()

	updated, err := w.backend.UpdatePatient(ctx, id, values)
	if err != nil {
		w.fail("Erro na Operação", "Não foi possível realizar a operação: "+err.Error(), err)
		return nil, err
	}
	w.notify.Success("Paciente Atualizado!", fmt.Sprintf("Os dados de %s foram atualizados com sucesso!", values.Nome))

	saved := overlay(values, *updated)
	saved.ID = id
	w.mu.Lock()
	if token != w.fetchSeq {
		w.mu.Unlock()
		return &saved, nil
	}
	w.selectLocked(saved)
	w.persistLocked(ctx, saved)
	w.mu.Unlock()

	fresh, err := w.backend.GetPatient(ctx, id)
	if err != nil || fresh.ID == 0 {
		w.logger.Warn("reload after update failed", zap.Uint("patient_id", id), zap.Error(err))
		return &saved, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.fetchSeq {
		return &saved, nil
	}
	w.selectLocked(*fresh)
	w.persistLocked(ctx, *fresh)
	return fresh, nil
}

// overlay copies the non-empty fields of over onto base.
func overlay(base, over Patient) Patient {
	out := base
	data, err := json.Marshal(over)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(data, &out)
	return out
}

// OnCEPBlur fills the address from a complete CEP.
func (w *Workflow) OnCEPBlur(ctx context.Context, cep string) error {
	digits := format.DigitsOnly(cep)
	if len(digits) != 8 || w.Mode() == ModeView {
		return nil
	}

	w.notify.Info("Consultando CEP", "Buscando informações do endereço...")
	res, err := w.backend.LookupCEP(ctx, digits)
	if err != nil {
		w.fail("Erro na Consulta", "Não foi possível consultar o CEP. Preencha manualmente.", err)
		return err
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "Verifique o CEP informado"
		}
		w.notify.Warning("CEP não encontrado", msg)
		return nil
	}

	w.mu.Lock()
	if w.mode != ModeView {
		w.form.CEP = format.MaskCEP(digits)
		w.form.Estado = res.Estado
		w.form.Cidade = res.Cidade
		w.form.Bairro = res.Bairro
		w.form.Logradouro = res.Logradouro
		w.renderLocked()
	}
	w.mu.Unlock()
	w.notify.Success("CEP Encontrado", "Endereço preenchido automaticamente!")
	return nil
}

// OnCPFBlur validates a complete CPF and marks the field.
func (w *Workflow) OnCPFBlur(ctx context.Context, cpf string) (bool, error) {
	digits := format.DigitsOnly(cpf)
	if len(digits) != 11 {
		return false, nil
	}
	res, err := w.backend.ValidateCPF(ctx, digits)
	if err != nil {
		w.fail("Erro na Validação", "Não foi possível validar o CPF", err)
		return false, err
	}
	w.view.SetFieldValidity("cpf", res.Valid, res.Message)
	if res.Valid {
		w.notify.Success("CPF Válido", "CPF verificado com sucesso!")
	} else {
		w.notify.Error("CPF Inválido", res.Message)
	}
	return res.Valid, nil
}

// PrintLabel fetches the label of a patient and sends it to the printer.
func (w *Workflow) PrintLabel(ctx context.Context, patientID uint) error {
	label, err := w.backend.Label(ctx, patientID)
	if err != nil {
		w.fail("Erro na Impressão", "Não foi possível imprimir a etiqueta: "+err.Error(), err)
		return err
	}
	w.view.PrintLabel(*label)
	w.notify.Success("Etiqueta Enviada", "Etiqueta enviada para impressão!")
	return nil
}
