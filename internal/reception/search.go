package reception

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"hospital-system/internal/format"

	"go.uber.org/zap"
)

// Search runs a query right away. Queries shorter than two characters are
// rejected without a request.
func (w *Workflow) Search(ctx context.Context, query string) ([]SearchResultItem, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		w.notify.Warning("Pesquisa", "Digite pelo menos 2 caracteres para pesquisar")
		return nil, ErrQueryTooShort
	}
	return w.runSearch(ctx, query)
}

// Type is search-as-you-type: only the last input within the debounce window
// is sent. Short input hides the results instead of warning.
func (w *Workflow) Type(query string) {
	query = strings.TrimSpace(query)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopDebounceLocked()
	if utf8.RuneCountInString(query) < minQueryLength {
		w.searchSeq++
		w.view.HideSearchResults()
		return
	}
	w.debouncer = w.afterFunc(w.debounce, func() {
		if _, err := w.runSearch(context.Background(), query); err != nil {
			w.logger.Debug("debounced search", zap.String("query", query), zap.Error(err))
		}
	})
}

// Enter searches immediately, dropping any pending debounced search.
func (w *Workflow) Enter(ctx context.Context, query string) ([]SearchResultItem, error) {
	w.mu.Lock()
	w.stopDebounceLocked()
	w.mu.Unlock()
	return w.Search(ctx, query)
}

func (w *Workflow) stopDebounceLocked() {
	if w.debouncer != nil {
		w.debouncer.Stop()
		w.debouncer = nil
	}
}

func (w *Workflow) runSearch(ctx context.Context, query string) ([]SearchResultItem, error) {
	w.mu.Lock()
	w.searchSeq++
	token := w.searchSeq
	w.view.ShowSearchLoading()
	w.mu.Unlock()

	patients, err := w.backend.SearchPatients(ctx, query)

	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.searchSeq {
		return nil, ErrStale
	}
	if err != nil {
		w.view.HideSearchResults()
		w.fail("Erro na Pesquisa", "Erro: "+err.Error(), err)
		return nil, err
	}

	now := w.now()
	items := make([]SearchResultItem, 0, len(patients))
	for _, p := range patients {
		item := SearchResultItem{
			ID:         p.ID,
			Nome:       p.Nome,
			Prontuario: p.Prontuario,
			Nascimento: fmt.Sprintf("%s (%s)", format.FormatDate(p.DataNascimento), format.AgeLabel(p.DataNascimento, now)),
			Sexo:       format.SexLabel(p.Sexo),
		}
		if p.CPF != "" {
			item.CPF = format.MaskCPF(p.CPF)
		}
		items = append(items, item)
	}
	w.view.ShowSearchResults(items)
	return items, nil
}

// SelectResult loads a patient from the result list and shows it read-only.
func (w *Workflow) SelectResult(ctx context.Context, id uint) (*Patient, error) {
	w.mu.Lock()
	w.stopDebounceLocked()
	w.searchSeq++
	w.fetchSeq++
	token := w.fetchSeq
	w.mu.Unlock()

	w.notify.Info("Carregando", "Carregando dados do paciente...")
	p, err := w.backend.GetPatient(ctx, id)

	w.mu.Lock()
	if token != w.fetchSeq {
		w.mu.Unlock()
		return nil, ErrStale
	}
	if err != nil {
		w.fail("Erro", "Não foi possível carregar os dados do paciente: "+err.Error(), err)
		w.mu.Unlock()
		return nil, err
	}
	if p == nil || p.ID == 0 {
		w.notify.Error("Erro", "Dados do paciente inválidos")
		w.mu.Unlock()
		return nil, ErrInvalidPatient
	}
	w.selectLocked(*p)
	w.view.HideSearchResults()
	w.persistLocked(ctx, *p)
	w.mu.Unlock()

	w.notify.Success("Paciente Carregado", fmt.Sprintf("Dados de %s carregados para visualização", p.Nome))
	w.ListMovements(ctx, p.ID, false)
	out := *p
	return &out, nil
}
