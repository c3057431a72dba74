// Package terminal renders the reception workflow as plain text and reads
// operator commands from a line-oriented input.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"hospital-system/internal/format"
	"hospital-system/internal/reception"
	"hospital-system/internal/toast"
)

// View writes every workflow update to out.
type View struct {
	mu  sync.Mutex
	out io.Writer

	// OnRedirect runs after the login notice, when the session is gone.
	OnRedirect func()
}

func NewView(out io.Writer) *View {
	return &View{out: out}
}

func (v *View) printf(msg string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, msg, args...)
}

func (v *View) RenderForm(s reception.FormState) {
	var b strings.Builder
	lock := ""
	if s.ReadOnly {
		lock = " (somente leitura)"
	}
	fmt.Fprintf(&b, "== Paciente [%s]%s ==\n", s.Mode, lock)
	p := s.Values
	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "  %-20s %s\n", label+":", value)
	}
	field("Prontuário", p.Prontuario)
	field("Nome", p.Nome)
	field("Nascimento", dateOrBlank(p.DataNascimento))
	field("CPF", format.MaskCPF(p.CPF))
	field("Sexo", sexOrBlank(p.Sexo))
	mother := p.NomeMae
	if s.MotherRequired {
		mother += " *"
	}
	field("Mãe", strings.TrimSpace(mother))
	field("Telefone", format.MaskPhone(p.Telefone))
	field("Convênio", format.PlanLabel(p.Convenio))
	field("CEP", format.MaskCEP(p.CEP))
	field("Endereço", joinNonEmpty(", ", p.Logradouro, p.Numero, p.Bairro, p.Cidade, p.Estado))
	v.printf("%s", b.String())
}

func dateOrBlank(iso string) string {
	if iso == "" {
		return ""
	}
	return format.FormatDate(iso)
}

func sexOrBlank(code string) string {
	if code == "" {
		return ""
	}
	return format.SexLabel(code)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func (v *View) SetFieldValidity(field string, valid bool, message string) {
	mark := "inválido"
	if valid {
		mark = "válido"
	}
	if message != "" {
		v.printf("  campo %s %s: %s\n", field, mark, message)
		return
	}
	v.printf("  campo %s %s\n", field, mark)
}

func (v *View) ShowSearchLoading() {
	v.printf("Pesquisando...\n")
}

func (v *View) ShowSearchResults(items []reception.SearchResultItem) {
	if len(items) == 0 {
		v.printf("Nenhum paciente encontrado.\n")
		return
	}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "  #%d %s | Prontuário %s", it.ID, it.Nome, it.Prontuario)
		if it.CPF != "" {
			fmt.Fprintf(&b, " | CPF %s", it.CPF)
		}
		fmt.Fprintf(&b, " | %s | %s\n", it.Nascimento, it.Sexo)
	}
	v.printf("%s", b.String())
}

func (v *View) HideSearchResults() {}

func (v *View) ShowMovementPanel(p *reception.Patient) {
	if p == nil {
		v.printf("Movimentação: nenhum paciente selecionado.\n")
		return
	}
	v.printf("Movimentação: %s (Prontuário %s)\n", p.Nome, p.Prontuario)
}

func (v *View) ShowMovements(rows []reception.MovementRow, emptyMessage string) {
	if len(rows) == 0 {
		v.printf("  %s\n", emptyMessage)
		return
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "  #%d %s | %s | %s | %s | %s", r.ID, r.Data, r.TipoLabel, r.StatusLabel, r.Profissional, r.Observacoes)
		if r.Actions {
			fmt.Fprintf(&b, " [excluir %d]", r.ID)
		}
		b.WriteByte('\n')
	}
	v.printf("%s", b.String())
}

func (v *View) ShowPatientStatus(s reception.PatientStatus) {
	v.printf("Status atual: %s (%s em %s)\n", s.StatusLabel, s.LastType, s.At)
}

func (v *View) Focus(field string) {
	v.printf("  -> preencha o campo %s\n", field)
}

func (v *View) ActivateTab(t reception.Tab) {
	if t == reception.TabMovements {
		v.printf("-- aba Movimentação --\n")
		return
	}
	v.printf("-- aba Cadastro de Paciente --\n")
}

func (v *View) RedirectToLogin() {
	v.printf("Sessão encerrada. Faça login novamente.\n")
	if v.OnRedirect != nil {
		v.OnRedirect()
	}
}

func (v *View) PrintLabel(l reception.LabelData) {
	v.printf("+------------------------------------------+\n"+
		"| PRONTUÁRIO: %-28s |\n"+
		"| %-40s |\n"+
		"| Nasc.: %-12s Idade: %-12s |\n"+
		"| Sexo: %-34s |\n"+
		"| Mãe: %-35s |\n"+
		"+------------------------------------------+\n",
		l.Prontuario, l.Nome, l.DataNascimento, l.Idade, l.Sexo, l.NomeMae)
}

var severityTags = map[toast.Severity]string{
	toast.Success: "OK",
	toast.Error:   "ERRO",
	toast.Warning: "AVISO",
	toast.Info:    "INFO",
}

// ToastPrinter prints toasts as they are raised.
type ToastPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func NewToastPrinter(out io.Writer) *ToastPrinter {
	return &ToastPrinter{out: out}
}

func (p *ToastPrinter) ToastAdded(t toast.Toast) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] %s: %s\n", severityTags[t.Severity], t.Title, t.Message)
	if t.Confirmable() {
		fmt.Fprintf(p.out, "       responda: confirmar %d | recusar %d\n", t.ID, t.ID)
	}
}

func (p *ToastPrinter) ToastRemoved(int) {}
