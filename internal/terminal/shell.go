package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hospital-system/internal/reception"
	"hospital-system/internal/toast"
)

const helpText = `Comandos:
  buscar <texto>              pesquisa imediata
  digitar <texto>             pesquisa com espera (digitação)
  selecionar <id>             carrega o paciente
  novo | editar | cancelar    modos do formulário
  campo <nome> <valor>        preenche um campo (cep e cpf são verificados)
  mae-desconhecida sim|nao
  salvar                      cadastra ou atualiza
  etiqueta [id]               imprime a etiqueta
  mov <tipo> <status> [prioridade] [profissional...]
  historico                   recarrega as movimentações
  excluir <id>                pede confirmação para excluir
  editar-mov <id>
  sim | nao                   responde a confirmação pendente
  confirmar <aviso> | recusar <aviso>
  trocar                      volta ao cadastro e limpa a seleção
  sair`

var fieldSetters = map[string]func(p *reception.Patient, v string){
	"nome":             func(p *reception.Patient, v string) { p.Nome = v },
	"data_nascimento":  func(p *reception.Patient, v string) { p.DataNascimento = v },
	"cpf":              func(p *reception.Patient, v string) { p.CPF = v },
	"rg":               func(p *reception.Patient, v string) { p.RG = v },
	"sexo":             func(p *reception.Patient, v string) { p.Sexo = strings.ToUpper(v) },
	"raca":             func(p *reception.Patient, v string) { p.Raca = v },
	"nacionalidade":    func(p *reception.Patient, v string) { p.Nacionalidade = v },
	"nome_mae":         func(p *reception.Patient, v string) { p.NomeMae = v },
	"nome_pai":         func(p *reception.Patient, v string) { p.NomePai = v },
	"email":            func(p *reception.Patient, v string) { p.Email = v },
	"telefone":         func(p *reception.Patient, v string) { p.Telefone = v },
	"convenio":         func(p *reception.Patient, v string) { p.Convenio = strings.ToLower(v) },
	"numero_cartao":    func(p *reception.Patient, v string) { p.NumeroCartao = v },
	"titular_cartao":   func(p *reception.Patient, v string) { p.TitularCartao = v },
	"cep":              func(p *reception.Patient, v string) { p.CEP = v },
	"estado":           func(p *reception.Patient, v string) { p.Estado = strings.ToUpper(v) },
	"cidade":           func(p *reception.Patient, v string) { p.Cidade = v },
	"bairro":           func(p *reception.Patient, v string) { p.Bairro = v },
	"logradouro":       func(p *reception.Patient, v string) { p.Logradouro = v },
	"numero":           func(p *reception.Patient, v string) { p.Numero = v },
	"complemento":      func(p *reception.Patient, v string) { p.Complemento = v },
	"ponto_referencia": func(p *reception.Patient, v string) { p.PontoReferencia = v },
}

var errUsage = errors.New("uso incorreto; digite ajuda")

// Shell maps operator commands onto the workflow.
type Shell struct {
	wf     *reception.Workflow
	toasts *toast.Service
	out    io.Writer
	logout func(ctx context.Context) error

	pending *reception.Confirmation
}

// NewShell builds a shell. logout is called by "sair" and may be nil.
func NewShell(wf *reception.Workflow, toasts *toast.Service, out io.Writer, logout func(ctx context.Context) error) *Shell {
	return &Shell{wf: wf, toasts: toasts, out: out, logout: logout}
}

// Run reads commands until "sair", end of input or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		quit, err := s.Exec(ctx, scanner.Text())
		if err != nil && !quiet(err) {
			fmt.Fprintf(s.out, "! %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// quiet reports results dropped in favour of a newer request.
func quiet(err error) bool {
	return errors.Is(err, reception.ErrStale)
}

// Exec runs one command line.
func (s *Shell) Exec(ctx context.Context, line string) (bool, error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "ajuda", "help":
		fmt.Fprintln(s.out, helpText)
	case "buscar":
		_, err := s.wf.Enter(ctx, rest)
		return false, err
	case "digitar":
		s.wf.Type(rest)
	case "selecionar":
		id, err := parseID(rest)
		if err != nil {
			return false, err
		}
		_, err = s.wf.SelectResult(ctx, id)
		return false, err
	case "novo":
		return false, s.wf.NewPatient(ctx)
	case "editar":
		return false, s.wf.EnterEdit()
	case "cancelar":
		return false, s.wf.CancelEdit()
	case "campo":
		return false, s.setField(ctx, rest)
	case "mae-desconhecida":
		return false, s.wf.SetMotherUnknown(strings.EqualFold(rest, "sim"))
	case "salvar":
		_, err := s.wf.Submit(ctx, s.wf.Form().Values)
		return false, err
	case "etiqueta":
		return false, s.printLabel(ctx, rest)
	case "mov":
		return false, s.createMovement(ctx, rest)
	case "historico":
		sel := s.wf.Selected()
		if sel == nil {
			return false, reception.ErrNoSelection
		}
		_, err := s.wf.ListMovements(ctx, sel.ID, true)
		return false, err
	case "excluir":
		id, err := parseID(rest)
		if err != nil {
			return false, err
		}
		s.pending = s.wf.RequestDeleteMovement(id)
		fmt.Fprintf(s.out, "%s (sim/nao)\n", s.pending.Message)
	case "sim", "nao":
		if s.pending == nil {
			return false, errUsage
		}
		c := s.pending
		s.pending = nil
		if strings.EqualFold(cmd, "sim") {
			return false, c.Confirm(ctx)
		}
		c.Cancel()
	case "editar-mov":
		id, err := parseID(rest)
		if err != nil {
			return false, err
		}
		return false, s.wf.EditMovement(id)
	case "confirmar", "recusar":
		id, err := strconv.Atoi(rest)
		if err != nil {
			return false, errUsage
		}
		if !s.toasts.Resolve(id, strings.EqualFold(cmd, "confirmar")) {
			fmt.Fprintln(s.out, "aviso já respondido")
		}
	case "trocar":
		return false, s.wf.SwitchPatient(ctx)
	case "sair":
		if s.logout != nil {
			if err := s.logout(ctx); err != nil {
				fmt.Fprintf(s.out, "! logout: %v\n", err)
			}
		}
		return true, s.wf.Reset(ctx)
	default:
		return false, errUsage
	}
	return false, nil
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, errUsage
	}
	return uint(n), nil
}

// setField updates one draft field. Leaving the cep or cpf field runs its lookup.
func (s *Shell) setField(ctx context.Context, rest string) error {
	name, value, _ := strings.Cut(rest, " ")
	name = strings.ToLower(name)
	set, ok := fieldSetters[name]
	if !ok {
		return errUsage
	}
	values := s.wf.Form().Values
	set(&values, strings.TrimSpace(value))
	if err := s.wf.UpdateDraft(values); err != nil {
		return err
	}
	switch name {
	case "cep":
		return s.wf.OnCEPBlur(ctx, value)
	case "cpf":
		_, err := s.wf.OnCPFBlur(ctx, value)
		return err
	}
	return nil
}

func (s *Shell) printLabel(ctx context.Context, rest string) error {
	if rest != "" {
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		return s.wf.PrintLabel(ctx, id)
	}
	sel := s.wf.Selected()
	if sel == nil {
		return reception.ErrNoSelection
	}
	return s.wf.PrintLabel(ctx, sel.ID)
}

// createMovement parses "<tipo> <status> [prioridade] [profissional...]".
func (s *Shell) createMovement(ctx context.Context, rest string) error {
	parts := strings.Fields(rest)
	in := reception.MovementInput{}
	if len(parts) > 0 {
		in.Tipo = parts[0]
	}
	if len(parts) > 1 {
		in.Status = parts[1]
	}
	if len(parts) > 2 {
		in.Prioridade = parts[2]
	}
	if len(parts) > 3 {
		in.ProfissionalResponsavel = strings.Join(parts[3:], " ")
	}
	_, err := s.wf.CreateMovement(ctx, in)
	return err
}
