package reception

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"hospital-system/internal/localstate"
	"hospital-system/internal/toast"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func maria() Patient {
	return Patient{
		ID:             55,
		Prontuario:     "2024000123",
		Nome:           "Maria da Silva",
		DataNascimento: "1990-05-20",
		CPF:            "12345678909",
		Sexo:           "F",
		Raca:           "PARDA",
		Nacionalidade:  "BRASILEIRA",
		NomeMae:        "Ana da Silva",
		Convenio:       "sus",
		CEP:            "01310-100",
		Estado:         "SP",
		Cidade:         "São Paulo",
		Bairro:         "Bela Vista",
		Logradouro:     "Avenida Paulista",
		Numero:         "1000",
	}
}

// fakeBackend is an in-memory hospital API. Hooks override single calls.
type fakeBackend struct {
	mu        sync.Mutex
	calls     []string
	patients  map[uint]Patient
	movements map[uint][]Movement
	nextID    uint
	nextMovID uint
	record    int

	searchFn func(ctx context.Context, q string) ([]Patient, error)
	getFn    func(ctx context.Context, id uint) (*Patient, error)
	cepFn    func(cep string) (*CEPResult, error)
	cpfFn    func(cpf string) (*CPFResult, error)

	created []Patient
	updated []Patient
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		patients:  map[uint]Patient{55: maria()},
		movements: map[uint][]Movement{},
		nextID:    100,
		nextMovID: 1,
		record:    42,
	}
}

func (b *fakeBackend) track(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) count(call string) int {
	n := 0
	for _, c := range b.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (b *fakeBackend) SearchPatients(ctx context.Context, q string) ([]Patient, error) {
	b.track("search:" + q)
	if b.searchFn != nil {
		return b.searchFn(ctx, q)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int, 0, len(b.patients))
	for id := range b.patients {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	var out []Patient
	for _, id := range ids {
		p := b.patients[uint(id)]
		if strings.Contains(strings.ToLower(p.Nome), strings.ToLower(q)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (b *fakeBackend) GetPatient(ctx context.Context, id uint) (*Patient, error) {
	b.track(fmt.Sprintf("get:%d", id))
	if b.getFn != nil {
		return b.getFn(ctx, id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.patients[id]
	if !ok {
		return nil, errors.New("Paciente não encontrado")
	}
	return &p, nil
}

func (b *fakeBackend) CreatePatient(_ context.Context, p Patient) (*Patient, error) {
	b.track("create")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, p)
	b.nextID++
	p.ID = b.nextID
	p.Prontuario = fmt.Sprintf("%06d", b.record)
	b.record++
	b.patients[p.ID] = p
	return &p, nil
}

func (b *fakeBackend) UpdatePatient(_ context.Context, id uint, p Patient) (*Patient, error) {
	b.track(fmt.Sprintf("update:%d", id))
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updated = append(b.updated, p)
	current, ok := b.patients[id]
	if !ok {
		return nil, errors.New("Paciente não encontrado")
	}
	p.ID = id
	p.Prontuario = current.Prontuario
	b.patients[id] = p
	// The PUT response carries no address fields.
	resp := p
	resp.CEP, resp.Estado, resp.Cidade, resp.Bairro, resp.Logradouro, resp.Numero = "", "", "", "", "", ""
	return &resp, nil
}

func (b *fakeBackend) LookupCEP(_ context.Context, cep string) (*CEPResult, error) {
	b.track("cep:" + cep)
	if b.cepFn != nil {
		return b.cepFn(cep)
	}
	return &CEPResult{Success: true, CEP: "01310-100", Estado: "SP", Cidade: "São Paulo", Bairro: "Bela Vista", Logradouro: "Avenida Paulista"}, nil
}

func (b *fakeBackend) ValidateCPF(_ context.Context, cpf string) (*CPFResult, error) {
	b.track("cpf:" + cpf)
	if b.cpfFn != nil {
		return b.cpfFn(cpf)
	}
	return &CPFResult{Valid: true, Message: "CPF válido"}, nil
}

func (b *fakeBackend) NextRecordNumber(context.Context) (string, error) {
	b.track("record")
	b.mu.Lock()
	defer b.mu.Unlock()
	return fmt.Sprintf("%06d", b.record), nil
}

func (b *fakeBackend) Label(_ context.Context, id uint) (*LabelData, error) {
	b.track(fmt.Sprintf("label:%d", id))
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.patients[id]
	if !ok {
		return nil, errors.New("Paciente não encontrado")
	}
	return &LabelData{Prontuario: p.Prontuario, Nome: p.Nome}, nil
}

func (b *fakeBackend) CreateMovement(_ context.Context, in MovementInput) (*Movement, error) {
	b.track("createMovement")
	b.mu.Lock()
	defer b.mu.Unlock()
	m := Movement{
		ID:          b.nextMovID,
		PacienteID:  in.PacienteID,
		Tipo:        in.Tipo,
		Status:      in.Status,
		Prioridade:  in.Prioridade,
		DataEntrada: testNow.Format(time.RFC3339),
	}
	b.nextMovID++
	b.movements[in.PacienteID] = append([]Movement{m}, b.movements[in.PacienteID]...)
	return &m, nil
}

func (b *fakeBackend) ListMovements(_ context.Context, patientID uint) ([]Movement, error) {
	b.track(fmt.Sprintf("movements:%d", patientID))
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Movement(nil), b.movements[patientID]...), nil
}

func (b *fakeBackend) DeleteMovement(_ context.Context, id uint) error {
	b.track(fmt.Sprintf("deleteMovement:%d", id))
	b.mu.Lock()
	defer b.mu.Unlock()
	for pid, list := range b.movements {
		for i, m := range list {
			if m.ID != id {
				continue
			}
			if m.Status == "finalizado" {
				return errors.New("Não é possível excluir movimentações finalizadas")
			}
			b.movements[pid] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return errors.New("Movimentação não encontrada")
}

// fakeView records what the workflow rendered.
type fakeView struct {
	mu         sync.Mutex
	forms      []FormState
	results    [][]SearchResultItem
	loading    int
	hidden     int
	panel      *Patient
	panelCalls int
	rows       []MovementRow
	emptyMsg   string
	rowsCalls  int
	status     []PatientStatus
	focus      []string
	validity   map[string]bool
	tabs       []Tab
	redirects  int
	labels     []LabelData
}

func newFakeView() *fakeView { return &fakeView{validity: map[string]bool{}} }

func (v *fakeView) RenderForm(s FormState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.forms = append(v.forms, s)
}

func (v *fakeView) SetFieldValidity(field string, valid bool, _ string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.validity[field] = valid
}

func (v *fakeView) ShowSearchLoading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading++
}

func (v *fakeView) ShowSearchResults(items []SearchResultItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.results = append(v.results, items)
}

func (v *fakeView) HideSearchResults() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden++
}

func (v *fakeView) ShowMovementPanel(p *Patient) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panel = p
	v.panelCalls++
}

func (v *fakeView) ShowMovements(rows []MovementRow, emptyMessage string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = rows
	v.emptyMsg = emptyMessage
	v.rowsCalls++
}

func (v *fakeView) ShowPatientStatus(s PatientStatus) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = append(v.status, s)
}

func (v *fakeView) Focus(field string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.focus = append(v.focus, field)
}

func (v *fakeView) ActivateTab(t Tab) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tabs = append(v.tabs, t)
}

func (v *fakeView) RedirectToLogin() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.redirects++
}

func (v *fakeView) PrintLabel(l LabelData) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.labels = append(v.labels, l)
}

func (v *fakeView) lastForm(t *testing.T) FormState {
	v.mu.Lock()
	defer v.mu.Unlock()
	require.NotEmpty(t, v.forms)
	return v.forms[len(v.forms)-1]
}

func (v *fakeView) lastResults(t *testing.T) []SearchResultItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	require.NotEmpty(t, v.results)
	return v.results[len(v.results)-1]
}

// scheduler runs timer callbacks only when told to.
type scheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (s *scheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *scheduler) pending() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireAll runs every pending callback outside the scheduler lock.
func (s *scheduler) fireAll() int {
	due := s.pending()
	for _, t := range due {
		t.fired = true
		t.f()
	}
	return len(due)
}

type harness struct {
	wf      *Workflow
	backend *fakeBackend
	view    *fakeView
	toasts  *toast.Service
	store   *localstate.FileStore
	sched   *scheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := localstate.NewFileStore(t.TempDir())
	require.NoError(t, err)

	h := &harness{
		backend: newFakeBackend(),
		view:    newFakeView(),
		toasts:  toast.New(toast.WithClock(func() time.Time { return testNow })),
		store:   store,
		sched:   &scheduler{},
	}
	h.wf = New(h.backend, h.toasts, h.view, store,
		WithClock(func() time.Time { return testNow }),
		WithAfterFunc(h.sched.AfterFunc),
	)
	return h
}

func (h *harness) hasToast(sev toast.Severity, title string) bool {
	_, ok := h.findToast(sev, title)
	return ok
}

func (h *harness) findToast(sev toast.Severity, title string) (toast.Toast, bool) {
	for _, tt := range h.toasts.Active(testNow) {
		if tt.Severity == sev && tt.Title == title {
			return tt, true
		}
	}
	return toast.Toast{}, false
}

func (h *harness) persisted(t *testing.T) ([]byte, bool) {
	data, err := h.store.Load(context.Background(), SelectionKey)
	if errors.Is(err, localstate.ErrNotFound) {
		return nil, false
	}
	require.NoError(t, err)
	return data, true
}

func (h *harness) selectMaria(t *testing.T) {
	t.Helper()
	_, err := h.wf.SelectResult(context.Background(), 55)
	require.NoError(t, err)
}
