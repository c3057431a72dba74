package reception

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"hospital-system/internal/localstate"

	"go.uber.org/zap"
)

const (
	minQueryLength     = 2
	noSelectionMessage = "Nenhum paciente selecionado."
	noMovementsMessage = "Nenhuma movimentação encontrada."
	sessionExpiredText = "Sua sessão expirou. Faça login novamente."
)

type Option func(*Workflow)

func WithLogger(l *zap.Logger) Option {
	return func(w *Workflow) { w.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithAfterFunc replaces time.AfterFunc for the search debounce and the login redirect.
func WithAfterFunc(f func(time.Duration, func()) Timer) Option {
	return func(w *Workflow) { w.afterFunc = f }
}

func WithDebounce(d time.Duration) Option {
	return func(w *Workflow) { w.debounce = d }
}

// WithLoginRedirect sets the delay between a session expiry notice and the redirect.
func WithLoginRedirect(d time.Duration) Option {
	return func(w *Workflow) { w.loginDelay = d }
}

// Workflow owns the reception state. Network calls run without the lock;
// their results are applied only while the request token is still current.
type Workflow struct {
	backend Backend
	notify  Notifier
	view    View
	store   localstate.Store

	logger     *zap.Logger
	now        func() time.Time
	afterFunc  func(time.Duration, func()) Timer
	debounce   time.Duration
	loginDelay time.Duration

	mu        sync.Mutex
	mode      Mode
	form      Patient
	selected  *Patient
	movements map[uint][]Movement
	status    *PatientStatus

	searchSeq uint64
	fetchSeq  uint64
	listSeq   uint64
	debouncer Timer
}

func New(backend Backend, notify Notifier, view View, store localstate.Store, opts ...Option) *Workflow {
	w := &Workflow{
		backend:    backend,
		notify:     notify,
		view:       view,
		store:      store,
		logger:     zap.NewNop(),
		now:        time.Now,
		afterFunc:  func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
		debounce:   300 * time.Millisecond,
		loginDelay: 3 * time.Second,
		movements:  make(map[uint][]Movement),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Init restores the persisted selection, or prepares an empty registration form.
func (w *Workflow) Init(ctx context.Context) error {
	restored, err := w.Restore(ctx)
	if err != nil {
		w.logger.Warn("restore selection failed", zap.Error(err))
	}
	if restored {
		return nil
	}
	w.mu.Lock()
	token := w.clearLocked()
	w.mu.Unlock()
	return w.loadRecordNumber(ctx, token)
}

func (w *Workflow) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// Selected returns a copy of the patient in focus, or nil.
func (w *Workflow) Selected() *Patient {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == nil {
		return nil
	}
	p := *w.selected
	return &p
}

func (w *Workflow) Form() FormState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.formStateLocked()
}

func (w *Workflow) formStateLocked() FormState {
	return FormState{
		Mode:           w.mode,
		Values:         w.form,
		ReadOnly:       w.mode == ModeView,
		MotherRequired: !w.form.MaeDesconhecida,
	}
}

func (w *Workflow) renderLocked() {
	w.view.RenderForm(w.formStateLocked())
}

// Restore brings back the persisted selection. Unreadable or id-less values
// are dropped without notice.
func (w *Workflow) Restore(ctx context.Context) (bool, error) {
	data, err := w.store.Load(ctx, SelectionKey)
	if errors.Is(err, localstate.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load selection: %w", err)
	}

	var p Patient
	if err := json.Unmarshal(data, &p); err != nil || p.ID == 0 {
		w.logger.Debug("discarding persisted selection")
		if err := w.store.Delete(ctx, SelectionKey); err != nil {
			w.logger.Warn("delete persisted selection failed", zap.Error(err))
		}
		return false, nil
	}

	w.mu.Lock()
	w.fetchSeq++
	w.selectLocked(p)
	w.mu.Unlock()

	w.notify.Info("Paciente Recuperado", fmt.Sprintf("Dados de %s foram restaurados da sessão anterior.", p.Nome))
	w.ListMovements(ctx, p.ID, false)
	return true, nil
}

// Reset forgets the selection, in memory and persisted.
func (w *Workflow) Reset(ctx context.Context) error {
	w.mu.Lock()
	w.clearLocked()
	w.movements = make(map[uint][]Movement)
	w.mu.Unlock()
	return w.forget(ctx)
}

// selectLocked puts p in focus and shows it read-only.
func (w *Workflow) selectLocked(p Patient) {
	if p.MaeDesconhecida {
		p.NomeMae = MotherUnknownName
	}
	w.selected = &p
	w.form = p
	w.mode = ModeView
	w.status = nil
	w.renderLocked()
	panel := p
	w.view.ShowMovementPanel(&panel)
}

// clearLocked drops the selection and returns the form to an empty create
// state. The returned token guards the record number fetch that follows.
func (w *Workflow) clearLocked() uint64 {
	w.fetchSeq++
	w.selected = nil
	w.status = nil
	w.mode = ModeCreate
	w.form = Patient{}
	w.renderLocked()
	w.view.ShowMovementPanel(nil)
	w.view.ShowMovements(nil, noSelectionMessage)
	return w.fetchSeq
}

func (w *Workflow) persistLocked(ctx context.Context, p Patient) {
	data, err := json.Marshal(p)
	if err != nil {
		w.logger.Warn("encode selection failed", zap.Error(err))
		return
	}
	if err := w.store.Save(ctx, SelectionKey, data); err != nil {
		w.logger.Warn("persist selection failed", zap.Uint("patient_id", p.ID), zap.Error(err))
	}
}

func (w *Workflow) forget(ctx context.Context) error {
	if err := w.store.Delete(ctx, SelectionKey); err != nil {
		return fmt.Errorf("delete selection: %w", err)
	}
	return nil
}

// fail reports a failed backend call. An expired session is followed by a
// delayed redirect to the login page.
func (w *Workflow) fail(title, message string, err error) {
	if errors.Is(err, ErrUnauthorized) {
		w.notify.Error("Sessão Expirada", sessionExpiredText)
		w.afterFunc(w.loginDelay, w.view.RedirectToLogin)
		return
	}
	w.logger.Warn(title, zap.Error(err))
	w.notify.Error(title, message)
}
