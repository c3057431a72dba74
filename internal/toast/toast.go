// Package toast keeps the stack of transient notifications shown to the operator.
package toast

import (
	"sync"
	"time"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// DefaultDuration is how long a toast of this severity stays visible.
func (s Severity) DefaultDuration() time.Duration {
	switch s {
	case Error:
		return 5 * time.Second
	case Warning:
		return 4 * time.Second
	default:
		return 3 * time.Second
	}
}

// AccentClass is the left-border class of the severity.
func (s Severity) AccentClass() string {
	switch s {
	case Success:
		return "border-success"
	case Error:
		return "border-danger"
	case Warning:
		return "border-warning"
	default:
		return "border-info"
	}
}

// Toast is a single notification. Duration 0 means sticky.
type Toast struct {
	ID        int
	Severity  Severity
	Title     string
	Message   string
	Duration  time.Duration
	CreatedAt time.Time

	onConfirm func()
	onCancel  func()
	confirm   bool
}

func (t Toast) Sticky() bool { return t.Duration == 0 }

// Confirmable reports whether the toast carries confirm/cancel actions.
func (t Toast) Confirmable() bool { return t.confirm }

func (t Toast) expired(now time.Time) bool {
	return !t.Sticky() && !now.Before(t.CreatedAt.Add(t.Duration))
}

// Renderer is told about every toast added to or removed from the stack.
type Renderer interface {
	ToastAdded(t Toast)
	ToastRemoved(id int)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// Service owns the toast stack. It is safe for concurrent use.
type Service struct {
	mu       sync.Mutex
	nextID   int
	toasts   []Toast
	now      func() time.Time
	renderer Renderer
}

func New(opts ...Option) *Service {
	s := &Service{now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) add(t Toast) int {
	s.mu.Lock()
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = s.now()
	s.toasts = append(s.toasts, t)
	r := s.renderer
	s.mu.Unlock()

	if r != nil {
		r.ToastAdded(t)
	}
	return t.ID
}

// Show pushes a toast and returns its id.
func (s *Service) Show(sev Severity, title, message string, d time.Duration) int {
	return s.add(Toast{Severity: sev, Title: title, Message: message, Duration: d})
}

func (s *Service) Success(title, message string) int {
	return s.Show(Success, title, message, Success.DefaultDuration())
}

func (s *Service) Error(title, message string) int {
	return s.Show(Error, title, message, Error.DefaultDuration())
}

func (s *Service) Warning(title, message string) int {
	return s.Show(Warning, title, message, Warning.DefaultDuration())
}

func (s *Service) Info(title, message string) int {
	return s.Show(Info, title, message, Info.DefaultDuration())
}

// Confirm pushes a sticky warning carrying confirm and cancel actions.
// Either callback may be nil.
func (s *Service) Confirm(title, message string, onConfirm, onCancel func()) int {
	return s.add(Toast{
		Severity:  Warning,
		Title:     title,
		Message:   message,
		onConfirm: onConfirm,
		onCancel:  onCancel,
		confirm:   true,
	})
}

// Resolve removes a confirmation toast and runs the callback bound to the decision.
// It returns false when the toast is no longer on the stack.
func (s *Service) Resolve(id int, confirmed bool) bool {
	t, ok := s.take(id)
	if !ok {
		return false
	}
	cb := t.onCancel
	if confirmed {
		cb = t.onConfirm
	}
	if cb != nil {
		cb()
	}
	return true
}

func (s *Service) take(id int) (Toast, bool) {
	s.mu.Lock()
	var (
		t     Toast
		found bool
	)
	for i := range s.toasts {
		if s.toasts[i].ID == id {
			t = s.toasts[i]
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			found = true
			break
		}
	}
	r := s.renderer
	s.mu.Unlock()

	if found && r != nil {
		r.ToastRemoved(id)
	}
	return t, found
}

// Remove drops a toast without running any callback.
func (s *Service) Remove(id int) bool {
	_, ok := s.take(id)
	return ok
}

// RemoveBySeverity drops every toast of the severity and returns how many went away.
func (s *Service) RemoveBySeverity(sev Severity) int {
	return s.removeWhere(func(t Toast) bool { return t.Severity == sev })
}

// Prune drops expired toasts.
func (s *Service) Prune(now time.Time) int {
	return s.removeWhere(func(t Toast) bool { return t.expired(now) })
}

func (s *Service) removeWhere(match func(Toast) bool) int {
	s.mu.Lock()
	var removed []int
	kept := s.toasts[:0]
	for _, t := range s.toasts {
		if match(t) {
			removed = append(removed, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	s.toasts = kept
	r := s.renderer
	s.mu.Unlock()

	if r != nil {
		for _, id := range removed {
			r.ToastRemoved(id)
		}
	}
	return len(removed)
}

// Active returns the visible toasts, newest first.
func (s *Service) Active(now time.Time) []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Toast, 0, len(s.toasts))
	for i := len(s.toasts) - 1; i >= 0; i-- {
		if !s.toasts[i].expired(now) {
			out = append(out, s.toasts[i])
		}
	}
	return out
}
