// Package confirm implements the two-step confirm-then-execute pattern for
// irreversible server mutations. The state is a tagged machine
// (Idle / Staged / Executing) so an unstaged confirmation is
// unrepresentable rather than a nil check.
package confirm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/andeansoft/cotizador/internal/client/notify"
)

// State is the confirmation machine's phase.
type State int

const (
	// StateIdle means nothing is staged; Cancel and Confirm do nothing.
	StateIdle State = iota
	// StateStaged means a target awaits explicit confirmation.
	StateStaged
	// StateExecuting means the mutating call is in flight.
	StateExecuting
)

// Target identifies the entity a destructive action would apply to.
type Target struct {
	// ID is the entity's stable identifier.
	ID int
	// Label names the target in notifications ("user a@b.com").
	Label string
	// RequiresReason demands a non-empty justification before the
	// action may execute.
	RequiresReason bool
}

// Execute performs the irreversible server mutation. reason is empty when
// the target does not require one.
type Execute func(ctx context.Context, targetID int, reason string) error

// Notifier emits user-facing messages.
type Notifier interface {
	Notify(message string, kind notify.Kind)
}

var (
	// ErrNotStaged is returned when Confirm runs with nothing staged.
	ErrNotStaged = errors.New("no action staged")
	// ErrReasonRequired is returned when a required justification is
	// missing or blank.
	ErrReasonRequired = errors.New("a reason is required to confirm this action")
)

const executeTimeout = 15 * time.Second

// Action stages at most one destructive operation at a time. Staging a new
// target while one is staged replaces it, matching a single-modal UI.
type Action struct {
	mu         sync.Mutex
	exec       Execute
	toasts     Notifier
	onDone     func()
	successMsg string

	state  State
	target Target
}

// New constructs an Action around the given mutation. successMsg is the
// notification emitted after a successful execution; onDone runs after it
// (typically a list refresh) and may be nil.
func New(exec Execute, toasts Notifier, successMsg string, onDone func()) *Action {
	return &Action{exec: exec, toasts: toasts, successMsg: successMsg, onDone: onDone}
}

// State returns the machine's current phase.
func (a *Action) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Staged returns the pending target, if any.
func (a *Action) Staged() (Target, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target, a.state == StateStaged
}

// Stage records the pending target. Restaging while something is already
// staged replaces it; staging during execution is ignored.
func (a *Action) Stage(t Target) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateExecuting {
		return
	}
	a.state = StateStaged
	a.target = t
}

// Cancel clears the staged target without any network call. Always safe.
func (a *Action) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateStaged {
		return
	}
	a.state = StateIdle
	a.target = Target{}
}

// Confirm executes the staged action. It fails fast when nothing is staged
// or a required reason is blank. Whatever the outcome, the staged target is
// cleared; success emits the success notification and runs onDone, failure
// emits an error notification.
func (a *Action) Confirm(reason string) error {
	a.mu.Lock()
	if a.state != StateStaged {
		a.mu.Unlock()
		return ErrNotStaged
	}
	if a.target.RequiresReason && strings.TrimSpace(reason) == "" {
		a.mu.Unlock()
		return ErrReasonRequired
	}
	t := a.target
	a.state = StateExecuting
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), executeTimeout)
	defer cancel()
	err := a.exec(ctx, t.ID, strings.TrimSpace(reason))

	a.mu.Lock()
	a.state = StateIdle
	a.target = Target{}
	a.mu.Unlock()

	if err != nil {
		a.toasts.Notify(err.Error(), notify.KindError)
		return err
	}
	a.toasts.Notify(a.successMsg, notify.KindSuccess)
	if a.onDone != nil {
		a.onDone()
	}
	return nil
}
