package confirm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andeansoft/cotizador/internal/client/notify"
)

// recordingToasts captures notifications.
type recordingToasts struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (r *recordingToasts) Notify(message string, kind notify.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, notify.Notification{Message: message, Kind: kind})
}

func (r *recordingToasts) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Notification, len(r.notes))
	copy(out, r.notes)
	return out
}

func TestAction_ConfirmWithoutStaging(t *testing.T) {
	a := New(func(ctx context.Context, id int, reason string) error {
		t.Fatal("exec must not run")
		return nil
	}, &recordingToasts{}, "hecho", nil)

	require.ErrorIs(t, a.Confirm(""), ErrNotStaged)
}

func TestAction_StageThenConfirm(t *testing.T) {
	var gotID int
	var gotReason string
	toasts := &recordingToasts{}
	var done bool
	a := New(func(ctx context.Context, id int, reason string) error {
		gotID, gotReason = id, reason
		return nil
	}, toasts, "Cotización eliminada.", func() { done = true })

	a.Stage(Target{ID: 42, Label: "cotización 42"})
	require.Equal(t, StateStaged, a.State())

	require.NoError(t, a.Confirm(""))

	require.Equal(t, 42, gotID)
	require.Empty(t, gotReason)
	require.Equal(t, StateIdle, a.State())
	require.True(t, done)

	notes := toasts.all()
	require.Len(t, notes, 1)
	require.Equal(t, notify.KindSuccess, notes[0].Kind)
	require.Equal(t, "Cotización eliminada.", notes[0].Message)
}

func TestAction_RequiredReason(t *testing.T) {
	var execCount int
	var gotReason string
	a := New(func(ctx context.Context, id int, reason string) error {
		execCount++
		gotReason = reason
		return nil
	}, &recordingToasts{}, "Usuario desactivado.", nil)

	a.Stage(Target{ID: 7, RequiresReason: true})

	require.ErrorIs(t, a.Confirm(""), ErrReasonRequired)
	require.ErrorIs(t, a.Confirm("   "), ErrReasonRequired)
	require.Zero(t, execCount, "a rejected confirmation must not execute")

	// The target stays staged after a rejected confirmation.
	_, staged := a.Staged()
	require.True(t, staged)

	require.NoError(t, a.Confirm("inactividad prolongada"))
	require.Equal(t, 1, execCount)
	require.Equal(t, "inactividad prolongada", gotReason)
}

func TestAction_FailureClearsStagedTarget(t *testing.T) {
	toasts := &recordingToasts{}
	a := New(func(ctx context.Context, id int, reason string) error {
		return errors.New("No tiene permisos para eliminar esta cotización")
	}, toasts, "hecho", func() { t.Fatal("onDone must not run on failure") })

	a.Stage(Target{ID: 9})
	err := a.Confirm("")
	require.Error(t, err)

	require.Equal(t, StateIdle, a.State())
	_, staged := a.Staged()
	require.False(t, staged, "the target clears whatever the outcome")

	notes := toasts.all()
	require.Len(t, notes, 1)
	require.Equal(t, notify.KindError, notes[0].Kind)
	require.Equal(t, "No tiene permisos para eliminar esta cotización", notes[0].Message)
}

func TestAction_CancelClearsTarget(t *testing.T) {
	a := New(func(ctx context.Context, id int, reason string) error {
		t.Fatal("exec must not run")
		return nil
	}, &recordingToasts{}, "hecho", nil)

	a.Stage(Target{ID: 5})
	a.Cancel()

	require.Equal(t, StateIdle, a.State())
	require.ErrorIs(t, a.Confirm(""), ErrNotStaged)
}

func TestAction_CancelWhileIdleIsNoop(t *testing.T) {
	a := New(nil, &recordingToasts{}, "hecho", nil)
	a.Cancel()
	require.Equal(t, StateIdle, a.State())
}

func TestAction_RestagingReplacesTarget(t *testing.T) {
	var gotID int
	a := New(func(ctx context.Context, id int, reason string) error {
		gotID = id
		return nil
	}, &recordingToasts{}, "hecho", nil)

	a.Stage(Target{ID: 1})
	a.Stage(Target{ID: 2})

	staged, ok := a.Staged()
	require.True(t, ok)
	require.Equal(t, 2, staged.ID)

	require.NoError(t, a.Confirm(""))
	require.Equal(t, 2, gotID, "only the latest target executes")
}

func TestAction_ReasonIsTrimmed(t *testing.T) {
	var gotReason string
	a := New(func(ctx context.Context, id int, reason string) error {
		gotReason = reason
		return nil
	}, &recordingToasts{}, "hecho", nil)

	a.Stage(Target{ID: 3, RequiresReason: true})
	require.NoError(t, a.Confirm("  morosidad  "))
	require.Equal(t, "morosidad", gotReason)
}
