package main

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andeansoft/cotizador/internal/client/api"
	"github.com/andeansoft/cotizador/internal/client/notify"
	"github.com/andeansoft/cotizador/internal/client/session"
)

// roundTripperFunc lets a test stand in for the HTTP transport.
type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// loggedInApp builds an app with a resolved session backed by a temp bolt
// store and a transport that always answers with a valid profile.
func loggedInApp(t *testing.T) (*app, *notify.Channel) {
	t.Helper()
	creds, err := session.OpenBolt(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = creds.Close() })

	hc := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"id": 1, "email": "a@b.com", "is_active": true}`)),
			}, nil
		}),
		Timeout: time.Second,
	}

	log := zap.NewNop()
	sess := session.New(creds, log)
	client := api.New("http://api.test", hc, sess, log)
	sess.Start(client)
	sess.Login("tok-1")
	require.Eventually(t, func() bool { return sess.User() != nil }, time.Second, 5*time.Millisecond)

	toasts := notify.NewWithTTL(time.Hour)
	return &app{client: client, sess: sess, creds: creds, toasts: toasts}, toasts
}

func TestReport_UnauthorizedClearsSession(t *testing.T) {
	a, toasts := loggedInApp(t)

	a.report(&api.Error{Status: 401, Message: "Could not validate credentials"})

	require.Empty(t, a.sess.Token())
	require.Nil(t, a.sess.User())

	notes := toasts.Snapshot()
	require.Len(t, notes, 1)
	require.Equal(t, notify.KindError, notes[0].Kind)
	require.Equal(t, "Could not validate credentials", notes[0].Message)
}

func TestReport_OtherFailuresKeepSession(t *testing.T) {
	a, toasts := loggedInApp(t)

	a.report(&api.Error{Status: 404, Message: "Cotización no encontrada"})
	a.report(&api.Error{Message: api.FallbackErrorMessage})

	require.Equal(t, "tok-1", a.sess.Token())
	require.NotNil(t, a.sess.User())
	require.Len(t, toasts.Snapshot(), 2)
}
