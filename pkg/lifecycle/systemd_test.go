package lifecycle

import (
	stderrors "errors"
	"testing"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotify struct {
	states []string
	err    error
}

func (r *recordingNotify) fn(_ bool, state string) (bool, error) {
	r.states = append(r.states, state)
	return r.err == nil, r.err
}

func TestSystemdNotifier_ReadyOnOwnRefresh(t *testing.T) {
	rec := &recordingNotify{}
	n := &SystemdNotifier{notify: rec.fn}

	c := New()
	require.NoError(t, c.Register("systemd", n))

	n.OnContextRefreshed(RefreshedEvent{ContextID: "someone-else"})
	assert.Empty(t, rec.states)

	n.OnContextRefreshed(RefreshedEvent{ContextID: c.ID()})
	assert.Equal(t, []string{daemon.SdNotifyReady}, rec.states)
}

func TestSystemdNotifier_StoppingOnDestroy(t *testing.T) {
	rec := &recordingNotify{err: stderrors.New("no socket")}
	n := &SystemdNotifier{notify: rec.fn}

	require.NoError(t, n.Destroy())
	assert.Equal(t, []string{daemon.SdNotifyStopping}, rec.states)
}

func TestNewSystemdNotifier(t *testing.T) {
	n := NewSystemdNotifier()
	require.NotNil(t, n.notify)
	// Outside systemd NOTIFY_SOCKET is unset and SdNotify is a no-op.
	t.Setenv("NOTIFY_SOCKET", "")
	assert.NoError(t, n.Destroy())
}
