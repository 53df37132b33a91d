package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/stagger/config"
	coremon "github.com/kilianp07/stagger/core/monitoring"
)

type memTransport struct{ events []*sentry.Event }

func (m *memTransport) Configure(sentry.ClientOptions)          {}
func (m *memTransport) SendEvent(e *sentry.Event)               { m.events = append(m.events, e) }
func (m *memTransport) Flush(time.Duration) bool                { return true }
func (m *memTransport) FlushWithContext(_ context.Context) bool { return true }
func (m *memTransport) Close()                                  {}

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestSentryMonitorTagsEvents(t *testing.T) {
	tr := &memTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: "https://key@example.com/1", Transport: tr})
	require.NoError(t, err)
	m := &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}

	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("simplex diverged"), coremon.EpochTags("run", 2, "optimize"))
	m.Flush(time.Second)

	require.Len(t, tr.events, 1)
	assert.Equal(t, "2", tr.events[0].Tags["epoch"])
	assert.Equal(t, "stagger", tr.events[0].Tags["component"])
}
