package connectionmonitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu             sync.Mutex
	healthy        bool
	reconnectFails int
	checks         int
	reconnects     int
}

func (f *fakeClient) CheckConnection(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	if !f.healthy {
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeClient) Reconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	if f.reconnects <= f.reconnectFails {
		return errors.New("dial failed")
	}
	f.healthy = true
	return nil
}

func (f *fakeClient) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks, f.reconnects
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestMonitor(client BlockchainClient) *connectionMonitor {
	return NewConnectionMonitor(client, quietLogger(), "bsc",
		WithHealthCheckInterval(time.Millisecond),
		WithReconnectInterval(time.Millisecond),
	).(*connectionMonitor)
}

func TestCheckAndReconnectHealthy(t *testing.T) {
	client := &fakeClient{healthy: true}
	m := newTestMonitor(client)

	require.NoError(t, m.checkAndReconnect(context.Background()))
	_, reconnects := client.counts()
	assert.Zero(t, reconnects)
}

func TestCheckAndReconnectRetries(t *testing.T) {
	client := &fakeClient{reconnectFails: 2}
	m := newTestMonitor(client)

	require.NoError(t, m.checkAndReconnect(context.Background()))
	_, reconnects := client.counts()
	assert.Equal(t, 3, reconnects)
}

func TestCheckAndReconnectGivesUp(t *testing.T) {
	client := &fakeClient{reconnectFails: 10}
	m := newTestMonitor(client)

	err := m.checkAndReconnect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reconnect to chain bsc")
	_, reconnects := client.counts()
	assert.Equal(t, maxReconnectAttempts, reconnects)
}

func TestStartStop(t *testing.T) {
	client := &fakeClient{healthy: true}
	m := newTestMonitor(client)

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Start(context.Background()))

	assert.Eventually(t, func() bool {
		checks, _ := client.counts()
		return checks > 0
	}, time.Second, time.Millisecond)

	m.Stop()
	m.Stop()
	require.NoError(t, m.Start(context.Background()))
	m.Stop()
}
