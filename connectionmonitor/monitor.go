package connectionmonitor

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// defaultHealthCheckInterval defines interval between connection health checks
	defaultHealthCheckInterval = 30 * time.Second
	// defaultReconnectInterval is the first delay between reconnection attempts
	defaultReconnectInterval = 5 * time.Second
	// maxReconnectAttempts defines maximum number of reconnection attempts
	maxReconnectAttempts = 3
)

// ConnectionMonitor represents connection state monitoring interface
type ConnectionMonitor interface {
	// Start starts connection monitoring
	Start(ctx context.Context) error
	// Stop stops connection monitoring
	Stop()
}

// BlockchainClient represents blockchain client interface
type BlockchainClient interface {
	// CheckConnection checks if connection is alive
	CheckConnection(ctx context.Context) error
	// Reconnect attempts to reconnect to blockchain node
	Reconnect(ctx context.Context) error
}

// Option tunes a connection monitor.
type Option func(*connectionMonitor)

// WithHealthCheckInterval overrides the interval between health checks.
func WithHealthCheckInterval(d time.Duration) Option {
	return func(m *connectionMonitor) {
		m.healthCheckInterval = d
	}
}

// WithReconnectInterval overrides the initial delay between reconnection attempts.
func WithReconnectInterval(d time.Duration) Option {
	return func(m *connectionMonitor) {
		m.reconnectInterval = d
	}
}

type connectionMonitor struct {
	client    BlockchainClient
	logger    *logrus.Logger
	chainName string

	healthCheckInterval time.Duration
	reconnectInterval   time.Duration

	stopChan     chan struct{}
	isMonitoring bool
	monitorMutex sync.RWMutex
}

// NewConnectionMonitor creates a new connection monitor instance.
//
// Parameters:
// - client: the blockchain client to monitor.
// - logger: the logger for logging purposes.
// - chainName: the name of the blockchain chain.
// - opts: optional interval overrides.
//
// Returns:
// - ConnectionMonitor: the new connection monitor instance.
func NewConnectionMonitor(
	client BlockchainClient,
	logger *logrus.Logger,
	chainName string,
	opts ...Option,
) ConnectionMonitor {
	m := &connectionMonitor{
		client:              client,
		logger:              logger,
		chainName:           chainName,
		healthCheckInterval: defaultHealthCheckInterval,
		reconnectInterval:   defaultReconnectInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start starts connection monitoring.
//
// Parameters:
// - ctx: the context for managing the request.
//
// Returns:
// - error: an error if the connection monitor is already running.
func (m *connectionMonitor) Start(ctx context.Context) error {
	m.monitorMutex.Lock()
	defer m.monitorMutex.Unlock()

	if m.isMonitoring {
		return errors.Errorf("connection monitor is already running for chain %s", m.chainName)
	}
	m.isMonitoring = true
	m.stopChan = make(chan struct{})

	go m.monitorConnection(ctx, m.stopChan)
	return nil
}

// Stop stops connection monitoring.
func (m *connectionMonitor) Stop() {
	m.monitorMutex.Lock()
	defer m.monitorMutex.Unlock()

	if !m.isMonitoring {
		return
	}

	close(m.stopChan)
	m.isMonitoring = false
}

// monitorConnection monitors the connection state and attempts to reconnect if needed.
func (m *connectionMonitor) monitorConnection(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(m.healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.WithField("chain", m.chainName).Info("Connection monitoring stopped due to context cancellation")
			return

		case <-stop:
			m.logger.WithField("chain", m.chainName).Info("Connection monitoring stopped")
			return

		case <-ticker.C:
			if err := m.checkAndReconnect(ctx); err != nil {
				m.logger.WithFields(logrus.Fields{
					"chain": m.chainName,
					"error": err,
				}).Error("Failed to check or reconnect")
			}
		}
	}
}

// checkAndReconnect checks the connection state and attempts to reconnect if needed.
//
// Parameters:
// - ctx: the context for managing the request.
//
// Returns:
// - error: an error if every reconnection attempt fails.
func (m *connectionMonitor) checkAndReconnect(ctx context.Context) error {
	err := m.client.CheckConnection(ctx)
	if err == nil {
		m.logger.WithField("chain", m.chainName).Debug("Ping successful")
		return nil
	}

	m.logger.WithFields(logrus.Fields{
		"chain": m.chainName,
		"error": err,
	}).Warn("Connection check failed, attempting to reconnect")

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.reconnectInterval

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		return struct{}{}, m.client.Reconnect(ctx)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(maxReconnectAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			m.logger.WithFields(logrus.Fields{
				"chain":   m.chainName,
				"attempt": attempt,
				"retryIn": next,
				"error":   err,
			}).Error("Reconnection attempt failed")
		}),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to reconnect to chain %s", m.chainName)
	}

	m.logger.WithFields(logrus.Fields{
		"chain":   m.chainName,
		"attempt": attempt,
	}).Info("Client successfully reconnected")
	return nil
}
