package bootstrap

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultWaitTimeout  = 60 * time.Second
	DefaultDialTimeout  = 3 * time.Second
	DefaultPollInterval = 1 * time.Second
)

// Waiter polls a TCP address until it accepts a connection.
type Waiter struct {
	Timeout     time.Duration
	DialTimeout time.Duration
	Interval    time.Duration
	Logger      *Logger

	// dial is replaced in tests.
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewWaiter returns a Waiter with the default dial timeout and poll interval.
func NewWaiter(timeout time.Duration, logger *Logger) *Waiter {
	return &Waiter{
		Timeout:     timeout,
		DialTimeout: DefaultDialTimeout,
		Interval:    DefaultPollInterval,
		Logger:      logger,
	}
}

// Wait blocks until host:port accepts a TCP connection. Once more than
// Timeout has elapsed since the first attempt, the last dial error is
// returned.
func (w *Waiter) Wait(ctx context.Context, host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dial := w.dial
	if dial == nil {
		d := &net.Dialer{Timeout: w.dialTimeout()}
		dial = d.DialContext
	}

	attempt := 0
	op := func() error {
		attempt++
		conn, err := dial(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		_ = conn.Close()
		return nil
	}

	notify := func(err error, next time.Duration) {
		w.Logger.Debug("host_unreachable", map[string]any{
			"addr":    addr,
			"attempt": attempt,
			"retry":   next.String(),
		})
	}

	b := &deadlineBackOff{interval: w.interval(), timeout: w.timeout(), now: time.Now}
	b.Reset()
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		w.Logger.Error("wait_failed", map[string]any{"addr": addr, "attempts": attempt}, err)
		return err
	}

	w.Logger.Info("host_reachable", map[string]any{"addr": addr, "attempts": attempt})
	return nil
}

func (w *Waiter) timeout() time.Duration {
	if w.Timeout <= 0 {
		return DefaultWaitTimeout
	}
	return w.Timeout
}

func (w *Waiter) dialTimeout() time.Duration {
	if w.DialTimeout <= 0 {
		return DefaultDialTimeout
	}
	return w.DialTimeout
}

func (w *Waiter) interval() time.Duration {
	if w.Interval <= 0 {
		return DefaultPollInterval
	}
	return w.Interval
}

// deadlineBackOff waits a fixed interval between attempts and stops once
// the time since Reset exceeds timeout.
type deadlineBackOff struct {
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	start    time.Time
}

func (b *deadlineBackOff) Reset() {
	b.start = b.now()
}

func (b *deadlineBackOff) NextBackOff() time.Duration {
	if b.now().Sub(b.start) > b.timeout {
		return backoff.Stop
	}
	return b.interval
}
