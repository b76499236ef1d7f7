package honeypot

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/potx/potx/internal/constants"
	"github.com/potx/potx/internal/errors"
)

const (
	acceptRetryMin = 5 * time.Millisecond
	acceptRetryMax = time.Second
)

type listenFunc func(host string, port, backlog int) (net.Listener, error)

// Listener owns the listening socket for one port and hands every accepted
// connection to the shared Handler on its own goroutine.
type Listener struct {
	host    string
	port    int
	handler *Handler
	log     logrus.FieldLogger
	metrics MetricsReporter
	listen  listenFunc

	mu       sync.Mutex
	ln       net.Listener
	sessions sync.WaitGroup
}

// NewListener creates a listener for host:port. Nothing is bound until Bind.
func NewListener(host string, port int, handler *Handler, log logrus.FieldLogger, metrics MetricsReporter) *Listener {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Listener{
		host:    host,
		port:    port,
		handler: handler,
		log:     log.WithField(constants.LogFieldPort, port),
		metrics: metrics,
		listen:  listenTCP,
	}
}

// Port returns the configured port.
func (l *Listener) Port() int {
	return l.port
}

// Addr returns the bound address, or nil before Bind succeeds.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Bind creates the socket, binds it and starts listening. A failure is
// returned as an ErrBindFailed error.
func (l *Listener) Bind() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ln != nil {
		return errors.WrapAs(errors.ErrInvalidState, nil, fmt.Sprintf("port %d already bound", l.port))
	}

	address := net.JoinHostPort(l.host, strconv.Itoa(l.port))
	ln, err := l.listen(l.host, l.port, constants.ListenBacklog)
	if err != nil {
		l.metrics.BindFailed(l.port)
		return errors.WrapAs(errors.ErrBindFailed, err, fmt.Sprintf("cannot listen on %s", address))
	}

	l.ln = ln
	return nil
}

// Serve runs the accept loop until ctx is cancelled or the socket is closed.
// It does not wait for in-flight sessions; see Wait.
func (l *Listener) Serve(ctx context.Context) error {
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()
	if ln == nil {
		return errors.WrapAs(errors.ErrInvalidState, nil, fmt.Sprintf("port %d is not bound", l.port))
	}

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()
	defer ln.Close()

	l.metrics.ListenerStarted(l.port)
	defer l.metrics.ListenerStopped(l.port)

	l.log.Infof("Listening on %s", ln.Addr())

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				l.log.Debug("Listener closed")
				return nil
			}
			if stderrors.Is(err, net.ErrClosed) {
				l.log.Warn("Listener closed")
				return nil
			}

			l.metrics.ConnectionError(l.port, "accept")
			l.log.WithError(errors.WrapAs(errors.ErrAcceptFailed, err, "accept failed")).
				Error("Failed to accept connection")

			delay = nextAcceptDelay(delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		delay = 0

		l.sessions.Add(1)
		go func() {
			defer l.sessions.Done()
			l.handler.Handle(ctx, NewSession(conn, l.port))
		}()
	}
}

// Run binds and serves in one call.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.Bind(); err != nil {
		return err
	}
	return l.Serve(ctx)
}

// Close closes the listening socket, which ends Serve.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Close()
}

// Wait blocks until every session started by Serve has finished.
func (l *Listener) Wait() {
	l.sessions.Wait()
}

func nextAcceptDelay(d time.Duration) time.Duration {
	if d == 0 {
		return acceptRetryMin
	}
	d *= 2
	if d > acceptRetryMax {
		d = acceptRetryMax
	}
	return d
}
