// Package honeypot implements the port listeners and the per-connection
// exchange of the potx honeypot.
//
// A Service binds one Listener per configured port. Each Listener accepts
// connections forever and runs the shared Handler for every connection on
// its own goroutine, so a stalled peer never delays accepts on any port.
// Connections are not capped.
package honeypot

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/potx/potx/internal/constants"
	"github.com/potx/potx/internal/errors"
)

// Options configures a Service.
type Options struct {
	// Host is the bind address; empty binds every IPv4 interface.
	Host string
	// Ports lists the ports to listen on. Duplicates are bound once.
	Ports []int
	// Logger receives every event. Required.
	Logger logrus.FieldLogger
	// LogDestination is reported at startup for operators.
	LogDestination string
	// Metrics is optional.
	Metrics MetricsReporter
	// ReadTimeout overrides the 10 second wait for the first payload.
	ReadTimeout time.Duration
}

// Service supervises the listeners for every configured port.
type Service struct {
	host    string
	ports   []int
	log     logrus.FieldLogger
	metrics MetricsReporter
	handler *Handler

	mu        sync.Mutex
	started   bool
	cancel    context.CancelFunc
	group     errgroup.Group
	listeners []*Listener
	bindErrs  []error
}

// New validates opts and creates a Service. An empty port list fails with
// errors.ErrNoPorts before any socket is opened.
func New(opts Options) (*Service, error) {
	if len(opts.Ports) == 0 {
		return nil, errors.ErrNoPorts
	}
	if opts.Logger == nil {
		return nil, errors.WrapAs(errors.ErrInvalidConfig, nil, "logger is required")
	}
	for _, port := range opts.Ports {
		if port < 1 || port > 65535 {
			return nil, errors.WrapAs(errors.ErrInvalidPorts, nil, fmt.Sprintf("port %d out of range", port))
		}
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	s := &Service{
		host:    opts.Host,
		ports:   distinct(opts.Ports),
		log:     opts.Logger,
		metrics: metrics,
	}
	s.handler = NewHandler(opts.Logger, metrics, opts.ReadTimeout)

	s.log.Info("Honeypot initializing...")
	s.log.Infof("Ports: %v", opts.Ports)
	s.log.Infof("Log filepath: %s", opts.LogDestination)
	if len(s.ports) != len(opts.Ports) {
		s.log.Warnf("Duplicate ports ignored, listening on %v", s.ports)
	}

	return s, nil
}

// Start binds every port and launches one accept loop per bound port. It
// returns without waiting for the loops. Ports that fail to bind are logged
// and reported in the returned error, which joins one ErrBindFailed per
// port; the remaining ports keep serving.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.WrapAs(errors.ErrInvalidState, nil, "honeypot already started")
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)

	for _, port := range s.ports {
		l := NewListener(s.host, port, s.handler, s.log, s.metrics)
		if err := l.Bind(); err != nil {
			s.log.WithField(constants.LogFieldPort, port).WithError(err).Error("Failed to start listener")
			s.bindErrs = append(s.bindErrs, err)
			continue
		}
		s.listeners = append(s.listeners, l)
		s.group.Go(func() error {
			return l.Serve(ctx)
		})
	}

	s.log.Infof("Honeypot listening on %d of %d ports", len(s.listeners), len(s.ports))
	return stderrors.Join(s.bindErrs...)
}

// Addrs returns the bound address of every running listener.
func (s *Service) Addrs() []net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	addrs := make([]net.Addr, 0, len(s.listeners))
	for _, l := range s.listeners {
		if addr := l.Addr(); addr != nil {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// ActivePorts returns the ports that were bound successfully.
func (s *Service) ActivePorts() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ports := make([]int, 0, len(s.listeners))
	for _, l := range s.listeners {
		ports = append(ports, l.Port())
	}
	return ports
}

// Wait blocks until every accept loop has exited and returns the bind
// failures from Start joined with any accept loop error.
func (s *Service) Wait() error {
	err := s.group.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return stderrors.Join(append(append([]error(nil), s.bindErrs...), err)...)
}

// Stop closes every listener, aborts pending reads and waits for the accept
// loops and the in-flight sessions to finish.
func (s *Service) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	listeners := s.listeners
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	err := s.group.Wait()
	for _, l := range listeners {
		l.Wait()
	}

	s.log.Info("Honeypot stopped")
	return err
}

func distinct(ports []int) []int {
	seen := make(map[int]bool, len(ports))
	out := make([]int, 0, len(ports))
	for _, port := range ports {
		if seen[port] {
			continue
		}
		seen[port] = true
		out = append(out, port)
	}
	return out
}
