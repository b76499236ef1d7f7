package metrics

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/potx/potx/internal/constants"
	"github.com/potx/potx/internal/errors"
)

// Server exposes the default Prometheus registry over HTTP.
type Server struct {
	srv      *http.Server
	listener net.Listener
	log      logrus.FieldLogger
}

// NewServer binds address and prepares the metrics endpoint. Call Serve to
// start answering requests.
func NewServer(address string, log logrus.FieldLogger) (*Server, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errors.WrapAs(errors.ErrMetricsServer, err, "failed to bind metrics endpoint")
	}

	mux := http.NewServeMux()
	mux.Handle(constants.MetricsPath, promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: constants.MetricsReadHeaderTimeout,
		},
		listener: ln,
		log:      log,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve answers metrics requests until Shutdown is called.
func (s *Server) Serve() {
	s.log.Infof("Metrics endpoint listening on http://%s%s", s.listener.Addr(), constants.MetricsPath)
	if err := s.srv.Serve(s.listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		s.log.WithError(err).Error("Metrics endpoint stopped")
	}
}

// Shutdown stops the endpoint.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.MetricsShutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	// Serve may never have run, in which case the listener is still open.
	_ = s.listener.Close()
	return err
}
