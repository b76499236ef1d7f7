package honeypot

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/potx/potx/internal/constants"
	"github.com/potx/potx/internal/errors"
)

// Session is one accepted connection together with its endpoint metadata.
type Session struct {
	ID         uuid.UUID
	Conn       net.Conn
	Port       int
	RemoteIP   string
	RemotePort int
}

// NewSession wraps an accepted connection received on the given local port.
func NewSession(conn net.Conn, port int) *Session {
	s := &Session{
		ID:   uuid.New(),
		Conn: conn,
		Port: port,
	}

	switch addr := conn.RemoteAddr().(type) {
	case *net.TCPAddr:
		s.RemoteIP = addr.IP.String()
		s.RemotePort = addr.Port
	case nil:
	default:
		host, port, err := net.SplitHostPort(addr.String())
		if err != nil {
			s.RemoteIP = addr.String()
			break
		}
		s.RemoteIP = host
		s.RemotePort, _ = strconv.Atoi(port)
	}
	return s
}

// Remote returns the peer endpoint as host:port.
func (s *Session) Remote() string {
	return net.JoinHostPort(s.RemoteIP, strconv.Itoa(s.RemotePort))
}

func (s *Session) fields() logrus.Fields {
	return logrus.Fields{
		constants.LogFieldSession:    s.ID.String(),
		constants.LogFieldPort:       s.Port,
		constants.LogFieldRemoteIP:   s.RemoteIP,
		constants.LogFieldRemotePort: s.RemotePort,
	}
}

// Handler runs the read/respond/close exchange for accepted connections.
// It holds no per-connection state and is shared by every listener.
type Handler struct {
	log         logrus.FieldLogger
	metrics     MetricsReporter
	readTimeout time.Duration
}

// NewHandler creates a handler. A zero readTimeout selects constants.ReadTimeout.
func NewHandler(log logrus.FieldLogger, metrics MetricsReporter, readTimeout time.Duration) *Handler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if readTimeout <= 0 {
		readTimeout = constants.ReadTimeout
	}
	return &Handler{
		log:         log,
		metrics:     metrics,
		readTimeout: readTimeout,
	}
}

// Handle waits for the peer's first payload, logs it, answers with the
// denial message and closes the connection. Failures end this connection
// only; nothing is returned to the caller. Cancelling ctx aborts a pending read.
func (h *Handler) Handle(ctx context.Context, s *Session) {
	defer s.Conn.Close()

	h.metrics.ConnectionOpened(s.Port)
	defer h.metrics.ConnectionClosed(s.Port)

	log := h.log.WithFields(s.fields())
	log.Infof("Connection received: %d: %s", s.Port, s.Remote())

	if err := s.Conn.SetReadDeadline(time.Now().Add(h.readTimeout)); err != nil {
		h.abandon(ctx, log, s, "read", err)
		return
	}

	// Registered after the timeout so a cancellation always wins.
	stop := context.AfterFunc(ctx, func() {
		_ = s.Conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, constants.MaxReadSize)
	n, err := s.Conn.Read(buf)
	if err != nil && n == 0 && !stderrors.Is(err, io.EOF) {
		h.abandon(ctx, log, s, "read", err)
		return
	}

	payload := buf[:n]
	h.metrics.PayloadReceived(s.Port, n)
	log.WithFields(logrus.Fields{
		constants.LogFieldPayload: RenderPayload(payload),
		constants.LogFieldBytes:   n,
	}).Infof("Data received: %d: %s", s.Port, s.Remote())

	if err := s.Conn.SetWriteDeadline(time.Now().Add(h.readTimeout)); err != nil {
		h.abandon(ctx, log, s, "write", err)
		return
	}
	if _, err := s.Conn.Write([]byte(constants.DenyResponse)); err != nil {
		h.abandon(ctx, log, s, "write", err)
	}
}

// abandon records why a connection is dropped without a response.
func (h *Handler) abandon(ctx context.Context, log logrus.FieldLogger, s *Session, stage string, err error) {
	switch {
	case ctx.Err() != nil:
		log.Debug("Connection aborted by shutdown")
	case stderrors.Is(err, os.ErrDeadlineExceeded):
		h.metrics.ConnectionTimedOut(s.Port)
		log.WithError(errors.WrapAs(errors.ErrConnectionTimeout, err, stage+" deadline expired")).
			Debug("Connection timed out")
	default:
		h.metrics.ConnectionError(s.Port, stage)
		log.WithError(errors.WrapAs(errors.ErrConnectionIO, err, stage+" failed")).
			Debug("Connection dropped")
	}
}

// RenderPayload escapes raw bytes so they can be embedded in a single log
// line. Printable UTF-8 is kept, everything else becomes a Go escape.
func RenderPayload(b []byte) string {
	q := strconv.Quote(string(b))
	return q[1 : len(q)-1]
}
