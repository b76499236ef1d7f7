package honeypot

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potx/potx/internal/constants"
	"github.com/potx/potx/internal/errors"
)

// flakyListener fails the first Accept call before delegating.
type flakyListener struct {
	net.Listener
	failed atomic.Bool
}

func (l *flakyListener) Accept() (net.Conn, error) {
	if l.failed.CompareAndSwap(false, true) {
		return nil, stderrors.New("accept4: too many open files")
	}
	return l.Listener.Accept()
}

func preBound(ln net.Listener) listenFunc {
	return func(string, int, int) (net.Listener, error) {
		return ln, nil
	}
}

func probe(t *testing.T, addr string, payload string) string {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	_, err = conn.Write([]byte(payload))
	require.NoError(t, err)

	reply, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(reply)
}

func TestListenerServesConnections(t *testing.T) {
	log, hook := newTestLogger()
	metrics := newRecordingMetrics()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	l := NewListener("127.0.0.1", 8080, NewHandler(log, metrics, time.Second), log, metrics)
	l.listen = preBound(ln)
	require.NoError(t, l.Bind())

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- l.Serve(ctx) }()

	for i := 0; i < 3; i++ {
		assert.Equal(t, constants.DenyResponse, probe(t, ln.Addr().String(), "GET / HTTP/1.0\r\n\r\n"))
	}

	cancel()
	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("accept loop did not stop")
	}
	l.Wait()

	data := findEntry(hook, "Data received")
	require.NotNil(t, data)
	assert.Equal(t, 8080, data.Data[constants.LogFieldPort])
	assert.Equal(t, "127.0.0.1", data.Data[constants.LogFieldRemoteIP])
	assert.Equal(t, 3, metrics.snapshot().payloads)
}

func TestListenerContinuesAfterAcceptError(t *testing.T) {
	log, hook := newTestLogger()
	metrics := newRecordingMetrics()

	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	l := NewListener("127.0.0.1", 9000, NewHandler(log, metrics, time.Second), log, metrics)
	l.listen = preBound(&flakyListener{Listener: inner})
	require.NoError(t, l.Bind())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Serve(ctx)

	assert.Equal(t, constants.DenyResponse, probe(t, inner.Addr().String(), "ping"))
	assert.NotNil(t, findEntry(hook, "Failed to accept connection"))
	assert.Equal(t, 1, metrics.snapshot().errors["accept"])
}

func TestListenerBindFailure(t *testing.T) {
	log, _ := newTestLogger()
	metrics := newRecordingMetrics()

	l := NewListener("127.0.0.1", 25, NewHandler(log, metrics, 0), log, metrics)
	l.listen = func(string, int, int) (net.Listener, error) {
		return nil, stderrors.New("bind: permission denied")
	}

	err := l.Run(context.Background())
	require.ErrorIs(t, err, errors.ErrBindFailed)
	assert.True(t, errors.IsCategory(err, errors.ErrCategoryNetwork))
	assert.Contains(t, err.Error(), "127.0.0.1:25")
	assert.Nil(t, l.Addr())
	assert.Equal(t, 1, metrics.snapshot().binds)
}

func TestListenerBindsRealSocket(t *testing.T) {
	log, _ := newTestLogger()
	port := freePort(t)

	l := NewListener("127.0.0.1", port, NewHandler(log, nil, time.Second), log, nil)
	require.NoError(t, l.Bind())
	defer l.Close()

	addr, ok := l.Addr().(*net.TCPAddr)
	require.True(t, ok)
	assert.Equal(t, port, addr.Port)
	assert.True(t, addr.IP.Equal(net.IPv4(127, 0, 0, 1)))

	// A second socket on the same address must fail.
	other := NewListener("127.0.0.1", port, NewHandler(log, nil, time.Second), log, nil)
	require.ErrorIs(t, other.Bind(), errors.ErrBindFailed)

	require.ErrorIs(t, l.Bind(), errors.ErrInvalidState)
}

func TestListenerBindUsesBacklog(t *testing.T) {
	log, _ := newTestLogger()

	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer inner.Close()

	var gotHost string
	var gotPort, gotBacklog int
	l := NewListener("127.0.0.1", 2222, NewHandler(log, nil, 0), log, nil)
	l.listen = func(host string, port, backlog int) (net.Listener, error) {
		gotHost, gotPort, gotBacklog = host, port, backlog
		return inner, nil
	}

	require.NoError(t, l.Bind())
	assert.Equal(t, "127.0.0.1", gotHost)
	assert.Equal(t, 2222, gotPort)
	assert.Equal(t, 5, gotBacklog)
}

func TestListenerServeRequiresBind(t *testing.T) {
	log, _ := newTestLogger()
	l := NewListener("127.0.0.1", 1, NewHandler(log, nil, 0), log, nil)
	require.ErrorIs(t, l.Serve(context.Background()), errors.ErrInvalidState)
}

func TestListenerStopsWhenClosed(t *testing.T) {
	log, _ := newTestLogger()
	l := NewListener("127.0.0.1", freePort(t), NewHandler(log, nil, time.Second), log, nil)
	require.NoError(t, l.Bind())

	errs := make(chan error, 1)
	go func() { errs <- l.Serve(context.Background()) }()

	require.NoError(t, l.Close())
	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("accept loop did not stop after Close")
	}
}

func TestNextAcceptDelay(t *testing.T) {
	d := nextAcceptDelay(0)
	assert.Equal(t, acceptRetryMin, d)
	for i := 0; i < 20; i++ {
		d = nextAcceptDelay(d)
	}
	assert.Equal(t, acceptRetryMax, d)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}
