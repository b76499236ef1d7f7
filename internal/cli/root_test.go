package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potx/potx/internal/config"
	"github.com/potx/potx/internal/constants"
	"github.com/potx/potx/internal/errors"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "potx v"+constants.AppVersion)
}

func TestGenConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "potx.yaml")

	out, err := execute(t, context.Background(), "gen-config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestRootRejectsArguments(t *testing.T) {
	_, err := execute(t, context.Background(), "unexpected")
	require.Error(t, err)
}

func TestRunFailsOnBadPorts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "potx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`ports: "22,ssh"`), 0o644))

	_, err := execute(t, context.Background(), "--config", path)
	require.ErrorIs(t, err, errors.ErrInvalidPorts)
	assert.True(t, errors.IsCategory(err, errors.ErrCategoryConfig))
}

func TestRunFailsWhenNoPortCanBind(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "potx.yaml")
	body := fmt.Sprintf("host: 127.0.0.1\nports: %d\nlog:\n  file: %s\n",
		occupied.Addr().(*net.TCPAddr).Port, filepath.Join(dir, "potx.log"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err = execute(t, context.Background(), "--config", path)
	require.ErrorIs(t, err, errors.ErrBindFailed)
}

func TestRunServesUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	port := freePort(t)
	logPath := filepath.Join(dir, "potx.log")
	path := filepath.Join(dir, "potx.yaml")
	body := fmt.Sprintf("host: 127.0.0.1\nports: \"%d\"\nlog:\n  file: %s\n  level: debug\n", port, logPath)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 1)
	go func() {
		_, err := execute(t, ctx, "--config", path)
		errs <- err
	}()

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	var conn net.Conn
	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 5*time.Second, 20*time.Millisecond)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err := conn.Write([]byte("hello"))
	require.NoError(t, err)
	reply, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, constants.DenyResponse, string(reply))

	cancel()
	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("honeypot did not shut down")
	}

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Data received")
	assert.Contains(t, string(data), "payload=hello")
	assert.Contains(t, string(data), fmt.Sprintf("Ports: [%d]", port))
}

type stubService struct {
	exited  chan struct{}
	waitErr error
	stops   int
}

func (s *stubService) Wait() error {
	<-s.exited
	return s.waitErr
}

func (s *stubService) Stop() error {
	s.stops++
	return nil
}

func TestAwaitShutdownOnCancel(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := &stubService{exited: make(chan struct{})}
	defer close(svc.exited)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, awaitShutdown(ctx, svc, log))
	assert.Equal(t, 1, svc.stops)
}

func TestAwaitShutdownWhenListenersExit(t *testing.T) {
	log, hook := test.NewNullLogger()
	svc := &stubService{exited: make(chan struct{})}
	close(svc.exited)

	err := awaitShutdown(context.Background(), svc, log)
	require.ErrorIs(t, err, errors.ErrInternal)
	assert.Equal(t, 1, svc.stops)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestAwaitShutdownListenersFollowCancel(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := &stubService{exited: make(chan struct{})}
	close(svc.exited)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, awaitShutdown(ctx, svc, log))
	assert.Equal(t, 1, svc.stops)
}
