package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExampleCmd(t *testing.T) {
	out, err := execute(t, "example")
	require.NoError(t, err)
	assert.Contains(t, out, "E = -0.111111")
	assert.Contains(t, out, "E = -0.074074")
}

func TestExampleCmd_Flags(t *testing.T) {
	out, err := execute(t, "example", "--a", "1", "--b", "1", "--rerun-a", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "E = 2.000000")
	assert.Contains(t, out, "E = 4.000000")
}

func TestTrainCmd(t *testing.T) {
	out, err := execute(t, "train", "--gate", "and", "--epochs", "1000", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "AND")
	assert.Contains(t, out, "100%")
}

func TestTrainCmd_All(t *testing.T) {
	out, err := execute(t, "train", "--all", "--epochs", "10", "--log-level", "error")
	require.NoError(t, err)
	for _, name := range []string{"OR", "AND", "XOR", "NAND", "NOR"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "final loss")
}

func TestTrainCmd_UsesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cgrad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training:\n  gate: nor\n  epochs: 3\nlog:\n  level: error\n"), 0o644))

	out, err := execute(t, "--config", path, "train")
	require.NoError(t, err)
	assert.Contains(t, out, "NOR")
	assert.Contains(t, out, "3 epochs")
}

func TestTrainCmd_Errors(t *testing.T) {
	_, err := execute(t, "train", "--gate", "xnor", "--log-level", "error")
	assert.Error(t, err)

	_, err = execute(t, "train", "--optimizer", "rmsprop", "--log-level", "error")
	assert.Error(t, err)

	_, err = execute(t, "train", "--log-level", "loud")
	assert.Error(t, err)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, slog.New(slog.NewTextHandler(io.Discard, nil))) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServe_ListenError(t *testing.T) {
	srv := &http.Server{Addr: "not-an-address", Handler: http.NotFoundHandler()}
	err := serve(context.Background(), srv, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorContains(t, err, "listen")
}
