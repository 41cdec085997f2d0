package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gridforge/editor/internal/config"
	"github.com/gridforge/editor/internal/console"
	"github.com/gridforge/editor/internal/data"
	"github.com/gridforge/editor/internal/level"
	"github.com/gridforge/editor/internal/session"
)

func TestNewLogger(t *testing.T) {
	log, err := newLogger(config.LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = newLogger(config.LoggingConfig{Level: "bogus"})
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zapcore.DebugLevel))
	require.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestScriptedRun(t *testing.T) {
	root := filepath.Join("..", "..")
	cfg := config.Default()
	cfg.Scripting.Dir = filepath.Join(root, "scripts")
	cfg.Loop.FrameRate = time.Millisecond
	pack, err := data.LoadModelPack(filepath.Join(root, cfg.Data.ModelPack))
	require.NoError(t, err)

	var out bytes.Buffer
	sess, err := session.New(cfg, pack, level.NewFileStore(t.TempDir()), &out, zap.NewNop())
	require.NoError(t, err)
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	in := strings.NewReader("fill 0 0 2 2\nsave scripted\nlevels\n")

	done := make(chan error, 1)
	go func() { done <- frameLoop(ctx, sess, cfg.Loop.FrameRate, zap.NewNop()) }()
	require.NoError(t, pumpConsole(ctx, in, sess))
	require.ErrorIs(t, <-done, console.ErrQuit)

	require.Contains(t, out.String(), "placed 9 tiles, skipped 0")
	require.Contains(t, out.String(), "saved 9 tiles to scripted")
	require.Contains(t, out.String(), "scripted\n")
	require.Len(t, sess.Editor.Tiles(), 9)
}
