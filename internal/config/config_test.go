package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "editor.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[editor]
tile_size = 4
spawn_interval = "250ms"

[physics]
sub_steps = 8

[levels]
store = "postgres"
`))
	require.NoError(t, err)
	require.Equal(t, 4.0, cfg.Editor.TileSize)
	require.Equal(t, 250*time.Millisecond, cfg.Editor.SpawnInterval)
	require.Equal(t, 8, cfg.Physics.SubSteps)
	require.Equal(t, "postgres", cfg.Levels.Store)

	require.Equal(t, 15.0, cfg.Editor.SpawnHeight, "unset keys keep defaults")
	require.Equal(t, time.Second/30, cfg.Physics.MaxFrameStep)
	require.Equal(t, 32, cfg.Loop.MaxLinesPerFrame)
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"tile size": "[editor]\ntile_size = 0",
		"store":     "[levels]\nstore = \"s3\"",
		"syntax":    "[editor\n",
		"sub steps": "[physics]\nsub_steps = -1",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestShippedConfigLoads(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	cfg, err := Load(filepath.Join(filepath.Dir(file), "..", "..", "config", "editor.toml"))
	require.NoError(t, err)
	require.Equal(t, Default().Camera, cfg.Camera)
}
