package data

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPack = `
model_pack:
  name: test
  prefix: minigolf/
  suffix: .g3dj
  default: straight
  models:
    - name: block
      height: 0.5
    - name: bump_up_walls
      walls: true
    - name: straight
`

func TestParseModelPack(t *testing.T) {
	p, err := ParseModelPack([]byte(testPack))
	require.NoError(t, err)

	require.Equal(t, 3, p.Count())
	require.Equal(t, "straight", p.Default())
	require.Equal(t, "minigolf/bump-up-walls.g3dj", p.Key("bump_up_walls"))
	require.Equal(t, "", p.Key("windmill"))

	m := p.Get("bump_up_walls")
	require.NotNil(t, m)
	require.True(t, m.Walls)
	require.Equal(t, 0.1, m.Height)
	require.Equal(t, "Bump Up Walls", m.DisplayName())
}

func TestModelPackCycling(t *testing.T) {
	p, err := ParseModelPack([]byte(testPack))
	require.NoError(t, err)

	t.Run("next wraps", func(t *testing.T) {
		require.Equal(t, "bump_up_walls", p.Next("block"))
		require.Equal(t, "block", p.Next("straight"))
	})
	t.Run("prev wraps", func(t *testing.T) {
		require.Equal(t, "straight", p.Prev("block"))
		require.Equal(t, "block", p.Prev("bump_up_walls"))
	})
	t.Run("unknown starts over", func(t *testing.T) {
		require.Equal(t, "block", p.Next("windmill"))
	})
}

func TestParseModelPackRejectsBadInput(t *testing.T) {
	_, err := ParseModelPack([]byte("model_pack: {name: empty}"))
	require.Error(t, err)

	_, err = ParseModelPack([]byte("model_pack: {models: [{name: a}, {name: a}]}"))
	require.ErrorContains(t, err, "duplicate")
}

func TestLoadShippedModelPack(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(file), "..", "..", "data", "yaml", "minigolf_models.yaml")

	p, err := LoadModelPack(path)
	require.NoError(t, err)
	require.Equal(t, 46, p.Count())
	require.Equal(t, "straight", p.Default())
	require.Equal(t, "block", p.Next("walls_to_open"))
}
