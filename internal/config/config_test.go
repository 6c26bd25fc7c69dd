package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
scene:
  name: arena
  tick_rate: 30
  frames: 90
  workers: 2
logging:
  level: debug
  encoding: json
inspector:
  enabled: true
  addr: ":9090"
objects:
  - name: ship
    position: [1, 2, 3]
  - name: turret
    parent: ship
    scale: [2, 2, 2]
    script_file: scripts/turret.lua
`

const tomlConfig = `
[scene]
name = "arena"
tick_rate = 20

[[objects]]
name = "ship"
script = "function update() end"
`

const jsonConfig = `{"scene": {"name": "arena", "frames": 5}, "objects": [{"name": "ship"}]}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "scene.yaml", yamlConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SceneConfig{Name: "arena", TickRate: 30, Frames: 90, Workers: 2}, cfg.Scene)
	assert.Equal(t, LoggingConfig{Level: "debug", Encoding: "json"}, cfg.Logging)
	assert.Equal(t, InspectorConfig{Enabled: true, Addr: ":9090"}, cfg.Inspector)
	require.Len(t, cfg.Objects, 2)
	assert.Equal(t, []float64{1, 2, 3}, cfg.Objects[0].Position)
	assert.Equal(t, "ship", cfg.Objects[1].Parent)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "scripts", "turret.lua"), cfg.Objects[1].ScriptFile)
}

func TestLoadTOMLKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "scene.toml", tomlConfig))
	require.NoError(t, err)

	assert.Equal(t, "arena", cfg.Scene.Name)
	assert.Equal(t, 20, cfg.Scene.TickRate)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Encoding)
	assert.False(t, cfg.Inspector.Enabled)
	require.Len(t, cfg.Objects, 1)
	assert.Equal(t, "function update() end", cfg.Objects[0].Script)
}

func TestLoadJSON(t *testing.T) {
	cfg, err := Load(writeFile(t, "scene.json", jsonConfig))
	require.NoError(t, err)

	assert.Equal(t, uint64(5), cfg.Scene.Frames)
	assert.Equal(t, 60, cfg.Scene.TickRate)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("scene.ini")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "broken.toml", "[scene\nname ="))
	assert.Error(t, err)

	_, err = Parse([]byte("{}"), Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Scene.Name = ""
	cfg.Scene.TickRate = 0
	cfg.Scene.Workers = -1
	cfg.Logging.Level = "loud"
	cfg.Logging.Encoding = "xml"
	cfg.Inspector = InspectorConfig{Enabled: true}
	cfg.Objects = []ObjectConfig{
		{Name: "a", Parent: "b"},
		{Name: "b", Parent: "a"},
		{Name: "a"},
		{Name: "c", Parent: "ghost", Position: []float64{1}},
		{Name: ""},
		{Name: "d", Script: "x", ScriptFile: "y"},
	}

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{
		"scene.name", "scene.tick_rate", "scene.workers",
		"logging.level", "logging.encoding", "inspector.addr",
		"duplicate name", "parent cycle", "unknown parent",
		"position needs 3 values", "objects[4].name", "exclusive",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
