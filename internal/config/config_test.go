package config

import (
	"os"
	"path/filepath"
	"testing"

	"villagenird/internal/indicator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, ":42069", c.Server.Addr)
	assert.Equal(t, "data", c.Server.DataDir)
	assert.Equal(t, DifficultyDefault, c.Simulation.Difficulty)
	assert.Equal(t, indicator.Default(), *c.Simulation.Initial)
	assert.Equal(t, indicator.DefaultScoreParams(), *c.Simulation.Score)
	assert.Equal(t, 5, c.Simulation.MaxYears)
	assert.Equal(t, "info", c.Log.Level)
}

func TestParse_PresetFillsUnsetFields(t *testing.T) {
	c, err := Parse([]byte(`
version: "1"
simulation:
  difficulty: hard
  max_years: 8
`))
	require.NoError(t, err)
	assert.Equal(t, HardPreset().Initial, *c.Simulation.Initial)
	assert.Equal(t, 25.0, c.Simulation.Score.Offset)
	assert.Equal(t, 8, c.Simulation.MaxYears)
}

func TestParse_ExplicitInitial(t *testing.T) {
	c, err := Parse([]byte(`
simulation:
  initial:
    inclusion: 10
    responsibility: 20
    sustainability: 30
    big_tech_dependence: 40
  score:
    big_tech_weight: 0.5
    offset: 10
`))
	require.NoError(t, err)
	assert.Equal(t, indicator.Indicators{Inclusion: 10, Responsibility: 20, Sustainability: 30, BigTechDependence: 40}, *c.Simulation.Initial)
	assert.Equal(t, 0.5, c.Simulation.Score.BigTechWeight)
}

func TestParse_RejectsBadValues(t *testing.T) {
	_, err := Parse([]byte("simulation:\n  difficulty: nightmare\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("simulation:\n  initial: {inclusion: 120}\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("simulation:\n  max_years: -2\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("log:\n  format: xml\n"))
	assert.Error(t, err)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	c, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nird.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.Server.Addr)
}

func TestRules_DefaultAndFile(t *testing.T) {
	c := Default()
	tbl, err := c.Rules()
	require.NoError(t, err)
	require.NoError(t, tbl.Validate())

	c.Simulation.RulesFile = filepath.Join("..", "rules", "testdata", "default.yml")
	tbl, err = c.Rules()
	require.NoError(t, err)
	require.NoError(t, tbl.Validate())

	c.Simulation.RulesFile = filepath.Join(t.TempDir(), "missing.yml")
	_, err = c.Rules()
	assert.Error(t, err)
}

func TestSessionOptions(t *testing.T) {
	c := Default()
	tbl, err := c.Rules()
	require.NoError(t, err)
	opts := c.SessionOptions(tbl)
	assert.Equal(t, 5, opts.MaxYears)
	assert.Equal(t, indicator.Default(), *opts.Initial)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("NIRD_ADDR", ":8081")
	t.Setenv("NIRD_DIFFICULTY", "casual")
	t.Setenv("NIRD_LOG_FORMAT", "JSON")

	c := Default()
	require.NoError(t, c.ApplyEnv())
	assert.Equal(t, ":8081", c.Server.Addr)
	assert.Equal(t, DifficultyCasual, c.Simulation.Difficulty)
	assert.Equal(t, 60, c.Simulation.Initial.BigTechDependence)
	assert.Equal(t, 6, c.Simulation.MaxYears)
	assert.Equal(t, "json", c.Log.Format)
}

func TestApplyEnv_MaxYears(t *testing.T) {
	t.Setenv("NIRD_MAX_YEARS", "9")
	c := Default()
	require.NoError(t, c.ApplyEnv())
	assert.Equal(t, 9, c.Simulation.MaxYears)
}

func TestApplyEnv_BadInteger(t *testing.T) {
	t.Setenv("NIRD_MAX_YEARS", "lots")
	c := Default()
	assert.Error(t, c.ApplyEnv())
}

func TestPresetFor(t *testing.T) {
	for _, name := range []string{"", "default", "casual", "HARD"} {
		_, err := PresetFor(name)
		assert.NoError(t, err, name)
	}
	_, err := PresetFor("legendary")
	assert.Error(t, err)
}
