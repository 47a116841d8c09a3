package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdpdispatch/internal/opt"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultsWithoutFiles(t *testing.T) {
	cfg, err := LoadWithEnv("", "")
	require.NoError(t, err)
	assert.Equal(t, opt.AlgoPilot, cfg.Solver.Algorithm)
	assert.Equal(t, []int{50, 100, 200, 500, 1000, 2000}, cfg.Bench.Sizes)
	assert.Equal(t, 5, cfg.Bench.Limits[2000])
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestYAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "run.yaml", `
solver:
  algorithm: grasp
  rcl_size: 6
  max_seconds: 2.5
  neighborhoods: [vehicle-swap]
bench:
  sizes: [50]
  results_dir: out
log_level: debug
`)
	cfg, err := LoadWithEnv(path, "")
	require.NoError(t, err)
	assert.Equal(t, opt.AlgoGRASP, cfg.Solver.Algorithm)
	assert.Equal(t, 6, cfg.Solver.RCLSize)
	assert.InDelta(t, 2.5, cfg.Solver.MaxSeconds, 1e-12)
	assert.Equal(t, []string{opt.NbVehicleSwap}, cfg.Solver.Neighborhoods)
	// untouched defaults survive
	assert.Equal(t, 3, cfg.Solver.PilotDepth)
	assert.Equal(t, []int{50}, cfg.Bench.Sizes)
	assert.Equal(t, "out", cfg.Bench.ResultsDir)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestUnknownFieldRejected(t *testing.T) {
	path := writeFile(t, "run.yaml", "solver:\n  algoritm: grasp\n")
	_, err := LoadWithEnv(path, "")
	require.Error(t, err)
}

func TestInvalidAlgorithmRejected(t *testing.T) {
	path := writeFile(t, "run.yaml", "solver:\n  algorithm: simplex\n")
	_, err := LoadWithEnv(path, "")
	require.ErrorContains(t, err, "invalid algorithm")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PDP_SEED", "42")
	t.Setenv("PDP_ALGORITHM", "VND")
	t.Setenv("LOG_PRETTY", "true")
	cfg, err := LoadWithEnv("", "")
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, int64(42), cfg.Solver.Seed)
	assert.Equal(t, opt.AlgoVND, cfg.Solver.Algorithm)
	assert.True(t, cfg.LogPretty)
}

func TestBadSeed(t *testing.T) {
	t.Setenv("PDP_SEED", "soon")
	_, err := LoadWithEnv("", "")
	require.ErrorContains(t, err, "PDP_SEED")
}

func TestDotenvDoesNotOverrideEnvironment(t *testing.T) {
	env := writeFile(t, ".env", "REDIS_URL=redis://from-file:6379/0\nDATABASE_URL=postgres://file\n")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("REDIS_URL", "")
	os.Unsetenv("REDIS_URL")
	cfg, err := LoadWithEnv("", env)
	t.Cleanup(func() { os.Unsetenv("REDIS_URL") })
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, "redis://from-file:6379/0", cfg.RedisURL)
}

func TestMissingDotenvIgnored(t *testing.T) {
	_, err := LoadWithEnv("", filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
