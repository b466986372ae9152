package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "./freesound", cfg.Root)
	assert.Equal(t, "./data/interim", cfg.OutputDir)
	assert.Equal(t, "sound_metadata.pkl", cfg.MetadataFile)
	assert.Equal(t, []string{"pickle"}, cfg.Formats)
	assert.Len(t, cfg.Instruments, 12)
	assert.Equal(t, filepath.Join("./project_logs", "audio_preprocessing.log"), cfg.Log.Path())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty root", func(c *Config) { c.Root = "" }},
		{"empty output", func(c *Config) { c.OutputDir = "" }},
		{"metadata path", func(c *Config) { c.MetadataFile = "a/b.pkl" }},
		{"pattern with separator", func(c *Config) { c.AudioPattern = "x/*.wav" }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"bad decode policy", func(c *Config) { c.OnDecodeError = "ignore" }},
		{"no formats", func(c *Config) { c.Formats = nil }},
		{"unknown format", func(c *Config) { c.Formats = []string{"pickle", "parquet"} }},
		{"no instruments", func(c *Config) { c.Instruments = nil }},
		{"blank instrument", func(c *Config) { c.Instruments = []string{"Violin", " "} }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log dir without file", func(c *Config) { c.Log.File = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sampleset.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
root = "/data/freesound"
workers = 4
on_decode_error = "skip"
formats = ["pickle", "csv"]
instruments = ["Violin", "Viola"]

[log]
level = "debug"
dir = ""
`), 0o644))

	cfg := Default()
	require.NoError(t, LoadConfig(cfg, path, zerolog.Nop()))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/data/freesound", cfg.Root)
	assert.Equal(t, "./data/interim", cfg.OutputDir)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "skip", cfg.OnDecodeError)
	assert.Equal(t, []string{"pickle", "csv"}, cfg.Formats)
	assert.Equal(t, []string{"Violin", "Viola"}, cfg.Instruments)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "", cfg.Log.Path())
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := os.Stat(filepath.Join(dir, "missing.toml"))
	require.True(t, os.IsNotExist(err))
	assert.Error(t, LoadConfig(Default(), filepath.Join(dir, "missing.toml"), zerolog.Nop()))

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("root = ["), 0o644))
	assert.Error(t, LoadConfig(Default(), bad, zerolog.Nop()))
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("SAMPLESET_ROOT", "/srv/samples")
	t.Setenv("SAMPLESET_WORKERS", "8")
	t.Setenv("SAMPLESET_AUDIO_CASE_INSENSITIVE", "true")
	t.Setenv("SAMPLESET_FORMATS", "pickle, sqlite ,")
	t.Setenv("SAMPLESET_LOG_LEVEL", "warn")
	t.Setenv("SAMPLESET_OUTPUT_DIR", "")

	cfg := Default()
	LoadEnv(cfg, zerolog.Nop())

	assert.Equal(t, "/srv/samples", cfg.Root)
	assert.Equal(t, "./data/interim", cfg.OutputDir)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.AudioCaseInsensitive)
	assert.Equal(t, []string{"pickle", "sqlite"}, cfg.Formats)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvWarnsOnMalformedValues(t *testing.T) {
	t.Setenv("SAMPLESET_WORKERS", "abc")
	t.Setenv("SAMPLESET_LOG_JSON", "maybe")

	var buf bytes.Buffer
	cfg := Default()
	LoadEnv(cfg, zerolog.New(&buf))

	assert.Equal(t, 1, cfg.Workers)
	assert.False(t, cfg.Log.JSON)
	out := buf.String()
	assert.Contains(t, out, `"var":"SAMPLESET_WORKERS"`)
	assert.Contains(t, out, `"value":"abc"`)
	assert.Contains(t, out, `"var":"SAMPLESET_LOG_JSON"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(`output_dir = "/tmp/out"`), 0o644))
	t.Setenv("SAMPLESET_WORKERS", "2")

	cfg, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, 2, cfg.Workers)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"), zerolog.Nop())
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a,,b ,"))
	assert.Nil(t, SplitList(""))
}
