package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty directory and clears every config env var.
func isolate(t *testing.T) (home string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, key := range EnvVars() {
		t.Setenv(key, "")
	}
	return home
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ".session-saver", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ".claude-sessions.json", cfg.SessionsFile)
	assert.Equal(t, 100, cfg.MaxHistory)
	assert.Equal(t, 5*time.Minute, cfg.StaleAfter())
	assert.False(t, cfg.QuarantineEnabled())
	assert.True(t, cfg.AdvisoryEnabled())
	assert.False(t, cfg.Verbose)
	assert.NoError(t, cfg.Validate())
}

func TestMerge(t *testing.T) {
	dst := Default()
	src := &Config{
		Output:     "json",
		MaxHistory: 20,
	}

	result := merge(dst, src)

	assert.Equal(t, "json", result.Output)
	assert.Equal(t, 20, result.MaxHistory)
	assert.Equal(t, ".claude-sessions.json", result.SessionsFile, "unset fields keep their value")
	assert.True(t, result.AdvisoryEnabled())
}

func TestMerge_BooleanOverride(t *testing.T) {
	dst := Default()
	require.True(t, dst.AdvisoryEnabled())

	result := merge(dst, &Config{Advisory: boolPtr(false), QuarantineCorrupt: boolPtr(true)})

	assert.False(t, result.AdvisoryEnabled())
	assert.True(t, result.QuarantineEnabled())
}

func TestMerge_BooleanNotSet(t *testing.T) {
	dst := Default()
	dst.Advisory = boolPtr(false)

	result := merge(dst, &Config{Output: "yaml"})

	assert.False(t, result.AdvisoryEnabled(), "nil bool must not reset an explicit value")
}

func TestLoad_Precedence(t *testing.T) {
	home := isolate(t)
	project := t.TempDir()

	writeConfig(t, home, "output: json\nmax_history: 50\nstale_lock_after: 10m\n")
	writeConfig(t, project, "max_history: 25\nquarantine_corrupt: true\n")
	t.Setenv(EnvStaleLockAfter, "2m")

	cfg, err := Load(project, &Config{Output: "yaml"})
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.Output, "flag beats home")
	assert.Equal(t, 25, cfg.MaxHistory, "project beats home")
	assert.Equal(t, 2*time.Minute, cfg.StaleAfter(), "env beats home")
	assert.True(t, cfg.QuarantineEnabled())
}

func TestLoad_ConfigEnvOverride(t *testing.T) {
	isolate(t)
	custom := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("sessions_file: sessions.json\n"), 0o600))
	t.Setenv(EnvConfig, custom)

	cfg, err := Load(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, "sessions.json", cfg.SessionsFile)
	assert.Equal(t, custom, ProjectConfigPath("/anything"))
}

func TestLoad_EnvValues(t *testing.T) {
	isolate(t)
	t.Setenv(EnvOutput, "json")
	t.Setenv(EnvVerbose, "1")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvSessionsFile, "s.json")
	t.Setenv(EnvMaxHistory, "7")
	t.Setenv(EnvQuarantineCorrupt, "true")
	t.Setenv(EnvAdvisory, "off")

	cfg, err := Load(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Output)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "s.json", cfg.SessionsFile)
	assert.Equal(t, 7, cfg.MaxHistory)
	assert.True(t, cfg.QuarantineEnabled())
	assert.False(t, cfg.AdvisoryEnabled())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "output: xml\nsessions_file: ../escape.json\nmax_history: -3\nstale_lock_after: soon\n")

	cfg, err := Load(t.TempDir(), nil)
	require.Error(t, err)

	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, ".claude-sessions.json", cfg.SessionsFile)
	assert.Equal(t, 100, cfg.MaxHistory)
	assert.Equal(t, "5m", cfg.StaleLockAfter)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BrokenYAML(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "output: [unterminated\n")

	cfg, err := Load(t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
	assert.Equal(t, "table", cfg.Output, "defaults survive a broken file")
}

func TestLoad_MissingFilesAreFine(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Output, cfg.Output)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad output", mutate: func(c *Config) { c.Output = "csv" }, wantErr: true},
		{name: "path in file name", mutate: func(c *Config) { c.SessionsFile = "a/b.json" }, wantErr: true},
		{name: "dot dot file name", mutate: func(c *Config) { c.SessionsFile = ".." }, wantErr: true},
		{name: "zero history", mutate: func(c *Config) { c.MaxHistory = 0 }, wantErr: true},
		{name: "negative duration", mutate: func(c *Config) { c.StaleLockAfter = "-1m" }, wantErr: true},
		{name: "custom ok", mutate: func(c *Config) { c.StaleLockAfter = "90s"; c.MaxHistory = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestFromFlags(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")

	cfg := FromFlags(&Config{Verbose: true, LogLevel: "debug"})
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "table", cfg.Output)

	cfg = FromFlags(&Config{Output: "xml"})
	assert.Equal(t, "table", cfg.Output, "invalid flag values fall back to defaults")
	assert.Equal(t, "warn", cfg.LogLevel, "environment is not consulted")

	assert.Equal(t, Default(), FromFlags(nil))
}

func TestNormalizeMatchesValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "output", mutate: func(c *Config) { c.Output = "csv" }, field: "output"},
		{name: "sessions file", mutate: func(c *Config) { c.SessionsFile = "a/b.json" }, field: "sessions_file"},
		{name: "max history", mutate: func(c *Config) { c.MaxHistory = -1 }, field: "max_history"},
		{name: "stale lock", mutate: func(c *Config) { c.StaleLockAfter = "never" }, field: "stale_lock_after"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			validateErr := cfg.Validate()
			require.Error(t, validateErr)
			assert.Contains(t, validateErr.Error(), tt.field)

			normalizeErr := cfg.normalize()
			require.Error(t, normalizeErr)
			assert.Equal(t, validateErr.Error(), normalizeErr.Error())

			assert.NoError(t, cfg.Validate(), "normalize must leave a valid config")
			assert.Equal(t, Default(), cfg)
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.normalize())
	assert.Equal(t, Default(), cfg)
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value   string
		want    bool
		wantSet bool
	}{
		{"", false, false},
		{"1", true, true},
		{"TRUE", true, true},
		{"no", false, true},
		{"0", false, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		t.Setenv("SESSION_SAVER_TEST_BOOL", tt.value)
		got, set := getEnvBool("SESSION_SAVER_TEST_BOOL")
		assert.Equal(t, tt.want, got, "value %q", tt.value)
		assert.Equal(t, tt.wantSet, set, "value %q", tt.value)
	}
}

func TestResolve_Sources(t *testing.T) {
	home := isolate(t)
	project := t.TempDir()
	writeConfig(t, home, "output: json\nverbose: true\n")
	writeConfig(t, project, "max_history: 30\nadvisory: false\n")
	t.Setenv(EnvLogLevel, "debug")

	rc := Resolve(project, &Config{SessionsFile: "flag.json"})

	assert.Equal(t, resolved{Value: "json", Source: SourceHome}, rc.Output)
	assert.Equal(t, resolved{Value: true, Source: SourceHome}, rc.Verbose)
	assert.Equal(t, resolved{Value: 30, Source: SourceProject}, rc.MaxHistory)
	assert.Equal(t, resolved{Value: false, Source: SourceProject}, rc.Advisory)
	assert.Equal(t, resolved{Value: "debug", Source: SourceEnv}, rc.LogLevel)
	assert.Equal(t, resolved{Value: "flag.json", Source: SourceFlag}, rc.SessionsFile)
	assert.Equal(t, resolved{Value: "5m", Source: SourceDefault}, rc.StaleLockAfter)
	assert.Equal(t, resolved{Value: false, Source: SourceDefault}, rc.QuarantineCorrupt)
}

func TestConfigFileStatus(t *testing.T) {
	home := isolate(t)
	project := t.TempDir()
	writeConfig(t, project, "output: json\n")

	homePath, projectPath, homeFound, projectFound := ConfigFileStatus(project)
	assert.Equal(t, filepath.Join(home, ".session-saver", "config.yaml"), homePath)
	assert.Equal(t, filepath.Join(project, ".session-saver", "config.yaml"), projectPath)
	assert.False(t, homeFound)
	assert.True(t, projectFound)
}
