package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAddr, EnvProjectsDB, EnvTasksDB, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "taskhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
database:
  tasks_path: /var/lib/taskhub/tasks.db
logging:
  level: debug
  development: true
pagination:
  default_per_page: 20
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "5s", cfg.Server.ShutdownTimeout, "unset keys keep defaults")
	assert.Equal(t, "data/projects.db", cfg.Database.ProjectsPath)
	assert.Equal(t, "/var/lib/taskhub/tasks.db", cfg.Database.TasksPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 20, cfg.Pagination.DefaultPerPage)
	assert.Equal(t, 100, cfg.Pagination.MaxPerPage)
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "taskhub.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = "127.0.0.1:7000"
shutdown_timeout = "10s"

[database]
projects_path = "p.db"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())
	assert.Equal(t, "p.db", cfg.Database.ProjectsPath)
	assert.Equal(t, "data/tasks.db", cfg.Database.TasksPath)
}

func TestLoadMalformed(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("server: [unterminated"), 0o644))
	_, err := Load(yamlPath)
	require.Error(t, err)

	tomlPath := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[server\naddr ="), 0o644))
	_, err = Load(tomlPath)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644))

	t.Setenv(EnvAddr, ":1234")
	t.Setenv(EnvProjectsDB, "/tmp/p.db")
	t.Setenv(EnvTasksDB, "/tmp/t.db")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.Server.Addr)
	assert.Equal(t, "/tmp/p.db", cfg.Database.ProjectsPath)
	assert.Equal(t, "/tmp/t.db", cfg.Database.TasksPath)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "taskhub.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":5555"
	cfg.Pagination.MaxPerPage = 42
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"empty addr":          func(c *Config) { c.Server.Addr = "" },
		"empty projects path": func(c *Config) { c.Database.ProjectsPath = "" },
		"empty tasks path":    func(c *Config) { c.Database.TasksPath = "" },
		"bad level":           func(c *Config) { c.Logging.Level = "loud" },
		"bad timeout":         func(c *Config) { c.Server.ShutdownTimeout = "soon" },
		"zero per page":       func(c *Config) { c.Pagination.DefaultPerPage = 0 },
		"default above max":   func(c *Config) { c.Pagination.DefaultPerPage = 200 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, DefaultConfig().Validate())
}

func TestGetShutdownTimeoutFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.ShutdownTimeout = "nonsense"
	assert.Equal(t, 5*time.Second, cfg.GetShutdownTimeout())
}
