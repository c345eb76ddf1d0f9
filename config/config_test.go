package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendSQL, cfg.Backend)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "students_db", cfg.Database.Name)
	assert.Equal(t, "alumnos.txt", cfg.Files.Text)
	assert.Equal(t, "grupo_%s.xml", cfg.Files.XMLGroupPattern)
	assert.Empty(t, cfg.SeedGroups)
	assert.Equal(t,
		"host=localhost port=5432 user=max password=123456 dbname=students_db sslmode=disable",
		cfg.Database.DSN())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
backend: orm
db:
  host: db.internal
  name: escuela
files:
  text: /tmp/alumnos.txt
seed_groups:
  - DAM1
  - DAW2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("STUDENTS_DB_HOST", "env-host")
	t.Setenv("STUDENTS_SERVER_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendORM, cfg.Backend)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, "escuela", cfg.Database.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/alumnos.txt", cfg.Files.Text)
	assert.Equal(t, []string{"DAM1", "DAW2"}, cfg.SeedGroups)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STUDENTS_BACKEND", "mongo")

	_, err := Load("")
	assert.ErrorContains(t, err, "backend")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Backend: BackendMemory,
		Server:  ServerConfig{Port: 8080},
		Files:   FilesConfig{XMLGroupPattern: "grupo_%s.xml"},
	}
	assert.NoError(t, valid.Validate())

	badPort := valid
	badPort.Server.Port = 70000
	assert.Error(t, badPort.Validate())

	badPattern := valid
	badPattern.Files.XMLGroupPattern = "grupo.xml"
	assert.Error(t, badPattern.Validate())
}
