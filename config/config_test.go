package config

import (
	"gotest.tools/assert"
	"os"
	"path/filepath"
	"testing"
)

func Test_Defaults(t *testing.T) {
	c, err := Load("")
	assert.NilError(t, err)
	assert.Assert(t, c.Server.Listen == "127.0.0.1:54321")
	assert.Assert(t, c.Training.Seed == -1)
	assert.Assert(t, c.Training.MaxIterations == 50)
}

func Test_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "glm.yaml")
	assert.NilError(t, os.WriteFile(file, []byte("registry:\n  db: /tmp/models.db\ntraining:\n  seed: 7\n"), 0644))
	c, err := Load(file)
	assert.NilError(t, err)
	assert.Assert(t, c.Registry.DB == "/tmp/models.db")
	assert.Assert(t, c.Training.Seed == 7)
}

func Test_Env(t *testing.T) {
	t.Setenv("GLM_SERVER_LISTEN", ":8080")
	t.Setenv("GLM_LOGGER_VERBOSE", "true")
	c, err := Load("")
	assert.NilError(t, err)
	assert.Assert(t, c.Server.Listen == ":8080")
	assert.Assert(t, c.Logger.Verbose)
}

func Test_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}
