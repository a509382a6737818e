package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/diillson/sw-characters-go/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGeneratedConfigLoadsBack(t *testing.T) {
	defaults := config.Default()

	data, err := yaml.Marshal(fromConfig(defaults))
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644))

	loaded, err := config.LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, defaults.Server, loaded.Server)
	assert.Equal(t, defaults.Database, loaded.Database)
	assert.Equal(t, defaults.Startup, loaded.Startup)
	assert.Equal(t, defaults.Cache.TTL, loaded.Cache.TTL)
	assert.Equal(t, defaults.Health, loaded.Health)
	assert.Equal(t, defaults.Tracing, loaded.Tracing)
}
