package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	err := ioutil.WriteFile(filepath.Join(dir, ConfigurationName), []byte(contents), 0644)
	require.NoError(t, err)
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeConfig(t, `
listen_addr: ":2200"
aliases:
  ll: "ls -l"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":2200", cfg.ListenAddr)
	assert.Equal(t, map[string]string{"ll": "ls -l"}, cfg.Aliases)
}

func TestLoadAcceptsConfigFilePath(t *testing.T) {
	dir := writeConfig(t, `listen_addr: ":2200"`)

	cfg, err := Load(filepath.Join(dir, ConfigurationName))
	require.NoError(t, err)
	assert.Equal(t, ":2200", cfg.ListenAddr)
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := writeConfig(t, `
listen_addr: ":2200"
shenanigans: true
`)

	_, err := Load(dir)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "shenanigans")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := writeConfig(t, `bandwidth_limit: -3`)

	_, err := Load(dir)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "bandwidth_limit")
	}
}
