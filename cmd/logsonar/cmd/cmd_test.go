package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akodali/logsonar/pkg/version"
)

// isolateUserConfig points XDG_CONFIG_HOME at a temp dir so tests never
// touch a developer's real configuration.
func isolateUserConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd_Default(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "logsonar "+version.Version)
	assert.Contains(t, out, "commit:")
}

func TestVersionCmd_Short(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version, strings.TrimSpace(out))
}

func TestVersionCmd_JSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
}

func TestConfigPathCmd(t *testing.T) {
	dir := isolateUserConfig(t)
	out, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "logsonar", "config.yaml"), strings.TrimSpace(out))
}

func TestConfigInitCmd_CreatesFile(t *testing.T) {
	dir := isolateUserConfig(t)
	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	data, err := os.ReadFile(filepath.Join(dir, "logsonar", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "journalctl")
}

func TestConfigInitCmd_RefusesOverwriteWithoutForce(t *testing.T) {
	isolateUserConfig(t)
	_, err := execute(t, "config", "init")
	require.NoError(t, err)

	_, err = execute(t, "config", "init")
	require.Error(t, err)

	_, err = execute(t, "config", "init", "--force")
	require.NoError(t, err)
}

func TestConfigShowCmd_JSON(t *testing.T) {
	isolateUserConfig(t)
	out, err := execute(t, "config", "show", "--json")
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Contains(t, parsed, "source")
	assert.Contains(t, parsed, "embeddings")
}

func TestRootCmd_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "logsonar")
	assert.Contains(t, out, "--offline")
	assert.Contains(t, out, "--file")
}
